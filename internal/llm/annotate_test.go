package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
)

type stubProvider struct {
	responses map[string]string
	fallback  string
	err       error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(ctx context.Context, req *Request) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	for needle, resp := range p.responses {
		if strings.Contains(req.Prompt, needle) {
			return resp, nil
		}
	}
	return p.fallback, nil
}

func TestExtractConcepts(t *testing.T) {
	provider := &stubProvider{fallback: `Here you go:
[{"name": "User Management", "description": "CRUD for users", "category": "domain", "implementers": ["createUser"]}]`}

	concepts, err := ExtractConcepts(context.Background(), provider,
		[]graph.Function{{Name: "createUser", File: "users.js"}},
		[]graph.Endpoint{{Method: "POST", Path: "/users", HandlerName: "createUser"}})
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, "User Management", concepts[0].Name)
	assert.Equal(t, []string{"createUser"}, concepts[0].Implementers)
}

func TestExtractConceptsProviderError(t *testing.T) {
	provider := &stubProvider{err: errors.New("rate limited")}
	_, err := ExtractConcepts(context.Background(), provider, nil, nil)
	require.Error(t, err)
}

func TestAnnotateFunctionsSkipsFailures(t *testing.T) {
	provider := &stubProvider{
		responses: map[string]string{
			"goodFn": `{"purpose": "saves a user", "businessDomain": "users", "complexity": "low", "sideEffects": "writes db"}`,
			"badFn":  "not json at all",
		},
	}
	functions := []graph.Function{
		{ID: "1", Name: "goodFn", File: "a.js"},
		{ID: "2", Name: "badFn", File: "b.js"},
		{ID: "3", Name: "noCode", File: "c.js"},
	}
	blocks := []graph.CodeBlock{
		{ID: "1", Code: "function goodFn() {}"},
		{ID: "2", Code: "function badFn() {}"},
	}

	annotated := AnnotateFunctions(context.Background(), provider, functions, blocks)
	require.Len(t, annotated, 1)
	assert.Equal(t, "goodFn", annotated[0].Name)
	assert.Equal(t, "saves a user", annotated[0].Purpose)
	assert.Equal(t, "low", annotated[0].Complexity)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced", "Sure!\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
		{"bare array", `The concepts are [{"name": "x"}] as requested.`, `[{"name": "x"}]`},
		{"bare object", `Result: {"purpose": "y"}`, `{"purpose": "y"}`},
		{"plain json", `{"a": 1}`, `{"a": 1}`},
		{"no json", "no structured data here", "no structured data here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register("stub", func(cfg Config) (Provider, error) {
		return &stubProvider{}, nil
	})

	provider, err := reg.Get("stub", Config{})
	require.NoError(t, err)
	assert.Equal(t, "stub", provider.Name())

	_, err = reg.Get("missing", Config{})
	require.Error(t, err)

	assert.Contains(t, DefaultRegistry.Names(), "anthropic")
	assert.Contains(t, DefaultRegistry.Names(), "openai")
}
