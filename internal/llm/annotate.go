package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"codegraph/internal/graph"
)

const conceptSystemPrompt = `You analyze codebases. Given a list of functions and HTTP endpoints,
identify the business-domain concepts the code implements. Respond with only a JSON array:
[{"name": "...", "description": "...", "category": "...", "implementers": ["functionName", ...]}]`

const annotateSystemPrompt = `You document code. Given one function, respond with only a JSON object:
{"purpose": "...", "businessDomain": "...", "complexity": "low|medium|high", "sideEffects": "..."}`

// The annotation stage truncates function bodies to keep prompts small.
const maxAnnotationCode = 2000

// ExtractConcepts asks the model for business-domain concepts covering
// the extracted functions and endpoints.
func ExtractConcepts(ctx context.Context, provider Provider, functions []graph.Function, endpoints []graph.Endpoint) ([]graph.Concept, error) {
	var b strings.Builder
	b.WriteString("Functions:\n")
	for _, fn := range functions {
		fmt.Fprintf(&b, "- %s (%s)\n", fn.Name, fn.File)
	}
	b.WriteString("\nEndpoints:\n")
	for _, e := range endpoints {
		fmt.Fprintf(&b, "- %s %s -> %s\n", e.Method, e.Path, e.HandlerName)
	}

	text, err := provider.Complete(ctx, &Request{
		System:    conceptSystemPrompt,
		Prompt:    b.String(),
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("concept extraction: %w", err)
	}

	var concepts []graph.Concept
	if err := json.Unmarshal([]byte(extractJSON(text)), &concepts); err != nil {
		return nil, fmt.Errorf("concept extraction: parse response: %w", err)
	}
	return concepts, nil
}

// AnnotateFunctions asks the model to describe each function. A failure
// on one function loses only that function's annotation.
func AnnotateFunctions(ctx context.Context, provider Provider, functions []graph.Function, blocks []graph.CodeBlock) []graph.Function {
	codeByID := make(map[string]string, len(blocks))
	for _, b := range blocks {
		codeByID[b.ID] = b.Code
	}

	annotated := make([]graph.Function, 0, len(functions))
	for _, fn := range functions {
		code := codeByID[fn.ID]
		if code == "" {
			continue
		}
		if len(code) > maxAnnotationCode {
			code = code[:maxAnnotationCode]
		}

		text, err := provider.Complete(ctx, &Request{
			System:    annotateSystemPrompt,
			Prompt:    fmt.Sprintf("Function %s in %s:\n\n%s", fn.Name, fn.File, code),
			MaxTokens: 512,
		})
		if err != nil {
			continue
		}

		var ann struct {
			Purpose        string `json:"purpose"`
			BusinessDomain string `json:"businessDomain"`
			Complexity     string `json:"complexity"`
			SideEffects    string `json:"sideEffects"`
		}
		if err := json.Unmarshal([]byte(extractJSON(text)), &ann); err != nil {
			continue
		}
		fn.Purpose = ann.Purpose
		fn.BusinessDomain = ann.BusinessDomain
		fn.Complexity = ann.Complexity
		fn.SideEffects = ann.SideEffects
		annotated = append(annotated, fn)
	}
	return annotated
}

// extractJSON pulls the JSON payload out of a model response that may
// wrap it in prose or a fenced block.
func extractJSON(text string) string {
	if idx := strings.Index(text, "```json"); idx >= 0 {
		rest := text[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end >= 0 {
			return strings.TrimSpace(rest[:end])
		}
	}

	for _, open := range []byte{'[', '{'} {
		start := strings.IndexByte(text, open)
		if start < 0 {
			continue
		}
		var close byte = ']'
		if open == '{' {
			close = '}'
		}
		end := strings.LastIndexByte(text, close)
		if end > start {
			return text[start : end+1]
		}
	}
	return text
}
