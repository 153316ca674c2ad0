package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"codegraph/internal/llm"
	"codegraph/internal/store"
)

const nlSystemPrompt = `You answer questions about a code knowledge graph stored in Neo4j.

Schema:
  (File {path, language, lineCount, contentHash})
  (Function {id, name, file, startLine, endLine, isAsync, params, isExported, purpose, businessDomain})
  (Endpoint {id, method, path, handlerName, middleware, file, line})
  (UIComponent {id, name, type, htmlId, className})
  (Concept {name, description, category})
  (File)-[:CONTAINS]->(Function|UIComponent)
  (File)-[:DEFINES]->(Endpoint)
  (File)-[:IMPORTS]->(File)
  (File)-[:CALLS_API]->(Endpoint)
  (Function)-[:CALLS {line, file}]->(Function)
  (Endpoint)-[:ROUTES_TO]->(Function)
  (Function)-[:IMPLEMENTS]->(Concept)
  (Function)-[:SIMILAR_TO {similarity, type}]-(Function)

If the provided context already answers the question, answer directly.
Otherwise emit exactly one Cypher query in a fenced block:

` + "```cypher\nMATCH ...\n```" + `

Emit nothing but the query inside the fence.`

const nlInterpretPrompt = `You answer questions about a codebase using graph query results.
Cite files and line numbers from the results where possible. If the results are empty, say so.`

// Answer is the outcome of one natural-language question.
type Answer struct {
	Text       string         `json:"text"`
	Query      string         `json:"query,omitempty"`
	Records    []store.Record `json:"records,omitempty"`
	QueryError string         `json:"query_error,omitempty"`
}

// Engine runs template and natural-language queries against the store.
type Engine struct {
	driver   store.Driver
	provider llm.Provider
	log      *zap.SugaredLogger
}

func NewEngine(driver store.Driver, provider llm.Provider, log *zap.SugaredLogger) *Engine {
	return &Engine{driver: driver, provider: provider, log: log}
}

// Run executes one query. Failures are surfaced to the caller, never
// retried.
func (e *Engine) Run(ctx context.Context, cypher string, params map[string]any) ([]store.Record, error) {
	return e.driver.RunQuery(ctx, cypher, params)
}

// Snapshot is the context handed to the model on the first turn. Any
// slice may be empty when its sub-query failed.
type Snapshot struct {
	Overview  []store.Record `json:"overview"`
	Endpoints []store.Record `json:"endpoints"`
	Concepts  []store.Record `json:"concepts"`
	Similar   []store.Record `json:"similar_code"`
	UIToAPI   []store.Record `json:"ui_to_api"`
}

// BuildSnapshot gathers the context sub-queries, degrading each failed
// slice to empty instead of aborting.
func (e *Engine) BuildSnapshot(ctx context.Context) *Snapshot {
	snap := &Snapshot{}
	snap.Overview = e.contextSlice(ctx, "overview", Overview)
	snap.Endpoints = e.contextSlice(ctx, "endpoints", AllEndpoints)
	snap.Concepts = e.contextSlice(ctx, "concepts", ConceptsWithImplementers)
	snap.Similar = e.contextSlice(ctx, "similar code", func() (string, map[string]any) {
		return SimilarCode(0.8)
	})
	snap.UIToAPI = e.contextSlice(ctx, "ui-to-api", UIToAPI)
	return snap
}

func (e *Engine) contextSlice(ctx context.Context, name string, template func() (string, map[string]any)) []store.Record {
	cypher, params := template()
	records, err := e.driver.RunQuery(ctx, cypher, params)
	if err != nil {
		e.log.Warnw("context query failed", "slice", name, "error", err)
		return nil
	}
	return records
}

// Ask runs the two-turn natural-language protocol: context snapshot,
// answer-or-query, optional execution, interpretation.
func (e *Engine) Ask(ctx context.Context, question string) (*Answer, error) {
	if e.provider == nil {
		return nil, fmt.Errorf("no llm provider configured")
	}

	snapshot := e.BuildSnapshot(ctx)
	snapshotJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize snapshot: %w", err)
	}

	first, err := e.provider.Complete(ctx, &llm.Request{
		System:    nlSystemPrompt,
		Prompt:    fmt.Sprintf("Context:\n%s\n\nQuestion: %s", snapshotJSON, question),
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("first turn: %w", err)
	}

	cypher := extractCypherBlock(first)
	if cypher == "" {
		// No query requested: the first-turn text is the answer.
		return &Answer{Text: first}, nil
	}

	records, err := e.driver.RunQuery(ctx, cypher, nil)
	if err != nil {
		// Keep the first-turn answer, annotated with the failure.
		return &Answer{
			Text:       fmt.Sprintf("%s\n\n(query failed: %v)", strings.TrimSpace(stripCypherBlock(first)), err),
			Query:      cypher,
			QueryError: err.Error(),
		}, nil
	}

	results, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize results: %w", err)
	}

	second, err := e.provider.Complete(ctx, &llm.Request{
		System: nlInterpretPrompt,
		Prompt: fmt.Sprintf("Question: %s\n\nQuery:\n%s\n\nResults:\n%s",
			question, cypher, results),
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("second turn: %w", err)
	}

	return &Answer{Text: second, Query: cypher, Records: records}, nil
}

// extractCypherBlock returns the contents of the first fenced cypher
// block, or empty when the response has none.
func extractCypherBlock(text string) string {
	for _, fence := range []string{"```cypher", "```"} {
		idx := strings.Index(text, fence)
		if idx < 0 {
			continue
		}
		rest := text[idx+len(fence):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		block := strings.TrimSpace(rest[:end])
		if fence == "```" && !looksLikeCypher(block) {
			continue
		}
		if block != "" {
			return block
		}
	}
	return ""
}

func stripCypherBlock(text string) string {
	idx := strings.Index(text, "```")
	if idx < 0 {
		return text
	}
	rest := text[idx:]
	end := strings.Index(rest[3:], "```")
	if end < 0 {
		return text[:idx]
	}
	return text[:idx] + rest[3+end+3:]
}

func looksLikeCypher(block string) bool {
	upper := strings.ToUpper(block)
	return strings.HasPrefix(upper, "MATCH") || strings.HasPrefix(upper, "CALL") ||
		strings.HasPrefix(upper, "OPTIONAL MATCH") || strings.HasPrefix(upper, "WITH")
}
