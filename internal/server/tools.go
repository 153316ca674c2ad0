package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codegraph/internal/pipeline"
	"codegraph/internal/query"
)

// Arguments structs

type RebuildArgs struct {
	DryRun  bool `json:"dry_run" jsonschema:"description:Parse and analyze without writing to the graph store"`
	SkipLLM bool `json:"skip_llm" jsonschema:"description:Skip concept extraction and function annotation"`
}

type OverviewArgs struct{}

type FindFunctionArgs struct {
	Name string `json:"name" jsonschema:"required,description:Substring of the function name to search for"`
}

type FindCallersArgs struct {
	Name string `json:"name" jsonschema:"required,description:Exact name of the called function"`
}

type FindImpactArgs struct {
	Name string `json:"name" jsonschema:"required,description:Name of the function to analyze for downstream impact"`
}

type ListEndpointsArgs struct{}

type SimilarCodeArgs struct {
	MinSimilarity float64 `json:"min_similarity" jsonschema:"description:Lowest similarity score to include, between 0 and 1; defaults to 0.7"`
}

type CypherArgs struct {
	Query string `json:"query" jsonschema:"required,description:A read-only Cypher query to run against the graph"`
}

type AskArgs struct {
	Question string `json:"question" jsonschema:"required,description:A natural-language question about the codebase"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "rebuild_graph",
		Description: "Scans the codebase and rebuilds the knowledge graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args RebuildArgs) (*mcp.CallToolResult, any, error) {
		summary, err := s.pipe.Ingest(ctx, pipeline.Options{
			Root:    s.root,
			DryRun:  args.DryRun,
			SkipLLM: args.SkipLLM,
		})
		if err != nil {
			return errorResult(fmt.Sprintf("Rebuild failed: %v", err)), nil, nil
		}
		msg := fmt.Sprintf("Loaded %d files, %d functions, %d calls, %d endpoints, %d UI components, %d similarity edges",
			summary.Files, summary.Functions, summary.Calls,
			summary.Endpoints, summary.UIComponents, summary.Similarities)
		if args.DryRun {
			msg = "Dry run: " + msg
		}
		return textResult(msg), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "graph_overview",
		Description: "Returns node counts per label for the loaded graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args OverviewArgs) (*mcp.CallToolResult, any, error) {
		text, params := query.Overview()
		return s.runTemplate(ctx, text, params)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_function",
		Description: "Finds functions whose name contains the given substring",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindFunctionArgs) (*mcp.CallToolResult, any, error) {
		text, params := query.FindFunction(args.Name)
		return s.runTemplate(ctx, text, params)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_callers",
		Description: "Lists the functions that call the named function",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindCallersArgs) (*mcp.CallToolResult, any, error) {
		text, params := query.FindCallers(args.Name)
		return s.runTemplate(ctx, text, params)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_impact",
		Description: "Finds functions and endpoints that transitively depend on the named function",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindImpactArgs) (*mcp.CallToolResult, any, error) {
		text, params := query.ImpactAnalysis(args.Name)
		return s.runTemplate(ctx, text, params)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_endpoints",
		Description: "Lists every HTTP endpoint with its handler",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListEndpointsArgs) (*mcp.CallToolResult, any, error) {
		text, params := query.AllEndpoints()
		return s.runTemplate(ctx, text, params)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "similar_code",
		Description: "Lists pairs of similar or duplicated code blocks",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SimilarCodeArgs) (*mcp.CallToolResult, any, error) {
		floor := args.MinSimilarity
		if floor == 0 {
			floor = 0.7
		}
		text, params := query.SimilarCode(floor)
		return s.runTemplate(ctx, text, params)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "cypher",
		Description: "Runs a read-only Cypher query against the code graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args CypherArgs) (*mcp.CallToolResult, any, error) {
		return s.runTemplate(ctx, args.Query, nil)
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ask",
		Description: "Answers a natural-language question about the codebase using the graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args AskArgs) (*mcp.CallToolResult, any, error) {
		answer, err := s.engine.Ask(ctx, args.Question)
		if err != nil {
			return errorResult(fmt.Sprintf("Ask failed: %v", err)), nil, nil
		}
		return textResult(answer.Text), nil, nil
	})
}

func (s *Server) runTemplate(ctx context.Context, text string, params map[string]any) (*mcp.CallToolResult, any, error) {
	records, err := s.engine.Run(ctx, text, params)
	if err != nil {
		return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
	}
	if len(records) == 0 {
		return textResult("No results."), nil, nil
	}
	jsonBytes, _ := json.MarshalIndent(records, "", "  ")
	return textResult(string(jsonBytes)), nil, nil
}
