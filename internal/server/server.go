// Package server exposes the code graph over MCP.
package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"codegraph/internal/config"
	"codegraph/internal/llm"
	"codegraph/internal/pipeline"
	"codegraph/internal/query"
	"codegraph/internal/store"
)

const serverVersion = "0.1.0"

const systemPrompt = `# CodeGraph MCP Server

This server answers questions about a codebase through its knowledge
graph: files, functions, call edges, HTTP endpoints, UI components,
duplicate code and business concepts.

Start with graph_overview to see what is loaded. Use rebuild_graph
after the codebase changes. find_function, find_callers and
find_impact navigate the call graph; list_endpoints and similar_code
cover the API surface and duplication. cypher runs a raw read query
when no tool fits, and ask answers in natural language when a model
provider is configured.`

// Server wires the scan pipeline and the query engine to MCP tools.
type Server struct {
	cfg       *config.Config
	root      string
	driver    store.Driver
	engine    *query.Engine
	pipe      *pipeline.Pipeline
	log       *zap.SugaredLogger
	mcpServer *mcp.Server
}

// New builds the server. Provider may be nil; the ask tool then
// reports that no model is configured.
func New(cfg *config.Config, root string, driver store.Driver, provider llm.Provider, log *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:    cfg,
		root:   root,
		driver: driver,
		engine: query.NewEngine(driver, provider, log),
		pipe:   pipeline.New(cfg, driver, provider, log),
		log:    log,
	}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "codegraph",
		Version: serverVersion,
	}, nil)
	s.registerTools()
	s.registerResources()
	return s
}

// Run connects to the store and serves MCP over stdio until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	if err := s.driver.Connect(ctx, s.cfg.Neo4j.URI, s.cfg.Neo4j.User, s.cfg.Neo4j.Password); err != nil {
		return err
	}
	defer s.driver.Close(ctx)

	s.log.Infow("mcp server listening", "transport", "stdio", "root", s.root)
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
