// Package pipeline drives the scan: discover sources, parse them,
// detect similar code, optionally enrich with a language model, and
// load the result into the graph store.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/internal/llm"
	"codegraph/internal/parser"
	"codegraph/internal/similarity"
	"codegraph/internal/store"
	"codegraph/util"
)

// Options control one Ingest run.
type Options struct {
	Root           string
	DryRun         bool
	SkipLLM        bool
	SkipAnnotation bool
}

// Extraction aggregates every entity parsed across the codebase.
type Extraction struct {
	Files        []graph.File
	Functions    []graph.Function
	Calls        []graph.Call
	Endpoints    []graph.Endpoint
	Imports      []graph.Import
	Exports      []graph.Export
	Variables    []graph.Variable
	UIComponents []graph.UIComponent
	APICalls     []graph.APICall
	Forms        []graph.Form
	CodeBlocks   []graph.CodeBlock
}

// Summary reports what a run produced, whether or not it was loaded.
type Summary struct {
	Files         int
	Functions     int
	Calls         int
	Endpoints     int
	UIComponents  int
	APICalls      int
	Similarities  int
	Patterns      int
	Opportunities int
	Concepts      int
	Annotated     int
}

// Pipeline wires discovery, parsing, similarity analysis and loading.
type Pipeline struct {
	cfg      *config.Config
	driver   store.Driver
	provider llm.Provider
	log      *zap.SugaredLogger
}

// New returns a pipeline. Provider may be nil, which disables the
// concept and annotation stages.
func New(cfg *config.Config, driver store.Driver, provider llm.Provider, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{cfg: cfg, driver: driver, provider: provider, log: log}
}

// Ingest rebuilds the graph from scratch for the codebase at opts.Root.
// Parse failures on individual files are logged and skipped; a run only
// fails on discovery or store-connection errors.
func (p *Pipeline) Ingest(ctx context.Context, opts Options) (*Summary, error) {
	paths, err := Discover(opts.Root, &p.cfg.Scan)
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}
	p.log.Infow("discovered sources", "root", opts.Root, "files", len(paths))

	ext := p.parseAll(opts.Root, paths)

	report := similarity.Analyze(ext.CodeBlocks, ext.Functions)
	p.log.Infow("similarity analysis",
		"similarities", len(report.Similarities),
		"patterns", len(report.Patterns),
		"opportunities", len(report.Opportunities))

	var concepts []graph.Concept
	var annotated []graph.Function
	if p.provider != nil && !opts.SkipLLM {
		concepts, err = llm.ExtractConcepts(ctx, p.provider, ext.Functions, ext.Endpoints)
		if err != nil {
			p.log.Warnw("concept extraction failed", "error", err)
			concepts = nil
		}
		if !opts.SkipAnnotation {
			annotated = llm.AnnotateFunctions(ctx, p.provider, ext.Functions, ext.CodeBlocks)
		}
	}

	summary := &Summary{
		Files:         len(ext.Files),
		Functions:     len(ext.Functions),
		Calls:         len(ext.Calls),
		Endpoints:     len(ext.Endpoints),
		UIComponents:  len(ext.UIComponents),
		APICalls:      len(ext.APICalls),
		Similarities:  len(report.Similarities),
		Patterns:      len(report.Patterns),
		Opportunities: len(report.Opportunities),
		Concepts:      len(concepts),
		Annotated:     len(annotated),
	}

	if opts.DryRun {
		p.log.Infow("dry run, skipping load",
			"files", summary.Files,
			"functions", summary.Functions,
			"endpoints", summary.Endpoints,
			"similarities", summary.Similarities)
		return summary, nil
	}

	if err := p.driver.Connect(ctx, p.cfg.Neo4j.URI, p.cfg.Neo4j.User, p.cfg.Neo4j.Password); err != nil {
		return nil, err
	}
	defer p.driver.Close(ctx)

	if err := p.load(ctx, ext, report.Similarities, concepts, annotated); err != nil {
		return nil, err
	}
	return summary, nil
}

func (p *Pipeline) parseAll(root string, paths []string) *Extraction {
	ext := &Extraction{}
	for _, rel := range paths {
		content, err := os.ReadFile(filepath.Join(root, rel))
		if err != nil {
			p.log.Warnw("read failed", "file", rel, "error", err)
			continue
		}
		result, err := parser.ParseFile(content, rel)
		if err != nil {
			p.log.Warnw("parse failed", "file", rel, "error", err)
			continue
		}

		ext.Files = append(ext.Files, graph.File{
			Path:        rel,
			Language:    result.Dialect.String(),
			LineCount:   strings.Count(string(content), "\n") + 1,
			ContentHash: util.ContentHash(string(content)),
		})
		ext.merge(result)
	}
	p.log.Infow("parsed sources",
		"files", len(ext.Files),
		"functions", len(ext.Functions),
		"calls", len(ext.Calls),
		"endpoints", len(ext.Endpoints))
	return ext
}

func (e *Extraction) merge(result *parser.Result) {
	if src := result.Source; src != nil {
		e.Functions = append(e.Functions, src.Functions...)
		e.Calls = append(e.Calls, src.Calls...)
		e.Endpoints = append(e.Endpoints, src.Endpoints...)
		e.Imports = append(e.Imports, src.Imports...)
		e.Exports = append(e.Exports, src.Exports...)
		e.Variables = append(e.Variables, src.Variables...)
		e.APICalls = append(e.APICalls, src.APICalls...)
		e.CodeBlocks = append(e.CodeBlocks, src.CodeBlocks...)
	}
	if m := result.Markup; m != nil {
		e.UIComponents = append(e.UIComponents, m.UIComponents...)
		e.APICalls = append(e.APICalls, m.APICalls...)
		e.Forms = append(e.Forms, m.Forms...)
		e.Functions = append(e.Functions, m.Functions...)
		e.Calls = append(e.Calls, m.Calls...)
		e.Endpoints = append(e.Endpoints, m.Endpoints...)
		e.Imports = append(e.Imports, m.Imports...)
		e.Exports = append(e.Exports, m.Exports...)
		e.Variables = append(e.Variables, m.Variables...)
		e.CodeBlocks = append(e.CodeBlocks, m.CodeBlocks...)
	}
}

func (p *Pipeline) load(ctx context.Context, ext *Extraction, similarities []graph.Similarity, concepts []graph.Concept, annotated []graph.Function) error {
	loader := store.NewLoader(p.driver, p.log)

	if err := loader.Clear(ctx); err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	store.ApplySchema(ctx, p.driver, p.log)

	p.log.Infow("loaded files", "count", loader.LoadFiles(ctx, ext.Files))
	p.log.Infow("loaded functions", "count", loader.LoadFunctions(ctx, ext.Functions))
	p.log.Infow("loaded calls", "count", loader.LoadCalls(ctx, ext.Calls))
	p.log.Infow("loaded endpoints", "count", loader.LoadEndpoints(ctx, ext.Endpoints))
	p.log.Infow("loaded imports", "count", loader.LoadImports(ctx, ext.Imports))
	p.log.Infow("loaded ui components", "count", loader.LoadUIComponents(ctx, ext.UIComponents))
	p.log.Infow("loaded similarities", "count", loader.LoadSimilarities(ctx, similarities))
	p.log.Infow("loaded api calls", "count", loader.LoadAPICalls(ctx, ext.APICalls))
	if len(concepts) > 0 {
		p.log.Infow("loaded concepts", "count", loader.LoadConcepts(ctx, concepts))
	}
	if len(annotated) > 0 {
		p.log.Infow("annotated functions", "count", loader.LoadAnnotations(ctx, annotated))
	}
	return nil
}
