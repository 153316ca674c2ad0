package store

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"codegraph/internal/graph"
)

// Loader translates entity batches into idempotent merge-by-key upserts.
// Re-running a load with unchanged input updates properties and never
// duplicates nodes. Relationships re-resolve both endpoints by key at
// load time; rows whose endpoints cannot be resolved are dropped.
type Loader struct {
	driver Driver
	log    *zap.SugaredLogger
}

func NewLoader(driver Driver, log *zap.SugaredLogger) *Loader {
	return &Loader{driver: driver, log: log}
}

// Clear performs the destructive delete-all. A full rebuild is the only
// way stale nodes leave the graph.
func (l *Loader) Clear(ctx context.Context) error {
	return l.driver.RunStatement(ctx, `MATCH (n) DETACH DELETE n`)
}

func (l *Loader) LoadFiles(ctx context.Context, files []graph.File) int {
	const q = `
		MERGE (f:File {path: $path})
		SET f.language = $language, f.lineCount = $lineCount, f.contentHash = $contentHash`
	loaded := 0
	for _, f := range files {
		if l.run(ctx, "file", q, map[string]any{
			"path": f.Path, "language": f.Language,
			"lineCount": f.LineCount, "contentHash": f.ContentHash,
		}) {
			loaded++
		}
	}
	return loaded
}

func (l *Loader) LoadFunctions(ctx context.Context, functions []graph.Function) int {
	const q = `
		MERGE (fn:Function {id: $id})
		SET fn.name = $name, fn.file = $file, fn.startLine = $startLine,
		    fn.endLine = $endLine, fn.isAsync = $isAsync, fn.params = $params,
		    fn.isExported = $isExported
		WITH fn
		MATCH (f:File {path: $file})
		MERGE (f)-[:CONTAINS]->(fn)`
	loaded := 0
	for _, fn := range functions {
		params := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Name
			if p.HasDefault {
				params[i] += "?"
			}
		}
		if l.run(ctx, "function", q, map[string]any{
			"id": fn.ID, "name": fn.Name, "file": fn.File,
			"startLine": fn.StartLine, "endLine": fn.EndLine,
			"isAsync": fn.IsAsync, "params": params, "isExported": fn.IsExported,
		}) {
			loaded++
		}
	}
	return loaded
}

// LoadCalls materializes CALLS edges. Resolution is best-effort: the
// caller must exist by id and the callee by simple name (the last dotted
// segment) anywhere in the graph. Unresolvable calls are dropped.
func (l *Loader) LoadCalls(ctx context.Context, calls []graph.Call) int {
	const q = `
		MATCH (caller:Function {id: $callerId})
		MATCH (callee:Function {name: $calleeName})
		MERGE (caller)-[r:CALLS]->(callee)
		SET r.line = $line, r.file = $file`
	loaded := 0
	for _, c := range calls {
		if c.CallerID == "" {
			continue
		}
		if l.run(ctx, "call", q, map[string]any{
			"callerId": c.CallerID, "calleeName": simpleName(c.Callee),
			"line": c.Line, "file": c.File,
		}) {
			loaded++
		}
	}
	return loaded
}

func (l *Loader) LoadEndpoints(ctx context.Context, endpoints []graph.Endpoint) int {
	const upsert = `
		MERGE (e:Endpoint {id: $id})
		SET e.method = $method, e.path = $path, e.handlerName = $handlerName,
		    e.middleware = $middleware, e.file = $file, e.line = $line
		WITH e
		MATCH (f:File {path: $file})
		MERGE (f)-[:DEFINES]->(e)`
	const route = `
		MATCH (e:Endpoint {id: $id})
		MATCH (fn:Function {name: $handlerName})
		MERGE (e)-[:ROUTES_TO]->(fn)`
	loaded := 0
	for _, e := range endpoints {
		middleware := e.Middleware
		if middleware == nil {
			middleware = []string{}
		}
		if !l.run(ctx, "endpoint", upsert, map[string]any{
			"id": e.ID, "method": e.Method, "path": e.Path,
			"handlerName": e.HandlerName, "middleware": middleware,
			"file": e.File, "line": e.Line,
		}) {
			continue
		}
		loaded++

		// Handler linking is skipped for anonymous/inline handlers.
		if e.HandlerName == "anonymous" || strings.HasPrefix(e.HandlerName, "inline@") {
			continue
		}
		l.run(ctx, "endpoint route", route, map[string]any{
			"id": e.ID, "handlerName": simpleName(e.HandlerName),
		})
	}
	return loaded
}

// LoadImports links files to the files their import specifiers resolve
// to. Bare module specifiers (packages) do not resolve and are dropped.
func (l *Loader) LoadImports(ctx context.Context, imports []graph.Import) int {
	const q = `
		MATCH (f:File {path: $file})
		MATCH (target:File)
		WHERE target.path ENDS WITH $suffix
		MERGE (f)-[r:IMPORTS]->(target)
		SET r.source = $source, r.names = $names, r.line = $line`
	loaded := 0
	for _, imp := range imports {
		suffix := importSuffix(imp.Source)
		if suffix == "" {
			continue
		}
		if l.run(ctx, "import", q, map[string]any{
			"file": imp.File, "suffix": suffix,
			"source": imp.Source, "names": imp.Names, "line": imp.Line,
		}) {
			loaded++
		}
	}
	return loaded
}

func (l *Loader) LoadUIComponents(ctx context.Context, components []graph.UIComponent) int {
	const q = `
		MERGE (u:UIComponent {id: $id})
		SET u.name = $name, u.type = $type, u.htmlId = $htmlId, u.className = $className
		WITH u
		MATCH (f:File {path: $file})
		MERGE (f)-[:CONTAINS]->(u)`
	loaded := 0
	for _, c := range components {
		if l.run(ctx, "ui component", q, map[string]any{
			"id": c.ID, "name": c.Name, "type": c.Type,
			"htmlId": c.HTMLID, "className": c.ClassName, "file": c.File,
		}) {
			loaded++
		}
	}
	return loaded
}

func (l *Loader) LoadSimilarities(ctx context.Context, similarities []graph.Similarity) int {
	const q = `
		MATCH (a:Function {id: $sourceId})
		MATCH (b:Function {id: $targetId})
		MERGE (a)-[r:SIMILAR_TO]-(b)
		SET r.similarity = $similarity, r.type = $type`
	loaded := 0
	for _, s := range similarities {
		if l.run(ctx, "similarity", q, map[string]any{
			"sourceId": s.SourceID, "targetId": s.TargetID,
			"similarity": s.Similarity, "type": s.Type,
		}) {
			loaded++
		}
	}
	return loaded
}

// LoadAPICalls links calling files to the endpoints their URLs resolve
// to, matching by path and, when known, method.
func (l *Loader) LoadAPICalls(ctx context.Context, apiCalls []graph.APICall) int {
	const q = `
		MATCH (f:File {path: $file})
		MATCH (e:Endpoint)
		WHERE e.path = $url AND ($method = '' OR e.method = $method)
		MERGE (f)-[r:CALLS_API]->(e)
		SET r.type = $type, r.line = $line`
	loaded := 0
	for _, a := range apiCalls {
		if a.URL == "" {
			continue
		}
		if l.run(ctx, "api call", q, map[string]any{
			"file": sourceFile(a.File), "url": stripQuery(a.URL),
			"method": a.Method, "type": a.Type, "line": a.Line,
		}) {
			loaded++
		}
	}
	return loaded
}

func (l *Loader) LoadConcepts(ctx context.Context, concepts []graph.Concept) int {
	const upsert = `
		MERGE (c:Concept {name: $name})
		SET c.description = $description, c.category = $category`
	const implement = `
		MATCH (c:Concept {name: $name})
		MATCH (fn:Function {name: $implementer})
		MERGE (fn)-[:IMPLEMENTS]->(c)`
	loaded := 0
	for _, c := range concepts {
		if !l.run(ctx, "concept", upsert, map[string]any{
			"name": c.Name, "description": c.Description, "category": c.Category,
		}) {
			continue
		}
		loaded++
		for _, impl := range c.Implementers {
			l.run(ctx, "concept implementer", implement, map[string]any{
				"name": c.Name, "implementer": simpleName(impl),
			})
		}
	}
	return loaded
}

// LoadAnnotations writes the optional LLM-derived properties onto
// already-loaded Function nodes.
func (l *Loader) LoadAnnotations(ctx context.Context, functions []graph.Function) int {
	const q = `
		MATCH (fn:Function {id: $id})
		SET fn.purpose = $purpose, fn.businessDomain = $businessDomain,
		    fn.complexity = $complexity, fn.sideEffects = $sideEffects,
		    fn.description = $purpose`
	loaded := 0
	for _, fn := range functions {
		if fn.Purpose == "" && fn.BusinessDomain == "" {
			continue
		}
		if l.run(ctx, "annotation", q, map[string]any{
			"id": fn.ID, "purpose": fn.Purpose, "businessDomain": fn.BusinessDomain,
			"complexity": fn.Complexity, "sideEffects": fn.SideEffects,
		}) {
			loaded++
		}
	}
	return loaded
}

// run executes one upsert, downgrading failures to warnings so a bad row
// never aborts the batch.
func (l *Loader) run(ctx context.Context, entity, query string, params map[string]any) bool {
	if _, err := l.driver.RunQuery(ctx, query, params); err != nil {
		l.log.Warnw("load failed", "entity", entity, "error", err)
		return false
	}
	return true
}

// simpleName reduces a possibly dotted callee expression to its last
// segment, the only part name-based resolution can use.
func simpleName(callee string) string {
	if idx := strings.LastIndex(callee, "."); idx >= 0 {
		return callee[idx+1:]
	}
	return callee
}

// sourceFile strips the synthetic ":script:N" suffix so embedded-script
// call sites attribute to their containing markup file.
func sourceFile(path string) string {
	if idx := strings.Index(path, ":script:"); idx >= 0 {
		return path[:idx]
	}
	return path
}

func stripQuery(url string) string {
	if idx := strings.IndexByte(url, '?'); idx >= 0 {
		return url[:idx]
	}
	return url
}

// importSuffix turns a relative import specifier into a path suffix for
// best-effort file resolution. Bare package names return empty.
func importSuffix(source string) string {
	if !strings.HasPrefix(source, ".") {
		return ""
	}
	trimmed := strings.TrimLeft(source, "./")
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, ".") {
		trimmed += ".js"
	}
	return trimmed
}
