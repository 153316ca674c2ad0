package parser

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"codegraph/internal/graph"
	"codegraph/util"
)

// SourceResult holds every entity extracted from one program-source file.
type SourceResult struct {
	Functions  []graph.Function
	Calls      []graph.Call
	Imports    []graph.Import
	Exports    []graph.Export
	Variables  []graph.Variable
	Endpoints  []graph.Endpoint
	APICalls   []graph.APICall
	CodeBlocks []graph.CodeBlock
}

// Route registration receivers and verbs recognized as Express-style
// endpoint definitions.
var expressReceivers = map[string]bool{
	"app":    true,
	"router": true,
	"server": true,
	"api":    true,
}

var httpVerbs = map[string]string{
	"get":     "GET",
	"post":    "POST",
	"put":     "PUT",
	"delete":  "DELETE",
	"patch":   "PATCH",
	"options": "OPTIONS",
	"head":    "HEAD",
	"all":     "ALL",
}

// NormalizeCode collapses whitespace runs to single spaces, which is the
// canonical form the similarity engine compares.
func NormalizeCode(code string) string {
	return strings.Join(strings.Fields(code), " ")
}

// ParseSource extracts functions, calls, imports, exports, variables,
// endpoints, API-call sites and code blocks from JavaScript source.
func ParseSource(content []byte, filePath string) (*SourceResult, error) {
	return parseSourceDialect(content, filePath, DialectJavaScript)
}

func parseSourceDialect(content []byte, filePath string, dialect Dialect) (*SourceResult, error) {
	var lang *sitter.Language
	switch {
	case dialect == DialectTypeScript && strings.HasSuffix(filePath, ".tsx"):
		lang = sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	case dialect == DialectTypeScript:
		lang = sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	default:
		lang = sitter.NewLanguage(tree_sitter_javascript.Language())
	}

	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("set language for %s: %w", filePath, err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed for %s", filePath)
	}
	defer tree.Close()

	ex := &extractor{content: content, filePath: filePath, result: &SourceResult{}}
	ex.walk(tree.RootNode(), "")
	return ex.result, nil
}

// extractor walks the AST once, tracking the enclosing function id so that
// call facts carry their caller.
type extractor struct {
	content  []byte
	filePath string
	result   *SourceResult
}

func (ex *extractor) walk(n *sitter.Node, callerID string) {
	nextCaller := callerID

	switch n.Kind() {
	case "function_declaration", "generator_function_declaration":
		if fn := ex.recordFunction(n, ex.nodeFieldText(n, "name")); fn != nil {
			nextCaller = fn.ID
		}
	case "method_definition":
		if fn := ex.recordFunction(n, ex.nodeFieldText(n, "name")); fn != nil {
			nextCaller = fn.ID
		}
	case "arrow_function", "function_expression":
		name := ex.bindingName(n)
		if fn := ex.recordFunction(n, name); fn != nil {
			nextCaller = fn.ID
		}
	case "lexical_declaration", "variable_declaration":
		ex.recordVariables(n)
	case "import_statement":
		ex.recordImport(n)
	case "export_statement":
		ex.recordExports(n)
	case "assignment_expression":
		ex.recordCommonJSExport(n)
	case "call_expression":
		ex.recordCall(n, callerID)
	case "new_expression":
		ex.recordConstruction(n, callerID)
	}

	for i := uint(0); i < n.ChildCount(); i++ {
		ex.walk(n.Child(i), nextCaller)
	}
}

func (ex *extractor) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Utf8Text(ex.content)
}

func (ex *extractor) nodeFieldText(n *sitter.Node, field string) string {
	return ex.text(n.ChildByFieldName(field))
}

func (ex *extractor) line(n *sitter.Node) int {
	return int(n.StartPosition().Row) + 1
}

// bindingName resolves the name a function literal is bound to: a named
// function expression, a variable declarator, an object property, or a
// class-field assignment. Anonymous literals get an inline marker so the
// id stays unique.
func (ex *extractor) bindingName(n *sitter.Node) string {
	if name := ex.nodeFieldText(n, "name"); name != "" {
		return name
	}

	parent := n.Parent()
	if parent == nil {
		return fmt.Sprintf("inline@%d", ex.line(n))
	}

	switch parent.Kind() {
	case "variable_declarator":
		return ex.nodeFieldText(parent, "name")
	case "pair":
		return ex.nodeFieldText(parent, "key")
	case "assignment_expression":
		left := ex.nodeFieldText(parent, "left")
		if idx := strings.LastIndex(left, "."); idx >= 0 {
			return left[idx+1:]
		}
		return left
	}
	return fmt.Sprintf("inline@%d", ex.line(n))
}

func (ex *extractor) recordFunction(n *sitter.Node, name string) *graph.Function {
	if name == "" {
		name = fmt.Sprintf("inline@%d", ex.line(n))
	}

	startLine := ex.line(n)
	fn := graph.Function{
		ID:         util.FunctionID(ex.filePath, name, startLine),
		Name:       name,
		File:       ex.filePath,
		StartLine:  startLine,
		EndLine:    int(n.EndPosition().Row) + 1,
		IsAsync:    ex.isAsync(n),
		Params:     ex.parameters(n),
		IsExported: ex.isExported(n),
	}
	ex.result.Functions = append(ex.result.Functions, fn)

	code := NormalizeCode(ex.text(n))
	ex.result.CodeBlocks = append(ex.result.CodeBlocks, graph.CodeBlock{
		ID:        fn.ID,
		File:      ex.filePath,
		Name:      name,
		Code:      code,
		LineCount: fn.EndLine - fn.StartLine + 1,
	})
	return &ex.result.Functions[len(ex.result.Functions)-1]
}

func (ex *extractor) isAsync(n *sitter.Node) bool {
	for i := uint(0); i < n.ChildCount(); i++ {
		if n.Child(i).Kind() == "async" {
			return true
		}
	}
	return false
}

func (ex *extractor) isExported(n *sitter.Node) bool {
	for p, depth := n.Parent(), 0; p != nil && depth < 3; p, depth = p.Parent(), depth+1 {
		if p.Kind() == "export_statement" {
			return true
		}
	}
	return false
}

func (ex *extractor) parameters(n *sitter.Node) []graph.Parameter {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		// Single-identifier arrow functions carry a "parameter" field.
		if single := n.ChildByFieldName("parameter"); single != nil {
			return []graph.Parameter{{Name: ex.text(single)}}
		}
		return nil
	}

	var out []graph.Parameter
	for i := uint(0); i < params.NamedChildCount(); i++ {
		child := params.NamedChild(i)
		switch child.Kind() {
		case "identifier":
			out = append(out, graph.Parameter{Name: ex.text(child)})
		case "assignment_pattern":
			out = append(out, graph.Parameter{
				Name:       ex.nodeFieldText(child, "left"),
				HasDefault: true,
			})
		case "rest_pattern":
			out = append(out, graph.Parameter{Name: ex.text(child)})
		case "object_pattern", "array_pattern":
			out = append(out, graph.Parameter{Name: NormalizeCode(ex.text(child))})
		case "required_parameter", "optional_parameter":
			// TypeScript parameter wrappers.
			out = append(out, graph.Parameter{
				Name:       ex.nodeFieldText(child, "pattern"),
				HasDefault: child.ChildByFieldName("value") != nil,
			})
		}
	}
	return out
}

func (ex *extractor) recordVariables(n *sitter.Node) {
	parent := n.Parent()
	if parent == nil {
		return
	}
	if parent.Kind() != "program" && !(parent.Kind() == "export_statement" && parent.Parent() != nil && parent.Parent().Kind() == "program") {
		return
	}

	kind := "var"
	if n.ChildCount() > 0 {
		kind = ex.text(n.Child(0))
	}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() != "variable_declarator" {
			continue
		}
		name := ex.nodeFieldText(child, "name")
		if name == "" {
			continue
		}
		ex.result.Variables = append(ex.result.Variables, graph.Variable{
			File: ex.filePath,
			Name: name,
			Kind: kind,
			Line: ex.line(child),
		})

		// const x = require('y') is an import in CommonJS form.
		if value := child.ChildByFieldName("value"); value != nil && value.Kind() == "call_expression" {
			if ex.nodeFieldText(value, "function") == "require" {
				if src := ex.firstStringArg(value); src != "" {
					ex.result.Imports = append(ex.result.Imports, graph.Import{
						File:   ex.filePath,
						Source: src,
						Names:  name,
						Line:   ex.line(child),
					})
				}
			}
		}
	}
}

func (ex *extractor) recordImport(n *sitter.Node) {
	source := trimQuotes(ex.nodeFieldText(n, "source"))
	if source == "" {
		return
	}

	var names string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "import_clause" {
			names = NormalizeCode(ex.text(child))
			break
		}
	}

	ex.result.Imports = append(ex.result.Imports, graph.Import{
		File:   ex.filePath,
		Source: source,
		Names:  names,
		Line:   ex.line(n),
	})
}

func (ex *extractor) recordExports(n *sitter.Node) {
	decl := n.ChildByFieldName("declaration")
	if decl == nil {
		// export { a, b } or export default expression.
		name := "default"
		for i := uint(0); i < n.NamedChildCount(); i++ {
			child := n.NamedChild(i)
			if child.Kind() == "export_clause" {
				for j := uint(0); j < child.NamedChildCount(); j++ {
					spec := child.NamedChild(j)
					ex.result.Exports = append(ex.result.Exports, graph.Export{
						File: ex.filePath,
						Name: ex.nodeFieldText(spec, "name"),
						Line: ex.line(spec),
					})
				}
				return
			}
		}
		ex.result.Exports = append(ex.result.Exports, graph.Export{
			File: ex.filePath,
			Name: name,
			Line: ex.line(n),
		})
		return
	}

	switch decl.Kind() {
	case "function_declaration", "generator_function_declaration", "class_declaration":
		ex.result.Exports = append(ex.result.Exports, graph.Export{
			File: ex.filePath,
			Name: ex.nodeFieldText(decl, "name"),
			Line: ex.line(decl),
		})
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < decl.NamedChildCount(); i++ {
			child := decl.NamedChild(i)
			if child.Kind() == "variable_declarator" {
				ex.result.Exports = append(ex.result.Exports, graph.Export{
					File: ex.filePath,
					Name: ex.nodeFieldText(child, "name"),
					Line: ex.line(child),
				})
			}
		}
	}
}

// recordCommonJSExport catches module.exports = … and exports.name = ….
func (ex *extractor) recordCommonJSExport(n *sitter.Node) {
	left := ex.nodeFieldText(n, "left")
	switch {
	case left == "module.exports":
		ex.result.Exports = append(ex.result.Exports, graph.Export{
			File: ex.filePath,
			Name: "default",
			Line: ex.line(n),
		})
	case strings.HasPrefix(left, "module.exports."):
		ex.result.Exports = append(ex.result.Exports, graph.Export{
			File: ex.filePath,
			Name: strings.TrimPrefix(left, "module.exports."),
			Line: ex.line(n),
		})
	case strings.HasPrefix(left, "exports."):
		ex.result.Exports = append(ex.result.Exports, graph.Export{
			File: ex.filePath,
			Name: strings.TrimPrefix(left, "exports."),
			Line: ex.line(n),
		})
	}
}

func (ex *extractor) recordCall(n *sitter.Node, callerID string) {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	callee := ex.text(fn)
	if callee == "" {
		return
	}

	ex.result.Calls = append(ex.result.Calls, graph.Call{
		CallerID: callerID,
		Callee:   callee,
		Line:     ex.line(n),
		File:     ex.filePath,
	})

	ex.maybeRecordEndpoint(n, fn)
	ex.maybeRecordAPICall(n, fn, callerID)
}

// maybeRecordEndpoint recognizes app.METHOD('/path', …middleware, handler).
func (ex *extractor) maybeRecordEndpoint(n, fn *sitter.Node) {
	if fn.Kind() != "member_expression" {
		return
	}
	obj := fn.ChildByFieldName("object")
	prop := fn.ChildByFieldName("property")
	if obj == nil || prop == nil || obj.Kind() != "identifier" {
		return
	}
	if !expressReceivers[ex.text(obj)] {
		return
	}
	method, ok := httpVerbs[ex.text(prop)]
	if !ok {
		return
	}

	args := n.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() < 2 {
		return
	}
	pathArg := args.NamedChild(0)
	if pathArg.Kind() != "string" {
		return
	}
	path := trimQuotes(ex.text(pathArg))

	handler := args.NamedChild(args.NamedChildCount() - 1)
	var middleware []string
	for i := uint(1); i+1 < args.NamedChildCount(); i++ {
		middleware = append(middleware, ex.handlerName(args.NamedChild(i)))
	}

	ex.result.Endpoints = append(ex.result.Endpoints, graph.Endpoint{
		ID:          method + ":" + path,
		Method:      method,
		Path:        path,
		File:        ex.filePath,
		Line:        ex.line(n),
		HandlerName: ex.handlerName(handler),
		Middleware:  middleware,
	})
}

func (ex *extractor) handlerName(n *sitter.Node) string {
	switch n.Kind() {
	case "identifier":
		return ex.text(n)
	case "member_expression":
		return ex.text(n)
	case "arrow_function", "function_expression":
		if name := ex.nodeFieldText(n, "name"); name != "" {
			return name
		}
		return fmt.Sprintf("inline@%d", ex.line(n))
	}
	return "anonymous"
}

// maybeRecordAPICall recognizes the three client-side call shapes:
// fetch(…), XMLHttpRequest .open(…), and EventSource construction
// (handled in recordConstruction).
func (ex *extractor) maybeRecordAPICall(n, fn *sitter.Node, callerID string) {
	switch {
	case fn.Kind() == "identifier" && ex.text(fn) == "fetch":
		ex.result.APICalls = append(ex.result.APICalls, graph.APICall{
			Type:   "fetch",
			URL:    ex.firstStringArg(n),
			File:   ex.filePath,
			Line:   ex.line(n),
			Caller: callerID,
		})
	case fn.Kind() == "member_expression" && ex.nodeFieldText(fn, "property") == "open":
		args := n.ChildByFieldName("arguments")
		if args == nil || args.NamedChildCount() < 2 {
			return
		}
		ex.result.APICalls = append(ex.result.APICalls, graph.APICall{
			Type:   "xhr",
			Method: strings.ToUpper(trimQuotes(ex.text(args.NamedChild(0)))),
			URL:    trimQuotes(ex.text(args.NamedChild(1))),
			File:   ex.filePath,
			Line:   ex.line(n),
			Caller: callerID,
		})
	}
}

func (ex *extractor) recordConstruction(n *sitter.Node, callerID string) {
	ctor := ex.nodeFieldText(n, "constructor")
	switch ctor {
	case "EventSource":
		ex.result.APICalls = append(ex.result.APICalls, graph.APICall{
			Type:   "eventsource",
			URL:    ex.firstStringArg(n),
			File:   ex.filePath,
			Line:   ex.line(n),
			Caller: callerID,
		})
	case "XMLHttpRequest":
		ex.result.APICalls = append(ex.result.APICalls, graph.APICall{
			Type:   "xhr",
			File:   ex.filePath,
			Line:   ex.line(n),
			Caller: callerID,
		})
	}
}

func (ex *extractor) firstStringArg(call *sitter.Node) string {
	args := call.ChildByFieldName("arguments")
	if args == nil || args.NamedChildCount() == 0 {
		return ""
	}
	arg := args.NamedChild(0)
	switch arg.Kind() {
	case "string":
		return trimQuotes(ex.text(arg))
	case "template_string":
		return normalizeTemplateURL(ex.text(arg))
	}
	return ""
}

func trimQuotes(s string) string {
	return strings.Trim(s, "'\"`")
}

// normalizeTemplateURL replaces every ${…} interpolation with a wildcard.
func normalizeTemplateURL(s string) string {
	s = strings.Trim(s, "`")
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		if depth == 0 && s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			b.WriteByte('*')
			depth = 1
			i++
			continue
		}
		if depth > 0 {
			switch s[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
