package graph

// File represents one discovered source file.
type File struct {
	Path        string `json:"path"`
	Language    string `json:"language"`
	LineCount   int    `json:"line_count"`
	ContentHash string `json:"content_hash"`
}

// Parameter describes one function parameter in declaration order.
type Parameter struct {
	Name       string `json:"name"`
	HasDefault bool   `json:"has_default"`
}

// Function represents a function or method declaration.
type Function struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	File       string      `json:"file"`
	StartLine  int         `json:"start_line"`
	EndLine    int         `json:"end_line"`
	IsAsync    bool        `json:"is_async"`
	Params     []Parameter `json:"params"`
	IsExported bool        `json:"is_exported"`

	// Populated only by the optional LLM annotation stage.
	Purpose        string `json:"purpose,omitempty"`
	BusinessDomain string `json:"business_domain,omitempty"`
	Complexity     string `json:"complexity,omitempty"`
	SideEffects    string `json:"side_effects,omitempty"`
}

// Call is a directed call fact. CallerID is empty for top-level calls.
// Calls materialize as CALLS relationships, never as standalone nodes.
type Call struct {
	CallerID string `json:"caller_id,omitempty"`
	Callee   string `json:"callee"`
	Line     int    `json:"line"`
	File     string `json:"file"`
}

// Endpoint represents an HTTP route registration. ID is "METHOD:PATH";
// two files defining the same pair collide and the last load wins.
type Endpoint struct {
	ID          string   `json:"id"`
	Method      string   `json:"method"`
	Path        string   `json:"path"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	HandlerName string   `json:"handler_name"`
	Middleware  []string `json:"middleware,omitempty"`
}

// UIComponent represents a significant markup element. A single element
// matching several selector rules is recorded once per match.
type UIComponent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	File      string `json:"file"`
	HTMLID    string `json:"html_id,omitempty"`
	ClassName string `json:"class_name,omitempty"`
}

// UIComponent types, matched in selector-rule order.
const (
	ComponentSection   = "section"
	ComponentHeader    = "header"
	ComponentFooter    = "footer"
	ComponentMain      = "main"
	ComponentNav       = "nav"
	ComponentArticle   = "article"
	ComponentAside     = "aside"
	ComponentForm      = "form"
	ComponentState     = "state"
	ComponentContainer = "container"
)

// Import represents a module import in a source file.
type Import struct {
	File   string `json:"file"`
	Source string `json:"source"`
	Names  string `json:"names,omitempty"`
	Line   int    `json:"line"`
}

// Export represents an exported binding.
type Export struct {
	File string `json:"file"`
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Variable represents a top-level variable declaration.
type Variable struct {
	File string `json:"file"`
	Name string `json:"name"`
	Kind string `json:"kind"` // const, let, var
	Line int    `json:"line"`
}

// APICall is a client-side HTTP call site found in markup or scripts.
type APICall struct {
	Type   string `json:"type"` // fetch, xhr, eventsource
	URL    string `json:"url,omitempty"`
	Method string `json:"method,omitempty"`
	File   string `json:"file"`
	Line   int    `json:"line"`
	Caller string `json:"caller,omitempty"`
}

// Form represents a <form> element with its submission target.
type Form struct {
	File   string   `json:"file"`
	HTMLID string   `json:"html_id,omitempty"`
	Action string   `json:"action,omitempty"`
	Method string   `json:"method"`
	Inputs []string `json:"inputs,omitempty"`
}

// EventHandler is an inline event-handler attribute on a markup element.
type EventHandler struct {
	File    string `json:"file"`
	Element string `json:"element"`
	Event   string `json:"event"`
	Code    string `json:"code"`
}

// Concept is an LLM-derived business-domain label.
type Concept struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Category     string   `json:"category,omitempty"`
	Implementers []string `json:"implementers,omitempty"`
}

// Similarity types with their score ranges.
const (
	SimilarityExact   = "exact-duplicate" // similarity == 1.0
	SimilarityNear    = "near-duplicate"  // similarity >= 0.95
	SimilarityPattern = "similar-pattern" // 0.7 <= similarity < 0.95
)

// Similarity is an undirected SIMILAR_TO edge between two code blocks.
type Similarity struct {
	SourceID   string  `json:"source_id"`
	TargetID   string  `json:"target_id"`
	Similarity float64 `json:"similarity"`
	Type       string  `json:"type"`
}

// CodeBlock is the similarity-engine input: a unit of source with
// whitespace-normalized text.
type CodeBlock struct {
	ID        string `json:"id"`
	File      string `json:"file"`
	Name      string `json:"name"`
	Code      string `json:"code"` // normalized: whitespace runs collapsed
	LineCount int    `json:"line_count"`
}

// Relationship type names as loaded into the store.
const (
	RelContains   = "CONTAINS"
	RelDefines    = "DEFINES"
	RelCalls      = "CALLS"
	RelRoutesTo   = "ROUTES_TO"
	RelImports    = "IMPORTS"
	RelImplements = "IMPLEMENTS"
	RelSimilarTo  = "SIMILAR_TO"
	RelCallsAPI   = "CALLS_API"
	RelReadsData  = "READS_DATA"
)
