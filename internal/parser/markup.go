package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"codegraph/internal/graph"
)

// MarkupResult holds every entity extracted from one markup file,
// including the program-source entities of its embedded scripts.
type MarkupResult struct {
	UIComponents    []graph.UIComponent
	EmbeddedScripts []string
	APICalls        []graph.APICall
	EventHandlers   []graph.EventHandler
	Forms           []graph.Form

	// Merged from embedded <script> blocks.
	Functions  []graph.Function
	Calls      []graph.Call
	Imports    []graph.Import
	Exports    []graph.Export
	Variables  []graph.Variable
	Endpoints  []graph.Endpoint
	CodeBlocks []graph.CodeBlock
}

// selectorRule decides whether an element is significant. Rules are
// evaluated in order and an element is recorded once per matching rule.
type selectorRule struct {
	componentType string
	matches       func(tag, id, class string) bool
}

func tagRule(tag, componentType string) selectorRule {
	return selectorRule{
		componentType: componentType,
		matches: func(t, _, _ string) bool {
			return t == tag
		},
	}
}

func substringRule(needle, componentType string) selectorRule {
	return selectorRule{
		componentType: componentType,
		matches: func(_, id, class string) bool {
			return strings.Contains(id, needle) || strings.Contains(class, needle)
		},
	}
}

var selectorRules = []selectorRule{
	tagRule("section", graph.ComponentSection),
	tagRule("header", graph.ComponentHeader),
	tagRule("footer", graph.ComponentFooter),
	tagRule("main", graph.ComponentMain),
	tagRule("nav", graph.ComponentNav),
	tagRule("article", graph.ComponentArticle),
	tagRule("aside", graph.ComponentAside),
	tagRule("form", graph.ComponentForm),
	substringRule("state", graph.ComponentState),
	substringRule("container", graph.ComponentContainer),
	substringRule("section", graph.ComponentSection),
}

// Inline event-handler attributes extracted from markup elements.
var eventAttributes = []string{
	"onclick", "onsubmit", "onchange", "oninput", "onload",
	"onfocus", "onblur", "onkeyup", "onkeydown", "onmouseover",
}

// Raw-text API-call patterns, applied to the whole file after the AST
// pass to catch call sites embedded in strings the parser missed.
var (
	fetchLiteralRe  = regexp.MustCompile(`fetch\(\s*'([^']+)'`)
	fetchLiteralRe2 = regexp.MustCompile(`fetch\(\s*"([^"]+)"`)
	fetchTemplateRe = regexp.MustCompile("fetch\\(\\s*`([^`]+)`")
	eventSourceRe   = regexp.MustCompile(`new\s+EventSource\(\s*['"]([^'"]+)['"]`)
)

// ParseMarkup extracts UI components, forms, inline event handlers,
// API-call sites and embedded-script entities from an HTML file.
func ParseMarkup(content []byte, filePath string) (*MarkupResult, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse markup %s: %w", filePath, err)
	}

	mp := &markupParser{filePath: filePath, result: &MarkupResult{}}
	mp.walk(doc)
	mp.scanRawText(string(content))
	return mp.result, nil
}

type markupParser struct {
	filePath    string
	result      *MarkupResult
	scriptIndex int
	ordinal     int
}

func (mp *markupParser) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		mp.visitElement(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		mp.walk(child)
	}
}

func (mp *markupParser) visitElement(n *html.Node) {
	id := attr(n, "id")
	class := strings.TrimSpace(attr(n, "class"))

	// Elements with neither an id nor a class are not significant.
	if id != "" || class != "" {
		for _, rule := range selectorRules {
			if rule.matches(n.Data, id, class) {
				mp.recordComponent(n, rule.componentType, id, class)
			}
		}
	}

	mp.recordEventHandlers(n)

	switch n.Data {
	case "script":
		mp.parseEmbeddedScript(n)
	case "form":
		mp.recordForm(n)
	}
}

func (mp *markupParser) recordComponent(n *html.Node, componentType, id, class string) {
	name := id
	if name == "" {
		if fields := strings.Fields(class); len(fields) > 0 {
			name = fields[0]
		} else {
			name = n.Data
		}
	}
	key := id
	if key == "" {
		key = class
	}

	mp.result.UIComponents = append(mp.result.UIComponents, graph.UIComponent{
		ID:        fmt.Sprintf("%s:%s:%s:%d", mp.filePath, key, componentType, mp.ordinal),
		Name:      name,
		Type:      componentType,
		File:      mp.filePath,
		HTMLID:    id,
		ClassName: class,
	})
	mp.ordinal++
}

func (mp *markupParser) recordEventHandlers(n *html.Node) {
	for _, event := range eventAttributes {
		if code := attr(n, event); code != "" {
			mp.result.EventHandlers = append(mp.result.EventHandlers, graph.EventHandler{
				File:    mp.filePath,
				Element: elementLabel(n),
				Event:   event,
				Code:    code,
			})
		}
	}
}

func (mp *markupParser) recordForm(n *html.Node) {
	method := strings.ToUpper(attr(n, "method"))
	if method == "" {
		method = "GET"
	}

	var inputs []string
	var collect func(*html.Node)
	collect = func(el *html.Node) {
		if el.Type == html.ElementNode {
			switch el.Data {
			case "input", "select", "textarea":
				label := attr(el, "name")
				if label == "" {
					label = attr(el, "id")
				}
				if label != "" {
					inputs = append(inputs, label)
				}
			}
		}
		for child := el.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)

	mp.result.Forms = append(mp.result.Forms, graph.Form{
		File:   mp.filePath,
		HTMLID: attr(n, "id"),
		Action: attr(n, "action"),
		Method: method,
		Inputs: inputs,
	})
}

// parseEmbeddedScript re-invokes the program parser on an inline script
// block. The synthetic path keeps function ids globally unique.
func (mp *markupParser) parseEmbeddedScript(n *html.Node) {
	if attr(n, "src") != "" {
		return
	}
	var text strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			text.WriteString(child.Data)
		}
	}
	script := text.String()
	if strings.TrimSpace(script) == "" {
		return
	}

	syntheticPath := fmt.Sprintf("%s:script:%d", mp.filePath, mp.scriptIndex)
	mp.scriptIndex++
	mp.result.EmbeddedScripts = append(mp.result.EmbeddedScripts, syntheticPath)

	src, err := ParseSource([]byte(script), syntheticPath)
	if err != nil {
		// A broken inline script loses only its own contribution.
		return
	}

	mp.result.Functions = append(mp.result.Functions, src.Functions...)
	mp.result.Calls = append(mp.result.Calls, src.Calls...)
	mp.result.Imports = append(mp.result.Imports, src.Imports...)
	mp.result.Exports = append(mp.result.Exports, src.Exports...)
	mp.result.Variables = append(mp.result.Variables, src.Variables...)
	mp.result.Endpoints = append(mp.result.Endpoints, src.Endpoints...)
	mp.result.CodeBlocks = append(mp.result.CodeBlocks, src.CodeBlocks...)
	mp.result.APICalls = append(mp.result.APICalls, src.APICalls...)
}

// scanRawText re-scans the raw file text for fetch/EventSource call
// sites. Template-literal interpolations normalize to a wildcard.
func (mp *markupParser) scanRawText(content string) {
	record := func(callType, url string, offset int) {
		mp.result.APICalls = append(mp.result.APICalls, graph.APICall{
			Type: callType,
			URL:  url,
			File: mp.filePath,
			Line: strings.Count(content[:offset], "\n") + 1,
		})
	}

	for _, re := range []*regexp.Regexp{fetchLiteralRe, fetchLiteralRe2} {
		for _, m := range re.FindAllStringSubmatchIndex(content, -1) {
			record("fetch", content[m[2]:m[3]], m[0])
		}
	}
	for _, m := range fetchTemplateRe.FindAllStringSubmatchIndex(content, -1) {
		record("fetch", normalizeTemplateURL(content[m[2]:m[3]]), m[0])
	}
	for _, m := range eventSourceRe.FindAllStringSubmatchIndex(content, -1) {
		record("eventsource", content[m[2]:m[3]], m[0])
	}
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func elementLabel(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		return n.Data + "#" + id
	}
	if fields := strings.Fields(attr(n, "class")); len(fields) > 0 {
		return n.Data + "." + fields[0]
	}
	return n.Data
}
