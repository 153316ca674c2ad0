package parser

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Dialect identifies a supported source dialect. The set is closed:
// dispatch is by file extension only, never by content sniffing.
type Dialect int

const (
	DialectJavaScript Dialect = iota
	DialectTypeScript
	DialectMarkup
)

func (d Dialect) String() string {
	switch d {
	case DialectJavaScript:
		return "javascript"
	case DialectTypeScript:
		return "typescript"
	case DialectMarkup:
		return "html"
	default:
		return "unknown"
	}
}

var dialectByExtension = map[string]Dialect{
	".js":   DialectJavaScript,
	".mjs":  DialectJavaScript,
	".cjs":  DialectJavaScript,
	".jsx":  DialectJavaScript,
	".ts":   DialectTypeScript,
	".tsx":  DialectTypeScript,
	".html": DialectMarkup,
	".htm":  DialectMarkup,
}

// DetectDialect returns the dialect for a file path, or false when the
// extension is not part of the supported set.
func DetectDialect(path string) (Dialect, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	d, ok := dialectByExtension[ext]
	return d, ok
}

// Result is the tagged parse result: exactly one of Source or Markup is
// set, matching the dialect.
type Result struct {
	Dialect Dialect
	Source  *SourceResult
	Markup  *MarkupResult
}

// ParseFile dispatches content to the parser for the file's dialect.
func ParseFile(content []byte, filePath string) (*Result, error) {
	dialect, ok := DetectDialect(filePath)
	if !ok {
		return nil, fmt.Errorf("unsupported dialect for %s", filePath)
	}

	switch dialect {
	case DialectMarkup:
		markup, err := ParseMarkup(content, filePath)
		if err != nil {
			return nil, err
		}
		return &Result{Dialect: dialect, Markup: markup}, nil
	default:
		source, err := parseSourceDialect(content, filePath, dialect)
		if err != nil {
			return nil, err
		}
		return &Result{Dialect: dialect, Source: source}, nil
	}
}
