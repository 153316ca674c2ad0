package pipeline

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"codegraph/internal/config"
	"codegraph/internal/parser"
)

// Discover walks root and returns the relative paths of every source
// file the scan configuration selects, sorted for deterministic runs.
// Exclusions apply to any path segment; the workspace .gitignore is
// honored when present.
func Discover(root string, cfg *config.Scan) ([]string, error) {
	var matcher *ignore.GitIgnore
	if gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
		matcher = gi
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if excluded(rel, cfg.Exclude) || (matcher != nil && matcher.MatchesPath(rel)) {
				return filepath.SkipDir
			}
			return nil
		}
		if excluded(rel, cfg.Exclude) || (matcher != nil && matcher.MatchesPath(rel)) {
			return nil
		}
		if _, ok := parser.DetectDialect(rel); !ok {
			return nil
		}
		if includes(rel, cfg.Include) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// excluded reports whether any path segment contains an exclude entry,
// so an entry like "test" also skips "__tests__".
func excluded(rel string, exclude []string) bool {
	for _, seg := range strings.Split(rel, "/") {
		for _, ex := range exclude {
			if strings.Contains(seg, ex) {
				return true
			}
		}
	}
	return false
}

// includes matches rel against the include globs, falling back to a
// substring test for entries that are not valid patterns.
func includes(rel string, include []string) bool {
	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		ok, err := doublestar.Match(pattern, rel)
		if err != nil {
			if strings.Contains(rel, pattern) {
				return true
			}
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
