package similarity

import (
	"fmt"

	"codegraph/internal/graph"
)

// Opportunity is advisory refactoring output. It never alters the graph.
type Opportunity struct {
	Type        string   `json:"type"`
	Priority    string   `json:"priority"`
	Description string   `json:"description"`
	Files       []string `json:"files"`
}

// Report is the combined similarity-stage output.
type Report struct {
	Similarities  []graph.Similarity
	Patterns      []PatternCluster
	Opportunities []Opportunity
}

// Analyze runs both similarity phases, pattern detection and
// refactoring-opportunity synthesis over the extracted code blocks.
func Analyze(blocks []graph.CodeBlock, functions []graph.Function) *Report {
	exact := FindExactDuplicates(blocks)
	fuzzy := FindSimilar(blocks)
	patterns := DetectPatterns(functions, blocks)

	report := &Report{
		Similarities: append(exact, fuzzy...),
		Patterns:     patterns,
	}
	report.Opportunities = SuggestRefactorings(blocks, fuzzy, patterns)
	return report
}

// SuggestRefactorings synthesizes advisory opportunities: one
// extract-shared-function per exact-duplicate group, one
// parameterize-function per near-duplicate pair, and one
// create-abstraction per pattern cluster of size three or more.
func SuggestRefactorings(blocks []graph.CodeBlock, fuzzy []graph.Similarity, patterns []PatternCluster) []Opportunity {
	blockByID := make(map[string]graph.CodeBlock, len(blocks))
	for _, b := range blocks {
		blockByID[b.ID] = b
	}

	var opportunities []Opportunity

	for _, group := range groupByHash(blocks) {
		if len(group.blocks) < 2 {
			continue
		}
		files := distinctFiles(group.blocks)
		opportunities = append(opportunities, Opportunity{
			Type:     "extract-shared-function",
			Priority: "high",
			Description: fmt.Sprintf("%d identical copies of %q could move to one shared function",
				len(group.blocks), group.blocks[0].Name),
			Files: files,
		})
	}

	for _, edge := range fuzzy {
		if edge.Type != graph.SimilarityNear {
			continue
		}
		a, b := blockByID[edge.SourceID], blockByID[edge.TargetID]
		opportunities = append(opportunities, Opportunity{
			Type:     "parameterize-function",
			Priority: "medium",
			Description: fmt.Sprintf("%q and %q are %.0f%% similar and could share a parameterized implementation",
				a.Name, b.Name, edge.Similarity*100),
			Files: distinctFiles([]graph.CodeBlock{a, b}),
		})
	}

	for _, cluster := range patterns {
		if len(cluster.FunctionIDs) < 3 {
			continue
		}
		var members []graph.CodeBlock
		for _, id := range cluster.FunctionIDs {
			if b, ok := blockByID[id]; ok {
				members = append(members, b)
			}
		}
		opportunities = append(opportunities, Opportunity{
			Type:     "create-abstraction",
			Priority: "low",
			Description: fmt.Sprintf("%d functions share a pattern (%s); a common abstraction may simplify them",
				len(cluster.FunctionIDs), cluster.Description),
			Files: distinctFiles(members),
		})
	}

	return opportunities
}

func distinctFiles(blocks []graph.CodeBlock) []string {
	seen := make(map[string]bool)
	var files []string
	for _, b := range blocks {
		if !seen[b.File] {
			seen[b.File] = true
			files = append(files, b.File)
		}
	}
	return files
}
