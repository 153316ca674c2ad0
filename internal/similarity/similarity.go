// Package similarity detects duplicate and structurally similar code
// among the code blocks extracted by the parsers.
package similarity

import (
	"strings"

	"codegraph/internal/graph"
	"codegraph/util"
)

const (
	// Blocks under this many lines are never compared in the fuzzy phase.
	minBlockLines = 5

	// Pairs whose smaller/larger line ratio is below this are skipped.
	minSizeRatio = 0.5

	nearDuplicateThreshold  = 0.95
	similarPatternThreshold = 0.7

	ngramSize = 3
)

// hashGroup is a set of blocks sharing identical normalized content,
// in first-appearance order.
type hashGroup struct {
	hash   string
	blocks []graph.CodeBlock
}

func groupByHash(blocks []graph.CodeBlock) []hashGroup {
	index := make(map[string]int)
	var groups []hashGroup
	for _, block := range blocks {
		hash := util.ContentHash(block.Code)
		if i, ok := index[hash]; ok {
			groups[i].blocks = append(groups[i].blocks, block)
			continue
		}
		index[hash] = len(groups)
		groups = append(groups, hashGroup{hash: hash, blocks: []graph.CodeBlock{block}})
	}
	return groups
}

// FindExactDuplicates emits one exact-duplicate edge per pair of blocks
// with identical normalized content.
func FindExactDuplicates(blocks []graph.CodeBlock) []graph.Similarity {
	var edges []graph.Similarity
	for _, group := range groupByHash(blocks) {
		for i := 0; i < len(group.blocks); i++ {
			for j := i + 1; j < len(group.blocks); j++ {
				edges = append(edges, graph.Similarity{
					SourceID:   group.blocks[i].ID,
					TargetID:   group.blocks[j].ID,
					Similarity: 1.0,
					Type:       graph.SimilarityExact,
				})
			}
		}
	}
	return edges
}

// FindSimilar compares one representative per hash group pairwise and
// emits near-duplicate and similar-pattern edges. Exact duplicates are
// excluded so identical blocks are not re-compared.
func FindSimilar(blocks []graph.CodeBlock) []graph.Similarity {
	groups := groupByHash(blocks)
	reps := make([]graph.CodeBlock, 0, len(groups))
	for _, g := range groups {
		reps = append(reps, g.blocks[0])
	}

	var edges []graph.Similarity
	for i := 0; i < len(reps); i++ {
		for j := i + 1; j < len(reps); j++ {
			a, b := reps[i], reps[j]
			if a.LineCount < minBlockLines || b.LineCount < minBlockLines {
				continue
			}
			if sizeRatio(a.LineCount, b.LineCount) < minSizeRatio {
				continue
			}

			sim := Jaccard(a.Code, b.Code)
			edgeType := classify(sim)
			if edgeType == "" {
				continue
			}
			edges = append(edges, graph.Similarity{
				SourceID:   a.ID,
				TargetID:   b.ID,
				Similarity: sim,
				Type:       edgeType,
			})
		}
	}
	return edges
}

func classify(sim float64) string {
	switch {
	case sim >= nearDuplicateThreshold:
		return graph.SimilarityNear
	case sim >= similarPatternThreshold:
		return graph.SimilarityPattern
	default:
		return ""
	}
}

func sizeRatio(a, b int) float64 {
	if a > b {
		a, b = b, a
	}
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

// Jaccard computes n-gram Jaccard similarity between two normalized code
// strings: the overlap ratio of their 3-token contiguous windows. Returns
// 0 when either n-gram set is empty.
func Jaccard(a, b string) float64 {
	setA := ngrams(a)
	setB := ngrams(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for gram := range setA {
		if _, ok := setB[gram]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func ngrams(code string) map[string]struct{} {
	tokens := strings.Fields(code)
	set := make(map[string]struct{})
	for i := 0; i+ngramSize <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+ngramSize], " ")] = struct{}{}
	}
	return set
}
