package similarity

import (
	"fmt"
	"sort"
	"strings"

	"codegraph/internal/graph"
)

// StructuralFeatures is the coarse shape of a function body used for
// pattern clustering.
type StructuralFeatures struct {
	UsesAwait         bool
	UsesTryCatch      bool
	UsesConditional   bool
	UsesLoop          bool
	ReturnsValue      bool
	Throws            bool
	ReadsRequest      bool
	ReadsResponse     bool
	UsesFetch         bool
	RegistersListener bool
	ArrowCount        int
	LineCount         int
}

func (f StructuralFeatures) booleans() []bool {
	return []bool{
		f.UsesAwait, f.UsesTryCatch, f.UsesConditional, f.UsesLoop,
		f.ReturnsValue, f.Throws, f.ReadsRequest, f.ReadsResponse,
		f.UsesFetch, f.RegistersListener,
	}
}

// StructuralSimilarity is the fraction of matching boolean features.
func StructuralSimilarity(a, b StructuralFeatures) float64 {
	fa, fb := a.booleans(), b.booleans()
	matching := 0
	for i := range fa {
		if fa[i] == fb[i] {
			matching++
		}
	}
	return float64(matching) / float64(len(fa))
}

// ExtractFeatures derives the structural feature vector from a
// function's normalized code.
func ExtractFeatures(fn graph.Function, code string, lineCount int) StructuralFeatures {
	hasParam := func(names ...string) bool {
		for _, p := range fn.Params {
			for _, name := range names {
				if p.Name == name {
					return true
				}
			}
		}
		return false
	}

	return StructuralFeatures{
		UsesAwait:       strings.Contains(code, "await "),
		UsesTryCatch:    strings.Contains(code, "try {") || strings.Contains(code, "try{"),
		UsesConditional: strings.Contains(code, "if (") || strings.Contains(code, "if(") || strings.Contains(code, "switch ("),
		UsesLoop: strings.Contains(code, "for (") || strings.Contains(code, "for(") ||
			strings.Contains(code, "while (") || strings.Contains(code, ".forEach(") ||
			strings.Contains(code, ".map(") || strings.Contains(code, ".filter(") ||
			strings.Contains(code, ".reduce("),
		ReturnsValue:      strings.Contains(code, "return "),
		Throws:            strings.Contains(code, "throw "),
		ReadsRequest:      hasParam("req", "request") || strings.Contains(code, "req."),
		ReadsResponse:     hasParam("res", "response") || strings.Contains(code, "res."),
		UsesFetch:         strings.Contains(code, "fetch("),
		RegistersListener: strings.Contains(code, "addEventListener("),
		ArrowCount:        strings.Count(code, "=>"),
		LineCount:         lineCount,
	}
}

// PatternCluster is a set of structurally similar functions sharing a
// coarse signature.
type PatternCluster struct {
	Signature   string   `json:"signature"`
	FunctionIDs []string `json:"function_ids"`
	Description string   `json:"description"`
}

// DetectPatterns groups functions by (parameter count, isAsync), then
// greedily clusters each signature group by structural similarity.
// Inputs are sorted by function id so cluster seeding is deterministic.
func DetectPatterns(functions []graph.Function, blocks []graph.CodeBlock) []PatternCluster {
	blockByID := make(map[string]graph.CodeBlock, len(blocks))
	for _, b := range blocks {
		blockByID[b.ID] = b
	}

	type member struct {
		fn       graph.Function
		features StructuralFeatures
	}
	signatureGroups := make(map[string][]member)
	for _, fn := range functions {
		block, ok := blockByID[fn.ID]
		if !ok {
			continue
		}
		sig := fmt.Sprintf("%d:%t", len(fn.Params), fn.IsAsync)
		signatureGroups[sig] = append(signatureGroups[sig], member{
			fn:       fn,
			features: ExtractFeatures(fn, block.Code, block.LineCount),
		})
	}

	sigs := make([]string, 0, len(signatureGroups))
	for sig := range signatureGroups {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)

	var clusters []PatternCluster
	for _, sig := range sigs {
		members := signatureGroups[sig]
		sort.Slice(members, func(i, j int) bool {
			return members[i].fn.ID < members[j].fn.ID
		})

		assigned := make([]bool, len(members))
		for i := range members {
			if assigned[i] {
				continue
			}
			cluster := []int{i}
			assigned[i] = true
			for j := i + 1; j < len(members); j++ {
				if assigned[j] {
					continue
				}
				if StructuralSimilarity(members[i].features, members[j].features) >= similarPatternThreshold {
					cluster = append(cluster, j)
					assigned[j] = true
				}
			}
			if len(cluster) < 2 {
				continue
			}

			ids := make([]string, len(cluster))
			for k, idx := range cluster {
				ids[k] = members[idx].fn.ID
			}
			clusters = append(clusters, PatternCluster{
				Signature:   describeSignature(members[cluster[0]].fn),
				FunctionIDs: ids,
				Description: describeFeatures(members[cluster[0]].features),
			})
		}
	}
	return clusters
}

func describeSignature(fn graph.Function) string {
	async := "sync"
	if fn.IsAsync {
		async = "async"
	}
	return fmt.Sprintf("%d params, %s", len(fn.Params), async)
}

// describeFeatures renders a human-readable label from the dominant
// features of the cluster's first member.
func describeFeatures(f StructuralFeatures) string {
	var parts []string
	if f.UsesAwait {
		parts = append(parts, "async")
	}
	if f.UsesTryCatch {
		parts = append(parts, "with error handling")
	}
	if f.ReadsRequest && f.ReadsResponse {
		parts = append(parts, "HTTP handler pattern")
	}
	if f.UsesFetch {
		parts = append(parts, "performs API calls")
	}
	if f.RegistersListener {
		parts = append(parts, "event-driven")
	}
	if f.UsesLoop {
		parts = append(parts, "iterates over data")
	}
	if len(parts) == 0 {
		parts = append(parts, "shared structural shape")
	}
	return strings.Join(parts, ", ")
}
