package similarity

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codegraph/internal/graph"
	"codegraph/internal/parser"
)

func block(id, file, name, code string, lines int) graph.CodeBlock {
	return graph.CodeBlock{ID: id, File: file, Name: name, Code: code, LineCount: lines}
}

func TestExactDuplicatesByNormalizedContent(t *testing.T) {
	// Whitespace differences vanish under normalization.
	a := block("a", "a.js", "sum", parser.NormalizeCode("return a + b;"), 3)
	b := block("b", "b.js", "add", parser.NormalizeCode("return  a +\n b;"), 3)
	c := block("c", "c.js", "other", parser.NormalizeCode("return a - b;"), 3)

	edges := FindExactDuplicates([]graph.CodeBlock{a, b, c})
	require.Len(t, edges, 1)
	assert.Equal(t, "a", edges[0].SourceID)
	assert.Equal(t, "b", edges[0].TargetID)
	assert.Equal(t, 1.0, edges[0].Similarity)
	assert.Equal(t, graph.SimilarityExact, edges[0].Type)
}

func TestExactDuplicateGroupEmitsAllPairs(t *testing.T) {
	code := "return x * 2;"
	blocks := []graph.CodeBlock{
		block("a", "a.js", "f", code, 3),
		block("b", "b.js", "g", code, 3),
		block("c", "c.js", "h", code, 3),
	}
	edges := FindExactDuplicates(blocks)
	assert.Len(t, edges, 3)
}

func TestFindSimilarSkipsShortBlocks(t *testing.T) {
	a := block("a", "a.js", "f", "const x = load(); if (x) { return x.map(v => v.id); } return [];", 4)
	b := block("b", "b.js", "g", "const y = load(); if (y) { return y.map(v => v.id); } return null;", 4)

	assert.Empty(t, FindSimilar([]graph.CodeBlock{a, b}))
}

func TestFindSimilarSkipsMismatchedSizes(t *testing.T) {
	short := block("a", "a.js", "f", strings.Repeat("tok ", 30)+"one", 5)
	long := block("b", "b.js", "g", strings.Repeat("tok ", 30)+"two", 20)

	assert.Empty(t, FindSimilar([]graph.CodeBlock{short, long}))
}

func TestFindSimilarNearDuplicate(t *testing.T) {
	base := "function handle(req, res) { const data = store.get(req.params.id); if (!data) { return res.status(404).send(); } logger.info('served', req.params.id); metrics.count('requests'); res.json(data); }"
	variant := strings.Replace(base, "handle", "serve", 1)

	a := block("a", "a.js", "handle", parser.NormalizeCode(base), 8)
	b := block("b", "b.js", "serve", parser.NormalizeCode(variant), 8)

	edges := FindSimilar([]graph.CodeBlock{a, b})
	require.Len(t, edges, 1)
	assert.GreaterOrEqual(t, edges[0].Similarity, 0.7)
	assert.Less(t, edges[0].Similarity, 1.0)
}

func TestFindSimilarExcludesIdenticalBlocks(t *testing.T) {
	code := parser.NormalizeCode(strings.Repeat("doWork(input); ", 20))
	a := block("a", "a.js", "f", code, 10)
	b := block("b", "b.js", "g", code, 10)

	// Identical content belongs to the exact phase only.
	assert.Empty(t, FindSimilar([]graph.CodeBlock{a, b}))
}

func TestJaccard(t *testing.T) {
	assert.Equal(t, 1.0, Jaccard("a b c d", "a b c d"))
	assert.Equal(t, 0.0, Jaccard("a b c", "x y z"))
	assert.Equal(t, 0.0, Jaccard("a b", "a b"), "too short for any n-gram")

	ab := Jaccard("a b c d e", "a b c d f")
	ba := Jaccard("a b c d f", "a b c d e")
	assert.Equal(t, ab, ba, "symmetric")
	assert.Greater(t, ab, 0.0)
	assert.Less(t, ab, 1.0)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, graph.SimilarityNear, classify(0.97))
	assert.Equal(t, graph.SimilarityNear, classify(0.95))
	assert.Equal(t, graph.SimilarityPattern, classify(0.8))
	assert.Equal(t, graph.SimilarityPattern, classify(0.7))
	assert.Equal(t, "", classify(0.69))
}

func TestSizeRatio(t *testing.T) {
	assert.Equal(t, 0.5, sizeRatio(5, 10))
	assert.Equal(t, 0.5, sizeRatio(10, 5))
	assert.Equal(t, 1.0, sizeRatio(7, 7))
	assert.Equal(t, 0.0, sizeRatio(0, 0))
}

func TestDetectPatternsGroupsBySignature(t *testing.T) {
	mkFn := func(id string, params int, async bool) graph.Function {
		fn := graph.Function{ID: id, Name: id, File: id + ".js", IsAsync: async}
		for i := 0; i < params; i++ {
			fn.Params = append(fn.Params, graph.Parameter{Name: fmt.Sprintf("p%d", i)})
		}
		return fn
	}
	handlerCode := "try { const data = await db.get(req.params.id); if (!data) throw new Error('missing'); return res.json(data); } catch (err) { res.status(500).send(); }"

	functions := []graph.Function{
		mkFn("h1", 2, true),
		mkFn("h2", 2, true),
		mkFn("h3", 2, true),
		mkFn("solo", 0, false),
	}
	blocks := []graph.CodeBlock{
		block("h1", "a.js", "h1", handlerCode+" // a", 6),
		block("h2", "b.js", "h2", handlerCode+" // b", 6),
		block("h3", "c.js", "h3", handlerCode+" // c", 6),
		block("solo", "d.js", "solo", "return 42;", 3),
	}

	clusters := DetectPatterns(functions, blocks)
	require.Len(t, clusters, 1)
	cluster := clusters[0]
	assert.Equal(t, "2 params, async", cluster.Signature)
	assert.Equal(t, []string{"h1", "h2", "h3"}, cluster.FunctionIDs)
	assert.Contains(t, cluster.Description, "error handling")
}

func TestDetectPatternsDeterministic(t *testing.T) {
	code := "if (input) { return fetch('/api/x'); } return null;"
	var functions []graph.Function
	var blocks []graph.CodeBlock
	for _, id := range []string{"c", "a", "b"} {
		functions = append(functions, graph.Function{ID: id, Name: id, File: id + ".js"})
		blocks = append(blocks, block(id, id+".js", id, code, 4))
	}

	first := DetectPatterns(functions, blocks)
	second := DetectPatterns([]graph.Function{functions[2], functions[0], functions[1]}, blocks)
	require.Len(t, first, 1)
	assert.Equal(t, []string{"a", "b", "c"}, first[0].FunctionIDs)
	assert.Equal(t, first, second)
}

func TestStructuralSimilarity(t *testing.T) {
	a := StructuralFeatures{UsesAwait: true, UsesTryCatch: true, ReturnsValue: true}
	assert.Equal(t, 1.0, StructuralSimilarity(a, a))

	b := a
	b.UsesLoop = true
	b.UsesFetch = true
	b.Throws = true
	assert.Equal(t, 0.7, StructuralSimilarity(a, b))
}

func TestAnalyzeOpportunities(t *testing.T) {
	dup := "validate(input); store.save(input); audit.log(input);"
	blocks := []graph.CodeBlock{
		block("a", "a.js", "saveUser", dup, 4),
		block("b", "b.js", "saveOrder", dup, 4),
	}

	report := Analyze(blocks, nil)
	require.Len(t, report.Similarities, 1)
	require.Len(t, report.Opportunities, 1)

	opp := report.Opportunities[0]
	assert.Equal(t, "extract-shared-function", opp.Type)
	assert.Equal(t, "high", opp.Priority)
	assert.Equal(t, []string{"a.js", "b.js"}, opp.Files)
	assert.Contains(t, opp.Description, "saveUser")
}
