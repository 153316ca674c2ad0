package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 0.0, Clamp01(0))
	assert.Equal(t, 0.42, Clamp01(0.42))
	assert.Equal(t, 1.0, Clamp01(1.7))
}

func TestSimilarCodeClampsFloor(t *testing.T) {
	_, params := SimilarCode(1.5)
	assert.Equal(t, 1.0, params["floor"])

	_, params = SimilarCode(-3)
	assert.Equal(t, 0.0, params["floor"])
}

func TestTemplatesAreParameterized(t *testing.T) {
	tests := []struct {
		name   string
		cypher string
		params map[string]any
	}{
		{"find function", first(FindFunction("save")), map[string]any{"needle": "save"}},
		{"find callers", first(FindCallers("saveUser")), map[string]any{"name": "saveUser"}},
		{"find callees", first(FindCallees("saveUser")), map[string]any{"name": "saveUser"}},
		{"endpoint deps", first(EndpointDependencies("GET", "/users")), map[string]any{"id": "GET:/users"}},
		{"data flow", first(DataFlowForConcept("Billing")), map[string]any{"name": "Billing"}},
		{"impact", first(ImpactAnalysis("saveUser")), map[string]any{"name": "saveUser"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key := range tt.params {
				assert.Contains(t, tt.cypher, "$"+key, "query binds its parameter")
			}
			assert.NotContains(t, tt.cypher, "saveUser", "values never interpolate into query text")
		})
	}
}

func TestImpactAnalysisWalksReverseCalls(t *testing.T) {
	cypher, _ := ImpactAnalysis("saveUser")
	assert.Contains(t, cypher, "CALLS*1..3")
	assert.Contains(t, cypher, "ROUTES_TO")
}

func TestOverviewCountsByLabel(t *testing.T) {
	cypher, params := Overview()
	assert.Nil(t, params)
	assert.Contains(t, cypher, "labels(n)[0]")
}

func TestSimilarCodeOrdersPairs(t *testing.T) {
	cypher, _ := SimilarCode(0.7)
	assert.Contains(t, cypher, "a.id < b.id", "each undirected edge reports once")
}

func first(cypher string, _ map[string]any) string {
	return strings.TrimSpace(cypher)
}
