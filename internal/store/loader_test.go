package store

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codegraph/internal/graph"
)

// memDriver records every statement and query with its parameters.
type memDriver struct {
	statements []string
	queries    []string
	params     []map[string]any
	failOn     string
}

func (d *memDriver) Connect(ctx context.Context, uri, user, password string) error { return nil }
func (d *memDriver) Close(ctx context.Context) error                               { return nil }

func (d *memDriver) RunStatement(ctx context.Context, text string) error {
	d.statements = append(d.statements, text)
	return nil
}

func (d *memDriver) RunQuery(ctx context.Context, text string, params map[string]any) ([]Record, error) {
	if d.failOn != "" && strings.Contains(text, d.failOn) {
		return nil, errors.New("constraint violation")
	}
	d.queries = append(d.queries, text)
	d.params = append(d.params, params)
	return nil, nil
}

func newTestLoader(driver Driver) *Loader {
	return NewLoader(driver, zap.NewNop().Sugar())
}

func TestClearIsDetachDelete(t *testing.T) {
	driver := &memDriver{}
	require.NoError(t, newTestLoader(driver).Clear(context.Background()))
	require.Len(t, driver.statements, 1)
	assert.Contains(t, driver.statements[0], "DETACH DELETE")
}

func TestLoadFunctionsFlattensParams(t *testing.T) {
	driver := &memDriver{}
	loaded := newTestLoader(driver).LoadFunctions(context.Background(), []graph.Function{
		{ID: "f1", Name: "greet", File: "a.js", Params: []graph.Parameter{
			{Name: "name"},
			{Name: "suffix", HasDefault: true},
		}},
	})
	assert.Equal(t, 1, loaded)
	require.Len(t, driver.params, 1)
	assert.Equal(t, []string{"name", "suffix?"}, driver.params[0]["params"])
	assert.Contains(t, driver.queries[0], "MERGE (fn:Function {id: $id})")
}

func TestLoadCallsSkipsTopLevel(t *testing.T) {
	driver := &memDriver{}
	loaded := newTestLoader(driver).LoadCalls(context.Background(), []graph.Call{
		{CallerID: "", Callee: "init", File: "a.js", Line: 1},
		{CallerID: "f1", Callee: "utils.format", File: "a.js", Line: 5},
	})
	assert.Equal(t, 1, loaded)
	require.Len(t, driver.params, 1)
	assert.Equal(t, "format", driver.params[0]["calleeName"], "callee resolves by last dotted segment")
}

func TestLoadEndpointsSkipsAnonymousRouting(t *testing.T) {
	driver := &memDriver{}
	loader := newTestLoader(driver)

	loaded := loader.LoadEndpoints(context.Background(), []graph.Endpoint{
		{ID: "GET:/users", Method: "GET", Path: "/users", File: "a.js", HandlerName: "listUsers"},
		{ID: "GET:/health", Method: "GET", Path: "/health", File: "a.js", HandlerName: "inline@3"},
		{ID: "GET:/ping", Method: "GET", Path: "/ping", File: "a.js", HandlerName: "anonymous"},
	})
	assert.Equal(t, 3, loaded)

	routes := 0
	for _, q := range driver.queries {
		if strings.Contains(q, "ROUTES_TO") {
			routes++
		}
	}
	assert.Equal(t, 1, routes, "only the named handler gets a ROUTES_TO edge")
}

func TestLoadEndpointsCollidingIDsLastWriteWins(t *testing.T) {
	driver := &memDriver{}
	loaded := newTestLoader(driver).LoadEndpoints(context.Background(), []graph.Endpoint{
		{ID: "GET:/users", Method: "GET", Path: "/users", File: "old.js", Line: 3, HandlerName: "oldHandler"},
		{ID: "GET:/users", Method: "GET", Path: "/users", File: "new.js", Line: 9, HandlerName: "newHandler"},
	})
	assert.Equal(t, 2, loaded)

	// Both rows run the same merge-by-id upsert, so the second SET
	// overwrites the first node's properties.
	var upserts []map[string]any
	for i, q := range driver.queries {
		if strings.Contains(q, "MERGE (e:Endpoint {id: $id})") {
			assert.Contains(t, q, "SET e.method")
			upserts = append(upserts, driver.params[i])
		}
	}
	require.Len(t, upserts, 2)
	assert.Equal(t, "GET:/users", upserts[0]["id"])
	assert.Equal(t, "GET:/users", upserts[1]["id"])
	assert.Equal(t, "new.js", upserts[1]["file"])
	assert.Equal(t, "newHandler", upserts[1]["handlerName"])
}

func TestLoadImportsDropsBareSpecifiers(t *testing.T) {
	driver := &memDriver{}
	loaded := newTestLoader(driver).LoadImports(context.Background(), []graph.Import{
		{File: "a.js", Source: "express"},
		{File: "a.js", Source: "./db"},
		{File: "a.js", Source: "../util/fs.mjs"},
	})
	assert.Equal(t, 2, loaded)
	assert.Equal(t, "db.js", driver.params[0]["suffix"])
	assert.Equal(t, "util/fs.mjs", driver.params[1]["suffix"])
}

func TestLoadAPICallsNormalizesSource(t *testing.T) {
	driver := &memDriver{}
	loaded := newTestLoader(driver).LoadAPICalls(context.Background(), []graph.APICall{
		{Type: "fetch", URL: "/api/users?limit=10", File: "index.html:script:0", Line: 4},
		{Type: "fetch", URL: "", File: "a.js"},
	})
	assert.Equal(t, 1, loaded)
	require.Len(t, driver.params, 1)
	assert.Equal(t, "index.html", driver.params[0]["file"])
	assert.Equal(t, "/api/users", driver.params[0]["url"])
}

func TestLoadConceptsLinksImplementers(t *testing.T) {
	driver := &memDriver{}
	loaded := newTestLoader(driver).LoadConcepts(context.Background(), []graph.Concept{
		{Name: "User Management", Category: "domain", Implementers: []string{"createUser", "users.remove"}},
	})
	assert.Equal(t, 1, loaded)
	require.Len(t, driver.params, 3)
	assert.Equal(t, "createUser", driver.params[1]["implementer"])
	assert.Equal(t, "remove", driver.params[2]["implementer"])
}

func TestLoadAnnotationsSkipsEmpty(t *testing.T) {
	driver := &memDriver{}
	loaded := newTestLoader(driver).LoadAnnotations(context.Background(), []graph.Function{
		{ID: "f1", Purpose: "saves a user"},
		{ID: "f2"},
	})
	assert.Equal(t, 1, loaded)
}

func TestLoadRowFailureDoesNotAbortBatch(t *testing.T) {
	driver := &memDriver{failOn: "File"}
	loader := newTestLoader(driver)

	loaded := loader.LoadFiles(context.Background(), []graph.File{
		{Path: "a.js"}, {Path: "b.js"},
	})
	assert.Equal(t, 0, loaded)

	// Other entity types still load.
	loaded = loader.LoadSimilarities(context.Background(), []graph.Similarity{
		{SourceID: "a", TargetID: "b", Similarity: 1.0, Type: graph.SimilarityExact},
	})
	assert.Equal(t, 1, loaded)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "format", simpleName("utils.strings.format"))
	assert.Equal(t, "plain", simpleName("plain"))

	assert.Equal(t, "index.html", sourceFile("index.html:script:2"))
	assert.Equal(t, "app.js", sourceFile("app.js"))

	assert.Equal(t, "/api/users", stripQuery("/api/users?limit=1"))

	assert.Equal(t, "", importSuffix("lodash"))
	assert.Equal(t, "db.js", importSuffix("./db"))
	assert.Equal(t, "a/b.mjs", importSuffix("../a/b.mjs"))
	assert.Equal(t, "", importSuffix("./"))
}
