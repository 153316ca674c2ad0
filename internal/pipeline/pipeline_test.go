package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"codegraph/internal/config"
	"codegraph/internal/store"
)

type recordingDriver struct {
	connected  bool
	closed     bool
	statements []string
	queries    []string
}

func (d *recordingDriver) Connect(ctx context.Context, uri, user, password string) error {
	d.connected = true
	return nil
}

func (d *recordingDriver) Close(ctx context.Context) error {
	d.closed = true
	return nil
}

func (d *recordingDriver) RunStatement(ctx context.Context, text string) error {
	d.statements = append(d.statements, text)
	return nil
}

func (d *recordingDriver) RunQuery(ctx context.Context, text string, params map[string]any) ([]store.Record, error) {
	d.queries = append(d.queries, text)
	return nil, nil
}

const appJS = `
function validateUser(user) {
  if (!user.name) { throw new Error('name required'); }
  if (!user.email) { throw new Error('email required'); }
  return true;
}

function createUser(req, res) {
  validateUser(req.body);
  res.json({ok: true});
}

app.post('/api/users', createUser);
`

const indexHTML = `
<html><body>
<section id="signup"></section>
<script>
fetch('/api/users');
</script>
</body></html>
`

func scanFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app.js":     appJS,
		"index.html": indexHTML,
	})
	return root
}

func TestIngestDryRun(t *testing.T) {
	driver := &recordingDriver{}
	pipe := New(config.Default(), driver, nil, zap.NewNop().Sugar())

	summary, err := pipe.Ingest(context.Background(), Options{
		Root:   scanFixture(t),
		DryRun: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Files)
	assert.Equal(t, 2, summary.Functions)
	assert.Equal(t, 1, summary.Endpoints)
	assert.GreaterOrEqual(t, summary.UIComponents, 1)
	assert.GreaterOrEqual(t, summary.APICalls, 1)

	assert.False(t, driver.connected, "dry run never touches the store")
	assert.Empty(t, driver.queries)
}

func TestIngestLoadsAfterClear(t *testing.T) {
	driver := &recordingDriver{}
	pipe := New(config.Default(), driver, nil, zap.NewNop().Sugar())

	_, err := pipe.Ingest(context.Background(), Options{Root: scanFixture(t)})
	require.NoError(t, err)

	assert.True(t, driver.connected)
	assert.True(t, driver.closed)

	require.NotEmpty(t, driver.statements)
	assert.Contains(t, driver.statements[0], "DETACH DELETE", "rebuild clears first")

	var sawSchema bool
	for _, stmt := range driver.statements[1:] {
		if strings.Contains(stmt, "IF NOT EXISTS") {
			sawSchema = true
		}
	}
	assert.True(t, sawSchema, "schema applies after the clear")

	var sawFile, sawFunction, sawEndpoint bool
	for _, q := range driver.queries {
		switch {
		case strings.Contains(q, "MERGE (f:File"):
			sawFile = true
		case strings.Contains(q, "MERGE (fn:Function"):
			sawFunction = true
		case strings.Contains(q, "MERGE (e:Endpoint"):
			sawEndpoint = true
		}
	}
	assert.True(t, sawFile)
	assert.True(t, sawFunction)
	assert.True(t, sawEndpoint)
}

func TestIngestRerunProducesSameGraph(t *testing.T) {
	root := scanFixture(t)
	log := zap.NewNop().Sugar()

	firstDriver := &recordingDriver{}
	first, err := New(config.Default(), firstDriver, nil, log).
		Ingest(context.Background(), Options{Root: root})
	require.NoError(t, err)

	secondDriver := &recordingDriver{}
	second, err := New(config.Default(), secondDriver, nil, log).
		Ingest(context.Background(), Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, first, second, "unchanged source yields identical entity counts")
	assert.Equal(t, firstDriver.queries, secondDriver.queries)

	// Every entity write is a merge-by-key upsert, so replaying the
	// same batch can only update properties, never duplicate nodes.
	for _, q := range firstDriver.queries {
		assert.Contains(t, q, "MERGE", "load queries upsert")
		assert.NotContains(t, q, "CREATE")
	}
}

func TestIngestSkipsUnreadableFile(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"good.js": "function ok() { return 1; }",
	})
	// A dangling symlink is discovered but fails to read.
	require.NoError(t, os.Symlink(filepath.Join(root, "missing.js"), filepath.Join(root, "broken.js")))

	driver := &recordingDriver{}
	pipe := New(config.Default(), driver, nil, zap.NewNop().Sugar())

	summary, err := pipe.Ingest(context.Background(), Options{Root: root, DryRun: true})
	require.NoError(t, err, "a bad file loses only its own contribution")
	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, 1, summary.Functions)
}
