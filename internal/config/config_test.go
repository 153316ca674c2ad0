package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.User)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Contains(t, cfg.Scan.Include, "**/*.ts")
	assert.Contains(t, cfg.Scan.Exclude, "node_modules")
}

func TestDefaultIncludeCoversSupportedExtensions(t *testing.T) {
	include := Default().Scan.Include
	for _, ext := range []string{"js", "mjs", "cjs", "jsx", "ts", "tsx", "html", "htm"} {
		assert.Contains(t, include, "**/*."+ext)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default().Neo4j.URI, cfg.Neo4j.URI)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(`
neo4j:
  uri: bolt://graph:7687
  user: admin
scan:
  exclude: [vendor]
`), 0o644))

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "bolt://graph:7687", cfg.Neo4j.URI)
	assert.Equal(t, "admin", cfg.Neo4j.User)
	assert.Equal(t, "password", cfg.Neo4j.Password, "unset keys keep defaults")
	assert.Equal(t, []string{"vendor"}, cfg.Scan.Exclude)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("neo4j: [broken"), 0o644))

	_, err := Load(root)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://env:7687")
	t.Setenv("NEO4J_PASSWORD", "hunter2")
	t.Setenv("CODEGRAPH_LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "bolt://env:7687", cfg.Neo4j.URI)
	assert.Equal(t, "hunter2", cfg.Neo4j.Password)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestAnthropicKeyDefault(t *testing.T) {
	t.Setenv("CODEGRAPH_LLM_PROVIDER", "")
	t.Setenv("ANTHROPIC_API_KEY", "ant-test")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "ant-test", cfg.LLM.APIKey)
}
