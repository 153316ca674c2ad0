package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codegraph/internal/config"
	"codegraph/internal/llm"
	"codegraph/util"
)

var (
	flagRoot    string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "codegraph",
	Short:         "Build and query a knowledge graph of a codebase",
	Long:          "codegraph parses JavaScript, TypeScript and HTML sources into a typed\nentity graph, detects duplicated code, and loads the result into Neo4j\nfor Cypher and natural-language queries.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "codebase root to scan (defaults to the enclosing git repository)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
}

// resolveRoot picks the scan root: the --root flag when set, otherwise
// the enclosing git repository, otherwise the working directory.
func resolveRoot() (string, error) {
	if flagRoot != "" {
		return filepath.Abs(flagRoot)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if repo, err := util.FindRepoRoot(cwd); err == nil {
		return repo, nil
	}
	return cwd, nil
}

// buildProvider returns the configured LLM provider, or nil when no
// API key is available. Callers treat nil as "LLM stages disabled".
func buildProvider(cfg *config.Config, log *zap.SugaredLogger) llm.Provider {
	if cfg.LLM.APIKey == "" {
		log.Debugw("no llm api key configured, model stages disabled", "provider", cfg.LLM.Provider)
		return nil
	}
	provider, err := llm.DefaultRegistry.Get(cfg.LLM.Provider, llm.Config{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.Model,
	})
	if err != nil {
		log.Warnw("llm provider unavailable", "provider", cfg.LLM.Provider, "error", err)
		return nil
	}
	return provider
}
