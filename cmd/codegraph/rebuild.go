package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codegraph/internal/config"
	"codegraph/internal/logging"
	"codegraph/internal/pipeline"
	"codegraph/internal/store"
)

var (
	flagDryRun         bool
	flagSkipLLM        bool
	flagSkipAnnotation bool
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Scan the codebase and rebuild the knowledge graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot()
		if err != nil {
			return err
		}
		cfg, err := config.Load(root)
		if err != nil {
			return err
		}
		log := logging.New(flagVerbose)
		defer log.Sync()

		provider := buildProvider(cfg, log)
		pipe := pipeline.New(cfg, store.NewNeo4jDriver(), provider, log)

		summary, err := pipe.Ingest(cmd.Context(), pipeline.Options{
			Root:           root,
			DryRun:         flagDryRun,
			SkipLLM:        flagSkipLLM,
			SkipAnnotation: flagSkipAnnotation,
		})
		if err != nil {
			return err
		}

		fmt.Printf("files: %d\nfunctions: %d\ncalls: %d\nendpoints: %d\nui components: %d\napi calls: %d\nsimilarities: %d\npatterns: %d\nopportunities: %d\n",
			summary.Files, summary.Functions, summary.Calls,
			summary.Endpoints, summary.UIComponents, summary.APICalls,
			summary.Similarities, summary.Patterns, summary.Opportunities)
		if summary.Concepts > 0 || summary.Annotated > 0 {
			fmt.Printf("concepts: %d\nannotated functions: %d\n", summary.Concepts, summary.Annotated)
		}
		return nil
	},
}

func init() {
	rebuildCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "parse and analyze without writing to the graph store")
	rebuildCmd.Flags().BoolVar(&flagSkipLLM, "skip-llm", false, "skip concept extraction and annotation")
	rebuildCmd.Flags().BoolVar(&flagSkipAnnotation, "skip-annotation", false, "extract concepts but skip per-function annotation")
	rootCmd.AddCommand(rebuildCmd)
}
