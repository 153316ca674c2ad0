package main

import (
	"github.com/spf13/cobra"

	"codegraph/internal/config"
	"codegraph/internal/logging"
	"codegraph/internal/server"
	"codegraph/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the knowledge graph over MCP on stdio",
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

		srv := server.New(cfg, root, store.NewNeo4jDriver(), buildProvider(cfg, log), log)
		return srv.Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
