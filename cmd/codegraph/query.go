package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"codegraph/internal/config"
	"codegraph/internal/logging"
	"codegraph/internal/query"
	"codegraph/internal/store"
)

var (
	flagCypher      string
	flagInteractive bool
	flagJSON        bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Query the knowledge graph",
	Long:  "Ask a natural-language question about the codebase, run a raw Cypher\nquery with --cypher, or start an interactive session with --interactive.",
	Args:  cobra.MaximumNArgs(1),
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

		driver := store.NewNeo4jDriver()
		ctx := cmd.Context()
		if err := driver.Connect(ctx, cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password); err != nil {
			return err
		}
		defer driver.Close(ctx)

		engine := query.NewEngine(driver, buildProvider(cfg, log), log)

		if flagCypher != "" {
			records, err := engine.Run(ctx, flagCypher, nil)
			if err != nil {
				return err
			}
			return printRecords(records)
		}

		if flagInteractive {
			return runInteractive(cmd, engine)
		}

		if len(args) == 0 {
			return fmt.Errorf("a question, --cypher, or --interactive is required")
		}
		answer, err := engine.Ask(ctx, args[0])
		if err != nil {
			return err
		}
		printAnswer(answer)
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&flagCypher, "cypher", "", "run a raw Cypher query instead of a natural-language question")
	queryCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "read questions from stdin until EOF")
	queryCmd.Flags().BoolVar(&flagJSON, "json", false, "print results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runInteractive(cmd *cobra.Command, engine *query.Engine) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		answer, err := engine.Ask(cmd.Context(), line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printAnswer(answer)
	}
}

func printAnswer(answer *query.Answer) {
	if flagJSON {
		out, err := json.MarshalIndent(answer, "", "  ")
		if err == nil {
			fmt.Println(string(out))
		}
		return
	}
	fmt.Println(answer.Text)
	if flagVerbose && answer.Query != "" {
		fmt.Fprintf(os.Stderr, "\ncypher: %s\n", answer.Query)
	}
}

func printRecords(records []store.Record) error {
	if flagJSON {
		out, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	if len(records) == 0 {
		fmt.Println("no results")
		return nil
	}
	for _, record := range records {
		out, err := json.Marshal(record)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	}
	return nil
}
