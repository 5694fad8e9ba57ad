// Package cli is the offline database mini-app behind the agent's "db"
// subcommand: schema initialization and telemetry queries against a SQLite
// file without starting the HTTP service.
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"threechess/internal/storage"
)

// Run is the entry point for the CLI mini-app
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: init, query")
	}

	switch args[0] {
	case "init":
		return runInit(args[1:])
	case "query":
		return runQuery(args[1:])
	default:
		return fmt.Errorf("unknown subcommand: %s", args[0])
	}
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	if err := store.InitDB(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	fmt.Printf("Database initialized at: %s\n", *path)
	return nil
}

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	path := fs.String("path", "", "Database file path (required)")
	color := fs.String("color", "", "Color to filter (optional, * for all)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path == "" {
		return fmt.Errorf("database path required")
	}

	store, err := storage.NewStore(*path, false)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	moves, err := store.QueryMoves(*color)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(moves) == 0 {
		fmt.Println("No moves found")
		return nil
	}

	// Print results in tabular format
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Request ID\tTime\tColor\tMove\tStage\tThink (ms)")
	fmt.Fprintln(w, strings.Repeat("-", 80))

	for _, m := range moves {
		id := m.RequestID
		if len(id) > 8 {
			id = id[:8] + "..."
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			id,
			m.Timestamp.Format("2006-01-02 15:04:05"),
			m.Color,
			m.Move,
			m.Stage,
			m.ThinkingMS,
		)
	}
	w.Flush()

	fmt.Printf("\nFound %d move(s)\n", len(moves))
	return nil
}
