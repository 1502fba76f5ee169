package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/urlmap/internal/config"
	"github.com/nao1215/urlmap/internal/database"
)

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [domain]",
		Short: "List past discovery runs",
		Long: `Runs lists discovery runs stored in the local database, newest first.

With a domain argument, only runs for that domain are listed. Use
--show with a run ID to print the URLs a run discovered.

Examples:
  # List all stored runs
  urlmap runs

  # List runs for one domain
  urlmap runs example.com

  # Print the URLs of a specific run
  urlmap runs --show 6f1c2a8e-0b7d-4f7e-9c2a-1d3e5f7a9b0c`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunsCmd,
	}

	cmd.Flags().String("show", "", "Print the URLs discovered by the given run ID")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, args []string) error {
	runID, err := cmd.Flags().GetString("show")
	if err != nil {
		return err
	}

	// The database must already exist; listing never creates it.
	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	db, err := database.Open(config.XDGDataDir(), opts)
	if err != nil {
		return fmt.Errorf("no discovery database found (run 'urlmap discover' first): %w", err)
	}
	defer db.Close()

	if runID != "" {
		return showRunURLs(cmd, db, runID)
	}

	domain := ""
	if len(args) > 0 {
		domain = args[0]
	}
	return listRuns(cmd, db, domain)
}

// listRuns prints stored run summaries, newest first.
func listRuns(cmd *cobra.Command, db *database.DiscoveryDB, domain string) error {
	runs, err := db.ListRuns(cmd.Context(), domain)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if domain != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No runs found for %s\n", domain)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs found")
		}
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %-30s %5d urls  %.1fs\n",
			run.RunID,
			run.StartedAt.Local().Format(time.DateTime),
			run.BaseDomain,
			run.TotalURLs,
			run.DurationSeconds,
		)
	}

	return nil
}

// showRunURLs prints the URL records stored for one run.
func showRunURLs(cmd *cobra.Command, db *database.DiscoveryDB, runID string) error {
	urls, err := db.GetRunURLs(cmd.Context(), runID)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	if len(urls) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No URLs stored for run %s\n", runID)
		return nil
	}

	for _, rec := range urls {
		fmt.Fprintln(cmd.OutOrStdout(), rec.URL)
	}

	return nil
}
