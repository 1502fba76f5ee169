package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for urlmap.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "urlmap",
		Short: "Map the URL space of a website",
		Long: `urlmap maps the URL space of a website.

It combines sitemap and feed parsing, robots.txt analysis, web-archive
seeding, recursive crawling, and systematic probing into one
deduplicated, scope-filtered list of URLs per target.

By default the discovered URLs are persisted to a local SQLite database
so that past runs can be listed and compared.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewDiscoverCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
