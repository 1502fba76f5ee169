package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/urlmap/internal/config"
	"github.com/nao1215/urlmap/internal/database"
	"github.com/nao1215/urlmap/internal/log"
	"github.com/nao1215/urlmap/internal/model"
	"github.com/nao1215/urlmap/internal/pipeline"
	"github.com/nao1215/urlmap/internal/report"
)

// envAPIKey is the environment variable holding the suggestion-model
// API key. The key is never accepted as a flag or config value so it
// cannot leak into shell history or config files.
const envAPIKey = "ANTHROPIC_API_KEY"

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover [base-url]",
		Short: "Discover the URLs of a website",
		Long: `Discover runs the full URL discovery pipeline against one or more base URLs.

The pipeline runs phases in a fixed order: sitemap and robots.txt
parsing, feed discovery, web-archive seeding, recursive and
hierarchical crawling, directory probing, numeric pattern generation,
aggressive deep crawling, and search-form probing. All phases feed one
deduplicated, scope-filtered URL set.

Examples:
  # Discover a single site
  urlmap discover https://example.com

  # Discover multiple sites concurrently
  urlmap discover https://example.com https://example.org

  # Restrict discovery to a path and cap the page budget
  urlmap discover --path-prefix /docs --max-pages 500 https://example.com

  # Run only selected phases
  urlmap discover --phases sitemap_discovery,robots_analysis https://example.com

  # Output a JSON report to a file
  urlmap discover --json -o report.json https://example.com

  # Enable LLM keyword suggestions (reads ` + envAPIKey + ` from the environment)
  urlmap discover --use-llm-keywords https://example.com

Configuration file (.urlmap) example:
  defaults:
    maxDepth: 2
  sites:
    example.com:
      pathPrefix: /blog
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ArbitraryArgs,
		RunE: runDiscoverCmd,
	}

	// Discovery budget flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of URLs admitted before remaining phases are skipped")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum recursion depth for the recursive crawl phase")
	cmd.Flags().Duration("deadline", 0,
		"Overall wall-clock budget for the run (0 means no deadline)")

	// Fetch behavior flags
	cmd.Flags().Int("max-concurrent", config.DefaultMaxConcurrent,
		"Fetch concurrency ceiling shared across all phases")
	cmd.Flags().DurationP("timeout", "t", config.DefaultRequestTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().Duration("per-host-interval", config.DefaultPerHostInterval,
		"Minimum spacing between requests to the same host")
	cmd.Flags().Int("retry", config.DefaultRetryCount,
		"Retry budget for transient fetch failures")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")

	// Scope flags
	cmd.Flags().String("path-prefix", "",
		"Restrict scope to URLs under this path")
	cmd.Flags().Bool("include-pdfs", true,
		"Include .pdf URLs in the discovered set")
	cmd.Flags().StringSlice("allow-ext", nil,
		"Additional file extensions to allow (e.g., .docx)")
	cmd.Flags().StringSlice("deny-ext", nil,
		"File extensions to exclude (e.g., .zip)")

	// Phase selection
	cmd.Flags().StringSlice("phases", nil,
		"Run only the named phases, in the default order (default: all)")

	// LLM suggestion flags
	cmd.Flags().Bool("use-llm-keywords", false,
		"Use LLM keyword suggestions for directory probing (requires "+envAPIKey+")")
	cmd.Flags().Int("llm-budget", config.DefaultDailyLLMBudget,
		"Maximum LLM suggestion calls per calendar day")

	// Archive seeding
	cmd.Flags().Int("archive-cap", config.DefaultArchiveResultCap,
		"Maximum URLs taken from the web-archive index")

	// Batch discovery
	cmd.Flags().IntP("batch", "b", 3,
		"Number of concurrent discoveries when multiple base URLs are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .urlmap in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().String("phase-report-dir", "",
		"Write one JSON report per phase into this directory")

	return cmd
}

// runDiscoverCmd executes the discover command.
func runDiscoverCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with API key redaction
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}

	return runDiscover(ctx, cfg, args, batch, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags. The first
// positional argument becomes the base URL; additional targets are
// handled per run via configForTarget.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	// Get flag values
	var err error

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.Deadline, err = cmd.Flags().GetDuration("deadline")
	if err != nil {
		return nil, err
	}

	cfg.MaxConcurrent, err = cmd.Flags().GetInt("max-concurrent")
	if err != nil {
		return nil, err
	}

	cfg.RequestTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.PerHostInterval, err = cmd.Flags().GetDuration("per-host-interval")
	if err != nil {
		return nil, err
	}

	cfg.RetryCount, err = cmd.Flags().GetInt("retry")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.PathPrefix, err = cmd.Flags().GetString("path-prefix")
	if err != nil {
		return nil, err
	}

	cfg.IncludePDFs, err = cmd.Flags().GetBool("include-pdfs")
	if err != nil {
		return nil, err
	}

	cfg.AllowExtensions, err = cmd.Flags().GetStringSlice("allow-ext")
	if err != nil {
		return nil, err
	}

	cfg.DenyExtensions, err = cmd.Flags().GetStringSlice("deny-ext")
	if err != nil {
		return nil, err
	}

	cfg.Phases, err = cmd.Flags().GetStringSlice("phases")
	if err != nil {
		return nil, err
	}

	cfg.UseLLMKeywords, err = cmd.Flags().GetBool("use-llm-keywords")
	if err != nil {
		return nil, err
	}

	cfg.DailyLLMBudget, err = cmd.Flags().GetInt("llm-budget")
	if err != nil {
		return nil, err
	}

	cfg.ArchiveResultCap, err = cmd.Flags().GetInt("archive-cap")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from config file
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		// User explicitly specified a config file that doesn't exist
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		// Use empty config if no file found and user didn't explicitly specify one
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	cfg.PhaseReportDir, err = cmd.Flags().GetString("phase-report-dir")
	if err != nil {
		return nil, err
	}

	cfg.Verbose = getVerboseFlag(cmd)

	// The suggestion-model API key comes from the environment only.
	if cfg.UseLLMKeywords {
		cfg.LLMAPIKey = os.Getenv(envAPIKey)
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	// The first positional argument is the primary base URL
	if len(args) > 0 {
		cfg.BaseURL = args[0]
	}

	return cfg, nil
}

// configForTarget clones the base config for one target URL and applies
// any per-site overrides from the config file.
func configForTarget(cfg *config.Config, target string) *config.Config {
	tcfg := *cfg
	tcfg.BaseURL = target

	if cfg.SiteConfigs == nil {
		return &tcfg
	}

	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return &tcfg
	}

	site := cfg.SiteConfigs.GetSiteConfig(u.Host)
	if site.PathPrefix != "" {
		tcfg.PathPrefix = site.PathPrefix
	}
	if site.MaxDepth != 0 {
		tcfg.MaxDepth = site.MaxDepth
	}
	if len(site.Headers) > 0 {
		tcfg.Headers = site.Headers
	}
	if len(site.AllowExtensions) > 0 {
		tcfg.AllowExtensions = site.AllowExtensions
	}
	if len(site.DenyExtensions) > 0 {
		tcfg.DenyExtensions = site.DenyExtensions
	}
	if len(site.Phases) > 0 {
		tcfg.Phases = site.Phases
	}

	return &tcfg
}

// runDiscover executes the discovery for all targets.
func runDiscover(ctx context.Context, cfg *config.Config, targets []string, batch int, logger *slog.Logger) error {
	if len(targets) == 0 {
		return errors.New("no targets provided (specify one or more base URLs as arguments)")
	}

	logger.Info("starting discovery",
		"targets", targets,
		"maxPages", cfg.MaxPages,
		"batch", batch,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.DiscoveryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Discover multiple targets concurrently
	if len(targets) > 1 && batch > 1 {
		return runBatchDiscovery(ctx, cfg, targets, batch, db, logger)
	}

	// Single target or sequential discovery
	return runSequentialDiscovery(ctx, cfg, targets, db, logger)
}

// runSequentialDiscovery discovers targets one at a time.
func runSequentialDiscovery(ctx context.Context, cfg *config.Config, targets []string, db *database.DiscoveryDB, logger *slog.Logger) error {
	for _, target := range targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		orch, err := pipeline.New(configForTarget(cfg, target), pipeline.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("cannot discover %s: %w", target, err)
		}

		fmt.Printf("Discovering %s...\n", target)
		startTime := time.Now()

		result, err := orch.Run(ctx)
		if err != nil {
			return fmt.Errorf("discovery failed for %s: %w", target, err)
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Discovered %d URLs in %s\n\n", result.TotalURLs, elapsed.Round(time.Millisecond))

		if err := outputReport(cfg, result); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}

		if err := saveResult(ctx, db, result, logger); err != nil {
			logger.Error("failed to save result", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchDiscovery discovers multiple targets concurrently using
// BatchRunner. Reports and persistence happen after the batch completes.
func runBatchDiscovery(ctx context.Context, cfg *config.Config, targets []string, batch int, db *database.DiscoveryDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch discovery of %d targets (concurrency: %d)...\n\n",
		len(targets), batch)

	startTime := time.Now()

	runner := pipeline.NewBatchRunner(
		func(baseURL string) (*pipeline.Orchestrator, error) {
			return pipeline.New(configForTarget(cfg, baseURL), pipeline.WithLogger(logger))
		},
		pipeline.WithBatchConcurrency(batch),
		pipeline.WithBatchLogger(logger),
	)

	results, runErr := runner.Run(ctx, targets)

	for i, result := range results {
		fmt.Printf("[%d/%d] %s: %d URLs\n", i+1, len(results), result.BaseDomain, result.TotalURLs)

		if err := outputReport(cfg, result); err != nil {
			logger.Error("report failed", "target", result.BaseDomain, "error", err)
		}
		if err := saveResult(ctx, db, result, logger); err != nil {
			logger.Error("failed to save result", "target", result.BaseDomain, "error", err)
		}
	}

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch discovery completed in %s\n", elapsed.Round(time.Millisecond))

	return runErr
}

// outputReport outputs the discovery result in the requested format.
func outputReport(cfg *config.Config, result *model.DiscoveryResult) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	if _, err := writer.Write(result); err != nil {
		return err
	}

	if cfg.PhaseReportDir != "" {
		return writePhaseReports(cfg.PhaseReportDir, result)
	}
	return nil
}

// writePhaseReports writes one JSON file per executed phase into dir.
// Skipped phases produce no file.
func writePhaseReports(dir string, result *model.DiscoveryResult) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create phase report directory: %w", err)
	}

	for _, stats := range result.PhaseStats {
		if stats.Skipped {
			continue
		}

		path := filepath.Join(dir, stats.Name+".json")
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create phase report %s: %w", path, err)
		}

		_, err = report.NewPhaseJSONWriter(f, stats.Name).Write(result)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return fmt.Errorf("failed to write phase report %s: %w", path, err)
		}
	}

	return nil
}

// saveResult saves the discovery result to the database if enabled.
// If db is nil, this function is a no-op.
func saveResult(ctx context.Context, db *database.DiscoveryDB, result *model.DiscoveryResult, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	if err := db.SaveResult(ctx, result); err != nil {
		return fmt.Errorf("failed to save discovery result: %w", err)
	}

	logger.Info("discovery result saved to database",
		"run_id", result.RunID,
		"base_domain", result.BaseDomain,
	)
	return nil
}
