package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to balance coverage against politeness toward
// target sites, matching the behavior of typical reconnaissance runs.
const (
	// DefaultMaxPages is the maximum number of URL records admitted to
	// the frontier before remaining phases are skipped. This prevents
	// runaway discovery on large or infinitely-generating sites.
	DefaultMaxPages = 100

	// DefaultMaxDepth limits breadth-first link expansion from the base
	// URL during the recursive crawl phase. Depth 0 means only the base
	// page itself.
	DefaultMaxDepth = 3

	// DefaultMaxConcurrent is the size of the fetch worker ceiling shared
	// across all phases. Higher values increase throughput but risk
	// triggering rate limiting on the target.
	DefaultMaxConcurrent = 5

	// DefaultRequestTimeout is the per-request timeout. Discovery targets
	// are ordinary clearnet sites, so 20 seconds is generous.
	DefaultRequestTimeout = 20 * time.Second

	// DefaultPerHostInterval is the minimum spacing between requests to
	// the same host. This is a politeness setting.
	DefaultPerHostInterval = 1 * time.Second

	// DefaultRetryCount is the number of retries for transient fetch
	// failures (timeouts, connection resets, 5xx, 429).
	DefaultRetryCount = 3

	// DefaultDailyLLMBudget is the hard ceiling on real suggestion-service
	// calls per calendar day. Cache hits and fallbacks are unbounded.
	DefaultDailyLLMBudget = 50

	// DefaultMinLLMSpacing is the minimum interval between consecutive
	// real suggestion-service calls.
	DefaultMinLLMSpacing = 1500 * time.Millisecond

	// DefaultArchiveResultCap bounds how many URLs the historical-archive
	// seeding phase will take from the archive API.
	DefaultArchiveResultCap = 5000

	// DefaultPatternFailureRun is the number of consecutive generated
	// variants that must fail an existence check before pattern
	// generation abandons a template.
	DefaultPatternFailureRun = 5

	// DefaultUserAgent identifies urlmap in HTTP requests. A descriptive
	// User-Agent lets site operators identify scanner traffic in logs.
	DefaultUserAgent = "urlmap/1.0 (+https://github.com/nao1215/urlmap)"

	// DefaultMaxBodySize limits the response body size read per page.
	// 5MB is sufficient for HTML and sitemap documents while preventing
	// memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "urlmap"
)

// Config holds all configuration options for a discovery run.
// This struct is populated from CLI flags and the optional config file,
// then passed through the application via dependency injection rather
// than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, SuggestConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// BaseURL is the root URL of the target site. Required.
	BaseURL string

	// MaxPages is the ceiling on URL records admitted to the frontier.
	// Once reached, the running phase drains its in-flight work and all
	// subsequent phases are skipped.
	MaxPages int

	// MaxDepth limits breadth-first expansion during the recursive crawl.
	MaxDepth int

	// MaxConcurrent is the shared fetch concurrency ceiling for the
	// whole run. Phases do not get their own pools.
	MaxConcurrent int

	// Deadline is the overall wall-clock budget for the run.
	// Zero means no deadline.
	Deadline time.Duration

	// RequestTimeout is the per-request timeout.
	RequestTimeout time.Duration

	// PerHostInterval is the minimum spacing between requests to the
	// same host.
	PerHostInterval time.Duration

	// RetryCount is the retry budget for transient fetch failures.
	RetryCount int

	// PathPrefix restricts scope to URLs under this path, when set.
	PathPrefix string

	// IncludePDFs adds ".pdf" to the extension allow list.
	IncludePDFs bool

	// AllowExtensions and DenyExtensions adjust the scope rule's
	// file-extension filtering (e.g., allow ".docx", deny ".zip").
	AllowExtensions []string
	DenyExtensions  []string

	// UseLLMKeywords enables the budgeted suggestion service. When
	// false, phases that consult it receive static fallback suggestions.
	UseLLMKeywords bool

	// LLMAPIKey authenticates against the external suggestion model.
	// Read from the environment, never from flags, so it cannot leak
	// into shell history.
	LLMAPIKey string

	// DailyLLMBudget is the ceiling on real suggestion calls per
	// calendar day.
	DailyLLMBudget int

	// MinLLMSpacing is the minimum interval between real suggestion
	// calls.
	MinLLMSpacing time.Duration

	// ArchiveResultCap bounds archive-API seeding.
	ArchiveResultCap int

	// PatternFailureRun is the consecutive-failure run length that stops
	// pattern generation for a template.
	PatternFailureRun int

	// Phases selects a subset of discovery phases by name. Empty means
	// all phases in the default order.
	Phases []string

	// UserAgent is the User-Agent header sent with requests.
	UserAgent string

	// Headers are extra HTTP headers sent with every request, typically
	// populated from a per-site config file entry.
	Headers map[string]string

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Verbose enables debug-level logging.
	Verbose bool

	// DBDir is the directory for the SQLite results database. When
	// empty, results are not persisted. Defaults to the XDG data dir.
	DBDir string

	// SaveToDB indicates whether to persist the discovery result.
	SaveToDB bool

	// JSONReport and MarkdownReport select the output format.
	// Mutually exclusive; the default is a human-readable summary.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the output file path for the report. Empty means
	// stdout.
	ReportFile string

	// PhaseReportDir, when set, writes one JSON object per phase
	// ({timestamp, source_module, base_domain, total_urls, urls}) into
	// the directory, alongside the consolidated report.
	PhaseReportDir string

	// ConfigFilePath is the path to the configuration file. If empty,
	// the tool searches for .urlmap in the current directory and then
	// in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		MaxPages:          DefaultMaxPages,
		MaxDepth:          DefaultMaxDepth,
		MaxConcurrent:     DefaultMaxConcurrent,
		RequestTimeout:    DefaultRequestTimeout,
		PerHostInterval:   DefaultPerHostInterval,
		RetryCount:        DefaultRetryCount,
		IncludePDFs:       true,
		DailyLLMBudget:    DefaultDailyLLMBudget,
		MinLLMSpacing:     DefaultMinLLMSpacing,
		ArchiveResultCap:  DefaultArchiveResultCap,
		PatternFailureRun: DefaultPatternFailureRun,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for urlmap.
// On Linux: ~/.local/share/urlmap
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for urlmap.
// On Linux: ~/.cache/urlmap
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// The first error found is returned because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrNoBaseURL
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidBaseURL
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.MaxConcurrent <= 0 {
		return ErrInvalidMaxConcurrent
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.PerHostInterval < 0 {
		return ErrInvalidPerHostInterval
	}

	if c.DailyLLMBudget < 0 {
		return ErrInvalidLLMBudget
	}

	if c.MinLLMSpacing < 0 {
		return ErrInvalidLLMSpacing
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}
