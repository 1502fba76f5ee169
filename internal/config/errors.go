package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoBaseURL is returned when no base URL is specified.
	ErrNoBaseURL = errors.New("no base URL specified: provide a target site URL")

	// ErrInvalidBaseURL is returned when the base URL cannot be parsed
	// or is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http or https URL")

	// ErrInvalidMaxPages is returned when the page ceiling is not positive.
	// A ceiling of zero would mean no discovery at all.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be positive")

	// ErrInvalidMaxDepth is returned when the crawl depth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrInvalidMaxConcurrent is returned when the concurrency ceiling
	// is not positive.
	ErrInvalidMaxConcurrent = errors.New("invalid max concurrent: must be positive")

	// ErrInvalidTimeout is returned when the request timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid request timeout: must be positive")

	// ErrInvalidPerHostInterval is returned when the per-host interval is
	// negative. Use 0 for no spacing between requests.
	ErrInvalidPerHostInterval = errors.New("invalid per-host interval: must be non-negative")

	// ErrInvalidLLMBudget is returned when the daily suggestion budget is
	// negative. Use 0 to disable real suggestion calls entirely.
	ErrInvalidLLMBudget = errors.New("invalid daily LLM budget: must be non-negative")

	// ErrInvalidLLMSpacing is returned when the suggestion-call spacing is
	// negative.
	ErrInvalidLLMSpacing = errors.New("invalid LLM spacing: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 to apply the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified. Only one output format can be used.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
