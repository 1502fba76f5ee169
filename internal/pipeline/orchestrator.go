package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/urlmap/internal/config"
	"github.com/nao1215/urlmap/internal/extract"
	"github.com/nao1215/urlmap/internal/fetch"
	"github.com/nao1215/urlmap/internal/frontier"
	"github.com/nao1215/urlmap/internal/model"
	"github.com/nao1215/urlmap/internal/phase"
	"github.com/nao1215/urlmap/internal/suggest"
)

// State is the orchestrator's lifecycle state.
type State int

const (
	// StateIdle means Run has not been called.
	StateIdle State = iota

	// StateRunning means phases are executing.
	StateRunning

	// StateCompleted means the run finished and produced a result.
	StateCompleted

	// StateAborted means a fatal condition stopped the run before any
	// result could be assembled.
	StateAborted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Orchestrator executes the discovery phases in order against a shared
// frontier and assembles the DiscoveryResult.
//
// Design decision: The orchestrator is single-use rather than reusable
// because:
// 1. The frontier accumulates run state that must not leak between runs
// 2. Single-use keeps the state machine linear (Idle, Running, terminal)
// 3. Batch callers create one orchestrator per target
type Orchestrator struct {
	cfg    *config.Config
	deps   *phase.Deps
	phases []phase.Phase
	logger *slog.Logger
	state  State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger for the orchestrator and every
// component it wires.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithPhases overrides the phase list, primarily for tests.
func WithPhases(phases []phase.Phase) Option {
	return func(o *Orchestrator) {
		o.phases = phases
	}
}

// WithSuggester overrides the suggestion service, primarily for tests.
func WithSuggester(s *suggest.Service) Option {
	return func(o *Orchestrator) {
		if o.deps != nil {
			o.deps.Suggester = s
		}
	}
}

// New validates the configuration and wires the run's shared
// dependencies. Configuration problems that make the run impossible
// (invalid base URL, unusable scope) wrap ErrFatal.
func New(cfg *config.Config, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFatal, err)
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse base url: %w", ErrFatal, err)
	}

	scopeOpts := []frontier.ScopeOption{}
	if cfg.PathPrefix != "" {
		scopeOpts = append(scopeOpts, frontier.WithPathPrefix(cfg.PathPrefix))
	}
	allow := cfg.AllowExtensions
	if cfg.IncludePDFs {
		allow = append(allow, ".pdf")
	}
	if len(allow) > 0 {
		scopeOpts = append(scopeOpts, frontier.WithAllowExtensions(allow))
	}
	if len(cfg.DenyExtensions) > 0 {
		scopeOpts = append(scopeOpts, frontier.WithDenyExtensions(cfg.DenyExtensions))
	}

	scope, err := frontier.NewScopeRule(cfg.BaseURL, scopeOpts...)
	if err != nil {
		return nil, fmt.Errorf("%w: scope rule: %w", ErrFatal, err)
	}

	o := &Orchestrator{
		cfg:   cfg,
		state: StateIdle,
	}
	// Logger first so dependent components can receive it.
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	fetchOpts := []fetch.Option{
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithRetryCount(cfg.RetryCount),
		fetch.WithPerHostInterval(cfg.PerHostInterval),
		fetch.WithMaxConcurrent(cfg.MaxConcurrent),
		fetch.WithLogger(o.logger),
	}
	if len(cfg.Headers) > 0 {
		fetchOpts = append(fetchOpts, fetch.WithHeaders(cfg.Headers))
	}
	fetcher := fetch.New(&http.Client{Timeout: cfg.RequestTimeout}, fetchOpts...)

	var generator suggest.Generator
	if cfg.UseLLMKeywords && cfg.LLMAPIKey != "" {
		generator = suggest.NewAnthropicGenerator(cfg.LLMAPIKey)
	}
	suggester := suggest.NewService(generator,
		suggest.WithDailyBudget(cfg.DailyLLMBudget),
		suggest.WithMinSpacing(cfg.MinLLMSpacing),
		suggest.WithLogger(o.logger),
	)

	deps := &phase.Deps{
		Frontier:  frontier.New(frontier.NewNormalizer(), scope),
		Fetcher:   fetcher,
		Extractor: extract.New(),
		Suggester: suggester,
		Config:    cfg,
		Logger:    o.logger,
		Base:      base,
		Hints:     &phase.Hints{},
	}
	o.deps = deps
	if o.phases == nil {
		o.phases = phase.Select(cfg.Phases)
	}

	// Re-apply options that target the wired dependencies.
	for _, opt := range opts {
		opt(o)
	}

	return o, nil
}

// State returns the orchestrator's current state.
func (o *Orchestrator) State() State {
	return o.state
}

// Run executes all phases and assembles the result. Cancellation stops
// new work but still produces a result from whatever the frontier holds;
// the only error paths are reuse and fatal misconfiguration.
func (o *Orchestrator) Run(ctx context.Context) (*model.DiscoveryResult, error) {
	if o.state != StateIdle {
		o.state = StateAborted
		return nil, fmt.Errorf("%w: %w", ErrFatal, ErrAlreadyRan)
	}
	o.state = StateRunning

	if o.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Deadline)
		defer cancel()
	}

	result := model.NewDiscoveryResult(o.deps.Base.Host)
	o.logger.Info("discovery run started",
		"run_id", result.RunID,
		"base_url", o.cfg.BaseURL,
		"phases", len(o.phases),
	)

	budgetHit := false
	for _, p := range o.phases {
		stats := o.runPhase(ctx, p, budgetHit)
		result.PhaseStats = append(result.PhaseStats, stats)

		if !budgetHit && o.budgetExhausted(ctx) {
			budgetHit = true
			o.logger.Info("run budget exhausted, skipping remaining phases",
				"after_phase", p.Name(),
				"in_scope", o.deps.Frontier.InScopeCount(),
			)
		}
	}

	result.URLs = o.deps.Frontier.Snapshot()
	result.TotalURLs = len(result.URLs)
	result.LLMKeywordsGenerated = o.deps.Suggester.CallsUsed()
	result.FinishedAt = time.Now()
	o.state = StateCompleted

	o.logger.Info("discovery run finished",
		"run_id", result.RunID,
		"total_urls", result.TotalURLs,
		"duration_seconds", result.DiscoveryTimeSeconds(),
	)
	return result, nil
}

// runPhase executes one phase, or marks it skipped when the run budget
// is already spent. A phase error is recorded, never propagated.
func (o *Orchestrator) runPhase(ctx context.Context, p phase.Phase, skip bool) *model.PhaseStats {
	if skip || ctx.Err() != nil {
		stats := model.NewPhaseStats(p.Name())
		stats.Skipped = true
		o.logger.Debug("phase skipped", "phase", p.Name())
		return stats
	}

	o.logger.Info("phase started", "phase", p.Name())
	stats, err := p.Run(ctx, o.deps)
	if stats == nil {
		stats = model.NewPhaseStats(p.Name())
	}
	if err != nil && ctx.Err() == nil {
		stats.Error = err.Error()
		o.logger.Warn("phase failed", "phase", p.Name(), "error", err)
	}

	o.logger.Info("phase finished",
		"phase", p.Name(),
		"admitted", stats.Admitted,
		"duplicates", stats.Duplicates,
		"fetches", stats.Fetches,
		"duration", stats.Duration,
	)
	return stats
}

// budgetExhausted reports whether the page ceiling or the deadline has
// been reached.
func (o *Orchestrator) budgetExhausted(ctx context.Context) bool {
	if o.deps.Frontier.InScopeCount() >= o.cfg.MaxPages {
		return true
	}
	return ctx.Err() != nil
}
