package suggest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultDailyBudget is the maximum number of generator calls per
	// calendar day.
	DefaultDailyBudget = 50

	// DefaultMinSpacing is the minimum interval between generator calls.
	DefaultMinSpacing = 1500 * time.Millisecond

	// DefaultCallTimeout bounds a single generator call.
	DefaultCallTimeout = 30 * time.Second
)

// ErrBudgetExhausted signals that the daily generator budget is spent.
// It never escapes Suggest; it is returned by tryGenerate and logged.
var ErrBudgetExhausted = errors.New("suggest: daily budget exhausted")

// Generator produces suggestion lists from a prompt. Implementations
// may fail; the Service absorbs those failures.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
}

// Service answers suggestion requests under a daily call budget with a
// static fallback.
//
// Design decision: Suggest never returns an error because:
//  1. Probing phases treat suggestions as optional enrichment
//  2. A failed or rationed LLM must not abort discovery
//  3. The static fallback keeps behavior deterministic when the
//     generator is unavailable
type Service struct {
	generator Generator
	fallback  []string
	budget    int
	spacing   time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	now       func() time.Time

	mu        sync.Mutex
	cache     map[string][]string
	callsUsed int
	budgetDay string
	lastCall  time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDailyBudget sets the maximum generator calls per calendar day.
func WithDailyBudget(n int) ServiceOption {
	return func(s *Service) {
		if n >= 0 {
			s.budget = n
		}
	}
}

// WithMinSpacing sets the minimum interval between generator calls.
func WithMinSpacing(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d >= 0 {
			s.spacing = d
		}
	}
}

// WithCallTimeout bounds a single generator call.
func WithCallTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFallback replaces the static fallback list.
func WithFallback(paths []string) ServiceOption {
	return func(s *Service) {
		if len(paths) > 0 {
			s.fallback = paths
		}
	}
}

// WithLogger sets the service's logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// withClock overrides the time source for tests.
func withClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a suggestion Service around the given generator.
// A nil generator is valid and always answers from the fallback.
func NewService(generator Generator, opts ...ServiceOption) *Service {
	s := &Service{
		generator: generator,
		fallback:  FallbackDirectories(),
		budget:    DefaultDailyBudget,
		spacing:   DefaultMinSpacing,
		timeout:   DefaultCallTimeout,
		cache:     make(map[string][]string),
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Suggest returns suggestions for the prompt. The second return value
// reports whether a generator call was spent answering it; cache hits
// and fallback answers cost nothing against the budget.
func (s *Service) Suggest(ctx context.Context, prompt string) ([]string, bool) {
	key := promptKey(prompt)

	s.mu.Lock()
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached, false
	}
	s.mu.Unlock()

	suggestions, err := s.tryGenerate(ctx, prompt)
	if err != nil {
		s.logger.Debug("suggestion generator unavailable, using fallback",
			"error", err,
		)
		return s.fallback, false
	}

	s.mu.Lock()
	s.cache[key] = suggestions
	s.mu.Unlock()

	return suggestions, true
}

// CallsUsed returns how many generator calls the current day has spent.
func (s *Service) CallsUsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callsUsed
}

// tryGenerate spends one budget slot on a generator call, enforcing
// spacing between calls.
func (s *Service) tryGenerate(ctx context.Context, prompt string) ([]string, error) {
	if s.generator == nil {
		return nil, errors.New("suggest: no generator configured")
	}

	wait, err := s.reserve()
	if err != nil {
		return nil, err
	}

	if wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	suggestions, err := s.generator.Generate(callCtx, prompt)
	if err != nil {
		return nil, err
	}
	if len(suggestions) == 0 {
		return nil, errors.New("suggest: generator returned nothing")
	}
	return suggestions, nil
}

// reserve claims a budget slot and returns how long the caller must
// wait to honor the spacing rule. The budget counter resets when the
// local calendar date changes.
func (s *Service) reserve() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	day := now.Format(time.DateOnly)
	if day != s.budgetDay {
		s.budgetDay = day
		s.callsUsed = 0
	}

	if s.callsUsed >= s.budget {
		return 0, ErrBudgetExhausted
	}
	s.callsUsed++

	var wait time.Duration
	if !s.lastCall.IsZero() {
		if elapsed := now.Sub(s.lastCall); elapsed < s.spacing {
			wait = s.spacing - elapsed
		}
	}
	s.lastCall = now.Add(wait)

	return wait, nil
}

// promptKey normalizes a prompt and hashes it for cache lookup.
func promptKey(prompt string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(prompt)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
