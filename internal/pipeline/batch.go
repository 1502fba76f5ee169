package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/urlmap/internal/model"
)

// BatchRunner discovers multiple base URLs concurrently, one
// orchestrator per target.
//
// Design decision: We use a separate BatchRunner rather than adding
// multi-target support to Orchestrator because:
// 1. It keeps the Orchestrator focused on single-run execution
// 2. Each target gets its own frontier, budgets, and result
// 3. Batch concurrency composes with the per-run fetch ceiling
type BatchRunner struct {
	// factory creates a fresh orchestrator for each base URL.
	// Orchestrators are single-use, so each target needs its own.
	factory func(baseURL string) (*Orchestrator, error)

	// concurrency is the maximum number of concurrent runs.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger

	mu      sync.Mutex
	results []*model.DiscoveryResult
}

// BatchOption configures a BatchRunner.
type BatchOption func(*BatchRunner)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchRunner) {
		b.logger = logger
	}
}

// WithBatchConcurrency sets the maximum number of concurrent runs.
// Default is 3.
func WithBatchConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchRunner creates a BatchRunner. The factory is called once per
// base URL to create that target's orchestrator.
func NewBatchRunner(factory func(baseURL string) (*Orchestrator, error), opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{
		factory:     factory,
		concurrency: 3,
	}

	for _, opt := range opts {
		opt(b)
	}

	if b.logger == nil {
		b.logger = slog.Default()
	}

	return b
}

// Run discovers every base URL and returns the results in completion
// order. A fatally misconfigured target fails the batch; phase-level
// failures stay inside their run's stats as usual.
func (b *BatchRunner) Run(ctx context.Context, baseURLs []string) ([]*model.DiscoveryResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for _, baseURL := range baseURLs {
		g.Go(func() error {
			orch, err := b.factory(baseURL)
			if err != nil {
				return err
			}

			result, err := orch.Run(gctx)
			if err != nil {
				return err
			}

			b.logger.Info("batch target finished",
				"base_url", baseURL,
				"total_urls", result.TotalURLs,
			)

			b.mu.Lock()
			b.results = append(b.results, result)
			b.mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return b.snapshotResults(), err
	}
	return b.snapshotResults(), nil
}

// snapshotResults returns a copy of the accumulated results.
func (b *BatchRunner) snapshotResults() []*model.DiscoveryResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*model.DiscoveryResult, len(b.results))
	copy(out, b.results)
	return out
}
