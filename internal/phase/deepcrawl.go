package phase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/urlmap/internal/extract"
	"github.com/nao1215/urlmap/internal/frontier"
	"github.com/nao1215/urlmap/internal/model"
)

// AggressiveCrawl re-visits pages the earlier phases already fetched,
// this time extracting from the superset of sources (link and area
// elements included). It runs late because it spends requests on pages
// whose cheap links are already harvested.
type AggressiveCrawl struct {
	extractor *extract.Extractor
}

// NewAggressiveCrawl creates the aggressive deep crawl phase.
func NewAggressiveCrawl() *AggressiveCrawl {
	return &AggressiveCrawl{
		extractor: extract.New(extract.WithAggressive(true)),
	}
}

// Name returns the phase name.
func (p *AggressiveCrawl) Name() string { return NameAggressiveCrawl }

// Run re-extracts every in-scope record while budget remains.
func (p *AggressiveCrawl) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	if pageBudgetReached(d) {
		return stats, nil
	}

	batch := d.Frontier.TakePending(frontier.ExpandAggressive, 0)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.Config.MaxConcurrent)

	for _, rec := range batch {
		g.Go(func() error {
			if pageBudgetReached(d) {
				return nil
			}

			mu.Lock()
			stats.Fetches++
			mu.Unlock()

			resp, err := d.Fetcher.Do(gctx, rec.URL)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				mu.Lock()
				countFetchError(stats, err)
				mu.Unlock()
				return nil
			}
			d.Frontier.SetStatus(rec.URL, resp.StatusCode)
			if !resp.OK() {
				return nil
			}

			links := p.extractor.Extract(resp.Body, resp.ContentType(), resp.FinalURL)
			mu.Lock()
			admitAll(d, stats, p.Name(), rec.URL, links)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}
