package phase

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/urlmap/internal/frontier"
	"github.com/nao1215/urlmap/internal/model"
)

// RecursiveCrawl expands the frontier breadth-first: every in-scope
// record not yet crawled is fetched, its links extracted and admitted,
// and the newly admitted records form the next level. Expansion stops
// at the configured depth or when the page budget is reached.
type RecursiveCrawl struct{}

// NewRecursiveCrawl creates the recursive crawl phase.
func NewRecursiveCrawl() *RecursiveCrawl {
	return &RecursiveCrawl{}
}

// Name returns the phase name.
func (p *RecursiveCrawl) Name() string { return NameRecursiveCrawl }

// Run performs the breadth-first expansion.
func (p *RecursiveCrawl) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	// The base URL starts the crawl even when no earlier phase admitted
	// anything.
	d.Frontier.Admit(d.Base.String(), "", p.Name())

	var mu sync.Mutex // guards stats across workers

	for depth := 0; depth <= d.Config.MaxDepth; depth++ {
		if pageBudgetReached(d) {
			d.Logger.Debug("page budget reached, stopping crawl", "depth", depth)
			break
		}

		batch := d.Frontier.TakePending(frontier.ExpandLinks, 0)
		if len(batch) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(d.Config.MaxConcurrent)

		for _, rec := range batch {
			g.Go(func() error {
				if pageBudgetReached(d) {
					return nil
				}
				links, err := p.crawlOne(gctx, d, stats, &mu, rec.URL)
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				admitAll(d, stats, p.Name(), rec.URL, links)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// crawlOne fetches a single page and returns its extracted links. The
// returned error is non-nil only for cancellation; fetch failures are
// counted and swallowed.
func (p *RecursiveCrawl) crawlOne(ctx context.Context, d *Deps, stats *model.PhaseStats, mu *sync.Mutex, pageURL string) ([]string, error) {
	mu.Lock()
	stats.Fetches++
	mu.Unlock()

	resp, err := d.Fetcher.Do(ctx, pageURL)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		mu.Lock()
		countFetchError(stats, err)
		mu.Unlock()
		return nil, nil
	}

	d.Frontier.SetStatus(pageURL, resp.StatusCode)
	if !resp.OK() {
		return nil, nil
	}

	return d.Extractor.Extract(resp.Body, resp.ContentType(), resp.FinalURL), nil
}
