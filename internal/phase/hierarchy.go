package phase

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/urlmap/internal/frontier"
	"github.com/nao1215/urlmap/internal/model"
)

// HierarchicalCrawl walks up the path hierarchy of every known URL.
// A page at /blog/2024/post-1 implies /blog/2024/ and /blog/ exist as
// navigable listings even when nothing links to them directly.
type HierarchicalCrawl struct{}

// NewHierarchicalCrawl creates the hierarchical crawl phase.
func NewHierarchicalCrawl() *HierarchicalCrawl {
	return &HierarchicalCrawl{}
}

// Name returns the phase name.
func (p *HierarchicalCrawl) Name() string { return NameHierarchicalCrawl }

// Run derives parent URLs for every record, admits them, and fetches
// the ones the run has not visited yet.
func (p *HierarchicalCrawl) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	batch := d.Frontier.TakePending(frontier.ExpandParents, 0)

	// Collect parents first so each distinct parent is handled once no
	// matter how many children imply it.
	parents := make(map[string]string) // parent -> first child implying it
	for _, rec := range batch {
		for _, parent := range parentURLs(rec.URL) {
			if _, ok := parents[parent]; !ok {
				parents[parent] = rec.URL
			}
		}
	}

	for parent, child := range parents {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if pageBudgetReached(d) {
			break
		}

		alreadyKnown := d.Frontier.Contains(parent)

		stats.Candidates++
		isNew, rec := d.Frontier.Admit(parent, child, p.Name())
		switch {
		case rec == nil:
			stats.OutOfScope++
			continue
		case isNew && rec.InScope:
			stats.Admitted++
		case isNew:
			stats.OutOfScope++
			continue
		default:
			stats.Duplicates++
		}
		if !rec.InScope || alreadyKnown {
			continue
		}

		// A parent nothing linked to gets one fetch so its own links
		// join the frontier.
		stats.Fetches++
		resp, err := d.Fetcher.Do(ctx, rec.URL)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			countFetchError(stats, err)
			continue
		}
		d.Frontier.SetStatus(rec.URL, resp.StatusCode)
		if !resp.OK() {
			continue
		}
		links := d.Extractor.Extract(resp.Body, resp.ContentType(), resp.FinalURL)
		admitAll(d, stats, p.Name(), rec.URL, links)
	}

	return stats, nil
}

// parentURLs returns the ancestor URLs of u, nearest first, stopping at
// the host root. Query and fragment are dropped; the root itself is not
// returned because the run always knows it.
func parentURLs(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	path := strings.TrimSuffix(u.Path, "/")
	if path == "" {
		return nil
	}

	var out []string
	for {
		idx := strings.LastIndex(path, "/")
		if idx <= 0 {
			break
		}
		path = path[:idx]
		out = append(out, u.Scheme+"://"+u.Host+path+"/")
	}
	return out
}
