package phase

import (
	"context"
	"time"

	"github.com/nao1215/urlmap/internal/extract"
	"github.com/nao1215/urlmap/internal/model"
)

// sitemapPaths are the well-known sitemap locations probed first.
var sitemapPaths = []string{
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemap-index.xml",
	"/sitemaps.xml",
	"/wp-sitemap.xml",
}

// htmlSitemapPaths are human-facing sitemap pages worth extracting.
var htmlSitemapPaths = []string{
	"/sitemap",
	"/sitemap.html",
	"/site-map",
}

// maxSitemapIndexDepth bounds sitemapindex recursion. Real indexes
// rarely nest more than once; the bound guards against loops.
const maxSitemapIndexDepth = 3

// SitemapDiscovery seeds the frontier from XML sitemaps and HTML
// sitemap pages at well-known locations. Sitemaps declared in
// robots.txt are handled by the robots phase, which runs later.
type SitemapDiscovery struct{}

// NewSitemapDiscovery creates the sitemap discovery phase.
func NewSitemapDiscovery() *SitemapDiscovery {
	return &SitemapDiscovery{}
}

// Name returns the phase name.
func (p *SitemapDiscovery) Name() string { return NameSitemapDiscovery }

// Run probes sitemap locations and admits every location they list.
func (p *SitemapDiscovery) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	origin := baseOrigin(d)

	sources := make([]string, 0, len(sitemapPaths))
	for _, path := range sitemapPaths {
		sources = append(sources, origin+path)
	}

	seen := make(map[string]bool)
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		p.fetchSitemap(ctx, d, stats, src, seen, 0)
	}

	for _, path := range htmlSitemapPaths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		p.fetchHTMLSitemap(ctx, d, stats, origin+path)
	}

	return stats, nil
}

// fetchSitemap fetches one sitemap URL, admitting page locations and
// recursing into sitemapindex children.
func (p *SitemapDiscovery) fetchSitemap(ctx context.Context, d *Deps, stats *model.PhaseStats, src string, seen map[string]bool, depth int) {
	if depth > maxSitemapIndexDepth || seen[src] {
		return
	}
	seen[src] = true

	stats.Fetches++
	resp, err := d.Fetcher.Do(ctx, src)
	if err != nil {
		countFetchError(stats, err)
		return
	}
	if !resp.OK() {
		return
	}

	sm, err := extract.ParseSitemap(resp.Body)
	if err != nil {
		d.Logger.Debug("unparseable sitemap", "url", src, "error", err)
		return
	}

	if sm.IsIndex {
		for _, child := range sm.Locations {
			if err := ctx.Err(); err != nil {
				return
			}
			p.fetchSitemap(ctx, d, stats, child, seen, depth+1)
		}
		return
	}

	admitAll(d, stats, p.Name(), src, sm.Locations)
}

// fetchHTMLSitemap fetches a human-facing sitemap page and extracts its
// links like any other document.
func (p *SitemapDiscovery) fetchHTMLSitemap(ctx context.Context, d *Deps, stats *model.PhaseStats, src string) {
	stats.Fetches++
	resp, err := d.Fetcher.Do(ctx, src)
	if err != nil {
		countFetchError(stats, err)
		return
	}
	if !resp.OK() {
		return
	}

	links := d.Extractor.Extract(resp.Body, resp.ContentType(), resp.FinalURL)
	admitAll(d, stats, p.Name(), src, links)
}
