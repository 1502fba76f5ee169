package phase

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/nao1215/urlmap/internal/extract"
	"github.com/nao1215/urlmap/internal/model"
)

// RobotsAnalysis fetches robots.txt once per run. Declared sitemaps are
// processed as additional sitemap sources; Disallow paths become hints
// for the suggestion prompts but are never queued for fetching.
type RobotsAnalysis struct{}

// NewRobotsAnalysis creates the robots analysis phase.
func NewRobotsAnalysis() *RobotsAnalysis {
	return &RobotsAnalysis{}
}

// Name returns the phase name.
func (p *RobotsAnalysis) Name() string { return NameRobotsAnalysis }

// Run fetches and analyzes robots.txt.
func (p *RobotsAnalysis) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	robotsURL := baseOrigin(d) + "/robots.txt"

	stats.Fetches++
	resp, err := d.Fetcher.Do(ctx, robotsURL)
	if err != nil {
		countFetchError(stats, err)
		return stats, nil
	}
	if !resp.OK() {
		return stats, nil
	}

	sitemaps, disallows := parseRobots(resp.Body)
	d.Hints.AddDisallowPaths(disallows...)

	// Sitemaps declared here are fetched directly: the sitemap phase has
	// already run, so deferring them would lose the information.
	seen := make(map[string]bool)
	for _, sm := range sitemaps {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		p.fetchDeclaredSitemap(ctx, d, stats, sm, seen, 0)
	}

	d.Logger.Debug("robots.txt analyzed",
		"sitemaps", len(sitemaps),
		"disallow_hints", len(disallows),
	)
	return stats, nil
}

// fetchDeclaredSitemap admits the locations of a robots-declared sitemap
// under this phase's name. Index recursion shares the sitemap phase's
// depth bound.
func (p *RobotsAnalysis) fetchDeclaredSitemap(ctx context.Context, d *Deps, stats *model.PhaseStats, src string, seen map[string]bool, depth int) {
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
		return
	}
	if sm.IsIndex {
		for _, child := range sm.Locations {
			if ctx.Err() != nil {
				return
			}
			p.fetchDeclaredSitemap(ctx, d, stats, child, seen, depth+1)
		}
		return
	}
	admitAll(d, stats, p.Name(), src, sm.Locations)
}

// parseRobots extracts Sitemap URLs and Disallow paths from a
// robots.txt body. Directive names are case-insensitive; wildcard-only
// and root-only Disallow lines are ignored because they carry no path
// information.
func parseRobots(body []byte) (sitemaps, disallows []string) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		directive, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		directive = strings.ToLower(strings.TrimSpace(directive))
		value = strings.TrimSpace(value)

		switch directive {
		case "sitemap":
			if value != "" {
				sitemaps = append(sitemaps, value)
			}
		case "disallow":
			if value != "" && value != "/" && !strings.Contains(value, "*") {
				disallows = append(disallows, value)
			}
		}
	}
	return sitemaps, disallows
}
