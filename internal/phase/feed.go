package phase

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"

	"github.com/nao1215/urlmap/internal/model"
)

// feedPaths are the common syndication feed locations probed directly.
var feedPaths = []string{
	"/feed/",
	"/feed.xml",
	"/rss/",
	"/rss.xml",
	"/atom.xml",
	"/index.xml",
	"/feeds/posts/default",
}

// FeedDiscovery admits URLs found in RSS and Atom feeds. Feeds often
// list content that is unreachable through navigation, and they carry
// clean canonical links.
type FeedDiscovery struct {
	parser *gofeed.Parser
}

// NewFeedDiscovery creates the feed discovery phase.
func NewFeedDiscovery() *FeedDiscovery {
	return &FeedDiscovery{parser: gofeed.NewParser()}
}

// Name returns the phase name.
func (p *FeedDiscovery) Name() string { return NameFeedDiscovery }

// Run probes common feed paths plus feeds advertised on the base page,
// and admits every item link.
func (p *FeedDiscovery) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	origin := baseOrigin(d)

	candidates := make([]string, 0, len(feedPaths)+4)
	for _, path := range feedPaths {
		candidates = append(candidates, origin+path)
	}
	candidates = append(candidates, p.advertisedFeeds(ctx, d, stats)...)

	seen := make(map[string]bool)
	for _, feedURL := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if seen[feedURL] {
			continue
		}
		seen[feedURL] = true
		p.fetchFeed(ctx, d, stats, feedURL)
	}

	return stats, nil
}

// advertisedFeeds fetches the base page and returns the feed URLs its
// link elements advertise.
func (p *FeedDiscovery) advertisedFeeds(ctx context.Context, d *Deps, stats *model.PhaseStats) []string {
	stats.Fetches++
	resp, err := d.Fetcher.Do(ctx, d.Base.String())
	if err != nil {
		countFetchError(stats, err)
		return nil
	}
	if !resp.OK() {
		return nil
	}

	doc, err := html.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		return nil
	}

	var feeds []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, typ, href string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "rel":
					rel = strings.ToLower(attr.Val)
				case "type":
					typ = strings.ToLower(attr.Val)
				case "href":
					href = attr.Val
				}
			}
			if rel == "alternate" && href != "" &&
				(strings.Contains(typ, "rss") || strings.Contains(typ, "atom")) {
				if resolved, err := d.Base.Parse(href); err == nil {
					feeds = append(feeds, resolved.String())
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return feeds
}

// fetchFeed fetches and parses one feed, admitting its item links.
func (p *FeedDiscovery) fetchFeed(ctx context.Context, d *Deps, stats *model.PhaseStats, feedURL string) {
	stats.Fetches++
	resp, err := d.Fetcher.Do(ctx, feedURL)
	if err != nil {
		countFetchError(stats, err)
		return
	}
	if !resp.OK() {
		return
	}

	feed, err := p.parser.Parse(bytes.NewReader(resp.Body))
	if err != nil {
		d.Logger.Debug("unparseable feed", "url", feedURL, "error", err)
		return
	}

	var links []string
	if feed.Link != "" {
		links = append(links, feed.Link)
	}
	for _, item := range feed.Items {
		if item.Link != "" {
			links = append(links, item.Link)
		}
		links = append(links, item.Links...)
	}
	admitAll(d, stats, p.Name(), feedURL, links)
}
