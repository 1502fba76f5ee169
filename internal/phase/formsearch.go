package phase

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/urlmap/internal/model"
)

// genericQueries is the fixed query set submitted to every discovered
// search form. Broad single-word terms maximize result coverage without
// tailoring queries to any one site.
var genericQueries = []string{
	"news",
	"information",
	"service",
	"about",
	"contact",
	"help",
	"index",
	"list",
	"archive",
}

// searchFieldNames are input names recognized as search query fields.
var searchFieldNames = []string{"q", "query", "search", "keyword", "term", "s", "find"}

// maxFormPages bounds how many known pages are scanned for forms.
const maxFormPages = 10

// FormSearchProbing discovers GET search forms and submits a fixed set
// of generic queries, scraping the result pages for links. Search
// results reach content that site navigation never exposes.
type FormSearchProbing struct{}

// NewFormSearchProbing creates the form and search probing phase.
func NewFormSearchProbing() *FormSearchProbing {
	return &FormSearchProbing{}
}

// Name returns the phase name.
func (p *FormSearchProbing) Name() string { return NameFormSearchProbing }

// Run finds search forms, then runs each query through each form once.
func (p *FormSearchProbing) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	forms := p.discoverForms(ctx, d, stats)
	if len(forms) == 0 {
		d.Logger.Debug("no search forms discovered")
		return stats, nil
	}

	seen := make(map[string]bool)
	for _, form := range forms {
		key := form.Action + "?" + form.Field
		if seen[key] {
			continue
		}
		seen[key] = true

		for _, query := range genericQueries {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			if pageBudgetReached(d) {
				return stats, nil
			}
			p.submitQuery(ctx, d, stats, form, query)
		}
	}

	return stats, nil
}

// discoverForms scans the base page plus a handful of known pages for
// GET forms with a recognizable search field. Previously recorded forms
// from other phases are included.
func (p *FormSearchProbing) discoverForms(ctx context.Context, d *Deps, stats *model.PhaseStats) []SearchForm {
	forms := d.Hints.SearchForms()

	pages := []string{d.Base.String()}
	for i, rec := range d.Frontier.Snapshot() {
		if i >= maxFormPages {
			break
		}
		pages = append(pages, rec.URL)
	}

	seen := make(map[string]bool)
	for _, page := range pages {
		if ctx.Err() != nil {
			break
		}
		if seen[page] {
			continue
		}
		seen[page] = true

		stats.Fetches++
		resp, err := d.Fetcher.Do(ctx, page)
		if err != nil {
			countFetchError(stats, err)
			continue
		}
		if !resp.OK() || !strings.Contains(resp.ContentType(), "html") {
			continue
		}
		forms = append(forms, parseSearchForms(resp.Body, resp.FinalURL)...)
	}

	return forms
}

// submitQuery issues one search request and admits the result links.
func (p *FormSearchProbing) submitQuery(ctx context.Context, d *Deps, stats *model.PhaseStats, form SearchForm, query string) {
	target, err := url.Parse(form.Action)
	if err != nil {
		return
	}
	values := target.Query()
	values.Set(form.Field, query)
	target.RawQuery = values.Encode()

	stats.Fetches++
	resp, err := d.Fetcher.Do(ctx, target.String())
	if err != nil {
		countFetchError(stats, err)
		return
	}
	if !resp.OK() {
		return
	}

	links := scrapeResultLinks(resp.Body, resp.FinalURL)
	admitAll(d, stats, p.Name(), target.String(), links)
}

// parseSearchForms extracts GET forms with a search-like text field.
func parseSearchForms(body []byte, pageURL string) []SearchForm {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var forms []SearchForm
	doc.Find("form").Each(func(_ int, form *goquery.Selection) {
		method := strings.ToLower(form.AttrOr("method", "get"))
		if method != "get" {
			return
		}

		field := ""
		form.Find("input").EachWithBreak(func(_ int, input *goquery.Selection) bool {
			typ := strings.ToLower(input.AttrOr("type", "text"))
			if typ != "text" && typ != "search" {
				return true
			}
			name := input.AttrOr("name", "")
			if name == "" {
				return true
			}
			if isSearchField(name) || typ == "search" {
				field = name
				return false
			}
			return true
		})
		if field == "" {
			return
		}

		action := form.AttrOr("action", "")
		resolved, err := base.Parse(action)
		if err != nil {
			return
		}
		forms = append(forms, SearchForm{Action: resolved.String(), Field: field})
	})
	return forms
}

// isSearchField reports whether an input name looks like a query field.
func isSearchField(name string) bool {
	lower := strings.ToLower(name)
	for _, known := range searchFieldNames {
		if lower == known {
			return true
		}
	}
	return strings.Contains(lower, "search") || strings.Contains(lower, "query")
}

// scrapeResultLinks pulls anchor targets out of a search result page.
func scrapeResultLinks(body []byte, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme == "http" || resolved.Scheme == "https" {
			links = append(links, resolved.String())
		}
	})
	return links
}
