package phase

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/nao1215/urlmap/internal/config"
	"github.com/nao1215/urlmap/internal/extract"
	"github.com/nao1215/urlmap/internal/fetch"
	"github.com/nao1215/urlmap/internal/frontier"
	"github.com/nao1215/urlmap/internal/model"
	"github.com/nao1215/urlmap/internal/suggest"
)

// Phase names, used in provenance, stats, and phase selection.
const (
	NameSitemapDiscovery  = "sitemap_discovery"
	NameRobotsAnalysis    = "robots_analysis"
	NameFeedDiscovery     = "feed_discovery"
	NameArchiveSeeding    = "archive_seeding"
	NameRecursiveCrawl    = "recursive_crawl"
	NameHierarchicalCrawl = "hierarchical_crawl"
	NameDirectoryProbing  = "directory_probing"
	NamePatternGeneration = "pattern_generation"
	NameAggressiveCrawl   = "aggressive_deep_crawl"
	NameFormSearchProbing = "form_search_probing"
)

// Phase defines the interface that all discovery phases implement.
// Phases run in sequence; each reads and extends the shared frontier.
//
// Design decision: We use an interface rather than function types because:
// 1. It allows phases to carry configuration state
// 2. It provides a Name() method for logging and stats
// 3. It's more extensible for future features (e.g., phase subsets)
type Phase interface {
	// Run executes the phase. It always returns stats, even on failure;
	// a non-nil error marks the phase as failed without aborting the run.
	Run(ctx context.Context, deps *Deps) (*model.PhaseStats, error)

	// Name returns the phase's name for provenance and logging.
	Name() string
}

// Deps bundles the shared run state every phase operates on.
type Deps struct {
	// Frontier is the run's deduplicated URL set.
	Frontier *frontier.Frontier

	// Fetcher issues rate-limited HTTP requests.
	Fetcher *fetch.Fetcher

	// Extractor turns fetched documents into candidate URLs.
	Extractor *extract.Extractor

	// Suggester answers directory-name questions under the LLM budget.
	Suggester *suggest.Service

	// Config is the validated run configuration.
	Config *config.Config

	// Logger for structured logging.
	Logger *slog.Logger

	// Base is the parsed canonical base URL of the run.
	Base *url.URL

	// Hints carries cross-phase discoveries that are not URL records.
	Hints *Hints
}

// Hints is the mutex-guarded scratchpad phases use to pass non-record
// discoveries forward: disallow paths inform the suggestion prompts,
// and discovered search forms feed the form-probing phase.
type Hints struct {
	mu sync.Mutex

	disallowPaths []string
	searchForms   []SearchForm
}

// SearchForm describes a GET form discovered during crawling.
type SearchForm struct {
	// Action is the absolute form action URL.
	Action string

	// Field is the name of the text input the query goes into.
	Field string
}

// AddDisallowPaths records robots.txt Disallow paths. They are hints for
// the suggestion prompt, never fetch targets.
func (h *Hints) AddDisallowPaths(paths ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disallowPaths = append(h.disallowPaths, paths...)
}

// DisallowPaths returns the recorded Disallow paths.
func (h *Hints) DisallowPaths() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.disallowPaths))
	copy(out, h.disallowPaths)
	return out
}

// AddSearchForm records a discovered GET search form.
func (h *Hints) AddSearchForm(form SearchForm) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.searchForms = append(h.searchForms, form)
}

// SearchForms returns the recorded search forms.
func (h *Hints) SearchForms() []SearchForm {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]SearchForm, len(h.searchForms))
	copy(out, h.searchForms)
	return out
}

// All returns the full ordered phase list.
func All() []Phase {
	return []Phase{
		NewSitemapDiscovery(),
		NewRobotsAnalysis(),
		NewFeedDiscovery(),
		NewArchiveSeeding(),
		NewRecursiveCrawl(),
		NewHierarchicalCrawl(),
		NewDirectoryProbing(),
		NewPatternGeneration(),
		NewAggressiveCrawl(),
		NewFormSearchProbing(),
	}
}

// Select returns the phases matching the given names, preserving the
// fixed run order. An empty selection means all phases.
func Select(names []string) []Phase {
	all := All()
	if len(names) == 0 {
		return all
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var out []Phase
	for _, p := range all {
		if wanted[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// admitAll runs every candidate through the frontier, attributing the
// outcome to stats.
func admitAll(d *Deps, stats *model.PhaseStats, phaseName, sourceURL string, candidates []string) {
	for _, c := range candidates {
		stats.Candidates++
		isNew, rec := d.Frontier.Admit(c, sourceURL, phaseName)
		switch {
		case rec == nil:
			// Unnormalizable candidates are dropped silently.
			stats.OutOfScope++
		case isNew && rec.InScope:
			stats.Admitted++
		case isNew:
			stats.OutOfScope++
		default:
			stats.Duplicates++
		}
	}
}

// pageBudgetReached reports whether the run's max-pages ceiling is hit.
func pageBudgetReached(d *Deps) bool {
	return d.Frontier.InScopeCount() >= d.Config.MaxPages
}

// countFetchError attributes a fetch failure to the stats error classes.
func countFetchError(stats *model.PhaseStats, err error) {
	if fetch.IsPermanent(err) {
		stats.PermanentErrors++
		return
	}
	stats.TransientErrors++
}

// baseOrigin returns the scheme://host prefix of the run's base URL.
func baseOrigin(d *Deps) string {
	return d.Base.Scheme + "://" + d.Base.Host
}
