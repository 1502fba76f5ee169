package phase

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/nao1215/urlmap/internal/config"
	"github.com/nao1215/urlmap/internal/extract"
	"github.com/nao1215/urlmap/internal/fetch"
	"github.com/nao1215/urlmap/internal/frontier"
	"github.com/nao1215/urlmap/internal/model"
	"github.com/nao1215/urlmap/internal/suggest"
)

// newTestDeps builds phase dependencies against a test server base URL.
func newTestDeps(t *testing.T, baseURL string) *Deps {
	t.Helper()

	scope, err := frontier.NewScopeRule(baseURL)
	if err != nil {
		t.Fatalf("scope rule: %v", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}

	cfg := config.NewConfig()
	cfg.BaseURL = baseURL

	return &Deps{
		Frontier: frontier.New(frontier.NewNormalizer(), scope),
		Fetcher: fetch.New(&http.Client{Timeout: 5 * time.Second},
			fetch.WithPerHostInterval(0),
			fetch.WithBackoffBase(5*time.Millisecond),
			fetch.WithRetryCount(0),
		),
		Extractor: extract.New(),
		Suggester: suggest.NewService(nil),
		Config:    cfg,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Base:      base,
		Hints:     &Hints{},
	}
}

// TestSelect tests phase subset selection.
func TestSelect(t *testing.T) {
	t.Parallel()

	t.Run("empty selection returns all phases in order", func(t *testing.T) {
		t.Parallel()

		phases := Select(nil)
		if len(phases) != 10 {
			t.Fatalf("expected 10 phases, got %d", len(phases))
		}
		if phases[0].Name() != NameSitemapDiscovery {
			t.Errorf("expected sitemap discovery first, got %s", phases[0].Name())
		}
		if phases[9].Name() != NameFormSearchProbing {
			t.Errorf("expected form probing last, got %s", phases[9].Name())
		}
	})

	t.Run("subset preserves run order", func(t *testing.T) {
		t.Parallel()

		phases := Select([]string{NameRecursiveCrawl, NameSitemapDiscovery})
		if len(phases) != 2 {
			t.Fatalf("expected 2 phases, got %d", len(phases))
		}
		if phases[0].Name() != NameSitemapDiscovery || phases[1].Name() != NameRecursiveCrawl {
			t.Errorf("selection broke phase order: %s, %s", phases[0].Name(), phases[1].Name())
		}
	})

	t.Run("unknown names are ignored", func(t *testing.T) {
		t.Parallel()

		if phases := Select([]string{"no_such_phase"}); len(phases) != 0 {
			t.Errorf("expected no phases, got %d", len(phases))
		}
	})
}

// TestHints tests the cross-phase scratchpad.
func TestHints(t *testing.T) {
	t.Parallel()

	h := &Hints{}
	h.AddDisallowPaths("/private/", "/tmp/")
	h.AddSearchForm(SearchForm{Action: "https://example.com/search", Field: "q"})

	if got := h.DisallowPaths(); len(got) != 2 {
		t.Errorf("expected 2 disallow paths, got %v", got)
	}
	if got := h.SearchForms(); len(got) != 1 || got[0].Field != "q" {
		t.Errorf("unexpected forms %v", got)
	}
}

// TestAdmitAll tests stats attribution for admitted candidates.
func TestAdmitAll(t *testing.T) {
	t.Parallel()

	d := newTestDeps(t, "https://example.com/")
	stats := model.NewPhaseStats("test_phase")

	candidates := []string{
		"https://example.com/a",
		"https://example.com/a", // duplicate
		"https://other.org/x",   // out of scope
		"://broken",             // unnormalizable
	}
	admitAll(d, stats, "test_phase", "https://example.com/", candidates)

	if stats.Candidates != 4 {
		t.Errorf("expected 4 candidates, got %d", stats.Candidates)
	}
	if stats.Admitted != 1 {
		t.Errorf("expected 1 admitted, got %d", stats.Admitted)
	}
	if stats.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", stats.Duplicates)
	}
	if stats.OutOfScope != 2 {
		t.Errorf("expected 2 out of scope, got %d", stats.OutOfScope)
	}
}
