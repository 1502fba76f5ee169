package phase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// TestInferTemplates tests numeric template inference.
func TestInferTemplates(t *testing.T) {
	t.Parallel()

	t.Run("three similar URLs form a template", func(t *testing.T) {
		t.Parallel()

		d := newTestDeps(t, "https://example.com/")
		for _, year := range []string{"2021", "2022", "2023"} {
			d.Frontier.Admit("https://example.com/reports/"+year+"/", "", "recursive_crawl")
		}

		templates := inferTemplates(d)
		if len(templates) != 1 {
			t.Fatalf("expected 1 template, got %d", len(templates))
		}
		if got := templates[0].render(2024); got != "https://example.com/reports/2024" {
			t.Errorf("unexpected render %q", got)
		}
		if len(templates[0].values) != 3 {
			t.Errorf("expected 3 observed values, got %v", templates[0].values)
		}
	})

	t.Run("two samples are not enough", func(t *testing.T) {
		t.Parallel()

		d := newTestDeps(t, "https://example.com/")
		d.Frontier.Admit("https://example.com/reports/2021/", "", "recursive_crawl")
		d.Frontier.Admit("https://example.com/reports/2022/", "", "recursive_crawl")

		if templates := inferTemplates(d); len(templates) != 0 {
			t.Errorf("expected no templates, got %d", len(templates))
		}
	})

	t.Run("zero-padded samples keep their width", func(t *testing.T) {
		t.Parallel()

		d := newTestDeps(t, "https://example.com/")
		for _, n := range []string{"01", "02", "03"} {
			d.Frontier.Admit("https://example.com/issues/"+n, "", "recursive_crawl")
		}

		templates := inferTemplates(d)
		if len(templates) != 1 {
			t.Fatalf("expected 1 template, got %d", len(templates))
		}
		if got := templates[0].render(4); got != "https://example.com/issues/04" {
			t.Errorf("expected zero-padded render, got %q", got)
		}
	})
}

// TestPatternGeneration tests probing of generated values.
func TestPatternGeneration(t *testing.T) {
	t.Parallel()

	t.Run("finds adjacent pages and stops on consecutive failures", func(t *testing.T) {
		t.Parallel()

		// Pages 1 through 5 exist; everything else is missing.
		var maxProbed atomic64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
			if len(parts) == 2 && parts[0] == "page" {
				if n, err := strconv.Atoi(parts[1]); err == nil {
					maxProbed.max(int64(n))
					if n >= 1 && n <= 5 {
						w.WriteHeader(http.StatusOK)
						return
					}
				}
			}
			http.NotFound(w, r)
		}))
		defer srv.Close()

		d := newTestDeps(t, srv.URL)
		d.Config.PatternFailureRun = 3
		for _, n := range []string{"2", "3", "4"} {
			d.Frontier.Admit(srv.URL+"/page/"+n, "", "recursive_crawl")
		}

		stats, err := NewPatternGeneration().Run(context.Background(), d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !d.Frontier.Contains(srv.URL + "/page/1") {
			t.Error("missing generated page 1")
		}
		if !d.Frontier.Contains(srv.URL + "/page/5") {
			t.Error("missing generated page 5")
		}
		if stats.Admitted != 2 {
			t.Errorf("expected 2 admitted, got %d", stats.Admitted)
		}

		// Upward probing stops after 3 consecutive misses past page 5.
		if got := maxProbed.load(); got > 8 {
			t.Errorf("probing ran past the failure stop, reached page %d", got)
		}
	})

	t.Run("no templates means no probes", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		d := newTestDeps(t, srv.URL)
		d.Frontier.Admit(srv.URL+"/about", "", "recursive_crawl")

		stats, err := NewPatternGeneration().Run(context.Background(), d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.Fetches != 0 {
			t.Errorf("expected no probes, got %d", stats.Fetches)
		}
	})
}

// atomic64 is a tiny max-tracking atomic counter for test servers.
type atomic64 struct {
	mu sync.Mutex
	v  int64
}

func (a *atomic64) max(n int64) {
	a.mu.Lock()
	if n > a.v {
		a.v = n
	}
	a.mu.Unlock()
}

func (a *atomic64) load() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}
