package model

import (
	"testing"
	"time"
)

// TestURLRecordHasPhase tests phase provenance lookups.
func TestURLRecordHasPhase(t *testing.T) {
	t.Parallel()

	rec := &URLRecord{
		URL:    "https://example.com/a",
		Phases: []string{"sitemap_discovery", "recursive_crawl"},
	}

	if !rec.HasPhase("sitemap_discovery") {
		t.Error("expected sitemap_discovery to be present")
	}
	if !rec.HasPhase("recursive_crawl") {
		t.Error("expected recursive_crawl to be present")
	}
	if rec.HasPhase("directory_probing") {
		t.Error("did not expect directory_probing to be present")
	}
}

// TestNewCandidateURL tests candidate construction.
func TestNewCandidateURL(t *testing.T) {
	t.Parallel()

	before := time.Now()
	c := NewCandidateURL("/about/", "https://example.com/", "recursive_crawl")

	if c.Raw != "/about/" {
		t.Errorf("expected raw /about/, got %q", c.Raw)
	}
	if c.SourceURL != "https://example.com/" {
		t.Errorf("unexpected source URL %q", c.SourceURL)
	}
	if c.Phase != "recursive_crawl" {
		t.Errorf("unexpected phase %q", c.Phase)
	}
	if c.FoundAt.Before(before) {
		t.Error("expected FoundAt to be set to now")
	}
}

// TestDiscoveryResult tests result assembly helpers.
func TestDiscoveryResult(t *testing.T) {
	t.Parallel()

	t.Run("assigns a run ID and start time", func(t *testing.T) {
		t.Parallel()

		r := NewDiscoveryResult("example.com")
		if r.RunID == "" {
			t.Error("expected a non-empty run ID")
		}
		if r.BaseDomain != "example.com" {
			t.Errorf("unexpected base domain %q", r.BaseDomain)
		}
		if r.StartedAt.IsZero() {
			t.Error("expected StartedAt to be set")
		}
	})

	t.Run("discovery time is zero before completion", func(t *testing.T) {
		t.Parallel()

		r := NewDiscoveryResult("example.com")
		if got := r.DiscoveryTimeSeconds(); got != 0 {
			t.Errorf("expected 0 seconds before completion, got %f", got)
		}
	})

	t.Run("discovery time reflects start and finish", func(t *testing.T) {
		t.Parallel()

		r := NewDiscoveryResult("example.com")
		r.FinishedAt = r.StartedAt.Add(90 * time.Second)
		if got := r.DiscoveryTimeSeconds(); got != 90 {
			t.Errorf("expected 90 seconds, got %f", got)
		}
	})

	t.Run("stats lookup by phase name", func(t *testing.T) {
		t.Parallel()

		r := NewDiscoveryResult("example.com")
		r.PhaseStats = append(r.PhaseStats, NewPhaseStats("sitemap_discovery"))

		if s := r.StatsFor("sitemap_discovery"); s == nil {
			t.Error("expected stats for sitemap_discovery")
		}
		if s := r.StatsFor("unknown"); s != nil {
			t.Error("expected nil stats for unknown phase")
		}
	})
}
