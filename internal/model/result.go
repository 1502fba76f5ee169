package model

import (
	"time"

	"github.com/google/uuid"
)

// DiscoveryResult is the final artifact of a discovery run: the base
// domain, the ordered list of URL records, per-phase statistics, and
// timing. It is assembled once by the orchestrator from the frontier
// snapshot and is immutable thereafter.
type DiscoveryResult struct {
	// RunID uniquely identifies this discovery run.
	RunID string `json:"run_id"`

	// BaseDomain is the host of the base URL the run targeted.
	BaseDomain string `json:"base_domain"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// TotalURLs is the number of in-scope records in URLs.
	TotalURLs int `json:"total_urls"`

	// URLs lists all in-scope records in insertion order.
	URLs []*URLRecord `json:"urls"`

	// PhaseStats holds per-phase statistics in execution order.
	PhaseStats []*PhaseStats `json:"discovery_stats"`

	// LLMKeywordsGenerated is the total number of suggestions produced
	// by real (non-cached, non-fallback) suggestion-service calls.
	LLMKeywordsGenerated int `json:"llm_keywords_generated"`
}

// NewDiscoveryResult creates a result shell for the given base domain
// with a fresh run ID. The orchestrator fills the remaining fields at
// completion.
func NewDiscoveryResult(baseDomain string) *DiscoveryResult {
	return &DiscoveryResult{
		RunID:      uuid.NewString(),
		BaseDomain: baseDomain,
		StartedAt:  time.Now(),
	}
}

// DiscoveryTimeSeconds returns the run duration in seconds.
func (r *DiscoveryResult) DiscoveryTimeSeconds() float64 {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt).Seconds()
}

// StatsFor returns the stats entry for the named phase, or nil.
func (r *DiscoveryResult) StatsFor(name string) *PhaseStats {
	for _, s := range r.PhaseStats {
		if s.Name == name {
			return s
		}
	}
	return nil
}
