package model

import "time"

// PhaseStats records the outcome of a single discovery phase.
// One instance is produced per phase per run, whether the phase
// succeeded, failed, or was skipped.
type PhaseStats struct {
	// Name is the phase name (e.g., "recursive_crawl").
	Name string `json:"name"`

	// Candidates is the number of candidate URLs the phase produced.
	Candidates int `json:"candidates"`

	// Admitted is the number of candidates that were new to the frontier.
	Admitted int `json:"admitted"`

	// Duplicates is the number of candidates already known to the frontier.
	Duplicates int `json:"duplicates"`

	// OutOfScope is the number of candidates rejected by the scope rule.
	OutOfScope int `json:"out_of_scope"`

	// Fetches is the number of HTTP requests the phase issued.
	Fetches int `json:"fetches"`

	// TransientErrors counts fetches that failed after retries on
	// transient conditions (timeouts, 5xx, connection resets).
	TransientErrors int `json:"transient_errors"`

	// PermanentErrors counts fetches that failed permanently (4xx other
	// than 429, DNS failures).
	PermanentErrors int `json:"permanent_errors"`

	// SuggestionCalls is the number of suggestion-service invocations,
	// including those answered from cache or fallback.
	SuggestionCalls int `json:"suggestion_calls"`

	// Skipped is true when the orchestrator did not run the phase
	// because a run-level budget (max pages, deadline) was exhausted.
	Skipped bool `json:"skipped"`

	// Error holds the phase-fatal error message, if any. A phase-fatal
	// error aborts only that phase; the run continues.
	Error string `json:"error,omitempty"`

	// Duration is the wall-clock time the phase ran.
	Duration time.Duration `json:"duration"`
}

// NewPhaseStats creates stats for the named phase.
func NewPhaseStats(name string) *PhaseStats {
	return &PhaseStats{Name: name}
}
