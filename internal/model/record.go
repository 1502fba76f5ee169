package model

import "time"

// URLRecord is the canonical form of a discovered URL plus the metadata
// describing how it was found. Records are owned exclusively by the
// frontier; phases receive pointers but must not mutate them directly.
//
// Invariants (enforced by the frontier):
//   - URL is unique within a run; no two records share a canonical URL.
//   - Phases is append-only and insertion-ordered. The first entry is
//     the phase whose admit arrived first, which is best-effort under
//     concurrency.
type URLRecord struct {
	// URL is the canonical URL string used as the deduplication key:
	// lowercase scheme and host, default port stripped, normalized
	// path, sorted query, no fragment.
	URL string `json:"url"`

	// SourceURL is the page the URL was first discovered on, or empty
	// for generated candidates.
	SourceURL string `json:"source_url,omitempty"`

	// Phases lists every discovery phase that independently found this
	// URL, in arrival order.
	Phases []string `json:"phases"`

	// FirstSeen is the time of the first admit.
	FirstSeen time.Time `json:"first_seen"`

	// InScope reports whether the URL matched the run's scope rule.
	// Out-of-scope records are retained for provenance but are never
	// queued for expansion and are excluded from the final URL list.
	InScope bool `json:"in_scope"`

	// Status is the HTTP status observed when the URL was verified,
	// or 0 if the URL was never fetched.
	Status int `json:"status,omitempty"`
}

// HasPhase reports whether the given phase already appears in the
// record's provenance list.
func (r *URLRecord) HasPhase(phase string) bool {
	for _, p := range r.Phases {
		if p == phase {
			return true
		}
	}
	return false
}
