package model

import "time"

// CandidateURL is a raw URL string as extracted by a discovery phase,
// before normalization. Candidates are ephemeral: a phase creates one,
// hands it to the frontier, and never sees it again.
type CandidateURL struct {
	// Raw is the URL string exactly as extracted from the source
	// document or generated by a phase.
	Raw string

	// SourceURL is the page on which the candidate was found, or empty
	// for generated candidates (directory probes, pattern variants).
	SourceURL string

	// Phase is the name of the discovery phase that produced the
	// candidate (e.g., "sitemap_discovery").
	Phase string

	// FoundAt is the time the candidate was produced.
	FoundAt time.Time
}

// NewCandidateURL creates a candidate with the current timestamp.
func NewCandidateURL(raw, sourceURL, phase string) CandidateURL {
	return CandidateURL{
		Raw:       raw,
		SourceURL: sourceURL,
		Phase:     phase,
		FoundAt:   time.Now(),
	}
}
