package frontier

import (
	"sync"

	"github.com/nao1215/urlmap/internal/model"
)

// Expansion kinds. A URL is handed out for each kind at most once per
// run: once a record has been taken for link expansion it is never
// re-queued for link expansion, though a later phase may still take it
// for a different kind (e.g., the aggressive re-extraction pass).
const (
	// ExpandLinks marks ordinary fetch-and-extract expansion.
	ExpandLinks = "links"

	// ExpandParents marks hierarchical parent-path expansion.
	ExpandParents = "parents"

	// ExpandAggressive marks the superset re-extraction pass over pages
	// already visited by cheaper phases.
	ExpandAggressive = "aggressive"
)

// Frontier owns every URLRecord of a run: the deduplicated set of all
// canonical URLs plus the pending queues of records not yet dispatched
// for each expansion kind.
//
// Design decision: We guard the record map with a single mutex rather
// than sharding or using sync.Map because:
//  1. Admit must atomically check-and-insert and append provenance
//  2. The critical section is short and never blocks on I/O
//  3. Fetches dominate run time; admission is never the bottleneck
type Frontier struct {
	mu sync.Mutex

	// normalizer converts raw candidates to canonical form.
	normalizer *Normalizer

	// scope classifies canonical URLs as in- or out-of-scope.
	scope *ScopeRule

	// records maps canonical URL to its record.
	records map[string]*model.URLRecord

	// order preserves insertion order for deterministic snapshots.
	order []*model.URLRecord

	// taken tracks which canonical URLs have been handed out per
	// expansion kind.
	taken map[string]map[string]bool

	// inScopeCount counts in-scope records, the quantity bounded by the
	// run's max-pages ceiling.
	inScopeCount int
}

// New creates an empty frontier using the given normalizer and scope rule.
func New(normalizer *Normalizer, scope *ScopeRule) *Frontier {
	return &Frontier{
		normalizer: normalizer,
		scope:      scope,
		records:    make(map[string]*model.URLRecord),
		taken:      make(map[string]map[string]bool),
	}
}

// Admit normalizes the candidate, classifies it against the scope rule,
// and inserts or updates its record. It reports whether the canonical
// URL was new to the frontier and returns the (possibly shared) record.
//
// Admit is safe for concurrent use. Two concurrent admits of the same
// canonical URL produce exactly one isNew=true; every admit appends its
// phase to the record's provenance unless that phase is already present.
// A candidate that cannot be normalized is dropped: isNew=false, nil
// record.
func (f *Frontier) Admit(raw, sourceURL, phase string) (bool, *model.URLRecord) {
	return f.AdmitCandidate(model.NewCandidateURL(raw, sourceURL, phase))
}

// AdmitCandidate admits one candidate under the same contract as Admit.
// The candidate's FoundAt timestamp becomes the record's FirstSeen, so
// FirstSeen reflects extraction time rather than admission time.
func (f *Frontier) AdmitCandidate(c model.CandidateURL) (bool, *model.URLRecord) {
	canonical, err := f.normalizer.Normalize(c.Raw)
	if err != nil {
		return false, nil
	}

	inScope := f.scope.InScope(canonical)

	f.mu.Lock()
	defer f.mu.Unlock()

	if rec, ok := f.records[canonical]; ok {
		if !rec.HasPhase(c.Phase) {
			rec.Phases = append(rec.Phases, c.Phase)
		}
		return false, rec
	}

	rec := &model.URLRecord{
		URL:       canonical,
		SourceURL: c.SourceURL,
		Phases:    []string{c.Phase},
		FirstSeen: c.FoundAt,
		InScope:   inScope,
	}
	f.records[canonical] = rec
	f.order = append(f.order, rec)
	if inScope {
		f.inScopeCount++
	}

	return true, rec
}

// SetStatus records the HTTP status observed for a canonical URL, if the
// URL is known to the frontier.
func (f *Frontier) SetStatus(canonicalURL string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if rec, ok := f.records[canonicalURL]; ok {
		rec.Status = status
	}
}

// Contains reports whether the raw URL, after normalization, is already
// known to the frontier.
func (f *Frontier) Contains(raw string) bool {
	canonical, err := f.normalizer.Normalize(raw)
	if err != nil {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[canonical]
	return ok
}

// TakePending returns up to limit in-scope records not yet handed out
// for the given expansion kind, marking them as taken. A record handed
// out here is never returned again for the same kind. limit <= 0 means
// no limit.
func (f *Frontier) TakePending(kind string, limit int) []*model.URLRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	takenForKind := f.taken[kind]
	if takenForKind == nil {
		takenForKind = make(map[string]bool)
		f.taken[kind] = takenForKind
	}

	var out []*model.URLRecord
	for _, rec := range f.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		if !rec.InScope || takenForKind[rec.URL] {
			continue
		}
		takenForKind[rec.URL] = true
		out = append(out, rec)
	}
	return out
}

// InScopeCount returns the number of in-scope records.
func (f *Frontier) InScopeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inScopeCount
}

// Size returns the total number of records, including out-of-scope ones
// kept for provenance.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// Snapshot returns the in-scope records in insertion order. The slice is
// a copy; the records are the live shared instances.
func (f *Frontier) Snapshot() []*model.URLRecord {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*model.URLRecord, 0, f.inScopeCount)
	for _, rec := range f.order {
		if rec.InScope {
			out = append(out, rec)
		}
	}
	return out
}

// Scope returns the run's scope rule.
func (f *Frontier) Scope() *ScopeRule {
	return f.scope
}

// Normalize exposes the frontier's canonical form, for phases that need
// to compare URLs without admitting them.
func (f *Frontier) Normalize(raw string) (string, error) {
	return f.normalizer.Normalize(raw)
}
