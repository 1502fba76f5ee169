// Package model defines the core data structures shared across the
// discovery engine: candidate URLs produced by phases, the canonical
// URL records owned by the frontier, per-phase statistics, and the
// final discovery result.
//
// Types in this package are plain data carriers. Behavior that requires
// synchronization (deduplication, provenance updates) lives in the
// frontier package, which owns all URLRecord instances for a run.
package model
