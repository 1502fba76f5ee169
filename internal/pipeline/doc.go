// Package pipeline orchestrates a discovery run: it wires the frontier,
// fetcher, extractor, and suggestion service together, executes the
// discovery phases in their fixed order, enforces the run-level page and
// time budgets, and assembles the final DiscoveryResult.
//
// A run always produces a result unless it is fatally misconfigured
// (invalid base URL, unusable scope). Phase failures are recorded in the
// per-phase stats and never terminate the run.
package pipeline
