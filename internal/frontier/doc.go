// Package frontier implements the shared URL frontier: canonical URL
// normalization, scope classification, and the deduplicated set of all
// URLs discovered during a run.
//
// The frontier is the single synchronization point between concurrent
// discovery phases. Admit performs an atomic check-and-insert so that
// two concurrent admits of the same canonical URL produce exactly one
// new record, with every admitting phase recorded in the record's
// provenance list.
package frontier
