// Package database provides SQLite-based storage for discovery runs.
//
// This package implements the DiscoveryDB, which stores:
//   - Run records with timing, totals, and per-phase statistics
//   - The URL records each run discovered, with provenance
//
// Design decision: We use SQLite (via modernc.org/sqlite) instead of other
// databases because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
