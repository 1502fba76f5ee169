// Package phase implements the discovery phases that populate the URL
// frontier.
//
// Each phase is a strategy behind a common interface: it reads shared
// dependencies (frontier, fetcher, extractor, suggestion service),
// produces candidate URLs its own way, and reports per-phase statistics.
// Phases run in a fixed order chosen so that cheap, high-yield sources
// (sitemaps, robots, feeds, archives) seed the frontier before the
// crawling and probing phases spend requests on it.
package phase
