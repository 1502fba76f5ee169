// Package main provides the entry point for the urlmap CLI.
//
// urlmap maps the URL space of a website: it combines sitemap and feed
// parsing, web-archive seeding, recursive crawling, and systematic
// probing into one deduplicated, scope-filtered list of URLs.
//
// Usage:
//
//	urlmap discover <base-url>
//	urlmap runs example.com
//
// See --help for all available options.
package main

// main is the entry point for urlmap.
func main() {
	Execute()
}
