// Package extract turns fetched documents into candidate URL strings.
//
// The extractor handles HTML (anchors, form actions, meta-refresh
// targets, url() references in inline style and script text, and in
// aggressive mode link and area elements) and sitemap XML (urlset and
// sitemapindex documents). Extraction is best-effort: malformed markup
// degrades to partial results and never produces an error for the
// caller.
package extract
