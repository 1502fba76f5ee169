package extract

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// cssURLRegex matches url(...) references in style and script text.
var cssURLRegex = regexp.MustCompile(`url\(\s*['"]?([^'")\s]+)['"]?\s*\)`)

// Extractor produces candidate URL strings from fetched documents.
//
// Design decision: We use golang.org/x/net/html rather than regex for
// HTML because:
//  1. It correctly handles the malformed HTML common on real sites
//  2. It never fails on bad input, only degrades, which matches the
//     best-effort contract
//  3. Walking the node tree keeps attribute handling in one place
type Extractor struct {
	// aggressive additionally extracts from link and area elements,
	// used by the deep-crawl pass over already-visited pages.
	aggressive bool
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithAggressive enables superset extraction: link and area elements in
// addition to the standard sources.
func WithAggressive(aggressive bool) ExtractorOption {
	return func(e *Extractor) {
		e.aggressive = aggressive
	}
}

// New creates an Extractor.
func New(opts ...ExtractorOption) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the candidate URLs found in body, resolved against
// baseURL. The content type selects the parser: XML content (or a body
// that looks like a sitemap) goes through the sitemap decoder, anything
// else through the HTML walker. Unparseable input yields an empty slice,
// never an error.
func (e *Extractor) Extract(body []byte, contentType, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	if isSitemapContent(body, contentType) {
		sm, err := ParseSitemap(body)
		if err != nil {
			return nil
		}
		return dedupe(sm.Locations)
	}

	return e.extractHTML(body, base)
}

// extractHTML walks the document tree collecting URL references.
func (e *Extractor) extractHTML(body []byte, base *url.URL) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		// html.Parse almost never fails; if it does there is nothing
		// to salvage.
		return nil
	}

	var found []string
	add := func(ref string) {
		if resolved := resolveRef(base, ref); resolved != "" {
			found = append(found, resolved)
		}
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			e.processElement(n, add)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return dedupe(found)
}

// processElement collects URL references from a single element.
func (e *Extractor) processElement(n *html.Node, add func(string)) {
	switch n.Data {
	case "a":
		add(getAttr(n, "href"))

	case "form":
		add(getAttr(n, "action"))

	case "meta":
		// <meta http-equiv="refresh" content="5; url=/target">
		if strings.EqualFold(getAttr(n, "http-equiv"), "refresh") {
			if target := refreshTarget(getAttr(n, "content")); target != "" {
				add(target)
			}
		}

	case "style", "script":
		// Inline style/script bodies may reference pages via url(...)
		// or carry literal paths; only url(...) is reliable enough to
		// extract.
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			for _, m := range cssURLRegex.FindAllStringSubmatch(n.FirstChild.Data, -1) {
				add(m[1])
			}
		}

	case "link":
		if e.aggressive {
			add(getAttr(n, "href"))
		}

	case "area":
		if e.aggressive {
			add(getAttr(n, "href"))
		}
	}

	// Inline style attributes can also carry url(...) references.
	if style := getAttr(n, "style"); style != "" {
		for _, m := range cssURLRegex.FindAllStringSubmatch(style, -1) {
			add(m[1])
		}
	}
}

// refreshTarget parses the url= portion of a meta-refresh content value.
func refreshTarget(content string) string {
	for _, part := range strings.Split(content, ";") {
		part = strings.TrimSpace(part)
		if len(part) > 4 && strings.EqualFold(part[:4], "url=") {
			return strings.Trim(part[4:], `'" `)
		}
	}
	return ""
}

// resolveRef resolves a reference against the base URL, skipping
// non-navigational schemes.
func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "#") {
		return ""
	}

	lower := strings.ToLower(ref)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return ""
		}
	}

	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

// isSitemapContent decides whether a document should go through the
// sitemap decoder.
func isSitemapContent(body []byte, contentType string) bool {
	if strings.Contains(contentType, "xml") {
		return true
	}

	head := bytes.TrimSpace(body)
	if len(head) > 256 {
		head = head[:256]
	}
	return bytes.Contains(head, []byte("<urlset")) || bytes.Contains(head, []byte("<sitemapindex"))
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// dedupe removes duplicates preserving first-seen order.
func dedupe(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
