package extract

import (
	"slices"
	"testing"
)

// TestExtractHTML tests link extraction from HTML documents.
func TestExtractHTML(t *testing.T) {
	t.Parallel()

	t.Run("anchors resolved against the base URL", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body>
			<a href="/about">About</a>
			<a href="contact.html">Contact</a>
			<a href="https://example.com/pricing">Pricing</a>
		</body></html>`)

		got := New().Extract(body, "text/html", "https://example.com/docs/")
		want := []string{
			"https://example.com/about",
			"https://example.com/docs/contact.html",
			"https://example.com/pricing",
		}
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("form actions and meta refresh targets", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><head>
			<meta http-equiv="refresh" content="5; url=/moved">
		</head><body>
			<form action="/search" method="get"></form>
		</body></html>`)

		got := New().Extract(body, "text/html", "https://example.com/")
		if !slices.Contains(got, "https://example.com/moved") {
			t.Errorf("missing meta refresh target in %v", got)
		}
		if !slices.Contains(got, "https://example.com/search") {
			t.Errorf("missing form action in %v", got)
		}
	})

	t.Run("url() references in style text", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><head>
			<style>.hero { background: url('/assets/hero') }</style>
		</head><body>
			<div style="background-image: url(/banners/top)"></div>
		</body></html>`)

		got := New().Extract(body, "text/html", "https://example.com/")
		if !slices.Contains(got, "https://example.com/assets/hero") {
			t.Errorf("missing style element reference in %v", got)
		}
		if !slices.Contains(got, "https://example.com/banners/top") {
			t.Errorf("missing inline style reference in %v", got)
		}
	})

	t.Run("skips non-navigational schemes and fragments", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body>
			<a href="javascript:void(0)">noop</a>
			<a href="mailto:a@example.com">mail</a>
			<a href="tel:+1555">call</a>
			<a href="data:text/plain,hi">data</a>
			<a href="#section">jump</a>
			<a href="ftp://example.com/file">ftp</a>
		</body></html>`)

		got := New().Extract(body, "text/html", "https://example.com/")
		if len(got) != 0 {
			t.Errorf("expected no candidates, got %v", got)
		}
	})

	t.Run("aggressive mode adds link and area elements", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><head>
			<link rel="canonical" href="/canonical">
		</head><body>
			<map><area href="/region"></map>
		</body></html>`)

		standard := New().Extract(body, "text/html", "https://example.com/")
		if slices.Contains(standard, "https://example.com/canonical") {
			t.Errorf("standard mode should skip link elements, got %v", standard)
		}

		aggressive := New(WithAggressive(true)).Extract(body, "text/html", "https://example.com/")
		if !slices.Contains(aggressive, "https://example.com/canonical") {
			t.Errorf("missing link element in aggressive mode: %v", aggressive)
		}
		if !slices.Contains(aggressive, "https://example.com/region") {
			t.Errorf("missing area element in aggressive mode: %v", aggressive)
		}
	})

	t.Run("deduplicates repeated references", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body>
			<a href="/page">one</a>
			<a href="/page">two</a>
		</body></html>`)

		got := New().Extract(body, "text/html", "https://example.com/")
		if len(got) != 1 {
			t.Errorf("expected a single deduplicated candidate, got %v", got)
		}
	})

	t.Run("malformed markup degrades without error", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body><a href="/ok">ok<div><a href=`)
		got := New().Extract(body, "text/html", "https://example.com/")
		if !slices.Contains(got, "https://example.com/ok") {
			t.Errorf("expected partial extraction from broken markup, got %v", got)
		}
	})
}

// TestExtractSitemapContent tests routing XML bodies to the sitemap
// decoder.
func TestExtractSitemapContent(t *testing.T) {
	t.Parallel()

	body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
		<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<url><loc>https://example.com/a</loc></url>
			<url><loc>https://example.com/b</loc></url>
		</urlset>`)

	got := New().Extract(body, "application/xml", "https://example.com/sitemap.xml")
	want := []string{"https://example.com/a", "https://example.com/b"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
