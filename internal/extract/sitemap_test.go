package extract

import (
	"slices"
	"testing"
)

// TestParseSitemap tests sitemap XML decoding.
func TestParseSitemap(t *testing.T) {
	t.Parallel()

	t.Run("urlset", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
			<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
				<url><loc>https://example.com/</loc><lastmod>2025-01-01</lastmod></url>
				<url><loc>https://example.com/about</loc></url>
				<url><loc></loc></url>
			</urlset>`)

		sm, err := ParseSitemap(body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sm.IsIndex {
			t.Error("urlset should not be an index")
		}
		want := []string{"https://example.com/", "https://example.com/about"}
		if !slices.Equal(sm.Locations, want) {
			t.Errorf("got %v, want %v", sm.Locations, want)
		}
	})

	t.Run("sitemapindex", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<?xml version="1.0" encoding="UTF-8"?>
			<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
				<sitemap><loc>https://example.com/sitemap-posts.xml</loc></sitemap>
				<sitemap><loc>https://example.com/sitemap-pages.xml</loc></sitemap>
			</sitemapindex>`)

		sm, err := ParseSitemap(body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sm.IsIndex {
			t.Error("sitemapindex should be an index")
		}
		if len(sm.Locations) != 2 {
			t.Errorf("expected 2 child sitemaps, got %v", sm.Locations)
		}
	})

	t.Run("invalid XML", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseSitemap([]byte("not xml at all")); err == nil {
			t.Error("expected an error for non-XML input")
		}
	})
}
