package phase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestSitemapDiscovery tests frontier seeding from sitemap.xml.
func TestSitemapDiscovery(t *testing.T) {
	t.Parallel()

	t.Run("admits every location of a three-entry sitemap", func(t *testing.T) {
		t.Parallel()

		var baseURL string
		mux := http.NewServeMux()
		mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
				<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
					<url><loc>%s/</loc></url>
					<url><loc>%s/about</loc></url>
					<url><loc>%s/products</loc></url>
				</urlset>`, baseURL, baseURL, baseURL)
		})
		mux.HandleFunc("/", http.NotFound)

		srv := httptest.NewServer(mux)
		defer srv.Close()
		baseURL = srv.URL

		d := newTestDeps(t, srv.URL)
		stats, err := NewSitemapDiscovery().Run(context.Background(), d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if stats.Admitted != 3 {
			t.Errorf("expected 3 admitted, got %d", stats.Admitted)
		}
		if d.Frontier.InScopeCount() != 3 {
			t.Errorf("expected 3 in-scope records, got %d", d.Frontier.InScopeCount())
		}
		for _, path := range []string{"/", "/about", "/products"} {
			if !d.Frontier.Contains(srv.URL + path) {
				t.Errorf("frontier missing %s", path)
			}
		}
	})

	t.Run("recurses into a sitemap index", func(t *testing.T) {
		t.Parallel()

		var baseURL string
		mux := http.NewServeMux()
		mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
				<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
					<sitemap><loc>%s/sitemap-posts.xml</loc></sitemap>
				</sitemapindex>`, baseURL)
		})
		mux.HandleFunc("/sitemap-posts.xml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
				<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
					<url><loc>%s/posts/first</loc></url>
				</urlset>`, baseURL)
		})
		mux.HandleFunc("/", http.NotFound)

		srv := httptest.NewServer(mux)
		defer srv.Close()
		baseURL = srv.URL

		d := newTestDeps(t, srv.URL)
		stats, err := NewSitemapDiscovery().Run(context.Background(), d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if stats.Admitted != 1 {
			t.Errorf("expected 1 admitted from the child sitemap, got %d", stats.Admitted)
		}
		if !d.Frontier.Contains(srv.URL + "/posts/first") {
			t.Error("frontier missing the child sitemap location")
		}
	})

	t.Run("missing sitemaps admit nothing", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		d := newTestDeps(t, srv.URL)
		stats, err := NewSitemapDiscovery().Run(context.Background(), d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stats.Admitted != 0 {
			t.Errorf("expected nothing admitted, got %d", stats.Admitted)
		}
	})
}
