package phase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// feedSite builds a site with one probed feed, one advertised feed, and
// a base page carrying the advertisement.
func feedSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var srv *httptest.Server

	mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<link rel="alternate" type="application/atom+xml" href="/custom.atom">
		</head><body>home</body></html>`)
	})
	mux.HandleFunc("/feed.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<rss version="2.0"><channel>
	<title>news</title>
	<link>%[1]s/</link>
	<item><title>one</title><link>%[1]s/posts/one</link></item>
	<item><title>two</title><link>%[1]s/posts/two</link></item>
</channel></rss>`, srv.URL)
	})
	mux.HandleFunc("/custom.atom", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
	<title>archive</title>
	<entry><title>old</title><link href="%s/archive/2020"/></entry>
</feed>`, srv.URL)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// TestFeedDiscovery tests feed probing and item admission.
func TestFeedDiscovery(t *testing.T) {
	t.Parallel()

	t.Run("admits item links from probed and advertised feeds", func(t *testing.T) {
		t.Parallel()

		srv := feedSite(t)
		d := newTestDeps(t, srv.URL)

		stats, err := NewFeedDiscovery().Run(context.Background(), d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, path := range []string{"/posts/one", "/posts/two", "/archive/2020"} {
			if !d.Frontier.Contains(srv.URL + path) {
				t.Errorf("frontier missing %s", path)
			}
		}
		if stats.Admitted == 0 {
			t.Error("expected admitted URLs from feeds")
		}
	})

	t.Run("missing feeds leave the frontier untouched", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			fmt.Fprint(w, `<html><body>no feeds here</body></html>`)
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		d := newTestDeps(t, srv.URL)
		stats, err := NewFeedDiscovery().Run(context.Background(), d)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if stats.Admitted != 0 {
			t.Errorf("expected no admissions, got %d", stats.Admitted)
		}
		if len(d.Frontier.Snapshot()) != 0 {
			t.Error("expected empty frontier")
		}
	})
}
