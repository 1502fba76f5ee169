package phase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestParseSearchForms tests GET search form discovery.
func TestParseSearchForms(t *testing.T) {
	t.Parallel()

	t.Run("recognizes a GET form with a query field", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body>
			<form action="/search" method="get">
				<input type="text" name="q">
				<input type="submit" value="Go">
			</form>
		</body></html>`)

		forms := parseSearchForms(body, "https://example.com/")
		if len(forms) != 1 {
			t.Fatalf("expected 1 form, got %d", len(forms))
		}
		if forms[0].Action != "https://example.com/search" || forms[0].Field != "q" {
			t.Errorf("unexpected form %+v", forms[0])
		}
	})

	t.Run("skips POST forms and non-search fields", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body>
			<form action="/login" method="post">
				<input type="text" name="username">
			</form>
			<form action="/subscribe" method="get">
				<input type="text" name="email_address">
			</form>
		</body></html>`)

		if forms := parseSearchForms(body, "https://example.com/"); len(forms) != 0 {
			t.Errorf("expected no forms, got %+v", forms)
		}
	})

	t.Run("type=search counts without a known name", func(t *testing.T) {
		t.Parallel()

		body := []byte(`<html><body>
			<form action="/find">
				<input type="search" name="lookup">
			</form>
		</body></html>`)

		forms := parseSearchForms(body, "https://example.com/")
		if len(forms) != 1 || forms[0].Field != "lookup" {
			t.Errorf("expected the search-typed input, got %+v", forms)
		}
	})
}

// TestFormSearchProbing tests query submission and result scraping.
func TestFormSearchProbing(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<form action="/search" method="get">
				<input type="text" name="q">
			</form>
		</body></html>`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Query().Get("q") == "news" {
			_, _ = w.Write([]byte(`<html><body>
				<a href="/press/2024-launch">result</a>
			</body></html>`))
			return
		}
		_, _ = w.Write([]byte(`<html><body>no results</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := newTestDeps(t, srv.URL)
	stats, err := NewFormSearchProbing().Run(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !d.Frontier.Contains(srv.URL + "/press/2024-launch") {
		t.Error("frontier missing the search result link")
	}
	if stats.Fetches == 0 {
		t.Error("expected search submissions counted as fetches")
	}
}
