package fetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newTestFetcher creates a fetcher tuned for fast tests.
func newTestFetcher(opts ...Option) *Fetcher {
	base := []Option{
		WithPerHostInterval(0),
		WithBackoffBase(5 * time.Millisecond),
		WithCooldown429(10 * time.Millisecond),
		WithMaxConcurrent(5),
	}
	return New(&http.Client{Timeout: 5 * time.Second}, append(base, opts...)...)
}

// TestFetcherDo tests basic fetching.
func TestFetcherDo(t *testing.T) {
	t.Parallel()

	t.Run("returns body and status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html>ok</html>"))
		}))
		defer srv.Close()

		f := newTestFetcher()
		resp, err := f.Do(context.Background(), srv.URL+"/page")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.OK() {
			t.Errorf("expected 2xx, got %d", resp.StatusCode)
		}
		if string(resp.Body) != "<html>ok</html>" {
			t.Errorf("unexpected body %q", resp.Body)
		}
		if resp.ContentType() != "text/html" {
			t.Errorf("unexpected content type %q", resp.ContentType())
		}
	})

	t.Run("404 is a response, not an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		f := newTestFetcher()
		resp, err := f.Do(context.Background(), srv.URL+"/missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("truncates body at the size limit", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(make([]byte, 4096))
		}))
		defer srv.Close()

		f := newTestFetcher(WithMaxBodySize(100))
		resp, err := f.Do(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(resp.Body) != 100 {
			t.Errorf("expected 100 bytes, got %d", len(resp.Body))
		}
	})
}

// TestFetcherRetries tests transient retry behavior.
func TestFetcherRetries(t *testing.T) {
	t.Parallel()

	t.Run("429 then 200 succeeds after one backoff cycle", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		f := newTestFetcher()
		resp, err := f.Do(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200 after retry, got %d", resp.StatusCode)
		}
		if got := calls.Load(); got != 2 {
			t.Errorf("expected exactly 2 requests, got %d", got)
		}
	})

	t.Run("5xx retried up to the retry budget", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		f := newTestFetcher(WithRetryCount(2))
		resp, err := f.Do(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected final 500, got %d", resp.StatusCode)
		}
		if got := calls.Load(); got != 3 {
			t.Errorf("expected 3 attempts (1 + 2 retries), got %d", got)
		}
	})

	t.Run("4xx other than 429 is not retried", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		f := newTestFetcher(WithRetryCount(3))
		resp, err := f.Do(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("expected 403, got %d", resp.StatusCode)
		}
		if got := calls.Load(); got != 1 {
			t.Errorf("expected a single attempt, got %d", got)
		}
	})

	t.Run("DNS failure is permanent", func(t *testing.T) {
		t.Parallel()

		f := newTestFetcher(WithRetryCount(3))
		_, err := f.Do(context.Background(), "http://host.invalid./")
		if err == nil {
			t.Fatal("expected an error for unresolvable host")
		}

		var netErr *net.DNSError
		if errors.As(err, &netErr) && !IsPermanent(err) {
			t.Errorf("expected DNS failure classified permanent, got %v", err)
		}
	})
}

// TestFetcherExists tests the HEAD-based existence probe.
func TestFetcherExists(t *testing.T) {
	t.Parallel()

	t.Run("HEAD 200 exists", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		f := newTestFetcher()
		exists, status, err := f.Exists(context.Background(), srv.URL+"/dir/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !exists || status != http.StatusOK {
			t.Errorf("expected exists with 200, got %v %d", exists, status)
		}
	})

	t.Run("HEAD 404 does not exist", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		defer srv.Close()

		f := newTestFetcher()
		exists, status, err := f.Exists(context.Background(), srv.URL+"/missing/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if exists || status != http.StatusNotFound {
			t.Errorf("expected missing with 404, got %v %d", exists, status)
		}
	})

	t.Run("falls back to GET on 405", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		f := newTestFetcher()
		exists, status, err := f.Exists(context.Background(), srv.URL+"/dir/")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !exists || status != http.StatusOK {
			t.Errorf("expected GET fallback to find the URL, got %v %d", exists, status)
		}
	})
}

// TestFetcherRequestCounts tests per-host accounting.
func TestFetcherRequestCounts(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	f := newTestFetcher()
	for range 3 {
		if _, err := f.Do(context.Background(), srv.URL); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	counts := f.RequestCounts()
	total := 0
	for _, n := range counts {
		total += n
	}
	if total != 3 {
		t.Errorf("expected 3 counted requests, got %d (%v)", total, counts)
	}
}

// TestFetcherCancellation tests that a cancelled context stops the fetch.
func TestFetcherCancellation(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	f := newTestFetcher()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := f.Do(ctx, srv.URL); err == nil {
		t.Error("expected an error after cancellation")
	}
}
