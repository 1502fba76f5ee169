package fetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Response is the outcome of a successful fetch. "Successful" means an
// HTTP response was received; the status may still be 4xx or 5xx, and
// callers decide what that means for their phase.
type Response struct {
	// StatusCode is the final HTTP status after internal retries.
	StatusCode int

	// Header holds the response headers.
	Header http.Header

	// Body is the response body, truncated to the fetcher's body limit.
	Body []byte

	// FinalURL is the URL after redirects.
	FinalURL string
}

// OK reports whether the response carries a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ContentType returns the response Content-Type header.
func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

// Fetcher issues rate-limited HTTP requests on behalf of all discovery
// phases. One Fetcher instance is shared across the whole run.
//
// Design decision: We require an external http.Client rather than
// creating one internally because:
//  1. Timeout and transport configuration belong to the caller
//  2. Tests inject clients pointed at httptest servers
//  3. Connection pooling is shared across phases
type Fetcher struct {
	client *http.Client

	// sem bounds in-flight requests across the whole run. Phases share
	// this ceiling; none gets a private pool.
	sem *semaphore.Weighted

	userAgent       string
	headers         map[string]string
	maxBodySize     int64
	retryCount      int
	perHostInterval time.Duration
	backoffBase     time.Duration
	cooldown429     time.Duration
	logger          *slog.Logger

	mu sync.Mutex
	// limiters holds one politeness limiter per host, created lazily.
	limiters map[string]*rate.Limiter
	// cooldownUntil delays the next request to a host that returned 429.
	cooldownUntil map[string]time.Time
	// requestCounts tracks requests issued per host for reporting.
	requestCounts map[string]int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithHeaders sets additional headers included in every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithMaxBodySize limits how many bytes of a response body are read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithRetryCount sets the retry budget for transient failures.
func WithRetryCount(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retryCount = n
		}
	}
}

// WithPerHostInterval sets the minimum spacing between requests to the
// same host.
func WithPerHostInterval(d time.Duration) Option {
	return func(f *Fetcher) {
		f.perHostInterval = d
	}
}

// WithMaxConcurrent sets the run-wide concurrent request ceiling.
func WithMaxConcurrent(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithBackoffBase sets the base delay for exponential retry backoff.
// Primarily for tests; the default is 500ms.
func WithBackoffBase(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.backoffBase = d
		}
	}
}

// WithCooldown429 sets the extra host cooldown applied after a 429
// response when the server sends no Retry-After header.
func WithCooldown429(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.cooldown429 = d
		}
	}
}

// WithLogger sets the fetcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher using the given HTTP client.
func New(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:          client,
		sem:             semaphore.NewWeighted(5),
		userAgent:       "urlmap/1.0",
		maxBodySize:     5 * 1024 * 1024, // 5MB
		retryCount:      3,
		perHostInterval: 1 * time.Second,
		backoffBase:     500 * time.Millisecond,
		cooldown429:     5 * time.Second,
		limiters:        make(map[string]*rate.Limiter),
		cooldownUntil:   make(map[string]time.Time),
		requestCounts:   make(map[string]int),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	return f
}

// Do fetches the URL, retrying transient failures with exponential
// backoff. It returns a Response for any HTTP status received; the
// error is non-nil only when no usable response could be obtained
// (network failure, or the context was cancelled).
func (f *Fetcher) Do(ctx context.Context, rawURL string) (*Response, error) {
	return f.do(ctx, http.MethodGet, rawURL)
}

// Head issues a HEAD request with the same politeness and retry rules.
func (f *Fetcher) Head(ctx context.Context, rawURL string) (*Response, error) {
	return f.do(ctx, http.MethodHead, rawURL)
}

// Exists checks whether a URL exists using HEAD, falling back to GET
// when the server rejects HEAD (405/501). It returns the observed
// status alongside the existence verdict: 2xx and 3xx count as existing.
func (f *Fetcher) Exists(ctx context.Context, rawURL string) (bool, int, error) {
	resp, err := f.Head(ctx, rawURL)
	if err != nil {
		return false, 0, err
	}

	if resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented {
		resp, err = f.Do(ctx, rawURL)
		if err != nil {
			return false, 0, err
		}
	}

	exists := resp.StatusCode >= 200 && resp.StatusCode < 400
	return exists, resp.StatusCode, nil
}

func (f *Fetcher) do(ctx context.Context, method, rawURL string) (*Response, error) {
	if err := f.sem.Acquire(ctx, 1); err != nil {
		return nil, &Error{URL: rawURL, Kind: KindTransient, Err: err}
	}
	defer f.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, &Error{URL: rawURL, Kind: KindPermanent, Err: err}
	}
	host := req.URL.Host

	var lastErr error
	for attempt := 0; attempt <= f.retryCount; attempt++ {
		if attempt > 0 {
			if err := f.sleep(ctx, f.backoffBase*time.Duration(1<<(attempt-1))); err != nil {
				return nil, &Error{URL: rawURL, Kind: KindTransient, Err: err}
			}
		}

		if err := f.waitPoliteness(ctx, host); err != nil {
			return nil, &Error{URL: rawURL, Kind: KindTransient, Err: err}
		}

		resp, err := f.attempt(ctx, method, rawURL)
		if err != nil {
			if classifyNetErr(err) == KindPermanent {
				return nil, &Error{URL: rawURL, Kind: KindPermanent, Err: err}
			}
			lastErr = err
			f.logger.Debug("transient fetch failure",
				"url", rawURL,
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			f.applyCooldown(host, resp.Header)
			if attempt < f.retryCount {
				f.logger.Debug("rate limited by host, cooling down",
					"url", rawURL,
					"host", host,
				)
				continue
			}
			return resp, nil
		}

		if resp.StatusCode >= 500 && attempt < f.retryCount {
			f.logger.Debug("server error, retrying",
				"url", rawURL,
				"status", resp.StatusCode,
				"attempt", attempt+1,
			)
			continue
		}

		return resp, nil
	}

	return nil, &Error{URL: rawURL, Kind: KindTransient, Err: lastErr}
}

// attempt issues a single HTTP request and reads the body under the
// size limit.
func (f *Fetcher) attempt(ctx context.Context, method, rawURL string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	f.countRequest(req.URL.Host)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, err
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		FinalURL:   finalURL,
	}, nil
}

// waitPoliteness blocks until the host's rate limiter permits another
// request and any 429 cooldown has elapsed.
func (f *Fetcher) waitPoliteness(ctx context.Context, host string) error {
	f.mu.Lock()
	until := f.cooldownUntil[host]
	limiter := f.limiters[host]
	if limiter == nil {
		if f.perHostInterval > 0 {
			limiter = rate.NewLimiter(rate.Every(f.perHostInterval), 1)
		} else {
			limiter = rate.NewLimiter(rate.Inf, 1)
		}
		f.limiters[host] = limiter
	}
	f.mu.Unlock()

	if wait := time.Until(until); wait > 0 {
		if err := f.sleep(ctx, wait); err != nil {
			return err
		}
	}

	return limiter.Wait(ctx)
}

// applyCooldown delays the next request to a host that returned 429,
// honoring Retry-After when the server provides one in seconds.
func (f *Fetcher) applyCooldown(host string, header http.Header) {
	cooldown := f.cooldown429
	if ra := header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
			cooldown = time.Duration(secs) * time.Second
		}
	}

	f.mu.Lock()
	f.cooldownUntil[host] = time.Now().Add(cooldown)
	f.mu.Unlock()
}

// countRequest increments the per-host request counter.
func (f *Fetcher) countRequest(host string) {
	f.mu.Lock()
	f.requestCounts[host]++
	f.mu.Unlock()
}

// RequestCounts returns a copy of the per-host request counters.
func (f *Fetcher) RequestCounts() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]int, len(f.requestCounts))
	for host, n := range f.requestCounts {
		out[host] = n
	}
	return out
}

// sleep waits for d or until the context is cancelled.
func (f *Fetcher) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
