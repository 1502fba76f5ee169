// Package fetch provides the rate-limited HTTP fetcher shared by every
// discovery phase.
//
// The fetcher enforces two politeness constraints: a minimum interval
// between requests to the same host, and a global concurrent-request
// ceiling shared across the whole run rather than per phase. Transient
// failures (timeouts, connection resets, 5xx, 429) are retried with
// exponential backoff; permanent failures (other 4xx, DNS errors) are
// not. A 429 response additionally places the host in a cooldown before
// the next request.
package fetch
