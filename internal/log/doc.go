// Package log provides a sanitizing slog handler for urlmap.
//
// Discovery runs carry LLM API keys and may receive authentication
// material in HTTP headers from target sites. The SecureHandler wraps
// any slog.Handler and redacts attribute values that look like
// credentials before they reach the underlying handler, so verbose
// logging can be enabled safely.
package log
