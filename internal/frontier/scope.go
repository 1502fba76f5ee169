package frontier

import (
	"fmt"
	"net"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// defaultDenyExtensions lists file extensions excluded from scope by
// default: page assets that a URL map of a site's content does not need.
var defaultDenyExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".svg", ".webp", ".ico", ".bmp",
	".css", ".js", ".mjs", ".map",
	".woff", ".woff2", ".ttf", ".otf", ".eot",
	".mp3", ".mp4", ".avi", ".mov", ".webm", ".wav",
	".zip", ".gz", ".tar", ".rar", ".7z",
	".exe", ".dmg", ".iso",
}

// ScopeRule decides which discovered URLs are eligible for expansion and
// inclusion in the final result. A rule is immutable for a run.
//
// A URL is in scope when its host shares the base URL's registrable
// domain (example.com matches www.example.com), its path falls under the
// optional path prefix, and its file extension is not denied.
type ScopeRule struct {
	// registrableDomain is the eTLD+1 of the base URL's host
	// (e.g., "example.com" for "www.example.com").
	registrableDomain string

	// baseHost is the exact host of the base URL, kept for hosts where
	// the public suffix list yields no registrable domain (IPs,
	// localhost, test domains).
	baseHost string

	// pathPrefix restricts scope to URLs under this path when non-empty.
	pathPrefix string

	// deny maps lowercased extensions to exclusion.
	deny map[string]bool
}

// ScopeOption configures a ScopeRule.
type ScopeOption func(*ScopeRule)

// WithPathPrefix restricts scope to URLs whose path starts with prefix.
func WithPathPrefix(prefix string) ScopeOption {
	return func(s *ScopeRule) {
		if prefix != "" && !strings.HasPrefix(prefix, "/") {
			prefix = "/" + prefix
		}
		s.pathPrefix = prefix
	}
}

// WithAllowExtensions removes extensions from the deny list
// (e.g., ".pdf" when PDFs should appear in the URL map).
func WithAllowExtensions(exts []string) ScopeOption {
	return func(s *ScopeRule) {
		for _, ext := range exts {
			delete(s.deny, normalizeExt(ext))
		}
	}
}

// WithDenyExtensions adds extensions to the deny list.
func WithDenyExtensions(exts []string) ScopeOption {
	return func(s *ScopeRule) {
		for _, ext := range exts {
			s.deny[normalizeExt(ext)] = true
		}
	}
}

// NewScopeRule creates a rule scoped to the base URL's registrable
// domain. PDFs are denied by default; pass WithAllowExtensions to
// include them.
func NewScopeRule(baseURL string, opts ...ScopeOption) (*ScopeRule, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL for scope rule: %q", baseURL)
	}

	host := strings.ToLower(u.Hostname())

	s := &ScopeRule{
		baseHost: host,
		deny:     make(map[string]bool, len(defaultDenyExtensions)+1),
	}
	for _, ext := range defaultDenyExtensions {
		s.deny[ext] = true
	}
	s.deny[".pdf"] = true

	// The public suffix list does not apply to IP literals, localhost,
	// and reserved test hosts; scope then falls back to exact-host
	// matching.
	if net.ParseIP(host) == nil {
		if domain, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
			s.registrableDomain = domain
		}
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// InScope reports whether the canonical URL is eligible for expansion
// and inclusion in the result.
func (s *ScopeRule) InScope(canonicalURL string) bool {
	u, err := url.Parse(canonicalURL)
	if err != nil {
		return false
	}

	if !s.hostInScope(strings.ToLower(u.Hostname())) {
		return false
	}

	if s.pathPrefix != "" && !strings.HasPrefix(u.Path, s.pathPrefix) && u.Path+"/" != s.pathPrefix {
		return false
	}

	if ext := strings.ToLower(path.Ext(u.Path)); ext != "" && s.deny[ext] {
		return false
	}

	return true
}

// hostInScope matches the registrable domain when one exists, otherwise
// the exact base host.
func (s *ScopeRule) hostInScope(host string) bool {
	if s.registrableDomain != "" {
		return host == s.registrableDomain || strings.HasSuffix(host, "."+s.registrableDomain)
	}
	return host == s.baseHost
}

// BaseHost returns the exact host the rule was created from.
func (s *ScopeRule) BaseHost() string {
	return s.baseHost
}

// PathPrefix returns the configured path prefix, or empty.
func (s *ScopeRule) PathPrefix() string {
	return s.pathPrefix
}

// normalizeExt lowercases an extension and ensures the leading dot.
func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
