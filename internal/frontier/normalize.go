package frontier

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

// trackingParams lists query parameters that carry analytics state only
// and never change the addressed resource. They are stripped during
// normalization so that otherwise-identical URLs deduplicate.
var trackingParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
	"gclid":        true,
	"fbclid":       true,
	"msclkid":      true,
	"mc_cid":       true,
	"mc_eid":       true,
	"ref":          true,
}

// Normalizer converts raw candidate URL strings into the canonical form
// used as the frontier's uniqueness key.
//
// Canonical form: lowercase scheme and host (IDN hosts converted to
// punycode), default port stripped, NFC-normalized path with the trailing
// slash removed except at the root, tracking parameters stripped,
// remaining query sorted by key, fragment dropped.
//
// Normalization is idempotent: Normalize(Normalize(u)) == Normalize(u).
type Normalizer struct{}

// NewNormalizer creates a Normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize returns the canonical form of raw, which must be an absolute
// URL. Relative references are the extractor's job to resolve; by the
// time a candidate reaches the frontier it is absolute or invalid.
func (n *Normalizer) Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("unparseable URL %q: %w", raw, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("relative URL %q cannot be normalized", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = normalizeHost(u.Scheme, u.Host)
	u.Path = normalizePath(u.Path)
	u.RawQuery = normalizeQuery(u.Query())
	u.Fragment = ""
	u.RawFragment = ""
	u.User = nil

	return u.String(), nil
}

// normalizeHost lowercases the host, converts IDN labels to punycode,
// and strips the scheme's default port.
func normalizeHost(scheme, host string) string {
	host = strings.ToLower(host)

	hostname := host
	port := ""
	if i := strings.LastIndex(host, ":"); i != -1 && !strings.Contains(host[i:], "]") {
		hostname, port = host[:i], host[i+1:]
	}

	// International hosts become punycode so that the same site written
	// in Unicode and ASCII forms deduplicates.
	if ascii, err := idna.Lookup.ToASCII(hostname); err == nil && ascii != "" {
		hostname = ascii
	}

	if port == "" || (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		return hostname
	}
	return hostname + ":" + port
}

// normalizePath applies NFC normalization and removes the trailing slash
// except at the root. Sites frequently link the same page both with and
// without the slash; collapsing them halves the frontier on such sites.
func normalizePath(path string) string {
	if path == "" {
		return "/"
	}

	path = norm.NFC.String(path)

	if path != "/" {
		path = strings.TrimSuffix(path, "/")
		if path == "" {
			path = "/"
		}
	}

	return path
}

// normalizeQuery strips tracking-only parameters and sorts the rest by
// key so that parameter order never distinguishes two URLs.
func normalizeQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if trackingParams[strings.ToLower(k)] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		vs := values[k]
		sort.Strings(vs)
		for _, v := range vs {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			if v != "" {
				b.WriteByte('=')
				b.WriteString(url.QueryEscape(v))
			}
		}
	}
	return b.String()
}
