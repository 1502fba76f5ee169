package config

// SiteConfig holds per-site overrides for a single target domain.
// This allows customizing discovery behavior per site in the config file.
type SiteConfig struct {
	// PathPrefix restricts scope to URLs under this path for the site.
	PathPrefix string `yaml:"pathPrefix,omitempty"`

	// MaxDepth overrides the global crawl depth for this site.
	// If zero, the global MaxDepth is used.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// AllowExtensions and DenyExtensions adjust scope filtering for the site.
	AllowExtensions []string `yaml:"allowExtensions,omitempty"`
	DenyExtensions  []string `yaml:"denyExtensions,omitempty"`

	// Phases selects a subset of discovery phases by name for the site.
	Phases []string `yaml:"phases,omitempty"`
}

// File represents the structure of the .urlmap configuration file.
type File struct {
	// Sites maps host names to their site-specific configurations.
	// Keys are bare hosts without a protocol (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains configuration applied to all sites unless
	// overridden in the site-specific entry.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a host, merging the
// site-specific entry over the defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.PathPrefix != "" {
			result.PathPrefix = siteConfig.PathPrefix
		}
		if siteConfig.MaxDepth != 0 {
			result.MaxDepth = siteConfig.MaxDepth
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
		if len(siteConfig.AllowExtensions) > 0 {
			result.AllowExtensions = siteConfig.AllowExtensions
		}
		if len(siteConfig.DenyExtensions) > 0 {
			result.DenyExtensions = siteConfig.DenyExtensions
		}
		if len(siteConfig.Phases) > 0 {
			result.Phases = siteConfig.Phases
		}
	}

	return result
}
