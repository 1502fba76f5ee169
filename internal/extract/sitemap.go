package extract

import (
	"encoding/xml"
	"fmt"
)

// Sitemap is a decoded sitemap document. A regular urlset carries page
// locations; a sitemapindex carries the locations of child sitemaps,
// which callers fetch and decode in turn.
type Sitemap struct {
	// IsIndex reports whether the document was a sitemapindex.
	IsIndex bool

	// Locations holds the loc values found, in document order.
	Locations []string
}

// urlsetDoc mirrors the urlset sitemap format.
type urlsetDoc struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// indexDoc mirrors the sitemapindex format.
type indexDoc struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// ParseSitemap decodes a sitemap XML document, handling both urlset and
// sitemapindex roots.
func ParseSitemap(body []byte) (*Sitemap, error) {
	var index indexDoc
	if err := xml.Unmarshal(body, &index); err == nil {
		sm := &Sitemap{IsIndex: true}
		for _, s := range index.Sitemaps {
			if s.Loc != "" {
				sm.Locations = append(sm.Locations, s.Loc)
			}
		}
		return sm, nil
	}

	var urlset urlsetDoc
	if err := xml.Unmarshal(body, &urlset); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	sm := &Sitemap{}
	for _, u := range urlset.URLs {
		if u.Loc != "" {
			sm.Locations = append(sm.Locations, u.Loc)
		}
	}
	return sm, nil
}
