package phase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/nao1215/urlmap/internal/model"
)

// cdxEndpoint is the Wayback Machine CDX query endpoint.
const cdxEndpoint = "https://web.archive.org/cdx/search/cdx"

// ArchiveSeeding seeds the frontier from the Wayback Machine's CDX
// index. Historical snapshots surface URLs that no longer appear in
// navigation, and the scope rule filters out anything that has left the
// target domain.
type ArchiveSeeding struct {
	endpoint string
}

// ArchiveOption configures an ArchiveSeeding phase.
type ArchiveOption func(*ArchiveSeeding)

// WithArchiveEndpoint overrides the CDX endpoint, for tests.
func WithArchiveEndpoint(endpoint string) ArchiveOption {
	return func(p *ArchiveSeeding) {
		if endpoint != "" {
			p.endpoint = endpoint
		}
	}
}

// NewArchiveSeeding creates the archive seeding phase.
func NewArchiveSeeding(opts ...ArchiveOption) *ArchiveSeeding {
	p := &ArchiveSeeding{endpoint: cdxEndpoint}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the phase name.
func (p *ArchiveSeeding) Name() string { return NameArchiveSeeding }

// Run queries the CDX index for the base host and admits the archived
// originals, bounded by the configured result cap.
func (p *ArchiveSeeding) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	query := url.Values{
		"url":      {d.Base.Host + "/*"},
		"output":   {"json"},
		"fl":       {"original"},
		"collapse": {"urlkey"},
		"limit":    {fmt.Sprintf("%d", d.Config.ArchiveResultCap)},
	}

	stats.Fetches++
	resp, err := d.Fetcher.Do(ctx, p.endpoint+"?"+query.Encode())
	if err != nil {
		countFetchError(stats, err)
		return stats, nil
	}
	if !resp.OK() {
		d.Logger.Debug("archive query rejected", "status", resp.StatusCode)
		return stats, nil
	}

	originals, err := parseCDXResponse(resp.Body)
	if err != nil {
		return stats, fmt.Errorf("archive seeding: %w", err)
	}

	if len(originals) > d.Config.ArchiveResultCap {
		originals = originals[:d.Config.ArchiveResultCap]
	}
	admitAll(d, stats, p.Name(), d.Base.String(), originals)

	return stats, nil
}

// parseCDXResponse decodes the CDX JSON format: an array of rows where
// the first row names the fields and each later row holds one capture.
func parseCDXResponse(body []byte) ([]string, error) {
	var rows [][]string
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode cdx response: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	out := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) > 0 && row[0] != "" {
			out = append(out, row[0])
		}
	}
	return out, nil
}
