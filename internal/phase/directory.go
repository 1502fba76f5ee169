package phase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/urlmap/internal/model"
	"github.com/nao1215/urlmap/internal/suggest"
)

// DirectoryProbing checks well-known directory names against the target
// with lightweight existence probes. The candidate list combines the
// static fallback set with suggestion-service output informed by the
// robots.txt Disallow hints.
type DirectoryProbing struct{}

// NewDirectoryProbing creates the directory probing phase.
func NewDirectoryProbing() *DirectoryProbing {
	return &DirectoryProbing{}
}

// Name returns the phase name.
func (p *DirectoryProbing) Name() string { return NameDirectoryProbing }

// Run probes each candidate directory once and admits the ones that
// respond.
func (p *DirectoryProbing) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	origin := baseOrigin(d)

	candidates := suggest.FallbackDirectories()
	if d.Config.UseLLMKeywords && d.Suggester != nil {
		suggested, _ := d.Suggester.Suggest(ctx, p.buildPrompt(d))
		stats.SuggestionCalls++
		candidates = append(candidates, suggested...)
	}

	seen := make(map[string]bool)
	for _, dir := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if pageBudgetReached(d) {
			break
		}

		dir = normalizeDirPath(dir)
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true

		target := origin + dir
		if d.Frontier.Contains(target) {
			continue
		}

		stats.Fetches++
		exists, status, err := d.Fetcher.Exists(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			countFetchError(stats, err)
			continue
		}
		if !exists {
			continue
		}

		stats.Candidates++
		isNew, rec := d.Frontier.Admit(target, origin, p.Name())
		switch {
		case rec == nil:
			stats.OutOfScope++
			continue
		case isNew && rec.InScope:
			stats.Admitted++
		case isNew:
			stats.OutOfScope++
			continue
		default:
			stats.Duplicates++
		}
		d.Frontier.SetStatus(rec.URL, status)
	}

	return stats, nil
}

// buildPrompt asks for directory names likely to exist on this host,
// seeding the question with robots.txt hints when available.
func (p *DirectoryProbing) buildPrompt(d *Deps) string {
	var b strings.Builder
	fmt.Fprintf(&b, "List likely directory paths for the website %s, one per line, "+
		"as absolute paths like /docs/.", d.Base.Host)

	if hints := d.Hints.DisallowPaths(); len(hints) > 0 {
		fmt.Fprintf(&b, " The site's robots.txt mentions these paths: %s.",
			strings.Join(hints, ", "))
	}
	return b.String()
}

// normalizeDirPath coerces a suggestion into a probeable absolute
// directory path.
func normalizeDirPath(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" || strings.ContainsAny(dir, " \t") {
		return ""
	}
	if !strings.HasPrefix(dir, "/") {
		dir = "/" + dir
	}
	if !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return dir
}
