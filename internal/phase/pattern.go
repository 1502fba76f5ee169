package phase

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/urlmap/internal/model"
)

// minPatternSamples is how many structurally similar URLs a template
// needs before it is trusted enough to generate from.
const minPatternSamples = 3

// maxPatternPerDirection caps generated values per template direction,
// independent of the consecutive-failure stop.
const maxPatternPerDirection = 50

// PatternGeneration infers numeric templates from groups of similar
// URLs and probes adjacent values. Seeing /reports/2021/, /reports/2022/
// and /reports/2023/ makes /reports/2020/ and /reports/2024/ worth one
// probe each.
type PatternGeneration struct{}

// NewPatternGeneration creates the pattern generation phase.
func NewPatternGeneration() *PatternGeneration {
	return &PatternGeneration{}
}

// Name returns the phase name.
func (p *PatternGeneration) Name() string { return NamePatternGeneration }

// Run infers templates from the frontier and probes generated values.
func (p *PatternGeneration) Run(ctx context.Context, d *Deps) (*model.PhaseStats, error) {
	stats := model.NewPhaseStats(p.Name())
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	templates := inferTemplates(d)
	d.Logger.Debug("numeric templates inferred", "count", len(templates))

	for _, tpl := range templates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if pageBudgetReached(d) {
			break
		}
		p.probeTemplate(ctx, d, stats, tpl)
	}

	return stats, nil
}

// numericTemplate is a URL shape with one variable numeric segment.
type numericTemplate struct {
	// prefix and suffix surround the numeric segment.
	prefix, suffix string

	// width is the zero-padding width, 0 when samples are unpadded.
	width int

	// values are the observed numbers, ascending.
	values []int
}

// render produces the URL for a generated value.
func (t *numericTemplate) render(value int) string {
	if t.width > 0 {
		return fmt.Sprintf("%s%0*d%s", t.prefix, t.width, value, t.suffix)
	}
	return fmt.Sprintf("%s%d%s", t.prefix, value, t.suffix)
}

// inferTemplates groups the frontier's in-scope URLs by shape. Each
// numeric path segment is a candidate variable position; a shape
// qualifies once enough distinct values are observed at one position.
func inferTemplates(d *Deps) []*numericTemplate {
	type group struct {
		tpl    *numericTemplate
		seen   map[int]bool
		padded bool
	}
	groups := make(map[string]*group)

	for _, rec := range d.Frontier.Snapshot() {
		u, err := url.Parse(rec.URL)
		if err != nil || u.RawQuery != "" {
			continue
		}

		trailingSlash := strings.HasSuffix(u.Path, "/")
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i, seg := range segments {
			value, err := strconv.Atoi(seg)
			if err != nil || seg == "" {
				continue
			}

			prefix := u.Scheme + "://" + u.Host + "/" + strings.Join(segments[:i], "/")
			if i > 0 {
				prefix += "/"
			}
			suffix := ""
			if i < len(segments)-1 {
				suffix = "/" + strings.Join(segments[i+1:], "/")
			}
			if trailingSlash {
				suffix += "/"
			}

			key := prefix + "\x00" + suffix
			g := groups[key]
			if g == nil {
				g = &group{
					tpl:  &numericTemplate{prefix: prefix, suffix: suffix},
					seen: make(map[int]bool),
				}
				groups[key] = g
			}
			if !g.seen[value] {
				g.seen[value] = true
				g.tpl.values = append(g.tpl.values, value)
			}
			if len(seg) > 1 && seg[0] == '0' {
				g.padded = true
				if len(seg) > g.tpl.width {
					g.tpl.width = len(seg)
				}
			}
		}
	}

	var out []*numericTemplate
	for _, g := range groups {
		if len(g.tpl.values) < minPatternSamples {
			continue
		}
		if !g.padded {
			g.tpl.width = 0
		}
		sort.Ints(g.tpl.values)
		out = append(out, g.tpl)
	}

	// Deterministic order for stable behavior across runs.
	sort.Slice(out, func(i, j int) bool {
		if out[i].prefix != out[j].prefix {
			return out[i].prefix < out[j].prefix
		}
		return out[i].suffix < out[j].suffix
	})
	return out
}

// probeTemplate generates adjacent values below and above the observed
// range. Each direction stops after the configured run of consecutive
// existence failures.
func (p *PatternGeneration) probeTemplate(ctx context.Context, d *Deps, stats *model.PhaseStats, tpl *numericTemplate) {
	known := make(map[int]bool, len(tpl.values))
	for _, v := range tpl.values {
		known[v] = true
	}
	lo := tpl.values[0]
	hi := tpl.values[len(tpl.values)-1]

	// Downward from the smallest observed value.
	p.probeDirection(ctx, d, stats, tpl, known, lo-1, -1)
	// Upward from the largest.
	p.probeDirection(ctx, d, stats, tpl, known, hi+1, +1)

	// Gaps inside the observed range are probed without a failure stop;
	// they are finite and the strongest candidates.
	for v := lo + 1; v < hi; v++ {
		if known[v] || ctx.Err() != nil || pageBudgetReached(d) {
			continue
		}
		p.probeOne(ctx, d, stats, tpl.render(v))
	}
}

// probeDirection walks values in one direction until the consecutive
// failure run, the generation cap, or zero is reached.
func (p *PatternGeneration) probeDirection(ctx context.Context, d *Deps, stats *model.PhaseStats, tpl *numericTemplate, known map[int]bool, start, step int) {
	failures := 0
	generated := 0
	for v := start; v >= 0 && generated < maxPatternPerDirection; v += step {
		if ctx.Err() != nil || pageBudgetReached(d) {
			return
		}
		if known[v] {
			continue
		}
		generated++

		if p.probeOne(ctx, d, stats, tpl.render(v)) {
			failures = 0
		} else {
			failures++
			if failures >= d.Config.PatternFailureRun {
				return
			}
		}
	}
}

// probeOne existence-checks a generated URL and admits it when present.
func (p *PatternGeneration) probeOne(ctx context.Context, d *Deps, stats *model.PhaseStats, target string) bool {
	if d.Frontier.Contains(target) {
		return true
	}

	stats.Fetches++
	exists, status, err := d.Fetcher.Exists(ctx, target)
	if err != nil {
		countFetchError(stats, err)
		return false
	}
	if !exists {
		return false
	}

	stats.Candidates++
	isNew, rec := d.Frontier.Admit(target, "", p.Name())
	switch {
	case rec == nil:
		stats.OutOfScope++
		return false
	case isNew && rec.InScope:
		stats.Admitted++
	case isNew:
		stats.OutOfScope++
		return false
	default:
		stats.Duplicates++
	}
	d.Frontier.SetStatus(rec.URL, status)
	return true
}
