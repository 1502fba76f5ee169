package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/nao1215/urlmap/internal/model"
)

// MarkdownWriter outputs results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// maxURLs caps the URL table; large runs list a sample plus a count.
	maxURLs int
}

// MarkdownOption configures a MarkdownWriter.
type MarkdownOption func(*MarkdownWriter)

// WithMaxURLs caps how many URLs appear in the Markdown table.
func WithMaxURLs(n int) MarkdownOption {
	return func(w *MarkdownWriter) {
		if n > 0 {
			w.maxURLs = n
		}
	}
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer, opts ...MarkdownOption) *MarkdownWriter {
	w := &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		maxURLs:    200,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the full result in Markdown format.
func (w *MarkdownWriter) Write(result *model.DiscoveryResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writePhaseTable(md, result)
	w.writeURLTable(md, result)

	return len(md.String()), md.Build()
}

// writeHeader writes the title and run metadata.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.DiscoveryResult) {
	md.H1("URL Discovery Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Field", "Value"},
		Rows: [][]string{
			{"Base Domain", result.BaseDomain},
			{"Run ID", result.RunID},
			{"Started", result.StartedAt.UTC().Format(time.RFC3339)},
			{"Duration", fmt.Sprintf("%.1fs", result.DiscoveryTimeSeconds())},
			{"Total URLs", strconv.Itoa(result.TotalURLs)},
			{"LLM Suggestion Calls", strconv.Itoa(result.LLMKeywordsGenerated)},
		},
	})
	md.PlainText("")
}

// writePhaseTable writes the per-phase statistics table.
func (w *MarkdownWriter) writePhaseTable(md *markdown.Markdown, result *model.DiscoveryResult) {
	md.H2("Phase Statistics")
	md.PlainText("")

	rows := make([][]string, 0, len(result.PhaseStats))
	for _, s := range result.PhaseStats {
		status := "ok"
		switch {
		case s.Skipped:
			status = "skipped"
		case s.Error != "":
			status = "failed"
		}
		rows = append(rows, []string{
			s.Name,
			status,
			strconv.Itoa(s.Admitted),
			strconv.Itoa(s.Duplicates),
			strconv.Itoa(s.Fetches),
			s.Duration.Round(time.Millisecond).String(),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Phase", "Status", "New URLs", "Duplicates", "Fetches", "Duration"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeURLTable writes the discovered URLs, capped at maxURLs.
func (w *MarkdownWriter) writeURLTable(md *markdown.Markdown, result *model.DiscoveryResult) {
	md.H2("Discovered URLs")
	md.PlainText("")

	if len(result.URLs) == 0 {
		md.PlainText("No URLs discovered.")
		md.PlainText("")
		return
	}

	urls := result.URLs
	truncated := false
	if len(urls) > w.maxURLs {
		urls = urls[:w.maxURLs]
		truncated = true
	}

	rows := make([][]string, 0, len(urls))
	for _, rec := range urls {
		status := "-"
		if rec.Status != 0 {
			status = strconv.Itoa(rec.Status)
		}
		rows = append(rows, []string{
			rec.URL,
			rec.Phases[0],
			status,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"URL", "First Discovered By", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	if truncated {
		md.PlainTextf("Showing %d of %d URLs.", w.maxURLs, len(result.URLs))
		md.PlainText("")
	}
}
