package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/urlmap/internal/model"
)

// SimpleWriter outputs a human-readable text summary.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose lists every URL instead of just the counts.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the full URL list.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the result summary in human-readable format.
func (w *SimpleWriter) Write(result *model.DiscoveryResult) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "URL discovery for %s\n", result.BaseDomain)
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&sb, "Run ID:     %s\n", result.RunID)
	fmt.Fprintf(&sb, "Duration:   %.1fs\n", result.DiscoveryTimeSeconds())
	fmt.Fprintf(&sb, "Total URLs: %d\n", result.TotalURLs)
	if result.LLMKeywordsGenerated > 0 {
		fmt.Fprintf(&sb, "LLM calls:  %d\n", result.LLMKeywordsGenerated)
	}
	sb.WriteString("\n")

	sb.WriteString("Phases:\n")
	for _, s := range result.PhaseStats {
		switch {
		case s.Skipped:
			fmt.Fprintf(&sb, "  %-24s skipped\n", s.Name)
		case s.Error != "":
			fmt.Fprintf(&sb, "  %-24s failed: %s\n", s.Name, s.Error)
		default:
			fmt.Fprintf(&sb, "  %-24s +%d urls (%d fetches, %s)\n",
				s.Name, s.Admitted, s.Fetches, s.Duration.Round(time.Millisecond))
		}
	}

	if w.verbose && len(result.URLs) > 0 {
		sb.WriteString("\nURLs:\n")
		for _, rec := range result.URLs {
			fmt.Fprintf(&sb, "  %s\n", rec.URL)
		}
	}

	return io.WriteString(w.output, sb.String())
}
