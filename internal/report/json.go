package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/urlmap/internal/model"
)

// JSONWriter outputs the consolidated discovery result in JSON format.
// This format is designed for tool integration and programmatic
// processing.
//
// Design decision: We use standard encoding/json rather than a
// third-party JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// consolidatedReport is the consolidated output object. It flattens the
// result into the shape downstream tooling consumes: urls is a plain
// list of canonical URL strings, with per-URL detail left to the
// database and Markdown paths.
type consolidatedReport struct {
	Timestamp            string              `json:"timestamp"`
	BaseDomain           string              `json:"base_domain"`
	TotalURLs            int                 `json:"total_urls"`
	URLs                 []string            `json:"urls"`
	DiscoveryTimeSeconds float64             `json:"discovery_time_seconds"`
	LLMKeywordsGenerated int                 `json:"llm_keywords_generated"`
	DiscoveryStats       []*model.PhaseStats `json:"discovery_stats"`
}

// urlStrings flattens records into their canonical URL strings.
func urlStrings(recs []*model.URLRecord) []string {
	urls := make([]string, 0, len(recs))
	for _, rec := range recs {
		urls = append(urls, rec.URL)
	}
	return urls
}

// Write outputs the consolidated result in JSON format.
func (w *JSONWriter) Write(result *model.DiscoveryResult) (int, error) {
	return w.writeJSON(&consolidatedReport{
		Timestamp:            result.FinishedAt.UTC().Format(time.RFC3339),
		BaseDomain:           result.BaseDomain,
		TotalURLs:            result.TotalURLs,
		URLs:                 urlStrings(result.URLs),
		DiscoveryTimeSeconds: result.DiscoveryTimeSeconds(),
		LLMKeywordsGenerated: result.LLMKeywordsGenerated,
		DiscoveryStats:       result.PhaseStats,
	})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return 0, err
	}

	// Trailing newline for better terminal output.
	data = append(data, '\n')

	return w.output.Write(data)
}

// PhaseJSONWriter outputs one phase's view of the result: only the URL
// records that phase contributed to, tagged with the phase name.
type PhaseJSONWriter struct {
	baseWriter

	// phase is the source module whose records are written.
	phase string
}

// NewPhaseJSONWriter creates a writer for the named phase.
func NewPhaseJSONWriter(output io.Writer, phase string) *PhaseJSONWriter {
	return &PhaseJSONWriter{
		baseWriter: newBaseWriter(output),
		phase:      phase,
	}
}

// phaseReport is the per-phase output object.
type phaseReport struct {
	Timestamp    string   `json:"timestamp"`
	SourceModule string   `json:"source_module"`
	BaseDomain   string   `json:"base_domain"`
	TotalURLs    int      `json:"total_urls"`
	URLs         []string `json:"urls"`
}

// Write outputs the phase's URLs in JSON format.
func (w *PhaseJSONWriter) Write(result *model.DiscoveryResult) (int, error) {
	urls := make([]string, 0)
	for _, rec := range result.URLs {
		if rec.HasPhase(w.phase) {
			urls = append(urls, rec.URL)
		}
	}

	data, err := json.MarshalIndent(&phaseReport{
		Timestamp:    result.FinishedAt.UTC().Format(time.RFC3339),
		SourceModule: w.phase,
		BaseDomain:   result.BaseDomain,
		TotalURLs:    len(urls),
		URLs:         urls,
	}, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')

	return w.output.Write(data)
}
