// Package report renders discovery results in the supported output
// formats: consolidated JSON, per-phase JSON, Markdown, and a plain
// human summary. All writers share one interface so callers can fan a
// result out to several destinations at once.
package report
