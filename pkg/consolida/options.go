// Package consolida merges subordinate spreadsheets into one master
// workbook.
//
// A run scans a directory of subordinate workbooks, backs up the
// existing master, extracts the survivors in parallel, merges them in
// one deterministic order, and writes the consolidated master plus a
// run report. Rows are deduplicated first-occurrence-wins, cell styles
// are interned content-addressed, formulas are rewritten for their new
// positions, and conditional-format rules are collapsed across
// sources.
package consolida

import "log/slog"

// Options configure a consolidation run beyond the file layout that
// the configuration fixes.
type Options struct {
	// DryRun assembles the master and the report without writing any
	// file or taking a backup.
	DryRun bool
	// Protect locks the written master sheet against casual edits.
	Protect bool
	// Logger receives run progress. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// DefaultOptions returns default run options.
func DefaultOptions() Options {
	return Options{}
}
