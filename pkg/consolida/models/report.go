package models

import "time"

// SkipReason codes why a discovered file was excluded from
// consolidation. The codes follow the error taxonomy of the legacy
// system the subordinate documents come from.
type SkipReason string

const (
	// SkipCorrupted marks a file that could not be opened as a workbook.
	SkipCorrupted SkipReason = "FILE_CORRUPTED"
	// SkipTooLarge marks a file above the configured size limit.
	SkipTooLarge SkipReason = "FILE_TOO_LARGE"
	// SkipTooSmall marks a file below the minimum plausible workbook size.
	SkipTooSmall SkipReason = "FILE_TOO_SMALL"
	// SkipLegacyFormat marks a pre-2007 OLE workbook (.xls).
	SkipLegacyFormat SkipReason = "UNSUPPORTED_FORMAT"
	// SkipEmpty marks a workbook without data rows.
	SkipEmpty SkipReason = "EMPTY_SPREADSHEET"
	// SkipHeaderMismatch marks a document whose header is incompatible
	// with the master header.
	SkipHeaderMismatch SkipReason = "INVALID_HEADER"
	// SkipExtractFailed marks a document whose extraction failed.
	SkipExtractFailed SkipReason = "EXTRACTION_FAILED"
)

// WarningCode codes a non-fatal condition recorded in the report.
type WarningCode string

const (
	// WarnFormulaCrossSheet marks a formula downgraded to its literal
	// value because it referenced another sheet.
	WarnFormulaCrossSheet WarningCode = "FORMULA_CROSS_SHEET"
	// WarnFormulaOutOfBounds marks a formula downgraded because a
	// shifted reference left the master bounds.
	WarnFormulaOutOfBounds WarningCode = "FORMULA_OUT_OF_BOUNDS"
	// WarnFormulaMalformed marks a formula downgraded because it could
	// not be parsed.
	WarnFormulaMalformed WarningCode = "FORMULA_MALFORMED"
	// WarnFormulaNamedRef marks a formula downgraded because it used a
	// defined name or table reference.
	WarnFormulaNamedRef WarningCode = "FORMULA_NAMED_REF"
	// WarnVisualsDropped marks charts or images on a source sheet that
	// are not carried into the master.
	WarnVisualsDropped WarningCode = "VISUALS_DROPPED"
)

// SkippedFile records one excluded file and why.
type SkippedFile struct {
	// Name is the file base name.
	Name string `json:"name"`
	// Reason is the exclusion code.
	Reason SkipReason `json:"reason"`
	// Detail is a human-readable explanation.
	Detail string `json:"detail,omitempty"`
}

// Warning records one non-fatal condition met during consolidation.
type Warning struct {
	// Code is the warning code.
	Code WarningCode `json:"code"`
	// Source is the source document the warning originates from.
	Source string `json:"source,omitempty"`
	// Cell is the source cell in A1 notation, when applicable.
	Cell string `json:"cell,omitempty"`
	// Detail is a human-readable explanation.
	Detail string `json:"detail,omitempty"`
}

// Run outcomes recorded in Report.Outcome.
const (
	OutcomeAssembled = "assembled"
	OutcomeFailed    = "failed"
)

// Report is the outcome summary of one consolidation run. A report is
// produced on every run, successful or not.
type Report struct {
	// RunID uniquely identifies the run.
	RunID string `json:"run_id"`
	// Outcome is the terminal phase of the run ("assembled" or "failed").
	Outcome string `json:"outcome"`
	// Error is the failure description when Outcome is "failed".
	Error string `json:"error,omitempty"`
	// StartedAt is the run start time.
	StartedAt time.Time `json:"started_at"`
	// FinishedAt is the run end time.
	FinishedAt time.Time `json:"finished_at"`
	// MasterPath is the path the master document was written to.
	MasterPath string `json:"master_path,omitempty"`
	// BackupPath is the path of the pre-run backup, when one was taken.
	BackupPath string `json:"backup_path,omitempty"`

	// FilesDiscovered counts subordinate files found by the scan.
	FilesDiscovered int `json:"files_discovered"`
	// FilesConsolidated counts documents that contributed rows.
	FilesConsolidated int `json:"files_consolidated"`
	// RowsRead counts data rows across all consolidated documents.
	RowsRead int `json:"rows_read"`
	// RowsWritten counts rows in the master after deduplication.
	RowsWritten int `json:"rows_written"`
	// DuplicatesRemoved counts rows dropped as duplicates.
	DuplicatesRemoved int `json:"duplicates_removed"`
	// StylesRegistered counts distinct styles in the master style table.
	StylesRegistered int `json:"styles_registered"`
	// StylesCollapsed counts style registrations resolved to an
	// already-registered style.
	StylesCollapsed int `json:"styles_collapsed"`
	// FormulasRewritten counts formulas carried over with shifted
	// references.
	FormulasRewritten int `json:"formulas_rewritten"`
	// FormulasDowngraded counts formulas replaced by their literal value.
	FormulasDowngraded int `json:"formulas_downgraded"`
	// RulesIn counts conditional-format rules across all sources.
	RulesIn int `json:"rules_in"`
	// RulesOut counts conditional-format rules in the master after
	// merging.
	RulesOut int `json:"rules_out"`

	// Skipped lists excluded files with reasons.
	Skipped []SkippedFile `json:"skipped,omitempty"`
	// Warnings lists non-fatal conditions met during the run.
	Warnings []Warning `json:"warnings,omitempty"`
}

// AddSkip records an excluded file.
func (r *Report) AddSkip(name string, reason SkipReason, detail string) {
	r.Skipped = append(r.Skipped, SkippedFile{Name: name, Reason: reason, Detail: detail})
}

// AddWarning records a non-fatal condition.
func (r *Report) AddWarning(w Warning) {
	r.Warnings = append(r.Warnings, w)
}
