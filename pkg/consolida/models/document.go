package models

import "time"

// SourceRef identifies a discovered subordinate file before extraction.
type SourceRef struct {
	// Name is the file base name. Consolidation order sorts on it.
	Name string `json:"name"`
	// Path is the absolute file path.
	Path string `json:"path"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
	// ModTime is the file modification time.
	ModTime time.Time `json:"mod_time"`
}

// SourceRule is a conditional-format rule as declared on a source sheet.
type SourceRule struct {
	// Ranges lists the cell ranges the rule applies to.
	Ranges []RangeRef `json:"ranges"`
	// Condition is the canonical condition encoding (type, operator,
	// operands joined by "|").
	Condition string `json:"condition"`
	// Style is the formatting the rule applies when the condition holds.
	Style CellStyle `json:"style"`
}

// VisualSummary counts drawing parts found on a source sheet. Drawings
// are not carried into the master; non-zero counts surface as warnings.
type VisualSummary struct {
	// Charts is the number of charts anchored on the sheet.
	Charts int `json:"charts,omitempty"`
	// Images is the number of pictures anchored on the sheet.
	Images int `json:"images,omitempty"`
	// Shapes is the number of other drawing shapes on the sheet.
	Shapes int `json:"shapes,omitempty"`
}

// Total returns the total number of drawing parts.
func (v VisualSummary) Total() int {
	return v.Charts + v.Images + v.Shapes
}

// SourceRow is one extracted data row together with its sheet
// position. Empty sheet rows are not extracted, so positions may have
// gaps.
type SourceRow struct {
	// N is the 1-based sheet row the cells came from.
	N int `json:"n"`
	// Cells holds the row content in column order.
	Cells Row `json:"cells"`
}

// SourceDocument is the fully extracted content of one subordinate
// document. It is immutable after extraction: merging never mutates a
// source document.
type SourceDocument struct {
	// Name is the source file base name.
	Name string `json:"name"`
	// Path is the path the document was read from.
	Path string `json:"path"`
	// Sheet is the sheet the data was read from.
	Sheet string `json:"sheet"`
	// HeaderRow is the 1-based sheet row the header was detected at.
	HeaderRow int `json:"header_row"`
	// Header contains the header cell texts in column order.
	Header []string `json:"header"`
	// Rows contains the data rows below the header in sheet order.
	Rows []SourceRow `json:"rows"`
	// Styles is the document-local style table; cell Style fields index
	// into it. Index 0 is always the default style.
	Styles []CellStyle `json:"styles"`
	// Rules contains the conditional-format rules declared on the sheet.
	Rules []SourceRule `json:"rules,omitempty"`
	// Visuals summarizes drawing parts present on the sheet.
	Visuals VisualSummary `json:"visuals,omitzero"`
}
