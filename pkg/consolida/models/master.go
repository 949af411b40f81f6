package models

// ConsolidatedRow is one master row produced by the merge: typed values
// plus per-cell master style IDs and rewritten cell attributes.
type ConsolidatedRow struct {
	// Values holds the typed cell values in header order.
	Values []CellValue `json:"values"`
	// Styles holds the master StyleID for each cell, parallel to Values.
	Styles []StyleID `json:"styles"`
	// Formulas maps 0-based column index to the rewritten formula
	// (without the leading "="). Downgraded cells carry no entry.
	Formulas map[int]string `json:"formulas,omitempty"`
	// Hyperlinks maps 0-based column index to the hyperlink target.
	Hyperlinks map[int]string `json:"hyperlinks,omitempty"`
	// Comments maps 0-based column index to the comment text.
	Comments map[int]string `json:"comments,omitempty"`
	// Source is the base name of the document the row came from.
	Source string `json:"source"`
	// SourceRow is the 1-based sheet row the row came from.
	SourceRow int `json:"source_row"`
}

// ConditionalFormatRule is one merged conditional-format rule of the
// master document.
type ConditionalFormatRule struct {
	// Ranges lists the ranges the rule applies to, coalesced where the
	// union stays rectangular.
	Ranges []RangeRef `json:"ranges"`
	// Condition is the canonical condition encoding.
	Condition string `json:"condition"`
	// Style is the master style the rule applies.
	Style StyleID `json:"style"`
}

// MasterDocument is the assembled consolidation result. It is built
// once by the merge phase and immutable afterwards.
type MasterDocument struct {
	// Sheet is the master sheet name.
	Sheet string `json:"sheet"`
	// Header contains the header cell texts in column order.
	Header []string `json:"header"`
	// Rows contains the consolidated rows in deterministic order.
	Rows []ConsolidatedRow `json:"rows"`
	// Styles is the master style table indexed by StyleID.
	Styles []CellStyle `json:"styles"`
	// Rules contains the merged conditional-format rules.
	Rules []ConditionalFormatRule `json:"rules,omitempty"`
}
