package models

import "strings"

// Cell is one cell of a source row: the typed value plus the attributes
// the consolidation pipeline carries along.
type Cell struct {
	// Value is the typed cell content.
	Value CellValue `json:"value"`
	// Style indexes the owning document's style table. 0 is the
	// default style.
	Style int `json:"style,omitempty"`
	// Formula is the cell formula without the leading "=", when present.
	Formula string `json:"formula,omitempty"`
	// Hyperlink is the hyperlink target, when present.
	Hyperlink string `json:"hyperlink,omitempty"`
	// Comment is the cell comment text, when present.
	Comment string `json:"comment,omitempty"`
}

// Row is an ordered slice of cells, one per header column.
type Row []Cell

// Key returns the canonical duplicate-detection key of the row: the
// concatenation of all cell value keys. Styles, formulas and links do
// not participate in row identity.
func (r Row) Key() string {
	var b strings.Builder
	for i, c := range r {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(c.Value.Key())
	}
	return b.String()
}
