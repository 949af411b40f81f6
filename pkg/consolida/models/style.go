package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// StyleID identifies a style in a master style table. IDs are assigned
// sequentially in first-registration order; 0 is the default style.
type StyleID int

// Font describes cell font attributes.
type Font struct {
	// Name is the font family name.
	Name string `json:"name,omitempty"`
	// Size is the font size in points.
	Size float64 `json:"size,omitempty"`
	// Bold marks bold text.
	Bold bool `json:"bold,omitempty"`
	// Italic marks italic text.
	Italic bool `json:"italic,omitempty"`
	// Color is the font color as RGB hex (no leading #).
	Color string `json:"color,omitempty"`
}

// Fill describes the cell background fill.
type Fill struct {
	// Pattern is the fill pattern type (e.g. "solid").
	Pattern string `json:"pattern,omitempty"`
	// Color is the fill color as RGB hex.
	Color string `json:"color,omitempty"`
}

// BorderEdge describes one border side.
type BorderEdge struct {
	// Style is the border line style (e.g. "thin", "medium").
	Style string `json:"style,omitempty"`
	// Color is the border color as RGB hex.
	Color string `json:"color,omitempty"`
}

// Border describes the four cell border sides.
type Border struct {
	Left   BorderEdge `json:"left,omitzero"`
	Right  BorderEdge `json:"right,omitzero"`
	Top    BorderEdge `json:"top,omitzero"`
	Bottom BorderEdge `json:"bottom,omitzero"`
}

// Alignment describes cell text alignment.
type Alignment struct {
	// Horizontal is the horizontal alignment (e.g. "center").
	Horizontal string `json:"horizontal,omitempty"`
	// Vertical is the vertical alignment (e.g. "top").
	Vertical string `json:"vertical,omitempty"`
	// WrapText marks wrapped text.
	WrapText bool `json:"wrap_text,omitempty"`
}

// CellStyle is an immutable value object describing the complete visual
// styling of a cell. Two styles with equal attributes are the same
// style, wherever they came from.
type CellStyle struct {
	Font      Font      `json:"font,omitzero"`
	Fill      Fill      `json:"fill,omitzero"`
	Border    Border    `json:"border,omitzero"`
	Alignment Alignment `json:"alignment,omitzero"`
	// NumFmt is the number format code (e.g. "dd/mm/yyyy").
	NumFmt string `json:"num_fmt,omitempty"`
}

// IsZero reports whether the style carries no attributes.
func (s CellStyle) IsZero() bool {
	return s == CellStyle{}
}

// Hash returns the SHA-256 content hash of the style attributes in a
// fixed canonical order. Equal styles always hash equal; the hash never
// depends on the source document or on registration order.
func (s CellStyle) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "font:%s|%g|%t|%t|%s\n", s.Font.Name, s.Font.Size, s.Font.Bold, s.Font.Italic, s.Font.Color)
	fmt.Fprintf(h, "fill:%s|%s\n", s.Fill.Pattern, s.Fill.Color)
	fmt.Fprintf(h, "border:%s|%s|%s|%s|%s|%s|%s|%s\n",
		s.Border.Left.Style, s.Border.Left.Color,
		s.Border.Right.Style, s.Border.Right.Color,
		s.Border.Top.Style, s.Border.Top.Color,
		s.Border.Bottom.Style, s.Border.Bottom.Color)
	fmt.Fprintf(h, "align:%s|%s|%t\n", s.Alignment.Horizontal, s.Alignment.Vertical, s.Alignment.WrapText)
	fmt.Fprintf(h, "numfmt:%s\n", s.NumFmt)
	return hex.EncodeToString(h.Sum(nil))
}
