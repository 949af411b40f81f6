package extract

import (
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/xuri/nfp"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// builtinNumFmts holds the format codes for the builtin number format
// ids that workbooks reference without declaring.
var builtinNumFmts = map[int]string{
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "m/d/yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: "#,##0 ;(#,##0)",
	38: "#,##0 ;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	48: "##0.0E+0",
	49: "@",
}

// convertStyle reduces an excelize style definition to the attribute
// set the master carries. Definitions that reduce to no attributes
// return the zero style.
func convertStyle(st *excelize.Style) models.CellStyle {
	var out models.CellStyle
	if st == nil {
		return out
	}

	if f := st.Font; f != nil {
		out.Font = models.Font{
			Name:   f.Family,
			Size:   f.Size,
			Bold:   f.Bold,
			Italic: f.Italic,
			Color:  normalizeColor(f.Color),
		}
	}

	if st.Fill.Type != "gradient" && st.Fill.Pattern > 0 {
		out.Fill.Pattern = models.FillPatternNames[st.Fill.Pattern]
		if len(st.Fill.Color) > 0 {
			out.Fill.Color = normalizeColor(st.Fill.Color[0])
		}
	}

	for _, b := range st.Border {
		name := models.BorderStyleNames[b.Style]
		if name == "" {
			continue
		}
		edge := models.BorderEdge{Style: name, Color: normalizeColor(b.Color)}
		switch b.Type {
		case "left":
			out.Border.Left = edge
		case "right":
			out.Border.Right = edge
		case "top":
			out.Border.Top = edge
		case "bottom":
			out.Border.Bottom = edge
		}
	}

	if a := st.Alignment; a != nil {
		out.Alignment = models.Alignment{
			Horizontal: a.Horizontal,
			Vertical:   a.Vertical,
			WrapText:   a.WrapText,
		}
	}

	out.NumFmt = numFmtCode(st)
	return out
}

// numFmtCode returns the effective number format code of a style. The
// empty string means the general format.
func numFmtCode(st *excelize.Style) string {
	if st.CustomNumFmt != nil {
		return *st.CustomNumFmt
	}
	return builtinNumFmts[st.NumFmt]
}

// isDateStyle reports whether a style formats its value as a date or
// time. Builtin ids have fixed meanings; custom codes are parsed.
func isDateStyle(st *excelize.Style) bool {
	if st == nil {
		return false
	}
	if st.CustomNumFmt != nil {
		return isDateFormat(*st.CustomNumFmt)
	}
	id := st.NumFmt
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// isDateFormat reports whether a number format code contains date or
// time parts.
func isDateFormat(code string) bool {
	if code == "" {
		return false
	}
	p := nfp.NumberFormatParser()
	for _, section := range p.Parse(code) {
		for _, token := range section.Items {
			if token.TType == nfp.TokenTypeDateTimes || token.TType == nfp.TokenTypeElapsedDateTimes {
				return true
			}
		}
	}
	return false
}

// normalizeColor strips the alpha channel from ARGB colors and upper
// cases the result.
func normalizeColor(c string) string {
	c = strings.TrimPrefix(c, "#")
	if len(c) == 8 {
		c = c[2:]
	}
	return strings.ToUpper(c)
}
