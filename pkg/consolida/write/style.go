package write

import (
	"github.com/xuri/excelize/v2"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// excelizeStyle converts a carried style back into an excelize
// definition, the inverse of what extraction does.
func excelizeStyle(st models.CellStyle) *excelize.Style {
	out := &excelize.Style{}

	if st.Font != (models.Font{}) {
		out.Font = &excelize.Font{
			Family: st.Font.Name,
			Size:   st.Font.Size,
			Bold:   st.Font.Bold,
			Italic: st.Font.Italic,
			Color:  st.Font.Color,
		}
	}

	if st.Fill.Pattern != "" || st.Fill.Color != "" {
		pattern := models.FillPatternIndexes[st.Fill.Pattern]
		if pattern == 0 {
			pattern = models.FillPatternIndexes["solid"]
		}
		var colors []string
		if st.Fill.Color != "" {
			colors = []string{st.Fill.Color}
		}
		out.Fill = excelize.Fill{Type: "pattern", Pattern: pattern, Color: colors}
	}

	out.Border = borders(st.Border)

	if st.Alignment != (models.Alignment{}) {
		out.Alignment = &excelize.Alignment{
			Horizontal: st.Alignment.Horizontal,
			Vertical:   st.Alignment.Vertical,
			WrapText:   st.Alignment.WrapText,
		}
	}

	if st.NumFmt != "" {
		code := st.NumFmt
		out.CustomNumFmt = &code
	}
	return out
}

func borders(b models.Border) []excelize.Border {
	var out []excelize.Border
	add := func(kind string, edge models.BorderEdge) {
		if edge.Style == "" {
			return
		}
		idx, ok := models.BorderStyleIndexes[edge.Style]
		if !ok {
			return
		}
		color := edge.Color
		if color == "" {
			color = "000000"
		}
		out = append(out, excelize.Border{Type: kind, Style: idx, Color: color})
	}
	add("left", b.Left)
	add("right", b.Right)
	add("top", b.Top)
	add("bottom", b.Bottom)
	return out
}
