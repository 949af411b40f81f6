package extract

import (
	"archive/zip"
	"encoding/xml"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// rules reads the sheet's conditional-format declarations into source
// rules with canonical condition strings. Rule ranges stay in the
// coordinates the source declares them on.
func (sr *sheetReader) rules() ([]models.SourceRule, error) {
	formats, err := sr.f.GetConditionalFormats(sr.sheet)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, nil
	}

	dxf, err := dxfStyles(sr.path)
	if err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(formats))
	for ref := range formats {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	var out []models.SourceRule
	for _, ref := range refs {
		ranges := parseSqref(ref)
		if len(ranges) == 0 {
			continue
		}
		for _, opt := range formats[ref] {
			rule := models.SourceRule{
				Ranges:    ranges,
				Condition: canonicalCondition(opt),
			}
			if opt.Format != nil && *opt.Format >= 0 && *opt.Format < len(dxf) {
				rule.Style = dxf[*opt.Format]
			}
			out = append(out, rule)
		}
	}
	return out, nil
}

// canonicalCondition renders a rule condition as a stable key. Two
// rules with the same canonical condition test the same thing.
func canonicalCondition(opt excelize.ConditionalFormatOptions) string {
	parts := []string{opt.Type, opt.Criteria}
	for _, v := range []string{opt.Value, opt.MinValue, opt.MidValue, opt.MaxValue} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "|")
}

// parseSqref parses a conditional-format range list. Multiple areas
// come space separated.
func parseSqref(s string) []models.RangeRef {
	var out []models.RangeRef
	for _, part := range strings.Fields(s) {
		r, err := models.ParseRange(part)
		if err != nil {
			continue
		}
		out = append(out, r)
	}
	return out
}

// dxfStyles reads the differential style table conditional-format
// rules point at. excelize does not expose it, so it is read from
// xl/styles.xml directly.
func dxfStyles(path string) ([]models.CellStyle, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	data, err := readZipPart(&zr.Reader, "xl/styles.xml")
	if err != nil || data == nil {
		return nil, err
	}

	var sheet styleSheetXML
	if err := xml.Unmarshal(data, &sheet); err != nil {
		return nil, err
	}

	out := make([]models.CellStyle, len(sheet.Dxfs.Dxf))
	for i, d := range sheet.Dxfs.Dxf {
		out[i] = d.style()
	}
	return out, nil
}

type styleSheetXML struct {
	Dxfs struct {
		Dxf []dxfXML `xml:"dxf"`
	} `xml:"dxfs"`
}

type dxfXML struct {
	Font *struct {
		Bold   *struct{}    `xml:"b"`
		Italic *struct{}    `xml:"i"`
		Size   *valFloatXML `xml:"sz"`
		Name   *valStrXML   `xml:"name"`
		Color  *colorXML    `xml:"color"`
	} `xml:"font"`
	NumFmt *struct {
		Code string `xml:"formatCode,attr"`
	} `xml:"numFmt"`
	Fill *struct {
		Pattern *struct {
			Type    string    `xml:"patternType,attr"`
			FgColor *colorXML `xml:"fgColor"`
			BgColor *colorXML `xml:"bgColor"`
		} `xml:"patternFill"`
	} `xml:"fill"`
	Border *struct {
		Left   *borderEdgeXML `xml:"left"`
		Right  *borderEdgeXML `xml:"right"`
		Top    *borderEdgeXML `xml:"top"`
		Bottom *borderEdgeXML `xml:"bottom"`
	} `xml:"border"`
}

type valFloatXML struct {
	Val float64 `xml:"val,attr"`
}

type valStrXML struct {
	Val string `xml:"val,attr"`
}

type colorXML struct {
	RGB string `xml:"rgb,attr"`
}

type borderEdgeXML struct {
	Style string    `xml:"style,attr"`
	Color *colorXML `xml:"color"`
}

// style converts a differential style into the carried attribute set.
// Conditional fills conventionally put the visible color in bgColor.
func (d dxfXML) style() models.CellStyle {
	var st models.CellStyle

	if d.Font != nil {
		st.Font.Bold = d.Font.Bold != nil
		st.Font.Italic = d.Font.Italic != nil
		if d.Font.Size != nil {
			st.Font.Size = d.Font.Size.Val
		}
		if d.Font.Name != nil {
			st.Font.Name = d.Font.Name.Val
		}
		st.Font.Color = d.Font.Color.rgb()
	}

	if d.Fill != nil && d.Fill.Pattern != nil {
		p := d.Fill.Pattern
		st.Fill.Pattern = p.Type
		if st.Fill.Pattern == "" {
			st.Fill.Pattern = "solid"
		}
		st.Fill.Color = p.BgColor.rgb()
		if st.Fill.Color == "" {
			st.Fill.Color = p.FgColor.rgb()
		}
	}

	if d.Border != nil {
		st.Border.Left = d.Border.Left.edge()
		st.Border.Right = d.Border.Right.edge()
		st.Border.Top = d.Border.Top.edge()
		st.Border.Bottom = d.Border.Bottom.edge()
	}

	if d.NumFmt != nil {
		st.NumFmt = d.NumFmt.Code
	}
	return st
}

// rgb returns the color as RRGGBB hex, dropping the alpha channel.
func (c *colorXML) rgb() string {
	if c == nil {
		return ""
	}
	return normalizeColor(c.RGB)
}

func (e *borderEdgeXML) edge() models.BorderEdge {
	if e == nil || e.Style == "" || e.Style == "none" {
		return models.BorderEdge{}
	}
	return models.BorderEdge{Style: e.Style, Color: e.Color.rgb()}
}
