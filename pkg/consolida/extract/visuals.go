package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// Drawing objects live outside the cell grid and never carry into the
// master; the probe only counts them so the loss can be reported.
// excelize does not expose drawing parts, so the workbook archive is
// read directly: workbook.xml names the sheets, the relationship parts
// join each sheet to its drawing, and the drawing XML anchors the
// objects.

// CountVisuals counts the drawing objects anchored on each sheet of
// the workbook at fp, keyed by sheet name. Sheets without a drawing
// are absent from the result.
func CountVisuals(fp string) (map[string]models.VisualSummary, error) {
	zr, err := zip.OpenReader(fp)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	drawings, err := sheetDrawings(&zr.Reader)
	if err != nil {
		return nil, err
	}

	out := make(map[string]models.VisualSummary, len(drawings))
	for sheet, part := range drawings {
		data, err := readZipPart(&zr.Reader, part)
		if err != nil {
			return nil, err
		}
		if data == nil {
			continue
		}
		if sum := countAnchored(data); sum.Total() > 0 {
			out[sheet] = sum
		}
	}
	return out, nil
}

// sheetDrawings maps sheet names to their drawing part paths.
func sheetDrawings(zr *zip.Reader) (map[string]string, error) {
	wb, err := readZipPart(zr, "xl/workbook.xml")
	if err != nil || wb == nil {
		return nil, err
	}
	sheets, err := workbookSheets(wb)
	if err != nil {
		return nil, err
	}

	relsData, err := readZipPart(zr, "xl/_rels/workbook.xml.rels")
	if err != nil || relsData == nil {
		return nil, err
	}
	wbRels, err := relationshipTargets(relsData)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string)
	for name, rid := range sheets {
		sheetPath := resolvePartPath("xl/workbook.xml", wbRels[rid])
		if sheetPath == "" {
			continue
		}
		sheetXML, err := readZipPart(zr, sheetPath)
		if err != nil {
			return nil, err
		}
		if sheetXML == nil {
			continue
		}
		drawingID := drawingRef(sheetXML)
		if drawingID == "" {
			continue
		}
		sheetRelsData, err := readZipPart(zr, partRelsPath(sheetPath))
		if err != nil {
			return nil, err
		}
		if sheetRelsData == nil {
			continue
		}
		sheetRels, err := relationshipTargets(sheetRelsData)
		if err != nil {
			return nil, err
		}
		if drawingPath := resolvePartPath(sheetPath, sheetRels[drawingID]); drawingPath != "" {
			out[name] = drawingPath
		}
	}
	return out, nil
}

// workbookSheets maps sheet names to their relationship ids.
func workbookSheets(data []byte) (map[string]string, error) {
	out := make(map[string]string)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var name, rid string
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "name":
				name = attr.Value
			case "id":
				rid = attr.Value
			}
		}
		if name != "" && rid != "" {
			out[name] = rid
		}
	}
}

// relationshipTargets maps relationship ids to their targets.
func relationshipTargets(data []byte) (map[string]string, error) {
	out := make(map[string]string)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "Id":
				id = attr.Value
			case "Target":
				target = attr.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

// drawingRef finds the relationship id of the sheet's drawing element,
// if any.
func drawingRef(sheetXML []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(sheetXML))
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "drawing" {
			continue
		}
		for _, attr := range se.Attr {
			if attr.Name.Local == "id" {
				return attr.Value
			}
		}
	}
}

// countAnchored tallies the objects inside the drawing anchors. Charts
// arrive as graphic frames, pictures as pic elements, and shapes and
// connectors as sp and cxnSp.
func countAnchored(data []byte) models.VisualSummary {
	var sum models.VisualSummary
	depth := 0
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return sum
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "twoCellAnchor", "oneCellAnchor", "absoluteAnchor":
				depth++
			case "graphicFrame":
				if depth > 0 {
					sum.Charts++
				}
			case "pic":
				if depth > 0 {
					sum.Images++
				}
			case "sp", "cxnSp":
				if depth > 0 {
					sum.Shapes++
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "twoCellAnchor", "oneCellAnchor", "absoluteAnchor":
				depth--
			}
		}
	}
}

// readZipPart reads one archive entry. A missing part returns nil with
// no error.
func readZipPart(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, nil
}

// partRelsPath returns the relationship part belonging to a package
// part.
func partRelsPath(part string) string {
	return path.Join(path.Dir(part), "_rels", path.Base(part)+".rels")
}

// resolvePartPath resolves a relationship target against the part that
// declared it. Targets may be absolute inside the package or relative
// with parent segments.
func resolvePartPath(from, target string) string {
	if target == "" {
		return ""
	}
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	return path.Join(path.Dir(from), target)
}
