// Package write renders a consolidated master document as a workbook.
//
// The master is always written whole: a fresh workbook is built in
// memory, saved next to the target under a temporary name, and renamed
// into place, so readers never observe a half-written file.
package write

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

const (
	minColWidth = 8
	maxColWidth = 60
)

// Options configure the writer.
type Options struct {
	// Protect locks the saved sheet against casual edits.
	Protect bool
	// Author is recorded as the workbook creator and on carried
	// comments.
	Author string
}

// DefaultOptions returns the writer defaults.
func DefaultOptions() Options {
	return Options{Author: "consolida"}
}

// Writer saves master documents as xlsx workbooks.
type Writer struct {
	opts Options
}

// New creates a Writer. An empty author falls back to the default.
func New(opts Options) *Writer {
	if opts.Author == "" {
		opts.Author = DefaultOptions().Author
	}
	return &Writer{opts: opts}
}

// Write renders master and saves it at path, replacing any existing
// file in one rename.
func (w *Writer) Write(master *models.MasterDocument, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("write master: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := w.render(f, master); err != nil {
		return fmt.Errorf("write master: %w", err)
	}

	tmp := path + ".tmp"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("write master: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write master: %w", err)
	}
	return nil
}

func (w *Writer) render(f *excelize.File, master *models.MasterDocument) error {
	sheet := master.Sheet
	if sheet == "" {
		sheet = "Consolidado"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetDocProps(&excelize.DocProperties{Creator: w.opts.Author}); err != nil {
		return err
	}

	if err := w.writeHeader(f, sheet, master.Header); err != nil {
		return err
	}

	styleIDs, err := materializeStyles(f, master.Styles)
	if err != nil {
		return err
	}
	for i, row := range master.Rows {
		if err := w.writeRow(f, sheet, 2+i, row, styleIDs); err != nil {
			return err
		}
	}
	if err := writeRules(f, sheet, master.Rules, master.Styles); err != nil {
		return err
	}
	if err := autosizeColumns(f, sheet, master); err != nil {
		return err
	}

	if w.opts.Protect {
		if err := f.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
			SelectLockedCells:   true,
			SelectUnlockedCells: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeHeader(f *excelize.File, sheet string, header []string) error {
	if len(header) == 0 {
		return nil
	}
	vals := make([]any, len(header))
	for i, h := range header {
		vals[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &vals); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func (w *Writer) writeRow(f *excelize.File, sheet string, rowNum int, row models.ConsolidatedRow, styleIDs map[models.StyleID]int) error {
	for ci := range row.Values {
		cell, err := excelize.CoordinatesToCellName(ci+1, rowNum)
		if err != nil {
			return err
		}
		if err := setValue(f, sheet, cell, row.Values[ci]); err != nil {
			return err
		}
		if formula, ok := row.Formulas[ci]; ok {
			if err := f.SetCellFormula(sheet, cell, formula); err != nil {
				return err
			}
		}
		if link, ok := row.Hyperlinks[ci]; ok {
			if err := f.SetCellHyperLink(sheet, cell, link, "External"); err != nil {
				return err
			}
		}
		if text, ok := row.Comments[ci]; ok {
			comment := excelize.Comment{
				Cell:      cell,
				Author:    w.opts.Author,
				Paragraph: []excelize.RichTextRun{{Text: text}},
			}
			if err := f.AddComment(sheet, comment); err != nil {
				return err
			}
		}
		if ci < len(row.Styles) && row.Styles[ci] != 0 {
			if id, ok := styleIDs[row.Styles[ci]]; ok {
				if err := f.SetCellStyle(sheet, cell, cell, id); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func setValue(f *excelize.File, sheet, cell string, v models.CellValue) error {
	switch v.Kind {
	case models.KindString:
		return f.SetCellValue(sheet, cell, v.Str)
	case models.KindNumber:
		return f.SetCellValue(sheet, cell, v.Num)
	case models.KindBool:
		return f.SetCellBool(sheet, cell, v.Bool)
	case models.KindTime:
		return f.SetCellValue(sheet, cell, v.Time)
	default:
		return nil
	}
}

// materializeStyles registers the master style table with the workbook
// and maps master style ids to workbook style ids. Index 0 stays the
// workbook default.
func materializeStyles(f *excelize.File, styles []models.CellStyle) (map[models.StyleID]int, error) {
	out := make(map[models.StyleID]int, len(styles))
	for i, st := range styles {
		if i == 0 || st.IsZero() {
			continue
		}
		id, err := f.NewStyle(excelizeStyle(st))
		if err != nil {
			return nil, err
		}
		out[models.StyleID(i)] = id
	}
	return out, nil
}

func writeRules(f *excelize.File, sheet string, rules []models.ConditionalFormatRule, styles []models.CellStyle) error {
	condStyles := make(map[models.StyleID]int)
	for _, rule := range rules {
		opt, err := conditionOptions(rule.Condition)
		if err != nil {
			return err
		}
		if rule.Style != 0 && int(rule.Style) < len(styles) {
			id, ok := condStyles[rule.Style]
			if !ok {
				id, err = f.NewConditionalStyle(excelizeStyle(styles[rule.Style]))
				if err != nil {
					return err
				}
				condStyles[rule.Style] = id
			}
			opt.Format = &id
		}
		for _, r := range rule.Ranges {
			if err := f.SetConditionalFormat(sheet, r.String(), []excelize.ConditionalFormatOptions{opt}); err != nil {
				return err
			}
		}
	}
	return nil
}

// conditionOptions rebuilds rule options from a canonical condition
// string. Values map by count: one is a plain value, two are min and
// max, three are a scale.
func conditionOptions(cond string) (excelize.ConditionalFormatOptions, error) {
	parts := strings.Split(cond, "|")
	if parts[0] == "" {
		return excelize.ConditionalFormatOptions{}, fmt.Errorf("empty rule condition")
	}
	opt := excelize.ConditionalFormatOptions{Type: parts[0]}
	if len(parts) > 1 {
		opt.Criteria = parts[1]
	}
	switch values := parts[2:]; len(values) {
	case 0:
	case 1:
		opt.Value = values[0]
	case 2:
		opt.MinValue, opt.MaxValue = values[0], values[1]
	default:
		opt.MinValue, opt.MidValue, opt.MaxValue = values[0], values[1], values[2]
	}
	return opt, nil
}

// autosizeColumns widens each column to its longest rendered text,
// clamped to sane bounds.
func autosizeColumns(f *excelize.File, sheet string, master *models.MasterDocument) error {
	for ci := range master.Header {
		width := utf8.RuneCountInString(master.Header[ci])
		for _, row := range master.Rows {
			if ci >= len(row.Values) {
				continue
			}
			if n := utf8.RuneCountInString(row.Values[ci].String()); n > width {
				width = n
			}
		}
		name, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return err
		}
		w := float64(min(max(width+2, minColWidth), maxColWidth))
		if err := f.SetColWidth(sheet, name, name, w); err != nil {
			return err
		}
	}
	return nil
}
