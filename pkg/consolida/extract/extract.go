// Package extract reads subordinate workbooks into source documents.
//
// Extraction opens the first sheet of a workbook, locates the header
// row, and captures typed cell values together with formulas,
// hyperlinks, comments, cell styles and conditional-format rules. The
// result is a models.SourceDocument that the merge stage consumes
// without touching the file again.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// ErrNoData indicates that a workbook had no data rows below its
// header.
var ErrNoData = errors.New("no data rows below the header")

// Options configure extraction.
type Options struct {
	// BatchSize is the number of rows processed between cancellation
	// checks.
	BatchSize int
	// HeaderScanRows is how many leading rows are searched for the
	// header.
	HeaderScanRows int
	// HeaderTextRatio is the minimum fraction of text cells among the
	// non-empty cells for a row to qualify as the header.
	HeaderTextRatio float64
}

// DefaultOptions returns the extraction defaults.
func DefaultOptions() Options {
	return Options{
		BatchSize:       1000,
		HeaderScanRows:  5,
		HeaderTextRatio: 0.7,
	}
}

// Extractor reads workbooks into source documents.
type Extractor struct {
	opts Options
	log  *slog.Logger
}

// New creates an Extractor. Zero option fields fall back to the
// defaults, and a nil logger falls back to slog.Default().
func New(opts Options, log *slog.Logger) *Extractor {
	def := DefaultOptions()
	if opts.BatchSize <= 0 {
		opts.BatchSize = def.BatchSize
	}
	if opts.HeaderScanRows <= 0 {
		opts.HeaderScanRows = def.HeaderScanRows
	}
	if opts.HeaderTextRatio <= 0 {
		opts.HeaderTextRatio = def.HeaderTextRatio
	}
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{opts: opts, log: log}
}

// Extract reads the first sheet of the workbook at ref into a source
// document. The file is opened read-only and never modified. ctx is
// honored between row batches.
func (e *Extractor) Extract(ctx context.Context, ref models.SourceRef) (*models.SourceDocument, error) {
	f, err := excelize.OpenFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", ref.Name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("extract %s: workbook has no sheets", ref.Name)
	}
	sheet := sheets[0]

	sr, err := newSheetReader(f, sheet, ref.Path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", ref.Name, err)
	}

	rows, err := sr.readRows(ctx, e.opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", ref.Name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("extract %s: %w", ref.Name, ErrNoData)
	}

	headerIdx := detectHeader(rows, e.opts.HeaderScanRows, e.opts.HeaderTextRatio)
	header := headerTexts(rows[headerIdx].Cells)
	data := rows[headerIdx+1:]
	if len(header) == 0 || len(data) == 0 {
		return nil, fmt.Errorf("extract %s: %w", ref.Name, ErrNoData)
	}

	rules, err := sr.rules()
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", ref.Name, err)
	}

	doc := &models.SourceDocument{
		Name:      ref.Name,
		Path:      ref.Path,
		Sheet:     sheet,
		HeaderRow: rows[headerIdx].N,
		Header:    header,
		Rows:      data,
		Styles:    sr.styles,
		Rules:     rules,
	}

	visuals, err := CountVisuals(ref.Path)
	if err != nil {
		e.log.Warn("drawing probe failed", "file", ref.Name, "error", err)
	} else {
		doc.Visuals = visuals[sheet]
	}

	e.log.Debug("extracted workbook",
		"file", ref.Name,
		"sheet", sheet,
		"header_row", doc.HeaderRow,
		"rows", len(doc.Rows),
		"styles", len(doc.Styles)-1,
		"rules", len(doc.Rules),
	)
	return doc, nil
}

// sheetReader holds the per-sheet state built up during one
// extraction.
type sheetReader struct {
	f        *excelize.File
	sheet    string
	path     string
	date1904 bool
	comments map[string]string

	base     models.CellStyle   // workbook default, subtracted from cells
	styles   []models.CellStyle // document-local table, index 0 default
	styleIdx map[int]int        // workbook style id to local index
	dateFmt  map[int]bool       // local index has a date number format
}

func newSheetReader(f *excelize.File, sheet, path string) (*sheetReader, error) {
	sr := &sheetReader{
		f:        f,
		sheet:    sheet,
		path:     path,
		comments: make(map[string]string),
		styles:   []models.CellStyle{{}},
		styleIdx: make(map[int]int),
		dateFmt:  make(map[int]bool),
	}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		sr.date1904 = *props.Date1904
	}
	// Style id 0 describes the workbook default, usually a plain font
	// definition. Cells only differing from it carry no style of their
	// own.
	if st, err := f.GetStyle(0); err == nil {
		sr.base = convertStyle(st)
	}
	comments, err := f.GetComments(sheet)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		if text := strings.TrimSpace(commentText(c)); text != "" {
			sr.comments[c.Cell] = text
		}
	}
	return sr, nil
}

// readRows converts the sheet into typed rows, skipping sheet rows
// with no content. Each kept row records its 1-based sheet position.
// Rows stream off the worksheet one at a time so a large workbook is
// never held twice; cancellation is checked once per batch.
func (sr *sheetReader) readRows(ctx context.Context, batch int) ([]models.SourceRow, error) {
	iter, err := sr.f.Rows(sr.sheet)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []models.SourceRow
	rowNum := 0
	for iter.Next() {
		if rowNum%batch == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		rowNum++
		cells, err := iter.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		row, hasData, err := sr.row(cells, rowNum)
		if err != nil {
			return nil, err
		}
		if !hasData {
			continue
		}
		out = append(out, models.SourceRow{N: rowNum, Cells: row})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// row converts one raw sheet row. hasData is false when every cell is
// empty and carries no formula.
func (sr *sheetReader) row(cells []string, rowNum int) (models.Row, bool, error) {
	row := make(models.Row, 0, len(cells))
	hasData := false
	for col, raw := range cells {
		cell, err := sr.cell(raw, col+1, rowNum)
		if err != nil {
			return nil, false, err
		}
		if !cell.Value.IsEmpty() || cell.Formula != "" {
			hasData = true
		}
		row = append(row, cell)
	}
	return row, hasData, nil
}

func (sr *sheetReader) cell(raw string, col, rowNum int) (models.Cell, error) {
	name, err := excelize.CoordinatesToCellName(col, rowNum)
	if err != nil {
		return models.Cell{}, err
	}

	var cell models.Cell

	styleID, err := sr.f.GetCellStyle(sr.sheet, name)
	if err != nil {
		return models.Cell{}, err
	}
	local, err := sr.internStyle(styleID)
	if err != nil {
		return models.Cell{}, err
	}
	cell.Style = local

	cell.Value = sr.value(raw, name, sr.dateFmt[local])

	if formula, err := sr.f.GetCellFormula(sr.sheet, name); err == nil && formula != "" {
		cell.Formula = strings.TrimPrefix(formula, "=")
	}
	if ok, target, err := sr.f.GetCellHyperLink(sr.sheet, name); err == nil && ok && target != "" {
		cell.Hyperlink = target
	}
	if text, ok := sr.comments[name]; ok {
		cell.Comment = text
	}
	return cell, nil
}

// value converts a raw stored value into a typed cell value. Numbers
// whose cell carries a date format are stored as serials and come back
// as times.
func (sr *sheetReader) value(raw, name string, dateFmt bool) models.CellValue {
	if raw == "" {
		return models.CellValue{}
	}

	ctype, err := sr.f.GetCellType(sr.sheet, name)
	if err == nil {
		switch ctype {
		case excelize.CellTypeBool:
			return models.BoolValue(raw == "1" || strings.EqualFold(raw, "TRUE"))
		case excelize.CellTypeError:
			return models.StringValue(raw)
		case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
			return models.StringValue(raw)
		case excelize.CellTypeDate:
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				return models.TimeValue(t)
			}
			return models.StringValue(raw)
		}
	}

	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return models.StringValue(raw)
	}
	if dateFmt {
		if t, err := excelize.ExcelDateToTime(num, sr.date1904); err == nil {
			return models.TimeValue(t)
		}
	}
	return models.NumberValue(num)
}

// internStyle maps a workbook style id into the document-local style
// table, converting the definition on first sight. Styles that reduce
// to the default map to index 0.
func (sr *sheetReader) internStyle(styleID int) (int, error) {
	if local, ok := sr.styleIdx[styleID]; ok {
		return local, nil
	}
	st, err := sr.f.GetStyle(styleID)
	if err != nil {
		return 0, err
	}
	conv := convertStyle(st)
	local := 0
	if !conv.IsZero() && conv != sr.base {
		local = len(sr.styles)
		sr.styles = append(sr.styles, conv)
	}
	sr.styleIdx[styleID] = local
	if isDateStyle(st) {
		sr.dateFmt[local] = true
	}
	return local, nil
}

func commentText(c excelize.Comment) string {
	if c.Text != "" {
		return c.Text
	}
	var b strings.Builder
	for _, r := range c.Paragraph {
		b.WriteString(r.Text)
	}
	return b.String()
}

// detectHeader picks the header row among the leading extracted rows:
// the first one with at least two filled cells where text dominates.
// Falls back to the first row.
func detectHeader(rows []models.SourceRow, maxScan int, minRatio float64) int {
	limit := min(maxScan, len(rows))
	for i := 0; i < limit; i++ {
		var filled, text int
		for _, c := range rows[i].Cells {
			if c.Value.IsEmpty() {
				continue
			}
			filled++
			if c.Value.Kind == models.KindString {
				text++
			}
		}
		if filled >= 2 && float64(text) >= minRatio*float64(filled) {
			return i
		}
	}
	return 0
}

// headerTexts renders the header cells as trimmed texts, dropping
// trailing empty columns.
func headerTexts(r models.Row) []string {
	out := make([]string, len(r))
	last := 0
	for i, c := range r {
		out[i] = strings.TrimSpace(c.Value.String())
		if out[i] != "" {
			last = i + 1
		}
	}
	return out[:last]
}
