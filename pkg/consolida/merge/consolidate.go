package merge

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/consolida-dev/consolida/pkg/consolida/formula"
	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// ErrNoDocuments indicates that no documents were given to consolidate.
var ErrNoDocuments = errors.New("no documents to consolidate")

// DedupeMode selects the duplicate-row definition.
type DedupeMode string

const (
	// DedupeFullRow treats rows as duplicates when every cell value
	// compares equal (type-sensitive).
	DedupeFullRow DedupeMode = "full"
	// DedupeKeyColumns treats rows as duplicates when the named key
	// columns compare equal.
	DedupeKeyColumns DedupeMode = "keys"
)

// DedupePolicy defines what makes two rows duplicates.
type DedupePolicy struct {
	// Mode is the duplicate definition; empty means DedupeFullRow.
	Mode DedupeMode `json:"mode" yaml:"mode"`
	// KeyColumns names the header columns forming the row identity
	// when Mode is DedupeKeyColumns.
	KeyColumns []string `json:"key_columns,omitempty" yaml:"key_columns"`
}

// Options configure one merge.
type Options struct {
	// Sheet is the master sheet name.
	Sheet string
	// Dedupe selects the duplicate-row definition.
	Dedupe DedupePolicy
}

// tracked pairs a kept row with its origin for the assembly pass.
type tracked struct {
	doc      *models.SourceDocument
	row      models.Row
	sheetRow int
}

// Consolidate merges docs into a single master document. Documents are
// processed in the order given; the first one fixes the master header,
// and documents with an incompatible header are skipped with a report
// entry, never failing the merge. Duplicate rows are dropped
// first-occurrence-wins, styles are interned content-addressed, and
// formulas are rewritten for their master position in a second pass
// once the final row count is known. Counters and per-file outcomes
// land in report.
//
// Consolidate is strictly sequential. Given the same documents in the
// same order it produces the same master, byte for byte.
func Consolidate(docs []models.SourceDocument, opts Options, report *models.Report) (*models.MasterDocument, error) {
	if len(docs) == 0 {
		return nil, ErrNoDocuments
	}

	header := slices.Clone(docs[0].Header)
	keyIdx, err := keyIndexes(header, opts.Dedupe)
	if err != nil {
		return nil, err
	}

	reg := NewStyleRegistry()
	seen := make(map[string]struct{})
	var kept []tracked
	var srcRules []models.SourceRule

	for di := range docs {
		doc := &docs[di]
		if di > 0 && !slices.Equal(header, doc.Header) {
			report.AddSkip(doc.Name, models.SkipHeaderMismatch,
				fmt.Sprintf("header %v does not match the master header", doc.Header))
			continue
		}
		report.FilesConsolidated++
		report.RulesIn += len(doc.Rules)
		srcRules = append(srcRules, doc.Rules...)

		if doc.Visuals.Total() > 0 {
			report.AddWarning(models.Warning{
				Code:   models.WarnVisualsDropped,
				Source: doc.Name,
				Detail: fmt.Sprintf("%d chart(s), %d image(s) and %d shape(s) are not carried into the master", doc.Visuals.Charts, doc.Visuals.Images, doc.Visuals.Shapes),
			})
		}

		for ri, sr := range doc.Rows {
			report.RowsRead++
			row := normalize(sr.Cells, len(header))
			if _, dup := seen[rowKey(row, keyIdx)]; dup {
				report.DuplicatesRemoved++
				continue
			}
			seen[rowKey(row, keyIdx)] = struct{}{}
			sheetRow := sr.N
			if sheetRow <= 0 {
				sheetRow = doc.HeaderRow + 1 + ri
			}
			kept = append(kept, tracked{doc: doc, row: row, sheetRow: sheetRow})
		}
	}

	master := &models.MasterDocument{
		Sheet:  opts.Sheet,
		Header: header,
		Rows:   make([]models.ConsolidatedRow, 0, len(kept)),
	}

	// Final master rectangle: the header row plus every kept row.
	// Shifted formula references must land inside it.
	maxRow := 1 + len(kept)
	maxCol := len(header)

	for i, k := range kept {
		destRow := 2 + i
		out := models.ConsolidatedRow{
			Values:    make([]models.CellValue, len(k.row)),
			Styles:    make([]models.StyleID, len(k.row)),
			Source:    k.doc.Name,
			SourceRow: k.sheetRow,
		}

		for ci, cell := range k.row {
			out.Values[ci] = cell.Value

			if st := styleAt(k.doc, cell.Style); !st.IsZero() {
				out.Styles[ci] = reg.Register(st)
			}
			if cell.Hyperlink != "" {
				if out.Hyperlinks == nil {
					out.Hyperlinks = make(map[int]string)
				}
				out.Hyperlinks[ci] = cell.Hyperlink
			}
			if cell.Comment != "" {
				if out.Comments == nil {
					out.Comments = make(map[int]string)
				}
				out.Comments[ci] = cell.Comment
			}
			if cell.Formula == "" {
				continue
			}

			res := formula.Rewrite(cell.Formula, formula.Shift{
				RowDelta: destRow - k.sheetRow,
				Sheet:    k.doc.Sheet,
				MaxRow:   maxRow,
				MaxCol:   maxCol,
			})
			if res.Downgrade != "" {
				cellName, _ := excelize.CoordinatesToCellName(ci+1, k.sheetRow)
				report.AddWarning(models.Warning{
					Code:   res.Downgrade,
					Source: k.doc.Name,
					Cell:   cellName,
					Detail: res.Detail,
				})
				report.FormulasDowngraded++
				continue
			}
			if out.Formulas == nil {
				out.Formulas = make(map[int]string)
			}
			out.Formulas[ci] = res.Formula
			if res.Changed {
				report.FormulasRewritten++
			}
		}

		master.Rows = append(master.Rows, out)
	}

	master.Rules = MergeRules(srcRules, reg)
	master.Styles = reg.Snapshot()

	report.RowsWritten = len(master.Rows)
	report.StylesRegistered = reg.Len() - 1
	report.StylesCollapsed = reg.Collapsed()
	report.RulesOut = len(master.Rules)
	return master, nil
}

// keyIndexes resolves the dedupe policy against the master header.
// A nil result means full-row identity.
func keyIndexes(header []string, p DedupePolicy) ([]int, error) {
	switch p.Mode {
	case "", DedupeFullRow:
		return nil, nil
	case DedupeKeyColumns:
	default:
		return nil, fmt.Errorf("unknown dedupe mode %q", p.Mode)
	}
	if len(p.KeyColumns) == 0 {
		return nil, errors.New(`dedupe mode "keys" needs at least one key column`)
	}
	idx := make([]int, 0, len(p.KeyColumns))
	for _, name := range p.KeyColumns {
		pos := slices.Index(header, name)
		if pos < 0 {
			return nil, fmt.Errorf("key column %q not in header", name)
		}
		idx = append(idx, pos)
	}
	return idx, nil
}

// rowKey returns the duplicate-detection key of row under the resolved
// policy.
func rowKey(r models.Row, keyIdx []int) string {
	if keyIdx == nil {
		return r.Key()
	}
	var b strings.Builder
	for i, idx := range keyIdx {
		if i > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(r[idx].Value.Key())
	}
	return b.String()
}

// normalize pads or truncates a row to the header width so that row
// identity never depends on trailing empty cells.
func normalize(r models.Row, width int) models.Row {
	if len(r) == width {
		return r
	}
	out := make(models.Row, width)
	copy(out, r)
	return out
}

// styleAt resolves a cell style index against the document style
// table. Out-of-range indexes resolve to the default style.
func styleAt(doc *models.SourceDocument, idx int) models.CellStyle {
	if idx <= 0 || idx >= len(doc.Styles) {
		return models.CellStyle{}
	}
	return doc.Styles[idx]
}
