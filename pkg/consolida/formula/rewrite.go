// Package formula rewrites cell formulas for their new location in the
// consolidated master document.
//
// Formulas are tokenized with the Excel formula parser, every range
// operand is classified, relative reference axes are shifted by the
// displacement between the source and master coordinates, and the token
// stream is rendered back to formula text. Formulas that cannot be
// carried over (cross-sheet references, defined names, references
// shifted outside the master bounds, unparseable text) are flagged for
// downgrade to their literal value instead of failing the run.
package formula

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/efp"
	"github.com/xuri/excelize/v2"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

// Shift describes where a formula cell moved: the displacement between
// its master and source coordinates, and the master rectangle shifted
// references must stay inside.
type Shift struct {
	// RowDelta is masterRow - sourceRow.
	RowDelta int
	// ColDelta is masterCol - sourceCol.
	ColDelta int
	// Sheet is the source sheet name. References qualified with it are
	// rewritten as local; any other qualifier downgrades the formula.
	Sheet string
	// MaxRow is the last master row references may point at (1-based).
	MaxRow int
	// MaxCol is the last master column references may point at (1-based).
	MaxCol int
}

// Result is the outcome of rewriting one formula.
type Result struct {
	// Formula is the rewritten formula text without the leading "=".
	// Only meaningful when Downgrade is empty.
	Formula string
	// Changed reports whether the rewrite altered the formula text.
	Changed bool
	// Downgrade is the reason the formula must be replaced by its
	// literal value; empty when the formula was carried over.
	Downgrade models.WarningCode
	// Detail explains the downgrade for the report.
	Detail string
}

var (
	cellRefPat = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})(\$?)([0-9]+)$`)
	colRefPat  = regexp.MustCompile(`^(\$?)([A-Za-z]{1,3})$`)
	rowRefPat  = regexp.MustCompile(`^(\$?)([0-9]+)$`)
	// Excel defined-name grammar: letter, underscore or backslash
	// first, then letters, digits, underscores and periods.
	namePat = regexp.MustCompile(`^[A-Za-z_\\][A-Za-z0-9_.]*$`)
)

// Rewrite shifts the relative references of formula by sh and renders
// the result. The input carries no leading "="; one is tolerated and
// stripped. Rewrite never fails: input that cannot be carried over
// comes back with a Downgrade code instead.
func Rewrite(formula string, sh Shift) Result {
	src := strings.TrimPrefix(strings.TrimSpace(formula), "=")
	if src == "" {
		return Result{Downgrade: models.WarnFormulaMalformed, Detail: "empty formula"}
	}

	parser := efp.ExcelParser()
	tokens := parser.Parse(src)
	if len(tokens) == 0 {
		return Result{Downgrade: models.WarnFormulaMalformed, Detail: "unparseable formula"}
	}

	var b strings.Builder
	depth := 0
	for _, t := range tokens {
		switch t.TType {
		case efp.TokenTypeFunction:
			if t.TSubType == efp.TokenSubTypeStart {
				b.WriteString(t.TValue)
				b.WriteByte('(')
				depth++
			} else {
				b.WriteByte(')')
				depth--
			}
		case efp.TokenTypeSubexpression:
			if t.TSubType == efp.TokenSubTypeStart {
				b.WriteByte('(')
				depth++
			} else {
				b.WriteByte(')')
				depth--
			}
		case efp.TokenTypeArgument:
			b.WriteByte(',')
		case efp.TokenTypeWhitespace:
			b.WriteByte(' ')
		case efp.TokenTypeUnknown:
			return Result{Downgrade: models.WarnFormulaMalformed, Detail: fmt.Sprintf("unrecognized token %q", t.TValue)}
		case efp.TokenTypeOperand:
			switch t.TSubType {
			case efp.TokenSubTypeText:
				b.WriteByte('"')
				b.WriteString(strings.ReplaceAll(t.TValue, `"`, `""`))
				b.WriteByte('"')
			case efp.TokenSubTypeRange:
				shifted, code, detail := rewriteRange(t.TValue, sh)
				if code != "" {
					return Result{Downgrade: code, Detail: detail}
				}
				b.WriteString(shifted)
			default:
				b.WriteString(t.TValue)
			}
		default:
			b.WriteString(t.TValue)
		}
		if depth < 0 {
			return Result{Downgrade: models.WarnFormulaMalformed, Detail: "unbalanced parentheses"}
		}
	}
	if depth != 0 {
		return Result{Downgrade: models.WarnFormulaMalformed, Detail: "unbalanced parentheses"}
	}

	out := b.String()
	return Result{Formula: out, Changed: out != src}
}

// rewriteRange rewrites one range operand. A non-empty code signals a
// downgrade.
func rewriteRange(ref string, sh Shift) (string, models.WarningCode, string) {
	body := ref
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		sheet := unquoteSheet(ref[:idx])
		if !strings.EqualFold(sheet, sh.Sheet) {
			return "", models.WarnFormulaCrossSheet, fmt.Sprintf("reference %s leaves sheet %q", ref, sh.Sheet)
		}
		// Same-sheet qualifier: drop it, the master has one sheet.
		body = ref[idx+1:]
	}

	parts := strings.Split(body, ":")
	if len(parts) > 2 {
		return "", models.WarnFormulaMalformed, fmt.Sprintf("invalid reference %q", ref)
	}

	out := make([]string, 0, 2)
	for _, part := range parts {
		shifted, code, detail := shiftEndpoint(part, ref, sh)
		if code != "" {
			return "", code, detail
		}
		out = append(out, shifted)
	}
	return strings.Join(out, ":"), "", ""
}

// shiftEndpoint shifts one endpoint of a reference: a cell (B2, $B$2),
// a bare column (A, $A) or a bare row (3, $3).
func shiftEndpoint(part, full string, sh Shift) (string, models.WarningCode, string) {
	if m := cellRefPat.FindStringSubmatch(part); m != nil {
		col, err := excelize.ColumnNameToNumber(strings.ToUpper(m[2]))
		if err != nil {
			return "", models.WarnFormulaMalformed, fmt.Sprintf("invalid reference %q", full)
		}
		row, _ := strconv.Atoi(m[4])
		if m[1] == "" {
			col += sh.ColDelta
		}
		if m[3] == "" {
			row += sh.RowDelta
		}
		if row < 1 || col < 1 || row > sh.MaxRow || col > sh.MaxCol {
			return "", models.WarnFormulaOutOfBounds, fmt.Sprintf("reference %s leaves the master range after shifting", full)
		}
		name, _ := excelize.ColumnNumberToName(col)
		return m[1] + name + m[3] + strconv.Itoa(row), "", ""
	}

	if m := colRefPat.FindStringSubmatch(part); m != nil {
		col, err := excelize.ColumnNameToNumber(strings.ToUpper(m[2]))
		if err != nil {
			return "", models.WarnFormulaMalformed, fmt.Sprintf("invalid reference %q", full)
		}
		if m[1] == "" {
			col += sh.ColDelta
		}
		if col < 1 || col > sh.MaxCol {
			return "", models.WarnFormulaOutOfBounds, fmt.Sprintf("reference %s leaves the master range after shifting", full)
		}
		name, _ := excelize.ColumnNumberToName(col)
		return m[1] + name, "", ""
	}

	if m := rowRefPat.FindStringSubmatch(part); m != nil {
		row, _ := strconv.Atoi(m[2])
		if m[1] == "" {
			row += sh.RowDelta
		}
		if row < 1 || row > sh.MaxRow {
			return "", models.WarnFormulaOutOfBounds, fmt.Sprintf("reference %s leaves the master range after shifting", full)
		}
		return m[1] + strconv.Itoa(row), "", ""
	}

	// Not a cell reference. Defined names and structured table
	// references cannot be resolved against the master.
	if namePat.MatchString(part) || strings.Contains(part, "[") {
		return "", models.WarnFormulaNamedRef, fmt.Sprintf("unresolvable name %q", full)
	}
	return "", models.WarnFormulaMalformed, fmt.Sprintf("invalid reference %q", full)
}

// unquoteSheet strips the quotes of a quoted sheet qualifier and
// unescapes doubled quotes.
func unquoteSheet(s string) string {
	if len(s) >= 2 && strings.HasPrefix(s, "'") && strings.HasSuffix(s, "'") {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}
