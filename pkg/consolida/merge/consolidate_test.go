package merge

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

func doc(name string, header []string, rows ...models.Row) models.SourceDocument {
	d := models.SourceDocument{
		Name:      name,
		Path:      "/subordinadas/" + name,
		Sheet:     "Dados",
		HeaderRow: 1,
		Header:    header,
		Styles:    []models.CellStyle{{}},
	}
	for i, r := range rows {
		d.Rows = append(d.Rows, models.SourceRow{N: 2 + i, Cells: r})
	}
	return d
}

func row(vals ...any) models.Row {
	r := make(models.Row, 0, len(vals))
	for _, v := range vals {
		switch x := v.(type) {
		case models.Cell:
			r = append(r, x)
		case string:
			r = append(r, models.Cell{Value: models.StringValue(x)})
		case int:
			r = append(r, models.Cell{Value: models.NumberValue(float64(x))})
		case float64:
			r = append(r, models.Cell{Value: models.NumberValue(x)})
		case bool:
			r = append(r, models.Cell{Value: models.BoolValue(x)})
		default:
			r = append(r, models.Cell{})
		}
	}
	return r
}

func TestConsolidateDeduplicatesAcrossDocuments(t *testing.T) {
	docs := []models.SourceDocument{
		doc("a.xlsx", []string{"name", "value"}, row("A", 1), row("B", 2)),
		doc("b.xlsx", []string{"name", "value"}, row("A", 1), row("C", 3)),
	}
	var report models.Report

	master, err := Consolidate(docs, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	require.Len(t, master.Rows, 3)
	assert.Equal(t, "A", master.Rows[0].Values[0].Str)
	assert.Equal(t, "B", master.Rows[1].Values[0].Str)
	assert.Equal(t, "C", master.Rows[2].Values[0].Str)
	assert.Equal(t, "a.xlsx", master.Rows[0].Source, "first occurrence wins")

	assert.Equal(t, 4, report.RowsRead)
	assert.Equal(t, 3, report.RowsWritten)
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 2, report.FilesConsolidated)
}

func TestConsolidateDuplicatesAreTypeSensitive(t *testing.T) {
	docs := []models.SourceDocument{
		doc("a.xlsx", []string{"v"}, row("1")),
		doc("b.xlsx", []string{"v"}, row(1)),
	}
	var report models.Report

	master, err := Consolidate(docs, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	assert.Len(t, master.Rows, 2, "text \"1\" and number 1 are different rows")
	assert.Equal(t, 0, report.DuplicatesRemoved)
}

func TestConsolidateSkipsHeaderMismatch(t *testing.T) {
	docs := []models.SourceDocument{
		doc("a.xlsx", []string{"name", "value"}, row("A", 1)),
		doc("b.xlsx", []string{"nome", "valor"}, row("B", 2)),
		doc("c.xlsx", []string{"name", "value"}, row("C", 3)),
	}
	var report models.Report

	master, err := Consolidate(docs, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	assert.Len(t, master.Rows, 2)
	assert.Equal(t, 2, report.FilesConsolidated)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, "b.xlsx", report.Skipped[0].Name)
	assert.Equal(t, models.SkipHeaderMismatch, report.Skipped[0].Reason)
}

func TestConsolidateShiftsFormulaToMasterRow(t *testing.T) {
	// Eight rows from the first document push the ninth kept row to
	// master sheet row 10.
	filler := make([]models.Row, 8)
	for i := range filler {
		filler[i] = row(fmt.Sprintf("x%d", i), i, i)
	}
	withFormula := row("q", 7, models.Cell{
		Value:   models.NumberValue(14),
		Formula: "A2+B2",
	})

	docs := []models.SourceDocument{
		doc("a.xlsx", []string{"name", "value", "total"}, filler...),
		doc("b.xlsx", []string{"name", "value", "total"}, withFormula),
	}
	var report models.Report

	master, err := Consolidate(docs, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	require.Len(t, master.Rows, 9)
	assert.Equal(t, "A10+B10", master.Rows[8].Formulas[2])
	assert.Equal(t, 1, report.FormulasRewritten)
	assert.Equal(t, 0, report.FormulasDowngraded)
}

func TestConsolidateKeepsAbsoluteReferences(t *testing.T) {
	docs := []models.SourceDocument{
		doc("a.xlsx", []string{"v", "pct"},
			row(1, models.Cell{Value: models.NumberValue(0.5), Formula: "A2/$A$1"}),
			row(2, models.Cell{Value: models.NumberValue(1.0), Formula: "A3/$A$1"}),
		),
	}
	var report models.Report

	master, err := Consolidate(docs, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	assert.Equal(t, "A2/$A$1", master.Rows[0].Formulas[1])
	assert.Equal(t, "A3/$A$1", master.Rows[1].Formulas[1])
}

func TestConsolidateShiftsAcrossSheetRowGaps(t *testing.T) {
	// Extraction drops empty sheet rows, so row positions may jump; the
	// shift is computed from the recorded position, not the slice index.
	d := doc("a.xlsx", []string{"v", "f"})
	d.Rows = []models.SourceRow{
		{N: 2, Cells: row("a", models.Cell{Value: models.NumberValue(2), Formula: "A2*2"})},
		{N: 5, Cells: row("b", models.Cell{Value: models.NumberValue(4), Formula: "A5*2"})},
	}
	var report models.Report

	master, err := Consolidate([]models.SourceDocument{d}, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	require.Len(t, master.Rows, 2)
	assert.Equal(t, "A2*2", master.Rows[0].Formulas[1])
	assert.Equal(t, "A3*2", master.Rows[1].Formulas[1], "sheet row 5 lands on master row 3")
}

func TestConsolidateDowngradesCrossSheetFormula(t *testing.T) {
	docs := []models.SourceDocument{
		doc("a.xlsx", []string{"v"},
			row(models.Cell{Value: models.NumberValue(42), Formula: "Resumo!B1*2"}),
		),
	}
	var report models.Report

	master, err := Consolidate(docs, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	require.Len(t, master.Rows, 1)
	assert.Empty(t, master.Rows[0].Formulas, "downgraded cell keeps only its literal value")
	assert.Equal(t, 42.0, master.Rows[0].Values[0].Num)
	assert.Equal(t, 1, report.FormulasDowngraded)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, models.WarnFormulaCrossSheet, report.Warnings[0].Code)
	assert.Equal(t, "a.xlsx", report.Warnings[0].Source)
}

func TestConsolidateDowngradesOutOfBoundsFormula(t *testing.T) {
	docs := []models.SourceDocument{
		doc("a.xlsx", []string{"v"},
			row(models.Cell{Value: models.NumberValue(1), Formula: "A100"}),
		),
	}
	var report models.Report

	_, err := Consolidate(docs, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, models.WarnFormulaOutOfBounds, report.Warnings[0].Code)
}

func TestConsolidateInternsStylesAcrossDocuments(t *testing.T) {
	a := doc("a.xlsx", []string{"v"}, models.Row{
		{Value: models.StringValue("x"), Style: 1},
	})
	a.Styles = []models.CellStyle{{}, boldRed()}
	b := doc("b.xlsx", []string{"v"}, models.Row{
		{Value: models.StringValue("y"), Style: 1},
	})
	b.Styles = []models.CellStyle{{}, boldRed()}

	var report models.Report
	master, err := Consolidate([]models.SourceDocument{a, b}, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	require.Len(t, master.Styles, 2, "default plus one interned style")
	assert.Equal(t, master.Rows[0].Styles[0], master.Rows[1].Styles[0])
	assert.Equal(t, 1, report.StylesRegistered)
	assert.Equal(t, 1, report.StylesCollapsed)
}

func TestConsolidateDedupeByKeyColumns(t *testing.T) {
	docs := []models.SourceDocument{
		doc("a.xlsx", []string{"id", "obs"}, row("1", "first"), row("2", "second")),
		doc("b.xlsx", []string{"id", "obs"}, row("1", "changed")),
	}
	var report models.Report

	opts := Options{
		Sheet:  "Consolidado",
		Dedupe: DedupePolicy{Mode: DedupeKeyColumns, KeyColumns: []string{"id"}},
	}
	master, err := Consolidate(docs, opts, &report)
	require.NoError(t, err)

	require.Len(t, master.Rows, 2)
	assert.Equal(t, "first", master.Rows[0].Values[1].Str, "first occurrence wins on key collision")
	assert.Equal(t, 1, report.DuplicatesRemoved)
}

func TestConsolidateUnknownKeyColumn(t *testing.T) {
	docs := []models.SourceDocument{doc("a.xlsx", []string{"id"}, row("1"))}
	var report models.Report

	opts := Options{
		Sheet:  "Consolidado",
		Dedupe: DedupePolicy{Mode: DedupeKeyColumns, KeyColumns: []string{"missing"}},
	}
	_, err := Consolidate(docs, opts, &report)
	assert.ErrorContains(t, err, `key column "missing"`)
}

func TestConsolidateRaggedRowsNormalize(t *testing.T) {
	short := models.Row{{Value: models.StringValue("A")}}
	padded := models.Row{{Value: models.StringValue("A")}, {}}

	docs := []models.SourceDocument{
		doc("a.xlsx", []string{"name", "value"}, short),
		doc("b.xlsx", []string{"name", "value"}, padded),
	}
	var report models.Report

	master, err := Consolidate(docs, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	assert.Len(t, master.Rows, 1, "trailing empty cells do not change row identity")
	assert.Equal(t, 1, report.DuplicatesRemoved)
}

func TestConsolidateEmptyInput(t *testing.T) {
	var report models.Report
	_, err := Consolidate(nil, Options{Sheet: "Consolidado"}, &report)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestConsolidateIsDeterministic(t *testing.T) {
	build := func() []models.SourceDocument {
		a := doc("a.xlsx", []string{"v", "w"}, row("p", 1), row("q", 2))
		a.Styles = []models.CellStyle{{}, boldRed()}
		a.Rows[0].Cells[0].Style = 1
		b := doc("b.xlsx", []string{"v", "w"}, row("p", 1), row("r", 3))
		return []models.SourceDocument{a, b}
	}

	var r1, r2 models.Report
	m1, err := Consolidate(build(), Options{Sheet: "Consolidado"}, &r1)
	require.NoError(t, err)
	m2, err := Consolidate(build(), Options{Sheet: "Consolidado"}, &r2)
	require.NoError(t, err)

	assert.Equal(t, m1, m2)
	assert.Equal(t, r1, r2)
}

func TestConsolidateReportsDroppedVisuals(t *testing.T) {
	a := doc("a.xlsx", []string{"v"}, row("x"))
	a.Visuals = models.VisualSummary{Charts: 2, Images: 1}

	var report models.Report
	_, err := Consolidate([]models.SourceDocument{a}, Options{Sheet: "Consolidado"}, &report)
	require.NoError(t, err)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, models.WarnVisualsDropped, report.Warnings[0].Code)
}
