package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consolida-dev/consolida/pkg/consolida/models"
)

func mustRange(t *testing.T, s string) models.RangeRef {
	t.Helper()
	r, err := models.ParseRange(s)
	require.NoError(t, err)
	return r
}

func TestMergeRulesCollapsesEquivalentRules(t *testing.T) {
	reg := NewStyleRegistry()
	rules := []models.SourceRule{
		{Ranges: []models.RangeRef{mustRange(t, "A2:A100")}, Condition: "cellIs|>|100", Style: boldRed()},
		{Ranges: []models.RangeRef{mustRange(t, "A2:A100")}, Condition: "cellIs|>|100", Style: boldRed()},
	}

	out := MergeRules(rules, reg)

	require.Len(t, out, 1)
	assert.Equal(t, "cellIs|>|100", out[0].Condition)
	require.Len(t, out[0].Ranges, 1)
	assert.Equal(t, "A2:A100", out[0].Ranges[0].String())
}

func TestMergeRulesKeepsDistinctRules(t *testing.T) {
	reg := NewStyleRegistry()
	rules := []models.SourceRule{
		{Ranges: []models.RangeRef{mustRange(t, "A2:A100")}, Condition: "cellIs|>|100", Style: boldRed()},
		{Ranges: []models.RangeRef{mustRange(t, "A2:A100")}, Condition: "cellIs|>|200", Style: boldRed()},
		{Ranges: []models.RangeRef{mustRange(t, "A2:A100")}, Condition: "cellIs|>|100",
			Style: models.CellStyle{Fill: models.Fill{Pattern: "solid", Color: "00FF00"}}},
	}

	out := MergeRules(rules, reg)

	assert.Len(t, out, 3, "condition and style both participate in rule identity")
}

func TestMergeRulesSharesRegistryWithCells(t *testing.T) {
	reg := NewStyleRegistry()
	cellID := reg.Register(boldRed())

	out := MergeRules([]models.SourceRule{
		{Ranges: []models.RangeRef{mustRange(t, "B2:B10")}, Condition: "cellIs|<|0", Style: boldRed()},
	}, reg)

	require.Len(t, out, 1)
	assert.Equal(t, cellID, out[0].Style, "rule styles intern through the same registry as cell styles")
}

func TestMergeRulesCoalescesRanges(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want []string
	}{
		{"adjacent rows", "A2:A50", "A51:A100", []string{"A2:A100"}},
		{"overlapping rows", "A2:A60", "A40:A100", []string{"A2:A100"}},
		{"adjacent columns", "A1:A10", "B1:B10", []string{"A1:B10"}},
		{"contained", "A1:C10", "B2:B5", []string{"A1:C10"}},
		{"disjoint stays a list", "A1:A10", "C1:C10", []string{"A1:A10", "C1:C10"}},
		{"ragged union stays a list", "A1:A10", "B5:B15", []string{"A1:A10", "B5:B15"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewStyleRegistry()
			out := MergeRules([]models.SourceRule{
				{Ranges: []models.RangeRef{mustRange(t, tt.a)}, Condition: "c", Style: boldRed()},
				{Ranges: []models.RangeRef{mustRange(t, tt.b)}, Condition: "c", Style: boldRed()},
			}, reg)

			require.Len(t, out, 1)
			got := make([]string, len(out[0].Ranges))
			for i, r := range out[0].Ranges {
				got[i] = r.String()
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeRulesCoalescingCascades(t *testing.T) {
	reg := NewStyleRegistry()
	out := MergeRules([]models.SourceRule{
		{Ranges: []models.RangeRef{mustRange(t, "A1:A10")}, Condition: "c", Style: boldRed()},
		{Ranges: []models.RangeRef{mustRange(t, "C1:C10")}, Condition: "c", Style: boldRed()},
		{Ranges: []models.RangeRef{mustRange(t, "B1:B10")}, Condition: "c", Style: boldRed()},
	}, reg)

	require.Len(t, out, 1)
	require.Len(t, out[0].Ranges, 1, "the middle column bridges the gap")
	assert.Equal(t, "A1:C10", out[0].Ranges[0].String())
}

func TestMergeRulesEmptyInput(t *testing.T) {
	assert.Empty(t, MergeRules(nil, NewStyleRegistry()))
}
