package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyleHashDependsOnEveryAttribute(t *testing.T) {
	base := CellStyle{
		Font:      Font{Name: "Calibri", Size: 11, Bold: true, Color: "FF0000"},
		Fill:      Fill{Pattern: "solid", Color: "FFFF00"},
		Border:    Border{Bottom: BorderEdge{Style: "thin", Color: "000000"}},
		Alignment: Alignment{Horizontal: "center"},
		NumFmt:    "0.00",
	}

	variants := []CellStyle{}
	for _, mutate := range []func(*CellStyle){
		func(s *CellStyle) { s.Font.Bold = false },
		func(s *CellStyle) { s.Font.Size = 12 },
		func(s *CellStyle) { s.Fill.Color = "00FF00" },
		func(s *CellStyle) { s.Border.Bottom.Style = "medium" },
		func(s *CellStyle) { s.Border.Top = s.Border.Bottom },
		func(s *CellStyle) { s.Alignment.Horizontal = "right" },
		func(s *CellStyle) { s.NumFmt = "0.000" },
	} {
		v := base
		mutate(&v)
		variants = append(variants, v)
	}

	seen := map[string]bool{base.Hash(): true}
	for _, v := range variants {
		h := v.Hash()
		assert.False(t, seen[h], "attribute change must change the hash")
		seen[h] = true
	}
}

func TestStyleHashIsStable(t *testing.T) {
	a := CellStyle{Font: Font{Name: "Arial", Size: 10, Bold: true}}
	b := CellStyle{Font: Font{Name: "Arial", Size: 10, Bold: true}}

	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Hash(), a.Hash())
}

func TestStyleIsZero(t *testing.T) {
	assert.True(t, CellStyle{}.IsZero())
	assert.False(t, CellStyle{NumFmt: "0%"}.IsZero())
}
