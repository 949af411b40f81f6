package models

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RangeRef is a rectangular cell range in 1-based coordinates,
// inclusive on all four sides.
type RangeRef struct {
	// R1 is the top row.
	R1 int `json:"r1"`
	// C1 is the left column.
	C1 int `json:"c1"`
	// R2 is the bottom row.
	R2 int `json:"r2"`
	// C2 is the right column.
	C2 int `json:"c2"`
}

// ParseRange parses a range string like "A1:D10" or "$A$1:$D$10".
// A single cell reference ("B3") parses as a 1x1 range. Coordinates are
// normalized so that R1<=R2 and C1<=C2.
func ParseRange(s string) (RangeRef, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "$", "")

	parts := strings.Split(s, ":")
	if len(parts) < 1 || len(parts) > 2 {
		return RangeRef{}, fmt.Errorf("invalid range %q", s)
	}

	c1, r1, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return RangeRef{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	c2, r2 := c1, r1
	if len(parts) == 2 {
		c2, r2, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return RangeRef{}, fmt.Errorf("invalid range %q: %w", s, err)
		}
	}

	if r1 > r2 {
		r1, r2 = r2, r1
	}
	if c1 > c2 {
		c1, c2 = c2, c1
	}
	return RangeRef{R1: r1, C1: c1, R2: r2, C2: c2}, nil
}

// String renders the range in A1 notation.
func (r RangeRef) String() string {
	start, _ := excelize.CoordinatesToCellName(r.C1, r.R1)
	if r.R1 == r.R2 && r.C1 == r.C2 {
		return start
	}
	end, _ := excelize.CoordinatesToCellName(r.C2, r.R2)
	return start + ":" + end
}

// Union returns the bounding rectangle of the two ranges.
func (r RangeRef) Union(o RangeRef) RangeRef {
	return RangeRef{
		R1: min(r.R1, o.R1),
		C1: min(r.C1, o.C1),
		R2: max(r.R2, o.R2),
		C2: max(r.C2, o.C2),
	}
}

// CanUnion reports whether the union of the two ranges is exactly their
// bounding rectangle, i.e. the ranges overlap or are adjacent in a way
// that leaves no uncovered cell inside the union.
func (r RangeRef) CanUnion(o RangeRef) bool {
	inter := 0
	ir1, ir2 := max(r.R1, o.R1), min(r.R2, o.R2)
	ic1, ic2 := max(r.C1, o.C1), min(r.C2, o.C2)
	if ir1 <= ir2 && ic1 <= ic2 {
		inter = (ir2 - ir1 + 1) * (ic2 - ic1 + 1)
	}
	return r.Union(o).area() == r.area()+o.area()-inter
}

func (r RangeRef) area() int {
	return (r.R2 - r.R1 + 1) * (r.C2 - r.C1 + 1)
}
