// Package models defines the data model shared by the consolidation
// pipeline: typed cell values, content-addressable styles, source and
// master documents, conditional-format rules, and the run report.
package models

import (
	"strconv"
	"time"
)

// Kind identifies the runtime type of a CellValue.
type Kind string

const (
	// KindEmpty marks a cell with no content.
	KindEmpty Kind = "empty"
	// KindString marks a text cell.
	KindString Kind = "string"
	// KindNumber marks a numeric cell.
	KindNumber Kind = "number"
	// KindBool marks a boolean cell.
	KindBool Kind = "bool"
	// KindTime marks a date or datetime cell.
	KindTime Kind = "time"
)

// CellValue is a typed cell content. Exactly one payload field is
// meaningful, selected by Kind. The zero value is the empty cell.
type CellValue struct {
	// Kind selects the payload field.
	Kind Kind `json:"kind"`
	// Str holds the text payload for KindString.
	Str string `json:"str,omitempty"`
	// Num holds the numeric payload for KindNumber.
	Num float64 `json:"num,omitempty"`
	// Bool holds the boolean payload for KindBool.
	Bool bool `json:"bool,omitempty"`
	// Time holds the date payload for KindTime.
	Time time.Time `json:"time,omitzero"`
}

// EmptyValue returns the empty cell value.
func EmptyValue() CellValue { return CellValue{Kind: KindEmpty} }

// StringValue returns a text cell value.
func StringValue(s string) CellValue { return CellValue{Kind: KindString, Str: s} }

// NumberValue returns a numeric cell value.
func NumberValue(n float64) CellValue { return CellValue{Kind: KindNumber, Num: n} }

// BoolValue returns a boolean cell value.
func BoolValue(b bool) CellValue { return CellValue{Kind: KindBool, Bool: b} }

// TimeValue returns a date cell value.
func TimeValue(t time.Time) CellValue { return CellValue{Kind: KindTime, Time: t} }

// IsEmpty reports whether the value holds no content.
func (v CellValue) IsEmpty() bool { return v.Kind == KindEmpty || v.Kind == "" }

// Key returns a canonical encoding of the value used for duplicate
// detection. Equal values always produce equal keys, and values of
// different kinds never collide.
func (v CellValue) Key() string {
	switch v.Kind {
	case KindString:
		return "s:" + v.Str
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.Num, 'g', -1, 64)
	case KindBool:
		if v.Bool {
			return "b:1"
		}
		return "b:0"
	case KindTime:
		return "t:" + v.Time.UTC().Format(time.RFC3339Nano)
	default:
		return "e:"
	}
}

// String renders the value for human-readable output.
func (v CellValue) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		return v.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}
