// Package dataset loads tabular files into typed columns.
package dataset

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Kind is the value kind of a column, fixed at load time.
type Kind int

const (
	Categorical Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Value is a nullable scalar. Numeric values carry Num and leave Raw empty;
// categorical values carry Raw.
type Value struct {
	Raw   string
	Num   float64
	Valid bool
}

// Null is the zero Value.
var Null = Value{}

// Number returns a valid numeric value.
func Number(f float64) Value { return Value{Num: f, Valid: true} }

// String returns a valid categorical value.
func String(s string) Value { return Value{Raw: s, Valid: true} }

// Text returns a display form. Numbers are printed canonically so "2.0" and
// "2" render the same.
func (v Value) Text() string {
	switch {
	case !v.Valid:
		return ""
	case v.Raw == "":
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return v.Raw
	}
}

// Column is one named attribute of a dataset.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Len returns the number of rows, nulls included.
func (c Column) Len() int { return len(c.Values) }

// Floats returns the non-null numeric values in row order.
func (c Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if v.Valid {
			out = append(out, v.Num)
		}
	}
	return out
}

// Dataset is an ordered set of equal-length columns.
type Dataset struct {
	// Source is the path the dataset was loaded from.
	Source  string
	Rows    int
	Columns []Column
}

// Name is the source base name without its extension.
func (d *Dataset) Name() string {
	base := filepath.Base(d.Source)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ColumnNames lists column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}
