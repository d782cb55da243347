// Package analysis computes the statistical profile of a column.
package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/datasummary-cli/internal/dataset"
)

// Type labels reported for a column.
const (
	TypeInt64   = "int64"
	TypeFloat64 = "float64"
	TypeObject  = "object"
)

// ColumnStatistics is the statistical profile of one column.
type ColumnStatistics struct {
	Name      string
	Kind      dataset.Kind
	TypeLabel string
	TotalRows int
	NonNull   int
	Missing   int
	// MissingPct is NaN when TotalRows is zero.
	MissingPct float64
	Unique     int
	// Numeric is set for numeric columns only.
	Numeric *NumericStats
	// Mode is set when Unique > 0.
	Mode *Mode
}

// NumericStats holds descriptive statistics over non-null values. Fields are
// NaN when the column has no data (Std also needs two values).
type NumericStats struct {
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	Std    float64
}

// Mode is the most frequent non-null value and its occurrence count.
type Mode struct {
	Value dataset.Value
	Count int
}

// NonNullPct is the share of present values, NaN when TotalRows is zero.
func (s ColumnStatistics) NonNullPct() float64 {
	if s.TotalRows == 0 {
		return math.NaN()
	}
	return 100 * float64(s.NonNull) / float64(s.TotalRows)
}

// IsNumeric reports whether numeric statistics apply.
func (s ColumnStatistics) IsNumeric() bool { return s.Kind == dataset.Numeric }

// Analyze profiles one column. It never fails: missing data shows up as NaN
// fields or nil pointers.
func Analyze(col dataset.Column) ColumnStatistics {
	s := ColumnStatistics{
		Name:      col.Name,
		Kind:      col.Kind,
		TotalRows: col.Len(),
	}
	for _, v := range col.Values {
		if v.Valid {
			s.NonNull++
		}
	}
	s.Missing = s.TotalRows - s.NonNull
	if s.TotalRows == 0 {
		s.MissingPct = math.NaN()
	} else {
		s.MissingPct = 100 * float64(s.Missing) / float64(s.TotalRows)
	}

	freq := frequencies(col)
	s.Unique = len(freq)
	if s.Unique > 0 {
		m := freq[0]
		s.Mode = &m
	}

	if col.Kind == dataset.Numeric {
		s.Numeric = describe(col.Floats())
		s.TypeLabel = numericTypeLabel(col)
	} else {
		s.TypeLabel = TypeObject
	}
	return s
}

// frequencies counts distinct non-null values, ordered by descending count
// and then ascending value.
func frequencies(col dataset.Column) []Mode {
	if col.Kind == dataset.Numeric {
		counts := map[float64]int{}
		for _, v := range col.Values {
			if v.Valid {
				counts[v.Num]++
			}
		}
		out := make([]Mode, 0, len(counts))
		for x, n := range counts {
			out = append(out, Mode{Value: dataset.Number(x), Count: n})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Count == out[j].Count {
				return out[i].Value.Num < out[j].Value.Num
			}
			return out[i].Count > out[j].Count
		})
		return out
	}
	counts := map[string]int{}
	for _, v := range col.Values {
		if v.Valid {
			counts[v.Raw]++
		}
	}
	out := make([]Mode, 0, len(counts))
	for x, n := range counts {
		out = append(out, Mode{Value: dataset.String(x), Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value.Raw < out[j].Value.Raw
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func describe(vals []float64) *NumericStats {
	nan := math.NaN()
	ns := &NumericStats{Min: nan, Max: nan, Mean: nan, Median: nan, Std: nan}
	if len(vals) == 0 {
		return ns
	}
	ns.Min, ns.Max = math.Inf(1), math.Inf(-1)
	// Welford
	var mean, m2 float64
	for i, x := range vals {
		if x < ns.Min {
			ns.Min = x
		}
		if x > ns.Max {
			ns.Max = x
		}
		delta := x - mean
		mean += delta / float64(i+1)
		m2 += delta * (x - mean)
	}
	ns.Mean = mean
	if len(vals) > 1 {
		ns.Std = math.Sqrt(m2 / float64(len(vals)-1))
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	ns.Median = quantile(sorted, 0.5)
	return ns
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// numericTypeLabel is int64 when every value is present and integral.
func numericTypeLabel(col dataset.Column) string {
	if col.Len() == 0 {
		return TypeFloat64
	}
	for _, v := range col.Values {
		if !v.Valid || v.Num != math.Trunc(v.Num) || math.IsInf(v.Num, 0) {
			return TypeFloat64
		}
	}
	return TypeInt64
}
