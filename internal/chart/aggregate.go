package chart

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// OthersLabel names the bucket that folds categories beyond the top N.
const OthersLabel = "Others"

// Bin is one histogram bucket covering [Lo, Hi); the last bin is closed.
type Bin struct {
	Lo, Hi float64
	Count  int
}

// Slice is one category of a distribution chart.
type Slice struct {
	Label   string
	Count   int
	Percent float64
}

var errNoValues = errors.New("no non-null values to plot")

// Histogram splits vals into n equal-width bins over [min, max]. A range of
// zero width is widened on each side by 0.5 or by a billionth of the value,
// whichever is larger. Ranges whose bin edges cannot be represented as
// distinct finite floats are rejected.
func Histogram(vals []float64, n int) ([]Bin, error) {
	if n <= 0 {
		return nil, errors.New("bin count must be positive")
	}
	if len(vals) == 0 {
		return nil, errNoValues
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, errors.New("cannot bin infinite values")
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		d := math.Max(0.5, math.Abs(lo)*1e-9)
		lo -= d
		hi += d
	}
	fn := float64(n)
	// hi-lo may overflow; the split form stays finite
	width := hi/fn - lo/fn
	if math.IsInf(width, 0) || math.IsNaN(width) || width <= 0 {
		return nil, fmt.Errorf("cannot split range [%g, %g] into %d bins", lo, hi, n)
	}
	edge := func(i int) float64 {
		t := float64(i) / fn
		return lo*(1-t) + hi*t
	}
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo, bins[i].Hi = edge(i), edge(i+1)
		if math.IsInf(bins[i].Hi, 0) || !(bins[i].Hi > bins[i].Lo) {
			return nil, fmt.Errorf("cannot split range [%g, %g] into %d bins", lo, hi, n)
		}
	}
	bins[0].Lo, bins[n-1].Hi = lo, hi
	for _, v := range vals {
		pos := (v - lo) / width
		if math.IsInf(pos, 0) {
			pos = v/width - lo/width
		}
		i := int(math.Floor(pos))
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}
	return bins, nil
}

// Distribution ranks counts by descending frequency (ties by label), keeps
// the top n and folds the rest into an Others slice. Percentages are shares
// of the total count.
func Distribution(counts map[string]int, n int) ([]Slice, error) {
	total := 0
	ranked := make([]Slice, 0, len(counts))
	for label, c := range counts {
		if c <= 0 {
			continue
		}
		total += c
		ranked = append(ranked, Slice{Label: label, Count: c})
	}
	if total == 0 {
		return nil, errNoValues
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count == ranked[j].Count {
			return ranked[i].Label < ranked[j].Label
		}
		return ranked[i].Count > ranked[j].Count
	})
	out := ranked
	if n > 0 && len(ranked) > n {
		others := 0
		for _, s := range ranked[n:] {
			others += s.Count
		}
		out = append(ranked[:n:n], Slice{Label: OthersLabel, Count: others})
	}
	for i := range out {
		out[i].Percent = 100 * float64(out[i].Count) / float64(total)
	}
	return out, nil
}
