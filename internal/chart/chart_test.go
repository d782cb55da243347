package chart

import (
	"errors"
	"math"
	"os"
	"testing"

	"github.com/KaramelBytes/datasummary-cli/internal/dataset"
)

func TestHistogram_Bins(t *testing.T) {
	vals := make([]float64, 0, 30)
	for i := 0; i < 30; i++ {
		vals = append(vals, float64(i))
	}
	bins, err := Histogram(vals, 15)
	if err != nil {
		t.Fatalf("Histogram: %v", err)
	}
	if len(bins) != 15 {
		t.Fatalf("bins = %d, want 15", len(bins))
	}
	total := 0
	for _, b := range bins {
		total += b.Count
	}
	if total != 30 {
		t.Fatalf("binned %d values, want 30", total)
	}
	if bins[0].Lo != 0 || bins[14].Hi != 29 {
		t.Fatalf("range = [%v, %v]", bins[0].Lo, bins[14].Hi)
	}
	// max value lands in the closed last bin
	if bins[14].Count == 0 {
		t.Fatalf("last bin empty")
	}
}

func TestHistogram_ConstantAndErrors(t *testing.T) {
	bins, err := Histogram([]float64{4, 4, 4}, 15)
	if err != nil {
		t.Fatalf("constant column: %v", err)
	}
	if bins[0].Lo != 3.5 || bins[14].Hi != 4.5 {
		t.Fatalf("constant range = [%v, %v]", bins[0].Lo, bins[14].Hi)
	}
	if _, err := Histogram(nil, 15); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := Histogram([]float64{1, math.Inf(1)}, 15); err == nil {
		t.Fatalf("expected error for infinite input")
	}
	if _, err := Histogram([]float64{1}, 0); err == nil {
		t.Fatalf("expected error for zero bins")
	}
}

func TestHistogram_ExtremeRanges(t *testing.T) {
	cases := []struct {
		name string
		vals []float64
	}{
		{"near float limits", []float64{-1e308, 1e308}},
		{"large constant", []float64{1e20, 1e20}},
		{"epoch nanoseconds", []float64{1.7e18, 1.7e18, 1.7e18}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bins, err := Histogram(tc.vals, 15)
			if err != nil {
				t.Fatalf("Histogram: %v", err)
			}
			total := 0
			for i, b := range bins {
				if math.IsInf(b.Lo, 0) || math.IsNaN(b.Lo) || math.IsInf(b.Hi, 0) || math.IsNaN(b.Hi) {
					t.Fatalf("bin %d has non-finite edges %+v", i, b)
				}
				if !(b.Hi > b.Lo) {
					t.Fatalf("bin %d is empty: %+v", i, b)
				}
				total += b.Count
			}
			if total != len(tc.vals) {
				t.Fatalf("binned %d values, want %d", total, len(tc.vals))
			}
			for _, v := range tc.vals {
				if v < bins[0].Lo || v > bins[14].Hi {
					t.Fatalf("value %v outside [%v, %v]", v, bins[0].Lo, bins[14].Hi)
				}
			}
		})
	}

	bins, _ := Histogram([]float64{-1e308, 1e308}, 15)
	if bins[0].Count != 1 || bins[14].Count != 1 {
		t.Fatalf("extremes not in outer bins: first=%d last=%d", bins[0].Count, bins[14].Count)
	}
	if _, err := Histogram([]float64{0, 5e-324}, 15); err == nil {
		t.Fatalf("expected error for a range too narrow to split")
	}
}

func TestRender_UnsplittableRangeFails(t *testing.T) {
	r := NewRenderer(Options{TempDir: t.TempDir()})
	art, err := r.Render(numeric("tiny", 0, 5e-324))
	var re *RenderError
	if art != nil || !errors.As(err, &re) {
		t.Fatalf("expected RenderError, got art=%v err=%v", art, err)
	}
	entries, _ := os.ReadDir(r.Options().TempDir)
	if len(entries) != 0 {
		t.Fatalf("temp dir not clean: %d entries", len(entries))
	}
}

func TestDistribution_FoldsOthers(t *testing.T) {
	counts := map[string]int{"a": 10, "b": 9, "c": 8, "d": 7, "e": 6, "f": 5, "g": 3, "h": 2}
	slices, err := Distribution(counts, 6)
	if err != nil {
		t.Fatalf("Distribution: %v", err)
	}
	if len(slices) != 7 {
		t.Fatalf("slices = %d, want 7", len(slices))
	}
	if slices[0].Label != "a" || slices[5].Label != "f" {
		t.Fatalf("unexpected order: %+v", slices)
	}
	others := slices[6]
	if others.Label != OthersLabel || others.Count != 5 {
		t.Fatalf("others = %+v", others)
	}
	top := 0.0
	for _, s := range slices[:6] {
		top += s.Percent
	}
	if math.Abs(others.Percent-(100-top)) > 1e-9 {
		t.Fatalf("others share %v, want %v", others.Percent, 100-top)
	}
}

func TestDistribution_NoOthersWhenFew(t *testing.T) {
	slices, err := Distribution(map[string]int{"y": 2, "x": 2, "z": 1}, 6)
	if err != nil {
		t.Fatalf("Distribution: %v", err)
	}
	if len(slices) != 3 || slices[0].Label != "x" || slices[1].Label != "y" {
		t.Fatalf("slices = %+v", slices)
	}
	if _, err := Distribution(map[string]int{}, 6); err == nil {
		t.Fatalf("expected error for empty counts")
	}
}

func numeric(name string, vals ...float64) dataset.Column {
	c := dataset.Column{Name: name, Kind: dataset.Numeric}
	for _, v := range vals {
		c.Values = append(c.Values, dataset.Number(v))
	}
	return c
}

func TestRender_Histogram(t *testing.T) {
	r := NewRenderer(Options{TempDir: t.TempDir()})
	art, err := r.Render(numeric("price", 1, 2, 2, 3, 5, 8, 13))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if art.Kind != KindHistogram || len(art.Bins) != 15 {
		t.Fatalf("artifact = %+v", art)
	}
	st, err := os.Stat(art.Path)
	if err != nil || st.Size() == 0 {
		t.Fatalf("chart file missing: %v", err)
	}
	path := art.Path
	if err := art.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := art.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("chart file still present after Release")
	}
}

func TestRender_Pie(t *testing.T) {
	col := dataset.Column{Name: "city", Kind: dataset.Categorical}
	for _, s := range []string{"Oslo", "Rome", "Oslo", "Lima", "Kyiv", "Baku", "Riga", "Bern", "Oslo"} {
		col.Values = append(col.Values, dataset.String(s))
	}
	col.Values = append(col.Values, dataset.Null)
	r := NewRenderer(Options{TempDir: t.TempDir()})
	art, err := r.Render(col)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	defer art.Release()
	if art.Kind != KindCategoricalPie {
		t.Fatalf("kind = %s", art.Kind)
	}
	if len(art.Slices) != 7 || art.Slices[0].Label != "Oslo" || art.Slices[6].Label != OthersLabel {
		t.Fatalf("slices = %+v", art.Slices)
	}
}

func TestRender_EmptyColumnFails(t *testing.T) {
	r := NewRenderer(Options{TempDir: t.TempDir()})
	col := dataset.Column{Name: "blank", Kind: dataset.Numeric, Values: []dataset.Value{dataset.Null, dataset.Null}}
	art, err := r.Render(col)
	if art != nil {
		t.Fatalf("expected no artifact")
	}
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("expected RenderError, got %v", err)
	}
	if re.Column != "blank" || re.Kind != KindHistogram || re.Cause() == "" {
		t.Fatalf("render error = %+v", re)
	}
	entries, _ := os.ReadDir(r.Options().TempDir)
	if len(entries) != 0 {
		t.Fatalf("temp dir not clean: %d entries", len(entries))
	}
}

func TestNewRenderer_Defaults(t *testing.T) {
	opt := NewRenderer(Options{}).Options()
	if opt.Bins != 15 || opt.TopN != 6 || opt.Width != 600 || opt.Height != 500 {
		t.Fatalf("defaults = %+v", opt)
	}
}
