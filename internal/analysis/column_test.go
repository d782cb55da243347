package analysis

import (
	"math"
	"reflect"
	"testing"

	"github.com/KaramelBytes/datasummary-cli/internal/dataset"
)

func numCol(name string, vals ...any) dataset.Column {
	c := dataset.Column{Name: name, Kind: dataset.Numeric}
	for _, v := range vals {
		switch x := v.(type) {
		case nil:
			c.Values = append(c.Values, dataset.Null)
		case int:
			c.Values = append(c.Values, dataset.Number(float64(x)))
		case float64:
			c.Values = append(c.Values, dataset.Number(x))
		}
	}
	return c
}

func catCol(name string, vals ...string) dataset.Column {
	c := dataset.Column{Name: name, Kind: dataset.Categorical}
	for _, v := range vals {
		if v == "" {
			c.Values = append(c.Values, dataset.Null)
			continue
		}
		c.Values = append(c.Values, dataset.String(v))
	}
	return c
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAnalyze_NumericWithNull(t *testing.T) {
	s := Analyze(numCol("n", 1, 2, 2, 3, nil))
	if s.TotalRows != 5 || s.NonNull != 4 || s.Missing != 1 {
		t.Fatalf("counts = %d/%d/%d", s.TotalRows, s.NonNull, s.Missing)
	}
	if !almost(s.MissingPct, 20) {
		t.Fatalf("missing pct = %v, want 20", s.MissingPct)
	}
	if s.Unique != 3 {
		t.Fatalf("unique = %d, want 3", s.Unique)
	}
	if s.Mode == nil || s.Mode.Value.Num != 2 || s.Mode.Count != 2 || s.Mode.Value.Text() != "2" {
		t.Fatalf("mode = %+v", s.Mode)
	}
	if s.TypeLabel != TypeFloat64 {
		t.Fatalf("type label = %s, want float64 (column has a null)", s.TypeLabel)
	}
	n := s.Numeric
	if n == nil {
		t.Fatalf("numeric stats missing")
	}
	if n.Min != 1 || n.Max != 3 || !almost(n.Mean, 2) || n.Median != 2 {
		t.Fatalf("numeric = %+v", n)
	}
	if !almost(n.Std, math.Sqrt(2.0/3.0)) {
		t.Fatalf("std = %v", n.Std)
	}
}

func TestAnalyze_Invariants(t *testing.T) {
	cols := []dataset.Column{
		numCol("a", 1, nil, nil, 4.5),
		catCol("b", "x", "", "y", "x", ""),
		numCol("c"),
		catCol("d", "", "", ""),
	}
	for _, c := range cols {
		s := Analyze(c)
		if s.NonNull+s.Missing != s.TotalRows {
			t.Fatalf("%s: %d + %d != %d", c.Name, s.NonNull, s.Missing, s.TotalRows)
		}
		if s.TotalRows == 0 {
			if !math.IsNaN(s.MissingPct) || !math.IsNaN(s.NonNullPct()) {
				t.Fatalf("%s: expected NaN percentages for empty column", c.Name)
			}
			continue
		}
		if want := 100 * float64(s.Missing) / float64(s.TotalRows); !almost(s.MissingPct, want) {
			t.Fatalf("%s: missing pct %v, want %v", c.Name, s.MissingPct, want)
		}
	}
}

func TestAnalyze_NoDataSentinels(t *testing.T) {
	s := Analyze(numCol("blank", nil, nil))
	if s.Mode != nil || s.Unique != 0 {
		t.Fatalf("expected no mode, got %+v", s.Mode)
	}
	n := s.Numeric
	for name, v := range map[string]float64{"min": n.Min, "max": n.Max, "mean": n.Mean, "median": n.Median, "std": n.Std} {
		if !math.IsNaN(v) {
			t.Fatalf("%s = %v, want NaN sentinel", name, v)
		}
	}
	single := Analyze(numCol("one", 7))
	if single.Numeric.Mean != 7 || !math.IsNaN(single.Numeric.Std) {
		t.Fatalf("single value stats = %+v", single.Numeric)
	}
	if single.TypeLabel != TypeInt64 {
		t.Fatalf("type label = %s, want int64", single.TypeLabel)
	}
}

func TestAnalyze_Categorical(t *testing.T) {
	s := Analyze(catCol("c", "b", "a", "", "b", "a", "c"))
	if s.Numeric != nil {
		t.Fatalf("categorical column should not have numeric stats")
	}
	if s.TypeLabel != TypeObject || s.Unique != 3 {
		t.Fatalf("label=%s unique=%d", s.TypeLabel, s.Unique)
	}
	// "a" and "b" tie with two occurrences; ascending order picks "a".
	if s.Mode.Value.Raw != "a" || s.Mode.Count != 2 {
		t.Fatalf("mode = %+v", s.Mode)
	}
}

func TestAnalyze_ModeTieBreakNumeric(t *testing.T) {
	s := Analyze(numCol("n", 5, 3, 5, 3, 9))
	if s.Mode.Value.Num != 3 || s.Mode.Count != 2 {
		t.Fatalf("mode = %+v, want 3 x2", s.Mode)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	col := catCol("c", "q", "w", "e", "w", "q", "r", "t", "y")
	first := Analyze(col)
	for i := 0; i < 20; i++ {
		if got := Analyze(col); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %+v vs %+v", i, got, first)
		}
	}
}

func TestAnalyze_DoesNotMutate(t *testing.T) {
	col := numCol("n", 3, 1, 2)
	Analyze(col)
	if col.Values[0].Num != 3 || col.Values[1].Num != 1 {
		t.Fatalf("column mutated: %+v", col.Values)
	}
}

func TestQuantile(t *testing.T) {
	if got := quantile([]float64{1, 2, 3, 4}, 0.5); got != 2.5 {
		t.Fatalf("median even = %v", got)
	}
	if got := quantile([]float64{1, 2, 3}, 0.5); got != 2 {
		t.Fatalf("median odd = %v", got)
	}
	if !math.IsNaN(quantile(nil, 0.5)) {
		t.Fatalf("empty quantile should be NaN")
	}
}
