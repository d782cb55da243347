package dataset

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadCSV_KindsAndNulls(t *testing.T) {
	p := writeFile(t, "sales.csv", "region,units,price,note\n"+
		"north,1,2.5,\n"+
		"south,2,NA,ok\n"+
		"north,,3.25,fine\n"+
		"east,3,4,null\n")
	ds, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Rows != 4 {
		t.Fatalf("rows = %d, want 4", ds.Rows)
	}
	if ds.Name() != "sales" {
		t.Fatalf("name = %q, want sales", ds.Name())
	}
	want := []struct {
		name  string
		kind  Kind
		nulls int
	}{
		{"region", Categorical, 0},
		{"units", Numeric, 1},
		{"price", Numeric, 1},
		{"note", Categorical, 2},
	}
	if len(ds.Columns) != len(want) {
		t.Fatalf("columns = %v", ds.ColumnNames())
	}
	for i, w := range want {
		c := ds.Columns[i]
		if c.Name != w.name || c.Kind != w.kind {
			t.Fatalf("column %d = %s/%s, want %s/%s", i, c.Name, c.Kind, w.name, w.kind)
		}
		if c.Len() != ds.Rows {
			t.Fatalf("column %s has %d values, want %d", c.Name, c.Len(), ds.Rows)
		}
		nulls := 0
		for _, v := range c.Values {
			if !v.Valid {
				nulls++
			}
		}
		if nulls != w.nulls {
			t.Fatalf("column %s nulls = %d, want %d", c.Name, nulls, w.nulls)
		}
	}
	if got := ds.Columns[2].Floats(); len(got) != 3 || got[1] != 3.25 {
		t.Fatalf("price floats = %v", got)
	}
}

func TestLoadCSV_AllNullColumnIsNumeric(t *testing.T) {
	p := writeFile(t, "empty.csv", "a,b\n1,\n2,\n")
	ds, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Columns[1].Kind != Numeric {
		t.Fatalf("all-null column kind = %s, want numeric", ds.Columns[1].Kind)
	}
	if len(ds.Columns[1].Floats()) != 0 {
		t.Fatalf("expected no numeric values")
	}
}

func TestLoadCSV_ShortRowsArePadded(t *testing.T) {
	p := writeFile(t, "ragged.csv", "a,b,c\n1,2\n3,4,5,6\n")
	ds, err := Load(p, DefaultOptions())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Rows != 2 {
		t.Fatalf("rows = %d", ds.Rows)
	}
	if ds.Columns[2].Values[0].Valid {
		t.Fatalf("padded cell should be null")
	}
	if ds.Columns[2].Values[1].Num != 5 {
		t.Fatalf("c[1] = %v, want 5", ds.Columns[2].Values[1])
	}
}

func TestLoadTSVAndMaxRows(t *testing.T) {
	p := writeFile(t, "t.tsv", "x\ty\n1\ta\n2\tb\n3\tc\n")
	opt := DefaultOptions()
	opt.MaxRows = 2
	ds, err := Load(p, opt)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Rows != 2 || len(ds.Columns) != 2 {
		t.Fatalf("rows=%d cols=%d", ds.Rows, len(ds.Columns))
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv"), DefaultOptions()); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("missing file: got %v, want ErrFileNotFound", err)
	}
	if _, err := Load(t.TempDir(), DefaultOptions()); !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("directory: got %v, want ErrFileNotFound", err)
	}
	for _, name := range []string{"data.json", "legacy.xls"} {
		p := writeFile(t, name, "{}")
		if _, err := Load(p, DefaultOptions()); !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("%s: got %v, want ErrUnsupportedFormat", name, err)
		}
	}
}

func TestHeaderNames(t *testing.T) {
	got := headerNames([]string{"\ufeffid", "a", "", "a", "a", "a.1"})
	want := []string{"id", "a", "Unnamed: 2", "a.1", "a.2", "a.1.1"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("headerNames = %q, want %q", got, want)
	}
}

func TestParseNumeric(t *testing.T) {
	cases := []struct {
		in   string
		opt  Options
		want float64
		ok   bool
	}{
		{"12.5", DefaultOptions(), 12.5, true},
		{"-3", DefaultOptions(), -3, true},
		{"1e3", DefaultOptions(), 1000, true},
		{"1,234", DefaultOptions(), 0, false},
		{"abc", DefaultOptions(), 0, false},
		{"1.234,5", Options{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1234.5, true},
		{"0,75", Options{}, 0.75, true},
		{"1,000.25", Options{}, 1000.25, true},
		{"1 000", Options{DecimalSeparator: '.', ThousandsSeparator: ' '}, 1000, true},
	}
	for _, tc := range cases {
		got, ok := parseNumeric(tc.in, tc.opt)
		if ok != tc.ok || (ok && math.Abs(got-tc.want) > 1e-12) {
			t.Errorf("parseNumeric(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestValueText(t *testing.T) {
	if got := Number(2).Text(); got != "2" {
		t.Fatalf("Number(2).Text() = %q", got)
	}
	if got := Number(2.5).Text(); got != "2.5" {
		t.Fatalf("Number(2.5).Text() = %q", got)
	}
	if got := String("007").Text(); got != "007" {
		t.Fatalf("String(007).Text() = %q", got)
	}
	if got := Null.Text(); got != "" {
		t.Fatalf("Null.Text() = %q", got)
	}
}
