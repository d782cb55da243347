package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// nullTokens are cell texts read as missing values.
var nullTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"-NaN": {},
	"null": {},
	"NULL": {},
	"None": {},
	"#N/A": {},
	"<NA>": {},
}

// IsNull reports whether a trimmed cell text denotes a missing value.
func IsNull(s string) bool {
	_, ok := nullTokens[s]
	return ok
}

// tableBuilder collects raw rows and infers column kinds once all rows are in.
type tableBuilder struct {
	source string
	names  []string
	cells  [][]string // column-major
	opt    Options
}

func newTableBuilder(source string, header []string, opt Options) *tableBuilder {
	names := headerNames(header)
	return &tableBuilder{
		source: source,
		names:  names,
		cells:  make([][]string, len(names)),
		opt:    opt,
	}
}

// add appends one record; short records are padded with nulls and extra
// fields are dropped.
func (b *tableBuilder) add(rec []string) {
	for j := range b.names {
		v := ""
		if j < len(rec) {
			v = strings.TrimSpace(rec[j])
		}
		b.cells[j] = append(b.cells[j], v)
	}
}

func (b *tableBuilder) rows() int {
	if len(b.cells) == 0 {
		return 0
	}
	return len(b.cells[0])
}

func (b *tableBuilder) full() bool {
	return b.opt.MaxRows > 0 && b.rows() >= b.opt.MaxRows
}

func (b *tableBuilder) build() *Dataset {
	ds := &Dataset{Source: b.source, Rows: b.rows(), Columns: make([]Column, len(b.names))}
	for j, name := range b.names {
		ds.Columns[j] = buildColumn(name, b.cells[j], b.opt)
	}
	return ds
}

// buildColumn makes a numeric column when every non-null cell parses as a
// number, and a categorical column otherwise. An all-null column is numeric.
func buildColumn(name string, cells []string, opt Options) Column {
	nums := make([]float64, len(cells))
	numeric := true
	for i, s := range cells {
		if IsNull(s) {
			continue
		}
		x, ok := parseNumeric(s, opt)
		if !ok {
			numeric = false
			break
		}
		nums[i] = x
	}
	col := Column{Name: name, Values: make([]Value, len(cells))}
	if numeric {
		col.Kind = Numeric
		for i, s := range cells {
			if !IsNull(s) && !math.IsNaN(nums[i]) {
				col.Values[i] = Number(nums[i])
			}
		}
		return col
	}
	col.Kind = Categorical
	for i, s := range cells {
		if !IsNull(s) {
			col.Values[i] = String(s)
		}
	}
	return col
}

// headerNames names blank headers "Unnamed: <i>" and suffixes duplicates
// with ".1", ".2", ...
func headerNames(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		base := name
		for k := 1; ; k++ {
			if _, taken := seen[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s.%d", base, k)
		}
		seen[name] = struct{}{}
		out[i] = name
	}
	return out
}

// parseNumeric parses s honoring the configured separators. With no decimal
// separator configured the last of ',' and '.' is taken as the decimal point.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00a0", " ")
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	if raw == "" || strings.ContainsAny(raw, " _") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
