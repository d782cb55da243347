// Package chart renders one image per column: a histogram for numeric
// columns and a pie-style distribution chart for everything else.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/KaramelBytes/datasummary-cli/internal/dataset"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Kind is the chart type of an artifact.
type Kind string

const (
	KindHistogram      Kind = "histogram"
	KindCategoricalPie Kind = "categorical_pie"
)

// KindFor picks the chart kind for a column.
func KindFor(col dataset.Column) Kind {
	if col.Kind == dataset.Numeric {
		return KindHistogram
	}
	return KindCategoricalPie
}

// Options configures a Renderer.
type Options struct {
	// Bins is the histogram bin count.
	Bins int
	// TopN is how many categories are drawn before folding into Others.
	TopN int
	// Width and Height are the image size in pixels.
	Width  int
	Height int
	// TempDir holds rendered images; empty means os.TempDir().
	TempDir string
}

// DefaultOptions draws 15 bins, 6 categories and a 600x500 image.
func DefaultOptions() Options {
	return Options{Bins: 15, TopN: 6, Width: 600, Height: 500}
}

// Artifact is a rendered PNG in temporary storage. The plotted data stays
// available after Release.
type Artifact struct {
	Kind   Kind
	Column string
	// Path is the PNG file; empty once released.
	Path   string
	Width  int
	Height int
	Bins   []Bin
	Slices []Slice
}

// Release deletes the image file. It is safe to call more than once.
func (a *Artifact) Release() error {
	if a == nil || a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	a.Path = ""
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove chart image: %w", err)
	}
	return nil
}

// RenderError reports a chart that could not be produced for a column.
type RenderError struct {
	Column string
	Kind   Kind
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s for column %q: %v", e.Kind, e.Column, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Cause is the human-readable reason shown in the report.
func (e *RenderError) Cause() string {
	if e.Err == nil {
		return "unknown error"
	}
	return e.Err.Error()
}

// Renderer draws charts. It holds no per-chart state and is safe for
// concurrent use.
type Renderer struct {
	opt Options
}

// NewRenderer fills zero options with defaults.
func NewRenderer(opt Options) *Renderer {
	def := DefaultOptions()
	if opt.Bins <= 0 {
		opt.Bins = def.Bins
	}
	if opt.TopN <= 0 {
		opt.TopN = def.TopN
	}
	if opt.Width <= 0 {
		opt.Width = def.Width
	}
	if opt.Height <= 0 {
		opt.Height = def.Height
	}
	return &Renderer{opt: opt}
}

// Options returns the effective options.
func (r *Renderer) Options() Options { return r.opt }

// Render produces exactly one artifact for col or a *RenderError.
func (r *Renderer) Render(col dataset.Column) (a *Artifact, err error) {
	kind := KindFor(col)
	defer func() {
		if p := recover(); p != nil {
			a = nil
			err = &RenderError{Column: col.Name, Kind: kind, Err: fmt.Errorf("drawing failed: %v", p)}
		}
	}()

	art := &Artifact{Kind: kind, Column: col.Name, Width: r.opt.Width, Height: r.opt.Height}
	var buf bytes.Buffer
	switch kind {
	case KindHistogram:
		art.Bins, err = Histogram(col.Floats(), r.opt.Bins)
		if err == nil {
			err = r.drawHistogram(&buf, col.Name, art.Bins)
		}
	default:
		art.Slices, err = Distribution(categoryCounts(col), r.opt.TopN)
		if err == nil {
			err = r.drawPie(&buf, col.Name, art.Slices)
		}
	}
	if err != nil {
		return nil, &RenderError{Column: col.Name, Kind: kind, Err: err}
	}
	art.Path, err = writeTemp(r.opt.TempDir, buf.Bytes())
	if err != nil {
		return nil, &RenderError{Column: col.Name, Kind: kind, Err: err}
	}
	return art, nil
}

func categoryCounts(col dataset.Column) map[string]int {
	counts := map[string]int{}
	for _, v := range col.Values {
		if v.Valid {
			counts[v.Text()]++
		}
	}
	return counts
}

var (
	histFill   = drawing.ColorFromHex("87ceeb")
	histStroke = drawing.ColorFromHex("000000")
	// paired is the 12-colour qualitative "Paired" palette.
	paired = []drawing.Color{
		drawing.ColorFromHex("a6cee3"), drawing.ColorFromHex("1f78b4"),
		drawing.ColorFromHex("b2df8a"), drawing.ColorFromHex("33a02c"),
		drawing.ColorFromHex("fb9a99"), drawing.ColorFromHex("e31a1c"),
		drawing.ColorFromHex("fdbf6f"), drawing.ColorFromHex("ff7f00"),
		drawing.ColorFromHex("cab2d6"), drawing.ColorFromHex("6a3d9a"),
		drawing.ColorFromHex("ffff99"), drawing.ColorFromHex("b15928"),
	}
)

func (r *Renderer) drawHistogram(buf *bytes.Buffer, name string, bins []Bin) error {
	maxCount := 0
	bars := make([]gochart.Value, len(bins))
	for i, b := range bins {
		if b.Count > maxCount {
			maxCount = b.Count
		}
		bars[i] = gochart.Value{
			Value: float64(b.Count),
			Label: strconv.FormatFloat(b.Lo, 'g', 3, 64),
			Style: gochart.Style{FillColor: histFill, StrokeColor: histStroke, StrokeWidth: 1},
		}
	}
	// Bars plus 2px gaps must fit inside the padded canvas.
	barWidth := (r.opt.Width - 120) / len(bins)
	if barWidth < 2 {
		barWidth = 2
	}
	bc := gochart.BarChart{
		Title:      "Distribution of " + name,
		Width:      r.opt.Width,
		Height:     r.opt.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20}},
		BarWidth:   barWidth - 2,
		BarSpacing: 2,
		YAxis: gochart.YAxis{
			Name:  "Frequency",
			Range: &gochart.ContinuousRange{Min: 0, Max: float64(maxCount) * 1.1},
		},
		Bars: bars,
	}
	return bc.Render(gochart.PNG, buf)
}

func (r *Renderer) drawPie(buf *bytes.Buffer, name string, slices []Slice) error {
	values := make([]gochart.Value, len(slices))
	for i, s := range slices {
		values[i] = gochart.Value{
			Value: float64(s.Count),
			Label: fmt.Sprintf("%s (%.1f%%)", s.Label, s.Percent),
			Style: gochart.Style{FillColor: paired[i%len(paired)]},
		}
	}
	pc := gochart.PieChart{
		Title:  "Value Distribution of " + name,
		Width:  r.opt.Width,
		Height: r.opt.Height,
		Values: values,
	}
	return pc.Render(gochart.PNG, buf)
}

func writeTemp(dir string, png []byte) (string, error) {
	f, err := os.CreateTemp(dir, "chart-*.png")
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	if _, err := f.Write(png); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write chart file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close chart file: %w", err)
	}
	return f.Name(), nil
}
