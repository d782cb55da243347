// Package report turns a dataset into a per-column summary document.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/datasummary-cli/internal/analysis"
	"github.com/KaramelBytes/datasummary-cli/internal/chart"
	"github.com/KaramelBytes/datasummary-cli/internal/dataset"
	"github.com/KaramelBytes/datasummary-cli/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Section is the report unit for one column: its statistics plus either a
// chart or the reason the chart is missing.
type Section struct {
	Column   string
	Kind     dataset.Kind
	Stats    analysis.ColumnStatistics
	Chart    *chart.Artifact
	ChartErr error
}

// FailureNote is the readable cause of a missing chart.
func (s Section) FailureNote() string {
	var re *chart.RenderError
	switch {
	case errors.As(s.ChartErr, &re):
		return re.Cause()
	case s.ChartErr != nil:
		return s.ChartErr.Error()
	default:
		return "chart unavailable"
	}
}

// Report is the ordered set of sections for one dataset.
type Report struct {
	Title    string
	Source   string
	RunID    string
	Created  time.Time
	Sections []Section
}

// Release frees every chart still held by the report.
func (r *Report) Release() {
	for i := range r.Sections {
		_ = r.Sections[i].Chart.Release()
	}
}

// TitleFor derives a report title from the dataset's source name.
func TitleFor(ds *dataset.Dataset) string {
	if name := ds.Name(); name != "" {
		return name
	}
	return "dataset"
}

// ReportWriteError reports a finished document that could not be stored.
type ReportWriteError struct {
	Path string
	Err  error
}

func (e *ReportWriteError) Error() string {
	return fmt.Sprintf("write report %s: %v", e.Path, e.Err)
}

func (e *ReportWriteError) Unwrap() error { return e.Err }

// ChartRenderer produces one chart per column.
type ChartRenderer interface {
	Render(col dataset.Column) (*chart.Artifact, error)
}

// Driver runs the analyze, render, assemble and write pipeline.
type Driver struct {
	Renderer  ChartRenderer
	Assembler *Assembler
	// Concurrency bounds parallel column workers; values below 1 mean one.
	Concurrency int
	// Markdown also writes a .md companion next to the PDF.
	Markdown bool
	Logger   *logrus.Logger
}

// NewDriver returns a sequential driver with default rendering and layout.
func NewDriver(logger *logrus.Logger) *Driver {
	return &Driver{
		Renderer:    chart.NewRenderer(chart.DefaultOptions()),
		Assembler:   &Assembler{},
		Concurrency: 1,
		Logger:      logger,
	}
}

func (d *Driver) log() *logrus.Logger {
	if d.Logger == nil {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		l.SetLevel(logrus.WarnLevel)
		d.Logger = l
	}
	return d.Logger
}

// Build analyzes and renders every column. Sections follow the dataset's
// column order regardless of worker completion order. On cancellation all
// rendered charts are released and the context error is returned.
func (d *Driver) Build(ctx context.Context, ds *dataset.Dataset) (*Report, error) {
	rep := &Report{
		Title:    TitleFor(ds),
		Source:   ds.Source,
		RunID:    uuid.NewString(),
		Created:  time.Now(),
		Sections: make([]Section, len(ds.Columns)),
	}
	entry := d.log().WithFields(logrus.Fields{"run_id": rep.RunID, "source": ds.Source})
	entry.WithField("columns", len(ds.Columns)).Info("building report")

	limit := d.Concurrency
	if limit < 1 {
		limit = 1
	}
	render := d.renderer()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, col := range ds.Columns {
		if gctx.Err() != nil {
			break
		}
		i, col := i, col
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep.Sections[i] = section(render, entry, col)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		rep.Release()
		return nil, err
	}
	return rep, nil
}

func section(render ChartRenderer, entry *logrus.Entry, col dataset.Column) Section {
	s := Section{Column: col.Name, Kind: col.Kind, Stats: analysis.Analyze(col)}
	art, err := render.Render(col)
	if err != nil {
		entry.WithFields(logrus.Fields{"column": col.Name, "kind": chart.KindFor(col)}).
			WithError(err).Warn("chart failed")
		s.ChartErr = err
		return s
	}
	s.Chart = art
	entry.WithFields(logrus.Fields{"column": col.Name, "kind": art.Kind}).Debug("chart rendered")
	return s
}

func (d *Driver) renderer() ChartRenderer {
	if d.Renderer == nil {
		d.Renderer = chart.NewRenderer(chart.DefaultOptions())
	}
	return d.Renderer
}

// Generate builds, assembles and writes the report to dest. A failed write
// is returned as *ReportWriteError; chart failures only degrade their own
// section.
func (d *Driver) Generate(ctx context.Context, ds *dataset.Dataset, dest string) (*Report, error) {
	rep, err := d.Build(ctx, ds)
	if err != nil {
		return nil, err
	}
	asm := d.Assembler
	if asm == nil {
		asm = &Assembler{}
	}
	doc, err := asm.Assemble(rep)
	// Assemble releases charts section by section; this covers early exits.
	rep.Release()
	if err != nil {
		return nil, fmt.Errorf("assemble report: %w", err)
	}

	if err := writeFile(dest, doc.Bytes()); err != nil {
		return nil, err
	}
	entry := d.log().WithField("run_id", rep.RunID)
	entry.WithFields(logrus.Fields{"path": dest, "pages": doc.Pages}).Info("report written")

	if d.Markdown {
		var sb strings.Builder
		if err := WriteMarkdown(&sb, rep); err != nil {
			return nil, fmt.Errorf("render markdown: %w", err)
		}
		mdPath := MarkdownPath(dest)
		if err := writeFile(mdPath, []byte(sb.String())); err != nil {
			return nil, err
		}
		entry.WithField("path", mdPath).Info("markdown written")
	}
	return rep, nil
}

// MarkdownPath swaps the extension of a report path for .md.
func MarkdownPath(dest string) string {
	return strings.TrimSuffix(dest, filepath.Ext(dest)) + ".md"
}

func writeFile(path string, data []byte) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return &ReportWriteError{Path: path, Err: err}
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return &ReportWriteError{Path: path, Err: err}
	}
	return nil
}
