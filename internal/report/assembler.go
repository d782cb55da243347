package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/KaramelBytes/datasummary-cli/internal/analysis"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

const (
	bottomMargin = 15.0
	headerHeight = 10.0
	lineHeight   = 7.0
	// chartScale is the chart width as a share of the usable page width.
	chartScale = 0.75

	intro = "This report presents a detailed summary of each column's data in the input file, " +
		"including counts, unique values, descriptive statistics, and visualizations."
)

// Document is an assembled PDF.
type Document struct {
	Pages int
	data  []byte
}

// Bytes returns the encoded PDF.
func (d *Document) Bytes() []byte { return d.data }

// WriteTo writes the encoded PDF to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d.data)
	return int64(n), err
}

// Assembler lays a Report out as a paginated PDF. The zero value produces
// compressed A4 pages stamped with the report's creation time.
type Assembler struct {
	// PageSize is an fpdf size name such as "A4" or "Letter".
	PageSize string
	// Created overrides the report's timestamp in the document metadata.
	Created time.Time
	// Uncompressed leaves page streams readable.
	Uncompressed bool
}

// Assemble renders every section in order and releases each section's chart
// once it has been placed, whether or not placement succeeded. A chart image
// that cannot be embedded is recorded on its section's ChartErr.
func (a *Assembler) Assemble(rep *Report) (*Document, error) {
	size := a.PageSize
	if size == "" {
		size = "A4"
	}
	pdf := fpdf.New("P", "mm", size, "")
	pdf.SetCompression(!a.Uncompressed)
	pdf.SetTitle(rep.Title, true)
	pdf.SetCreator("datasummary", false)
	created := a.Created
	if created.IsZero() {
		created = rep.Created
	}
	if !created.IsZero() {
		pdf.SetCreationDate(created)
		pdf.SetModificationDate(created)
	}
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, headerHeight, latin1("Data Summary Report - "+rep.Title), "", 1, "C", false, 0, "")
	pdf.Ln(5)
	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 8, intro, "", "", false)
	pdf.Ln(10)

	for i := range rep.Sections {
		a.section(pdf, &rep.Sections[i])
	}
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}
	return &Document{Pages: pdf.PageNo(), data: buf.Bytes()}, nil
}

func (a *Assembler) section(pdf *fpdf.Fpdf, s *Section) {
	defer s.Chart.Release()

	// keep the header with its first statistic line
	_, pageH := pdf.GetPageSize()
	if pdf.GetY()+headerHeight+lineHeight > pageH-bottomMargin {
		pdf.AddPage()
	}
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, headerHeight, latin1("Column: "+s.Column), "", 1, "", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	for _, row := range StatRows(s.Stats) {
		pdf.CellFormat(0, lineHeight, latin1(row.Label+": "+row.Value), "", 1, "", false, 0, "")
	}
	pdf.Ln(3)

	if s.Chart == nil || s.Chart.Path == "" {
		a.failureNote(pdf, s.FailureNote())
		return
	}
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	w := (pageW - left - right) * chartScale
	opt := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptions(s.Chart.Path, opt)
	if err := pdf.Error(); err != nil {
		pdf.ClearError()
		s.ChartErr = fmt.Errorf("load chart image: %w", err)
		a.failureNote(pdf, s.FailureNote())
		return
	}
	pdf.ImageOptions(s.Chart.Path, -1, 0, w, 0, true, opt, 0, "")
	pdf.Ln(15)
}

func (a *Assembler) failureNote(pdf *fpdf.Fpdf, cause string) {
	pdf.CellFormat(0, lineHeight, latin1("[Could not generate chart: "+cause+"]"), "", 1, "", false, 0, "")
	pdf.Ln(5)
}

// StatRow is one labelled statistic line.
type StatRow struct {
	Label string
	Value string
}

// StatRows lists the statistics of a column in display order.
func StatRows(st analysis.ColumnStatistics) []StatRow {
	rows := []StatRow{
		{"Data type", st.TypeLabel},
		{"Non-null count", fmt.Sprintf("%d (%s)", st.NonNull, percent(st.NonNullPct()))},
		{"Missing values", fmt.Sprintf("%d (%s)", st.Missing, percent(st.MissingPct))},
		{"Unique values", fmt.Sprintf("%d", st.Unique)},
	}
	if n := st.Numeric; n != nil {
		rows = append(rows,
			StatRow{"Min", decimal(n.Min)},
			StatRow{"Max", decimal(n.Max)},
			StatRow{"Mean", decimal(n.Mean)},
			StatRow{"Median", decimal(n.Median)},
			StatRow{"Std Dev", decimal(n.Std)},
		)
	}
	if st.Mode != nil {
		rows = append(rows, StatRow{"Most frequent value", fmt.Sprintf("%s (Count: %d)", st.Mode.Value.Text(), st.Mode.Count)})
	}
	return rows
}

func decimal(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

func percent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", v)
}

// latin1 maps s onto Windows-1252 for the single-byte core fonts; runes
// outside the code page become '?'.
func latin1(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x80 {
			b.WriteByte(byte(r))
			continue
		}
		if c, ok := charmap.Windows1252.EncodeRune(r); ok {
			b.WriteByte(c)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}
