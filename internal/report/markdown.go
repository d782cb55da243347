package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/datasummary-cli/internal/chart"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// WriteMarkdown writes rep as a Markdown document: one statistics table per
// column, a mermaid pie for categorical columns and a bin table for
// histograms. It reads the plotted data only, so it works after the chart
// images have been released.
func WriteMarkdown(w io.Writer, rep *Report) error {
	md := markdown.NewMarkdown(w)
	md.H1("Data Summary Report - " + rep.Title)
	md.PlainText("")
	md.PlainText(intro)
	md.PlainText("")

	for i := range rep.Sections {
		writeSectionMarkdown(md, &rep.Sections[i])
	}

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated %s, run `%s`*", rep.Created.Format("2006-01-02 15:04:05 MST"), rep.RunID)
	return md.Build()
}

func writeSectionMarkdown(md *markdown.Markdown, s *Section) {
	md.H2("Column: " + s.Column)
	md.PlainText("")

	stats := StatRows(s.Stats)
	rows := make([][]string, len(stats))
	for i, r := range stats {
		rows[i] = []string{r.Label, cell(r.Value)}
	}
	md.Table(markdown.TableSet{Header: []string{"Statistic", "Value"}, Rows: rows})
	md.PlainText("")

	switch {
	case s.Chart == nil || s.ChartErr != nil:
		md.Warningf("Could not generate chart: %s", s.FailureNote())
	case s.Chart.Kind == chart.KindHistogram:
		binRows := make([][]string, len(s.Chart.Bins))
		for i, b := range s.Chart.Bins {
			binRows[i] = []string{
				fmt.Sprintf("%s to %s", formatEdge(b.Lo), formatEdge(b.Hi)),
				strconv.Itoa(b.Count),
			}
		}
		md.Table(markdown.TableSet{Header: []string{"Bin", "Frequency"}, Rows: binRows})
	default:
		pie := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Value Distribution of "+s.Column),
			piechart.WithShowData(true),
		)
		for _, sl := range s.Chart.Slices {
			pie.LabelAndIntValue(sl.Label, uint64(sl.Count))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, pie.String())
	}
	md.PlainText("")
}

func formatEdge(v float64) string {
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// cell escapes the table separator.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
