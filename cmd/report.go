package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/datasummary-cli/internal/chart"
	cfgpkg "github.com/KaramelBytes/datasummary-cli/internal/config"
	"github.com/KaramelBytes/datasummary-cli/internal/dataset"
	"github.com/KaramelBytes/datasummary-cli/internal/report"
	"github.com/KaramelBytes/datasummary-cli/internal/utils"
	"github.com/spf13/cobra"
)

// reportSuffix is appended to the input's base name to form the PDF name.
const reportSuffix = "_Data_Summary_Report.pdf"

var (
	repOutput      string
	repOutputDir   string
	repMarkdown    bool
	repConcurrency int
	repDelimiter   string
	repDecimal     string
	repThousands   string
	repSheetName   string
	repSheetIndex  int
	repMaxRows     int
)

var reportCmd = &cobra.Command{
	Use:   "report [file]",
	Short: "Generate a PDF summary of every column in a CSV/TSV/XLSX file",
	Long: `Generate a PDF report with one section per column: data type, counts,
descriptive statistics and a chart. Numeric columns get a histogram, other
columns a pie chart of their most frequent values.

When no file is given the path is read from standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	c, err := currentConfig()
	if err != nil {
		return err
	}
	opt, err := loadOptions()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	outDir := c.OutputDir
	if repOutputDir != "" {
		outDir = repOutputDir
	}
	if repOutput == "" {
		fmt.Fprintf(out, "Reports will be saved to: %s\n", outDir)
	}

	var path string
	if len(args) == 1 {
		path = utils.CleanInputPath(args[0])
	} else {
		path, err = promptPath(cmd.InOrStdin(), out)
		if err != nil {
			return err
		}
	}

	ds, err := dataset.Load(path, opt)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Loaded %s (%d rows)\n", path, ds.Rows)
	fmt.Fprintf(out, "  Columns: %s\n", strings.Join(ds.ColumnNames(), ", "))

	dest := repOutput
	if dest == "" {
		dest = filepath.Join(outDir, utils.BaseName(path)+reportSuffix)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	driver := newDriver(cmd, c)
	rep, err := driver.Generate(ctx, ds, dest)
	if err != nil {
		var we *report.ReportWriteError
		if errors.As(err, &we) || errors.Is(err, context.Canceled) {
			return err
		}
		return &generationError{err: fmt.Errorf("generate report: %w", err)}
	}

	failed := 0
	for _, s := range rep.Sections {
		if s.ChartErr != nil {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(out, "⚠ %d of %d charts could not be generated (noted in the report)\n", failed, len(rep.Sections))
	}
	fmt.Fprintf(out, "✓ PDF report generated successfully at:\n%s\n", dest)
	if driver.Markdown {
		fmt.Fprintf(out, "✓ Markdown summary written to %s\n", report.MarkdownPath(dest))
	}
	return nil
}

func newDriver(cmd *cobra.Command, c *cfgpkg.Global) *report.Driver {
	d := report.NewDriver(logger)
	d.Renderer = chart.NewRenderer(chart.Options{
		Bins:   c.HistogramBins,
		TopN:   c.TopCategories,
		Width:  c.ChartWidth,
		Height: c.ChartHeight,
	})
	d.Assembler = &report.Assembler{PageSize: c.PageSize}
	d.Concurrency = c.Concurrency
	d.Markdown = c.Markdown
	f := cmd.Flags()
	if f.Changed("concurrency") && repConcurrency > 0 {
		d.Concurrency = repConcurrency
	}
	if f.Changed("markdown") {
		d.Markdown = repMarkdown
	}
	return d
}

// promptPath asks for the input file on in.
func promptPath(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Enter full path of CSV or Excel file: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input path: %w", err)
	}
	path := utils.CleanInputPath(line)
	if path == "" {
		return "", errors.New("no input file given")
	}
	return path, nil
}

func loadOptions() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	if repMaxRows > 0 {
		opt.MaxRows = repMaxRows
	}
	if repSheetIndex > 0 {
		opt.SheetIndex = repSheetIndex
	}
	opt.SheetName = repSheetName
	switch repDelimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", repDelimiter)
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(repDecimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot", "":
		opt.DecimalSeparator = '.'
	case "auto":
		opt.DecimalSeparator = 0
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma'|'auto')", repDecimal)
	}
	switch strings.ToLower(repThousands) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", repThousands)
	}
	if opt.ThousandsSeparator != 0 && opt.ThousandsSeparator == opt.DecimalSeparator {
		return opt, errors.New("--thousands and --decimal must differ")
	}
	return opt, nil
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "write the PDF to this path instead of the output directory")
	reportCmd.Flags().StringVar(&repOutputDir, "output-dir", "", "directory for generated reports (overrides config)")
	reportCmd.Flags().BoolVar(&repMarkdown, "markdown", false, "also write a Markdown summary next to the PDF")
	reportCmd.Flags().IntVar(&repConcurrency, "concurrency", 0, "columns processed in parallel (overrides config)")
	reportCmd.Flags().StringVar(&repDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | '|' | 'tab' (default from extension)")
	reportCmd.Flags().StringVar(&repDecimal, "decimal", "", "decimal separator for numbers: '.'|'comma'|'auto'")
	reportCmd.Flags().StringVar(&repThousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space'")
	reportCmd.Flags().StringVar(&repSheetName, "sheet-name", "", "XLSX: sheet name to summarize")
	reportCmd.Flags().IntVar(&repSheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	reportCmd.Flags().IntVar(&repMaxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
}
