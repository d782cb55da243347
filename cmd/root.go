package cmd

import (
	"errors"
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/datasummary-cli/internal/config"
	"github.com/KaramelBytes/datasummary-cli/internal/logging"
	"github.com/KaramelBytes/datasummary-cli/internal/report"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration and logger
	cfg    *cfgpkg.Global
	cfgErr error
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "datasummary",
	Short: "datasummary: per-column PDF summaries of tabular data",
	Long: `datasummary reads a CSV, TSV or XLSX file and writes a PDF report with one
section per column: its statistics and a histogram or category chart.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// generationError marks a failure after the input was loaded.
type generationError struct{ err error }

func (e *generationError) Error() string { return e.err.Error() }
func (e *generationError) Unwrap() error { return e.err }

// exitCode is 2 when the report could not be produced or written and 1 for
// every other failure.
func exitCode(err error) int {
	var we *report.ReportWriteError
	var ge *generationError
	if errors.As(err, &we) || errors.As(err, &ge) {
		return 2
	}
	return 1
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/datasummary/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	cfg, cfgErr = cfgpkg.Load(cfgFile)
	level := "info"
	if cfgErr != nil {
		// Non-fatal: commands that need config report it themselves
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", cfgErr)
	} else if cfg.LogLevel != "" {
		level = cfg.LogLevel
	}
	if debug {
		level = "debug"
	}
	var ok bool
	logger, ok = logging.New(level, os.Stderr)
	if !ok {
		fmt.Fprintf(os.Stderr, "⚠ Warning: unknown log level %q, using info\n", level)
	}
}

// currentConfig returns the loaded configuration or the reason it is missing.
func currentConfig() (*cfgpkg.Global, error) {
	if cfg == nil {
		if cfgErr != nil {
			return nil, fmt.Errorf("load config: %w", cfgErr)
		}
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = c
	}
	return cfg, nil
}
