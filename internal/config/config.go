package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// AppName names the configuration directory.
const AppName = "datasummary"

// Global configuration structure.
type Global struct {
	// OutputDir receives generated reports; defaults to the user's
	// downloads directory.
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`

	// Chart rendering
	HistogramBins int `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	TopCategories int `mapstructure:"top_categories" yaml:"top_categories"`
	ChartWidth    int `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight   int `mapstructure:"chart_height" yaml:"chart_height"`

	PageSize string `mapstructure:"page_size" yaml:"page_size"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	Markdown bool   `mapstructure:"markdown" yaml:"markdown"`
}

// Keys lists the settable keys in display order.
var Keys = []string{
	"output_dir", "concurrency", "histogram_bins", "top_categories",
	"chart_width", "chart_height", "page_size", "log_level", "markdown",
}

var pageSizes = map[string]string{
	"a3": "A3", "a4": "A4", "a5": "A5", "letter": "Letter", "legal": "Legal",
}

// Dir is the configuration directory under XDG_CONFIG_HOME.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DefaultPath is the config file used when no --config flag is given.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultOutputDir is the user's downloads directory, falling back to
// ~/Downloads.
func DefaultOutputDir() string {
	if d := xdg.UserDirs.Download; d != "" {
		return d
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Downloads")
	}
	return "."
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to DefaultPath(), creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults; command flags are applied by
// the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATASUMMARY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("output_dir", "")
	v.SetDefault("concurrency", 1)
	v.SetDefault("histogram_bins", 15)
	v.SetDefault("top_categories", 6)
	v.SetDefault("chart_width", 600)
	v.SetDefault("chart_height", 500)
	v.SetDefault("page_size", "A4")
	v.SetDefault("log_level", "info")
	v.SetDefault("markdown", false)

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// isNotFound treats a missing config file as empty.
func isNotFound(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.Is(err, fs.ErrNotExist) || errors.As(err, &nf)
}

// Validate checks ranges and normalizes the page size name.
func (c *Global) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.HistogramBins < 1 {
		return fmt.Errorf("histogram_bins must be positive, got %d", c.HistogramBins)
	}
	if c.TopCategories < 1 {
		return fmt.Errorf("top_categories must be positive, got %d", c.TopCategories)
	}
	if c.ChartWidth < 100 || c.ChartHeight < 100 {
		return fmt.Errorf("chart size %dx%d is too small (minimum 100x100)", c.ChartWidth, c.ChartHeight)
	}
	name, ok := pageSizes[strings.ToLower(c.PageSize)]
	if !ok {
		return fmt.Errorf("invalid page_size: %s (use A3, A4, A5, Letter or Legal)", c.PageSize)
	}
	c.PageSize = name
	return nil
}

// Set assigns one key from its string form.
func (c *Global) Set(key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int for %s: %v", key, val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "output_dir":
		c.OutputDir = val
	case "concurrency":
		c.Concurrency, err = atoi()
	case "histogram_bins":
		c.HistogramBins, err = atoi()
	case "top_categories":
		c.TopCategories, err = atoi()
	case "chart_width":
		c.ChartWidth, err = atoi()
	case "chart_height":
		c.ChartHeight, err = atoi()
	case "page_size":
		c.PageSize = val
	case "log_level":
		c.LogLevel = val
	case "markdown":
		b, perr := strconv.ParseBool(val)
		if perr != nil {
			return fmt.Errorf("invalid bool for markdown: %v", val)
		}
		c.Markdown = b
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	if err != nil {
		return err
	}
	return c.Validate()
}

// Get returns the string form of one key.
func (c *Global) Get(key string) (string, error) {
	switch key {
	case "output_dir":
		return c.OutputDir, nil
	case "concurrency":
		return strconv.Itoa(c.Concurrency), nil
	case "histogram_bins":
		return strconv.Itoa(c.HistogramBins), nil
	case "top_categories":
		return strconv.Itoa(c.TopCategories), nil
	case "chart_width":
		return strconv.Itoa(c.ChartWidth), nil
	case "chart_height":
		return strconv.Itoa(c.ChartHeight), nil
	case "page_size":
		return c.PageSize, nil
	case "log_level":
		return c.LogLevel, nil
	case "markdown":
		return strconv.FormatBool(c.Markdown), nil
	}
	return "", fmt.Errorf("unknown key: %s", key)
}
