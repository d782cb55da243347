package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrFileNotFound indicates the input path does not name a regular file.
	ErrFileNotFound = errors.New("file does not exist")
	// ErrUnsupportedFormat indicates the input extension has no reader.
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// Options controls how tabular files are read.
type Options struct {
	// Delimiter for CSV. If 0, picked from the extension (',' or '\t').
	Delimiter rune
	// DecimalSeparator for numbers. If 0, auto-detect per value.
	DecimalSeparator rune
	// ThousandsSeparator is stripped from numbers when set.
	ThousandsSeparator rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
	// SheetName selects an XLSX sheet; empty means SheetIndex.
	SheetName string
	// SheetIndex is the 1-based XLSX sheet used when SheetName is empty.
	SheetIndex int
}

// DefaultOptions reads numbers with a '.' decimal point and no grouping.
func DefaultOptions() Options {
	return Options{
		DecimalSeparator: '.',
		SheetIndex:       1,
	}
}

// Reader loads one tabular format.
type Reader interface {
	CanRead(filename string) bool
	Read(path string, opt Options) (*Dataset, error)
}

var registry []Reader

// Register adds a reader to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
}

// Load reads the dataset at path with the reader matching its extension.
func Load(path string, opt Options) (*Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path, opt)
		}
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xls" {
		return nil, fmt.Errorf("%w: legacy %s workbooks are not supported, save as .xlsx", ErrUnsupportedFormat, ext)
	}
	return nil, fmt.Errorf("%w: %q (use one of %s)", ErrUnsupportedFormat, ext, strings.Join(SupportedExtensions(), ", "))
}

// SupportedExtensions lists the extensions Load accepts.
func SupportedExtensions() []string {
	return []string{".csv", ".tsv", ".xlsx"}
}
