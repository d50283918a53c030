package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tablescope/internal/dataset"
)

// Loader turns the raw bytes of one tabular file format into a Dataset.
type Loader interface {
	CanLoad(filename string) bool
	Load(content []byte, opt Options) (*dataset.Dataset, error)
}

// Options controls how delimited and spreadsheet sources are typed.
type Options struct {
	// Delimiter for delimited text. If 0, sniffed from the extension and header line.
	Delimiter rune
	// DecimalSeparator and ThousandsSeparator apply to numeric detection in text
	// sources. Zero means '.' and no thousands separator.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Sheet selects the XLSX worksheet; empty means the first sheet.
	Sheet string
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

// ErrUnsupported indicates no registered loader accepts the file name.
var ErrUnsupported = errors.New("unsupported file format")

// LoadError wraps any failure to read or parse an input file.
type LoadError struct {
	File string
	Err  error
}

func (e *LoadError) Error() string {
	if e.File == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Supported reports whether some registered loader accepts the file name.
func Supported(filename string) bool {
	return pick(filename) != nil
}

// Extensions lists the accepted file extensions, for help text and upload forms.
func Extensions() []string {
	return []string{".csv", ".tsv", ".txt", ".parquet", ".pq", ".xlsx"}
}

func pick(filename string) Loader {
	for _, l := range registry {
		if l.CanLoad(filename) {
			return l
		}
	}
	return nil
}

// Load selects a loader by file name and parses content into a validated Dataset.
func Load(filename string, content []byte, opt Options) (*dataset.Dataset, error) {
	base := filepath.Base(filename)
	l := pick(filename)
	if l == nil {
		ext := strings.ToLower(filepath.Ext(filename))
		if ext == "" {
			ext = "(none)"
		}
		return nil, &LoadError{File: base, Err: fmt.Errorf("%w: extension %s", ErrUnsupported, ext)}
	}
	ds, err := l.Load(content, opt)
	if err != nil {
		return nil, &LoadError{File: base, Err: err}
	}
	ds.Name = base
	if err := ds.Validate(); err != nil {
		return nil, &LoadError{File: base, Err: err}
	}
	return ds, nil
}

// LoadFile reads a file from disk and loads it.
func LoadFile(path string, opt Options) (*dataset.Dataset, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: filepath.Base(path), Err: fmt.Errorf("read file: %w", err)}
	}
	return Load(path, content, opt)
}

func hasSuffix(filename string, exts ...string) bool {
	name := strings.ToLower(filename)
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func init() {
	Register(csvLoader{})
	Register(parquetLoader{})
	Register(xlsxLoader{})
}
