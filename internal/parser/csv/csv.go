// Package csv loads workbooks stored as CSV files: a single CSV (one table),
// a zip archive of CSVs, or a directory of CSVs. Each CSV's first line is
// the header; blank cells become null cells.
//
// Table order matters for sheet-priority precedence:
//   - zip archives keep their entry order;
//   - directories follow the "sheet_order" option, then the remaining files
//     in lexical order.
package csv

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"

	"variantgen/internal/config"
	"variantgen/internal/parser"
	"variantgen/pkg/records"
)

func init() {
	parser.Register("csv", func(opt config.Options) parser.Loader { return NewLoader(opt) })
	parser.Register("csvzip", func(opt config.Options) parser.Loader { return NewZipLoader(opt) })
}

// Options configures CSV reading.
type Options struct {
	// Comma is the field delimiter; ',' when zero.
	Comma rune
	// LazyQuotes relaxes quote handling (csv.Reader.LazyQuotes).
	LazyQuotes bool
	// Table is shared table-building behavior.
	Table parser.TableOptions
}

// OptionsFrom reads comma, lazy_quotes and trim_space.
func OptionsFrom(o config.Options) Options {
	return Options{
		Comma:      o.Rune("comma", ','),
		LazyQuotes: o.Bool("lazy_quotes", false),
		Table:      parser.TableOptionsFrom(o),
	}
}

// ReadTable reads one CSV stream into a table called name. An empty stream
// yields a table without columns.
func ReadTable(name string, r io.Reader, opt Options) (*records.Table, error) {
	cr := csv.NewReader(r)
	if opt.Comma != 0 {
		cr.Comma = opt.Comma
	}
	cr.LazyQuotes = opt.LazyQuotes
	cr.FieldsPerRecord = -1 // ragged rows are padded by BuildTable

	header, err := cr.Read()
	if err == io.EOF {
		return parser.BuildTable(name, nil, nil, opt.Table), nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv %s: read header: %w", name, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	var rows [][]string
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv %s: line %d: %w", name, line, err)
		}
		rows = append(rows, row)
	}
	return parser.BuildTable(name, header, rows, opt.Table), nil
}

// Loader reads a single CSV as a one-table workbook. The table is named by
// the "table" option, "ID" by default, which makes a bare axis list usable
// on its own.
type Loader struct {
	opt   Options
	table string
}

// NewLoader builds a Loader from config options.
func NewLoader(o config.Options) *Loader {
	return &Loader{opt: OptionsFrom(o), table: o.String("table", "ID")}
}

// Load implements parser.Loader.
func (l *Loader) Load(ctx context.Context, src io.Reader) (*records.Workbook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := ReadTable(l.table, src, l.opt)
	if err != nil {
		return nil, err
	}
	return records.NewWorkbook(t), nil
}

// ZipLoader reads every .csv entry of a zip archive as one table, named by
// the entry's base name without extension, in archive order.
type ZipLoader struct{ opt Options }

// NewZipLoader builds a ZipLoader from config options.
func NewZipLoader(o config.Options) *ZipLoader { return &ZipLoader{opt: OptionsFrom(o)} }

// Load implements parser.Loader. The archive is buffered in memory since
// zip needs random access.
func (l *ZipLoader) Load(ctx context.Context, src io.Reader) (*records.Workbook, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("csvzip: read: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("csvzip: %w", err)
	}

	wb := records.NewWorkbook()
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") || !isCSV(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("csvzip: open %s: %w", f.Name, err)
		}
		t, err := ReadTable(tableName(f.Name), rc, l.opt)
		rc.Close()
		if err != nil {
			return nil, err
		}
		wb.Add(t)
	}
	return wb, nil
}

// LoadDir reads every CSV file at the top level of fsys. Files named in the
// "sheet_order" option (by table name) come first, in that order; the rest
// follow lexically.
func LoadDir(ctx context.Context, fsys fs.FS, o config.Options) (*records.Workbook, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("csv dir: %w", err)
	}

	files := map[string]string{} // table name -> file name
	var names []string
	for _, e := range entries {
		if e.IsDir() || !isCSV(e.Name()) {
			continue
		}
		n := tableName(e.Name())
		if _, dup := files[n]; dup {
			return nil, fmt.Errorf("csv dir: two files map to table %q", n)
		}
		files[n] = e.Name()
		names = append(names, n)
	}
	sort.Strings(names)

	ordered := make([]string, 0, len(names))
	placed := map[string]bool{}
	for _, n := range o.StringSlice("sheet_order") {
		if _, ok := files[n]; ok && !placed[n] {
			ordered = append(ordered, n)
			placed[n] = true
		}
	}
	for _, n := range names {
		if !placed[n] {
			ordered = append(ordered, n)
		}
	}

	opt := OptionsFrom(o)
	wb := records.NewWorkbook()
	for _, n := range ordered {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := fsys.Open(files[n])
		if err != nil {
			return nil, fmt.Errorf("csv dir: %w", err)
		}
		t, err := ReadTable(n, f, opt)
		f.Close()
		if err != nil {
			return nil, err
		}
		wb.Add(t)
	}
	return wb, nil
}

func isCSV(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}

func tableName(name string) string {
	base := path.Base(name)
	return strings.TrimSuffix(base, path.Ext(base))
}
