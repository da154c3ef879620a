// Package parser turns spreadsheet-like files into a records.Workbook.
//
// Concrete loaders live in subpackages (xlsx, csv, json) and register
// themselves by kind at init time; import variantgen/internal/parser/all to
// enable every built-in loader. All loaders share the table-building rules in
// this package so that sheet order, column order and blank-cell handling are
// identical regardless of the file format.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"variantgen/internal/config"
	"variantgen/pkg/records"
)

// ErrUnknownKind is returned by New for an unregistered loader kind.
var ErrUnknownKind = errors.New("unknown parser kind")

// Loader reads a whole workbook from src. Tables must come back in source
// order with their columns in source order.
type Loader interface {
	Load(ctx context.Context, src io.Reader) (*records.Workbook, error)
}

// Factory builds a Loader from free-form options.
type Factory func(opt config.Options) Loader

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New returns the loader registered for kind.
func New(kind string, opt config.Options) (Loader, error) {
	mu.RLock()
	f, ok := factories[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q (registered: %s)", ErrUnknownKind, kind, strings.Join(Kinds(), ", "))
	}
	if opt == nil {
		opt = config.Options{}
	}
	return f(opt), nil
}

// Kinds lists the registered loader kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// KindForPath guesses the loader kind from a file name. It returns "" when
// the extension is not recognized.
func KindForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return "xlsx"
	case ".zip":
		return "csvzip"
	case ".json":
		return "json"
	case ".csv", ".tsv", ".txt":
		return "csv"
	default:
		return ""
	}
}

// TableOptions controls how raw string rows become a records.Table.
type TableOptions struct {
	// TrimSpace trims surrounding whitespace from every cell before the
	// blank check.
	TrimSpace bool
	// StripMarkup drops <...> tags pasted into cells from web pages.
	StripMarkup bool
	// CollapseSpace folds whitespace runs (line breaks included) into one
	// space and trims the ends.
	CollapseSpace bool
}

// TableOptionsFrom reads the shared option keys.
func TableOptionsFrom(opt config.Options) TableOptions {
	return TableOptions{
		TrimSpace:     opt.Bool("trim_space", false),
		StripMarkup:   opt.Bool("strip_markup", false),
		CollapseSpace: opt.Bool("collapse_space", false),
	}
}

func (o TableOptions) clean(v string) string {
	if o.StripMarkup {
		v = StripMarkup(v)
	}
	if o.CollapseSpace {
		v = CollapseSpace(v)
	}
	if o.TrimSpace {
		v = strings.TrimSpace(v)
	}
	return v
}

// BuildTable converts a header row plus data rows into a Table.
//
//   - Blank header cells are named "Unnamed: N" (N is the zero-based
//     column index); repeated names get ".1", ".2", ... suffixes.
//   - Empty cells become records.Null.
//   - Rows wider than the header extend it with unnamed columns.
//   - Unnamed columns with no values at all are dropped.
func BuildTable(name string, header []string, rows [][]string, opt TableOptions) *records.Table {
	cells := make([][]records.Cell, len(rows))
	for i, r := range rows {
		row := make([]records.Cell, len(r))
		for c, v := range r {
			if v != "" {
				row[c] = records.Text(v)
			}
		}
		cells[i] = row
	}
	return BuildCells(name, header, cells, opt)
}

// BuildCells is BuildTable for formats that tell a blank cell from an empty
// string. A valid "" stays valid; a valid cell that cleaning empties becomes
// records.Null.
func BuildCells(name string, header []string, rows [][]records.Cell, opt TableOptions) *records.Table {
	width := len(header)
	for _, r := range rows {
		width = max(width, len(r))
	}

	raw := make([]string, width)
	copy(raw, header)
	cols := NormalizeHeaders(raw)

	cells := make([][]records.Cell, len(rows))
	used := make([]bool, width)
	for i, r := range rows {
		row := make([]records.Cell, width)
		for c, cell := range r {
			if !cell.Valid {
				continue
			}
			if v := opt.clean(cell.Value); v != "" || cell.Value == "" {
				row[c] = records.Text(v)
				used[c] = true
			}
		}
		cells[i] = row
	}

	keep := make([]int, 0, width)
	for c := 0; c < width; c++ {
		if strings.TrimSpace(raw[c]) == "" && !used[c] {
			continue
		}
		keep = append(keep, c)
	}

	t := &records.Table{Name: name, Columns: make([]string, len(keep)), Rows: make([][]records.Cell, len(cells))}
	for j, c := range keep {
		t.Columns[j] = cols[c]
	}
	for i, row := range cells {
		if len(keep) == width {
			t.Rows[i] = row
			continue
		}
		out := make([]records.Cell, len(keep))
		for j, c := range keep {
			out[j] = row[c]
		}
		t.Rows[i] = out
	}
	return t
}

// NormalizeHeaders names blank headers and disambiguates duplicates.
func NormalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
	}

	used := make(map[string]bool, len(out))
	next := map[string]int{}
	for i, h := range out {
		name := h
		for used[name] {
			next[h]++
			name = fmt.Sprintf("%s.%d", h, next[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}
