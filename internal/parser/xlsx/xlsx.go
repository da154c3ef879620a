// Package xlsx loads Excel workbooks with excelize. Every worksheet becomes
// one table, in workbook tab order; the first row of a sheet is its header.
package xlsx

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"variantgen/internal/config"
	"variantgen/internal/parser"
	"variantgen/pkg/records"
)

func init() {
	parser.Register("xlsx", func(opt config.Options) parser.Loader { return NewLoader(opt) })
}

// Loader reads .xlsx/.xlsm files.
type Loader struct {
	table parser.TableOptions
	// raw reads unformatted cell values (e.g. 0.5 instead of "50%").
	raw bool
}

// NewLoader builds a Loader. Options: trim_space (bool), raw_values (bool).
func NewLoader(o config.Options) *Loader {
	return &Loader{
		table: parser.TableOptionsFrom(o),
		raw:   o.Bool("raw_values", false),
	}
}

// Load implements parser.Loader.
func (l *Loader) Load(ctx context.Context, src io.Reader) (*records.Workbook, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open: %w", err)
	}
	defer f.Close()

	wb := records.NewWorkbook()
	for _, sheet := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: l.raw})
		if err != nil {
			return nil, fmt.Errorf("xlsx: sheet %q: %w", sheet, err)
		}

		var header []string
		if len(rows) > 0 {
			header, rows = rows[0], rows[1:]
		}
		wb.Add(parser.BuildTable(sheet, header, rows, l.table))
	}
	return wb, nil
}
