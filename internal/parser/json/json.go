// Package json loads workbooks serialized as JSON:
//
//	{"sheets": [
//	  {"name": "ID", "columns": ["Type", "Color"], "rows": [["Road", "Red"], ["MTB", null]]},
//	  {"name": "GENERAL", "columns": ["Manufacturer"], "rows": [["Acme"]]}
//	]}
//
// A bare top-level array of sheets is accepted too. Sheets keep their array
// order. Cells may be strings, numbers (kept as written), booleans or null.
// null is a blank cell; "" is a valid empty string.
package json

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"variantgen/internal/config"
	"variantgen/internal/parser"
	"variantgen/pkg/records"
)

func init() {
	parser.Register("json", func(opt config.Options) parser.Loader { return NewLoader(opt) })
}

// Sheet is the wire form of one table.
type Sheet struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type document struct {
	Sheets []Sheet `json:"sheets"`
}

// Loader reads JSON workbooks.
type Loader struct{ table parser.TableOptions }

// NewLoader builds a Loader. Options: trim_space (bool).
func NewLoader(o config.Options) *Loader {
	return &Loader{table: parser.TableOptionsFrom(o)}
}

// Load implements parser.Loader.
func (l *Loader) Load(ctx context.Context, src io.Reader) (*records.Workbook, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("json parser: read: %w", err)
	}

	var sheets []Sheet
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = decode(trimmed, &sheets)
	} else {
		var doc document
		err = decode(trimmed, &doc)
		sheets = doc.Sheets
	}
	if err != nil {
		return nil, fmt.Errorf("json parser: decode: %w", err)
	}

	wb := records.NewWorkbook()
	for i, s := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Name == "" {
			return nil, fmt.Errorf("json parser: sheet %d has no name", i)
		}
		rows := make([][]records.Cell, len(s.Rows))
		for r, row := range s.Rows {
			rows[r] = make([]records.Cell, len(row))
			for c, v := range row {
				cell, err := toCell(v)
				if err != nil {
					return nil, fmt.Errorf("json parser: sheet %q row %d col %d: %w", s.Name, r, c, err)
				}
				rows[r][c] = cell
			}
		}
		wb.Add(parser.BuildCells(s.Name, s.Columns, rows, l.table))
	}
	return wb, nil
}

func decode(b []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(v)
}

// toCell maps a decoded JSON scalar to a cell.
func toCell(v any) (records.Cell, error) {
	switch x := v.(type) {
	case nil:
		return records.Null, nil
	case string:
		return records.Text(x), nil
	case json.Number:
		return records.Text(x.String()), nil
	case bool:
		return records.Text(strconv.FormatBool(x)), nil
	default:
		return records.Null, fmt.Errorf("unsupported cell type %T", v)
	}
}
