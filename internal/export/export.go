// Package export renders a generated catalog as JSON or CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"variantgen/pkg/records"
)

// Download names offered by the web layer.
const (
	JSONFilename = "bicycle_configurations.json"
	CSVFilename  = "bicycle_configurations.csv"
)

// JSON renders recs as an indented array of objects. Keys follow columns;
// attributes a record does not carry are omitted rather than nulled. Text
// is written as UTF-8 without HTML escaping.
func JSON(recs []records.Record, columns []string) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('[')
	for i, r := range recs {
		if i > 0 {
			compact.WriteByte(',')
		}
		b, err := r.MarshalOrderedJSON(columns)
		if err != nil {
			return nil, fmt.Errorf("export json: record %d: %w", i, err)
		}
		compact.Write(b)
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "    "); err != nil {
		return nil, fmt.Errorf("export json: %w", err)
	}
	return out.Bytes(), nil
}

// CSVOptions configures CSV rendering.
type CSVOptions struct {
	// Comma is the delimiter; ',' when zero.
	Comma rune
}

// WriteCSV writes a header of columns and one row per record. Missing
// attributes become empty cells.
func WriteCSV(w io.Writer, recs []records.Record, columns []string, opt CSVOptions) error {
	cw := csv.NewWriter(w)
	if opt.Comma != 0 {
		cw.Comma = opt.Comma
	}
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("export csv: header: %w", err)
	}
	row := make([]string, len(columns))
	for i, r := range recs {
		for j, c := range columns {
			row[j] = r.Value(c)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export csv: row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV is WriteCSV into a byte slice.
func CSV(recs []records.Record, columns []string, opt CSVOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, recs, columns, opt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Digest fingerprints rendered output so repeated runs can be compared.
func Digest(b []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(b))
}

// WriteFile writes b to path, creating parent directories. The bytes go to
// a temp file in the same directory first, so readers never see a partial
// file and concurrent writers do not share one.
func WriteFile(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: mkdir %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	tmp := f.Name()
	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("export: chmod %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("export: rename %s: %w", path, err)
	}
	return nil
}
