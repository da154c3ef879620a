package storage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"variantgen/internal/ddl"
	"variantgen/pkg/records"
)

// DefaultBatchSize is the number of rows per CopyFrom call.
const DefaultBatchSize = 500

// CatalogOptions controls WriteCatalog.
type CatalogOptions struct {
	Kind  string
	Table string
	// AutoCreate issues CREATE TABLE IF NOT EXISTS; an existing table keeps
	// its columns.
	AutoCreate bool
	// Truncate deletes existing rows first. It does not alter the schema, so
	// a workbook that adds attributes still needs a new or dropped table.
	Truncate  bool
	BatchSize int
}

// ColumnLister is implemented by backends that can report the columns of
// the destination table.
type ColumnLister interface {
	TableColumns(ctx context.Context) ([]string, error)
}

// MissingColumnsError reports catalog attributes the existing table lacks.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("storage: table %s has no column for %s; drop the table or write to a new one",
		e.Table, strings.Join(e.Columns, ", "))
}

// missingColumns compares names case-insensitively, as SQLite and MySQL do.
func missingColumns(have, want []string) []string {
	set := make(map[string]bool, len(have))
	for _, c := range have {
		set[strings.ToLower(c)] = true
	}
	var out []string
	for _, c := range want {
		if !set[strings.ToLower(c)] {
			out = append(out, c)
		}
	}
	return out
}

// Rows lays recs out as rows aligned to columns. Missing attributes are nil
// so they land as SQL NULL.
func Rows(recs []records.Record, columns []string) [][]any {
	out := make([][]any, len(recs))
	for i, r := range recs {
		row := make([]any, len(columns))
		for j, c := range columns {
			if v, ok := r.Get(c); ok {
				row[j] = v
			}
		}
		out[i] = row
	}
	return out
}

// WriteCatalog optionally creates and empties the destination table, then
// loads recs in batches. It returns the number of rows written.
func WriteCatalog(
	ctx context.Context,
	logger *zap.Logger,
	repo Repository,
	opt CatalogOptions,
	columns []string,
	recs []records.Record,
) (int64, error) {
	if len(columns) == 0 {
		return 0, nil
	}
	var d ddl.Dialect
	if opt.AutoCreate || opt.Truncate {
		var ok bool
		if d, ok = DialectFor(opt.Kind); !ok {
			return 0, fmt.Errorf("storage: no DDL dialect registered for kind %q", opt.Kind)
		}
	}
	if opt.AutoCreate {
		stmt, err := ddl.BuildCreateTableSQL(ddl.CatalogTable(opt.Table, columns, d), d)
		if err != nil {
			return 0, err
		}
		if err := repo.Exec(ctx, stmt); err != nil {
			return 0, fmt.Errorf("storage: create table: %w", err)
		}
	}

	// Checked before truncating so a failed rerun keeps the old rows.
	if cl, ok := repo.(ColumnLister); ok {
		have, err := cl.TableColumns(ctx)
		if err == nil {
			if miss := missingColumns(have, columns); len(miss) > 0 {
				return 0, &MissingColumnsError{Table: opt.Table, Columns: miss}
			}
		} else if logger != nil {
			// A missing table surfaces from the first insert.
			logger.Debug("storage: list columns", zap.String("table", opt.Table), zap.Error(err))
		}
	}

	if opt.Truncate {
		if err := repo.Exec(ctx, ddl.TruncateSQL(opt.Table, d)); err != nil {
			return 0, fmt.Errorf("storage: truncate: %w", err)
		}
	}

	size := opt.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	in := make(chan []any)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer close(in)
		for _, row := range Rows(recs, columns) {
			select {
			case in <- row:
			case <-ctx.Done():
				return
			}
		}
	}()
	return LoadBatches(ctx, logger, columns, in, size, repo.CopyFrom)
}
