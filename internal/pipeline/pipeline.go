// Package pipeline runs a variant-generation job end to end: read the
// workbook, check its size, expand it, then export and store the catalog.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"variantgen/internal/config"
	"variantgen/internal/datasource"
	"variantgen/internal/export"
	"variantgen/internal/generator"
	"variantgen/internal/metrics"
	"variantgen/internal/storage"
	"variantgen/internal/view"
	"variantgen/pkg/records"
)

// ErrLimitExceeded is returned when a workbook would produce more variants
// than the job allows.
var ErrLimitExceeded = errors.New("variant limit exceeded")

// Step names used in logs and metrics.
const (
	StepLoad     = "load"
	StepGenerate = "generate"
	StepExport   = "export"
	StepStore    = "store"
)

// newRepositoryFn is swapped out by tests.
var newRepositoryFn = storage.New

// Result is the outcome of one run.
type Result struct {
	RunID    string
	Job      string
	Source   string
	Sheets   []string
	Records  []records.Record
	Columns  []string
	Digest   string // xxh3 of the JSON rendering
	Stored   int64
	Duration time.Duration
}

// Empty reports whether the run produced no variants, which usually means
// an axis in the ID sheet has no values.
func (r *Result) Empty() bool { return len(r.Records) == 0 }

// Run executes job, reading its configured source.
func Run(ctx context.Context, job config.Job, logger *zap.Logger) (*Result, error) {
	src, err := openSource(job.Source)
	if err != nil {
		return nil, err
	}
	return RunSource(ctx, job, src, logger)
}

// RunSource executes job against an explicit source, ignoring job.Source.
// The web layer uses it for uploads.
func RunSource(ctx context.Context, job config.Job, src datasource.Source, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Job: job.Job, Source: src.Name()}
	logger = logger.With(zap.String("run_id", res.RunID), zap.String("job", job.Job), zap.String("source", res.Source))

	prec, err := generator.ParsePrecedence(job.Generator.Precedence)
	if err != nil {
		return nil, err
	}

	// 1) Load.
	t0 := time.Now()
	wb, err := loadWorkbook(ctx, src, job.Parser)
	metrics.RecordStep(job.Job, StepLoad, err, time.Since(t0))
	if err != nil {
		return nil, err
	}
	res.Sheets = wb.Names()
	logger.Info("pipeline: workbook loaded", zap.Strings("sheets", res.Sheets))

	// 2) Size check, then generate.
	t0 = time.Now()
	res.Records, err = generate(wb, job.Generator, prec)
	metrics.RecordStep(job.Job, StepGenerate, err, time.Since(t0))
	if err != nil {
		return nil, err
	}
	res.Columns = view.Columns(res.Records, job.View.PreferredColumns)
	metrics.RecordVariants(job.Job, len(res.Records))
	if res.Empty() {
		logger.Warn("pipeline: no configurations generated; check that every ID column has at least one value")
	} else {
		logger.Info("pipeline: configurations generated", zap.Int("variants", len(res.Records)), zap.Int("attributes", len(res.Columns)))
	}

	// 3) Export.
	t0 = time.Now()
	err = exportFiles(res, job.Export, job.Job, logger)
	metrics.RecordStep(job.Job, StepExport, err, time.Since(t0))
	if err != nil {
		return nil, err
	}

	// 4) Store.
	if job.Storage.Enabled() {
		t0 = time.Now()
		res.Stored, err = store(ctx, res, job.Storage, logger)
		metrics.RecordStep(job.Job, StepStore, err, time.Since(t0))
		if err != nil {
			return nil, err
		}
		metrics.RecordRow(job.Job, "stored", res.Stored)
	}

	res.Duration = time.Since(start)
	logger.Info("pipeline: completed", zap.String("digest", res.Digest), zap.Duration("elapsed", res.Duration.Truncate(time.Millisecond)))
	return res, nil
}

func generate(wb *records.Workbook, g config.Generator, prec generator.Precedence) ([]records.Record, error) {
	n, err := generator.Count(wb)
	limit := g.Limit()
	switch {
	case errors.Is(err, generator.ErrTooManyVariants) && limit > 0:
		return nil, fmt.Errorf("%w: %w (limit %d)", ErrLimitExceeded, err, limit)
	case err != nil:
		return nil, err
	case limit > 0 && n > uint64(limit):
		return nil, fmt.Errorf("%w: workbook expands to %d variants (limit %d)", ErrLimitExceeded, n, limit)
	}
	return generator.Generate(wb, generator.Options{Separator: g.Separator(), Precedence: prec})
}

func exportFiles(res *Result, e config.Export, job string, logger *zap.Logger) error {
	js, err := export.JSON(res.Records, res.Columns)
	if err != nil {
		return err
	}
	res.Digest = export.Digest(js)

	if e.JSONPath != "" {
		if err := export.WriteFile(e.JSONPath, js); err != nil {
			return err
		}
		metrics.RecordRow(job, "exported_json", int64(len(res.Records)))
		logger.Info("pipeline: json written", zap.String("path", e.JSONPath))
	}
	if e.CSVPath != "" {
		b, err := export.CSV(res.Records, res.Columns, export.CSVOptions{Comma: e.Delimiter()})
		if err != nil {
			return err
		}
		if err := export.WriteFile(e.CSVPath, b); err != nil {
			return err
		}
		metrics.RecordRow(job, "exported_csv", int64(len(res.Records)))
		logger.Info("pipeline: csv written", zap.String("path", e.CSVPath))
	}
	return nil
}

func store(ctx context.Context, res *Result, s config.Storage, logger *zap.Logger) (int64, error) {
	table := s.DB.Table
	if table == "" {
		table = config.DefaultTable
	}
	repo, err := newRepositoryFn(ctx, storage.Config{Kind: s.Kind, DSN: s.DB.DSN, Table: table})
	if err != nil {
		return 0, fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	n, err := storage.WriteCatalog(ctx, logger, repo, storage.CatalogOptions{
		Kind:       s.Kind,
		Table:      table,
		AutoCreate: s.DB.AutoCreateTable,
		Truncate:   s.DB.Truncate,
	}, res.Columns, res.Records)
	if err != nil {
		return n, err
	}
	logger.Info("pipeline: catalog stored", zap.String("kind", s.Kind), zap.String("table", table), zap.Int64("rows", n))
	return n, nil
}
