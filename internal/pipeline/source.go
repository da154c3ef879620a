package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"variantgen/internal/config"
	"variantgen/internal/datasource"
	"variantgen/internal/datasource/file"
	"variantgen/internal/datasource/httpds"
	"variantgen/internal/parser"
	_ "variantgen/internal/parser/all"
	pcsv "variantgen/internal/parser/csv"
	"variantgen/pkg/records"
)

// openSource maps the job's source block to a datasource.Source.
func openSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file":
		return file.NewLocal(s.File.Path), nil
	case "http":
		hdr := http.Header{}
		for k, v := range s.HTTP.Headers {
			hdr.Set(k, v)
		}
		client := httpds.NewClient(httpds.Config{
			Timeout:    time.Duration(s.HTTP.TimeoutSeconds) * time.Second,
			MaxRetries: s.HTTP.MaxRetries,
			Headers:    hdr,
		})
		return httpds.NewRemote(client, s.HTTP.URL), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%q", s.Kind)
	}
}

// loadWorkbook reads src with the configured loader, or one picked by the
// source's file extension. A local directory is read as a folder of CSV
// tables.
func loadWorkbook(ctx context.Context, src datasource.Source, p config.Parser) (*records.Workbook, error) {
	if l, ok := src.(*file.Local); ok && file.IsDir(l.Name()) {
		return pcsv.LoadDir(ctx, os.DirFS(l.Name()), p.Options)
	}

	kind := p.Kind
	if kind == "" {
		kind = parser.KindForPath(src.Name())
	}
	if kind == "" {
		return nil, fmt.Errorf("cannot tell the workbook format of %q; set parser.kind", src.Name())
	}
	loader, err := parser.New(kind, p.Options)
	if err != nil {
		return nil, err
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	wb, err := loader.Load(ctx, rc)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name(), err)
	}
	return wb, nil
}

// LoadWorkbook reads the workbook named by job.Source without generating
// anything. It returns the source name alongside the workbook.
func LoadWorkbook(ctx context.Context, job config.Job) (*records.Workbook, string, error) {
	src, err := openSource(job.Source)
	if err != nil {
		return nil, "", err
	}
	wb, err := loadWorkbook(ctx, src, job.Parser)
	return wb, src.Name(), err
}
