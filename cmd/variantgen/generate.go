package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"variantgen/internal/config"
	"variantgen/internal/datasource/file"
	"variantgen/internal/export"
	"variantgen/internal/pipeline"
)

type generateOptions struct {
	configPath  string
	listPath    string
	separator   string
	precedence  string
	outDir      string
	formats     []string
	maxVariants int64
	storageKind string
	dsn         string
	table       string
	truncate    bool
	workers     int
}

func (a *app) generateCmd() *cobra.Command {
	var o generateOptions
	cmd := &cobra.Command{
		Use:   "generate [workbook...]",
		Short: "Generate the configuration catalog for one or more workbooks",
		Long: `Generate expands each workbook and writes bicycle_configurations.json and
.csv. Workbooks may be .xlsx files, .zip archives of CSVs, single .csv or .json
files, directories of CSVs, or http(s) URLs. Several workbooks run
concurrently; each gets its own subdirectory of --out-dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := o.jobs(cmd, args)
			if err != nil {
				return err
			}
			return a.runGenerate(cmd, jobs, o.workers)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.configPath, "config", "c", "", "job file (JSON or YAML)")
	f.StringVar(&o.listPath, "list", "", "file listing workbooks, one per line")
	f.StringVar(&o.separator, "separator", config.DefaultSeparator, "string joining ID parts")
	f.StringVar(&o.precedence, "precedence", "", "designator_order or sheet_priority")
	f.StringVarP(&o.outDir, "out-dir", "o", "", "output directory (default: the job's export paths, else .)")
	f.StringSliceVar(&o.formats, "format", []string{"json", "csv"}, "output formats: json, csv")
	f.Int64Var(&o.maxVariants, "max-variants", config.DefaultMaxVariants, "refuse workbooks expanding past this; 0 disables")
	f.StringVar(&o.storageKind, "storage-kind", "", "store the catalog: sqlite, postgres or mysql")
	f.StringVar(&o.dsn, "dsn", "", "storage DSN")
	f.StringVar(&o.table, "table", "", "storage table (default "+config.DefaultTable+")")
	f.BoolVar(&o.truncate, "truncate", false, "empty the table before loading")
	f.IntVarP(&o.workers, "workers", "w", 0, "workbooks processed at once (default GOMAXPROCS)")
	return cmd
}

// jobs builds one job per workbook. Flags the user set override the job
// file; workbooks named on the command line replace its source.
func (o *generateOptions) jobs(cmd *cobra.Command, args []string) ([]config.Job, error) {
	base := config.Job{Parser: config.Parser{Options: config.Options{}}}
	if o.configPath != "" {
		j, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		base = j
	}

	f := cmd.Flags()
	if f.Changed("separator") {
		sep := o.separator
		base.Generator.IDSeparator = &sep
	}
	if f.Changed("precedence") {
		base.Generator.Precedence = o.precedence
	}
	if f.Changed("max-variants") {
		n := o.maxVariants
		base.Generator.MaxVariants = &n
	}
	if o.storageKind != "" {
		base.Storage.Kind = o.storageKind
		base.Storage.DB.AutoCreateTable = true
	}
	if o.dsn != "" {
		base.Storage.DB.DSN = o.dsn
	}
	if o.table != "" {
		base.Storage.DB.Table = o.table
	}
	if o.truncate {
		base.Storage.DB.Truncate = true
	}
	if !f.Changed("workers") {
		o.workers = base.Runtime.Workers
	}

	workbooks := append([]string(nil), args...)
	if o.listPath != "" {
		listed, err := file.ReadList(o.listPath)
		if err != nil {
			return nil, err
		}
		workbooks = append(workbooks, listed...)
	}

	if len(workbooks) == 0 {
		if base.Source.Location() == "" {
			return nil, errors.New("no workbook given; pass a path or URL, --list, or --config with a source")
		}
		if err := o.applyExport(&base, "", false); err != nil {
			return nil, err
		}
		return []config.Job{base}, nil
	}

	jobs := make([]config.Job, 0, len(workbooks))
	stems := uniqueStems(workbooks)
	for i, wb := range workbooks {
		j := base
		j.Source = sourceFor(wb, base.Source)
		stem := stems[i]
		if j.Job == "" || len(workbooks) > 1 {
			j.Job = stem
		}
		if err := o.applyExport(&j, stem, len(workbooks) > 1); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// applyExport points the job's export paths at --out-dir, or at the working
// directory when neither the flag nor the job file names them.
func (o *generateOptions) applyExport(j *config.Job, stem string, perWorkbook bool) error {
	want := map[string]bool{}
	for _, f := range o.formats {
		switch f = strings.ToLower(strings.TrimSpace(f)); f {
		case "json", "csv":
			want[f] = true
		default:
			return fmt.Errorf("unknown format %q (want json or csv)", f)
		}
	}

	dir := o.outDir
	if dir == "" && (j.Export.JSONPath != "" || j.Export.CSVPath != "") && !perWorkbook {
		if !want["json"] {
			j.Export.JSONPath = ""
		}
		if !want["csv"] {
			j.Export.CSVPath = ""
		}
		return nil
	}
	if dir == "" {
		dir = "."
	}
	if perWorkbook {
		dir = filepath.Join(dir, stem)
	}

	j.Export.JSONPath, j.Export.CSVPath = "", ""
	if want["json"] {
		j.Export.JSONPath = filepath.Join(dir, export.JSONFilename)
	}
	if want["csv"] {
		j.Export.CSVPath = filepath.Join(dir, export.CSVFilename)
	}
	return nil
}

func sourceFor(workbook string, base config.Source) config.Source {
	if strings.HasPrefix(workbook, "http://") || strings.HasPrefix(workbook, "https://") {
		s := config.Source{Kind: "http", HTTP: base.HTTP}
		s.HTTP.URL = workbook
		return s
	}
	return config.Source{Kind: "file", File: config.SourceFile{Path: workbook}}
}

func stemOf(workbook string) string {
	base := filepath.Base(strings.TrimRight(workbook, "/"))
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// uniqueStems names each workbook's output directory. Repeated stems get a
// numeric suffix in argument order: bikes, bikes-2, bikes-3.
func uniqueStems(workbooks []string) []string {
	out := make([]string, len(workbooks))
	taken := make(map[string]bool, len(workbooks))
	for i, wb := range workbooks {
		base := stemOf(wb)
		stem := base
		for n := 2; taken[stem]; n++ {
			stem = fmt.Sprintf("%s-%d", base, n)
		}
		taken[stem] = true
		out[i] = stem
	}
	return out
}

func (a *app) runGenerate(cmd *cobra.Command, jobs []config.Job, workers int) error {
	for _, j := range jobs {
		if err := reportIssues(cmd, config.ValidateJob(j)); err != nil {
			return fmt.Errorf("job %s: %w", j.Job, err)
		}
	}

	out := cmd.OutOrStdout()
	results := pipeline.RunBatch(cmd.Context(), jobs, workers, a.logger)
	var failed int
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: FAILED: %v\n", r.Job.Source.Location(), r.Err)
			continue
		}
		res := r.Result
		fmt.Fprintf(out, "%s: %d configurations from sheets %s (digest %s)\n",
			r.Job.Source.Location(), len(res.Records), strings.Join(res.Sheets, ", "), res.Digest)
		if res.Empty() {
			fmt.Fprintf(out, "%s: warning: no configurations generated; check that every ID column has a value\n", r.Job.Source.Location())
		}
		for _, p := range []string{r.Job.Export.JSONPath, r.Job.Export.CSVPath} {
			if p != "" {
				fmt.Fprintf(out, "  wrote %s\n", p)
			}
		}
		if res.Stored > 0 {
			fmt.Fprintf(out, "  stored %d rows in %s\n", res.Stored, r.Job.Storage.Kind)
		}
	}
	if failed > 0 {
		a.logger.Error("generate: some workbooks failed", zap.Int("failed", failed), zap.Int("total", len(results)))
		return fmt.Errorf("%d of %d workbooks failed", failed, len(results))
	}
	return nil
}
