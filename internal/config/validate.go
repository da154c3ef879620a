// Package config provides configuration models and helpers for variantgen
// jobs.
//
// This file adds a lightweight linter for Job values. It performs static
// checks and returns a list of issues (errors and warnings) that callers can
// surface in a CLI or tests.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"variantgen/internal/generator"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced but does not
	// block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.db.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Known kinds. Parser kinds must match the loaders registered in
// internal/parser; storage kinds the backends in internal/storage.
var (
	knownParsers  = map[string]struct{}{"": {}, "xlsx": {}, "csv": {}, "csvzip": {}, "json": {}}
	knownStorages = map[string]struct{}{"": {}, "none": {}, "sqlite": {}, "postgres": {}, "mysql": {}}
)

// ValidateJob performs static validation of a Job. It does not mutate the
// job; callers decide whether warnings are fatal.
func ValidateJob(j Job) []Issue {
	var issues []Issue

	if strings.TrimSpace(j.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; runs will be labeled by workbook file name",
		})
	}
	issues = append(issues, validateSource(j.Source)...)
	issues = append(issues, validateParser(j.Parser)...)
	issues = append(issues, validateGenerator(j.Generator)...)
	issues = append(issues, validateView(j.View)...)
	issues = append(issues, validateExport(j.Export)...)
	issues = append(issues, validateStorage(j.Storage)...)
	if j.Runtime.Workers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.workers",
			Message:  "workers must be >= 0",
		})
	}
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	switch s.Kind {
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		u, err := url.Parse(s.HTTP.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  "http source requires an absolute http(s) url",
			})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.max_retries",
				Message:  "max_retries must be >= 0",
			})
		}
	case "":
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q", s.Kind),
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue
	if _, ok := knownParsers[p.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unknown parser kind %q (want xlsx, csv, csvzip or json)", p.Kind),
		})
	}
	if c := p.Options.String("comma", ""); utf8.RuneCountInString(c) > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  "comma must be a single character",
		})
	}
	return issues
}

func validateGenerator(g Generator) []Issue {
	var issues []Issue
	if _, err := generator.ParsePrecedence(g.Precedence); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generator.precedence",
			Message:  err.Error(),
		})
	}
	if g.Limit() < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generator.max_variants",
			Message:  "max_variants must be >= 0 (0 disables the limit)",
		})
	}
	if g.MaxVariants != nil && *g.MaxVariants == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "generator.max_variants",
			Message:  "variant limit disabled; large workbooks may exhaust memory",
		})
	}
	return issues
}

func validateView(v View) []Issue {
	var issues []Issue
	seen := map[string]bool{}
	for i, c := range v.PreferredColumns {
		if seen[c] {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("view.preferred_columns[%d]", i),
				Message:  fmt.Sprintf("duplicate column %q is ignored", c),
			})
		}
		seen[c] = true
	}
	return issues
}

func validateExport(e Export) []Issue {
	var issues []Issue
	if utf8.RuneCountInString(e.Comma) > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.comma",
			Message:  "comma must be a single character",
		})
	}
	if e.JSONPath != "" && e.JSONPath == e.CSVPath {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.csv_path",
			Message:  "csv_path and json_path must differ",
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if _, ok := knownStorages[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q (want sqlite, postgres or mysql)", s.Kind),
		})
		return issues
	}
	if !s.Enabled() {
		return issues
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage requires a DSN",
		})
	}
	if strings.TrimSpace(s.DB.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.table",
			Message:  fmt.Sprintf("table not set; using %q", DefaultTable),
		})
	}
	return issues
}
