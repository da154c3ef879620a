package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validJob() Job {
	return Job{
		Job:    "bikes",
		Source: Source{Kind: "file", File: SourceFile{Path: "bikes.xlsx"}},
		Parser: Parser{Kind: "xlsx", Options: Options{}},
	}
}

func ptr[T any](v T) *T { return &v }

func TestValidateJob_ValidMinimal(t *testing.T) {
	if issues := ValidateJob(validJob()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

func TestValidateJob_Findings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Job)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty job name", func(j *Job) { j.Job = " " }, SeverityWarning, "job", "job is empty"},
		{"missing source kind", func(j *Job) { j.Source.Kind = "" }, SeverityError, "source.kind", "must not be empty"},
		{"unknown source kind", func(j *Job) { j.Source.Kind = "s3" }, SeverityError, "source.kind", `unknown source kind "s3"`},
		{"missing path", func(j *Job) { j.Source.File.Path = "" }, SeverityError, "source.file.path", "non-empty path"},
		{"relative http url", func(j *Job) { j.Source = Source{Kind: "http", HTTP: SourceHTTP{URL: "bikes.xlsx"}} }, SeverityError, "source.http.url", "absolute http(s) url"},
		{"negative http retries", func(j *Job) {
			j.Source = Source{Kind: "http", HTTP: SourceHTTP{URL: "https://example.com/bikes.xlsx", MaxRetries: -1}}
		}, SeverityError, "source.http.max_retries", ">= 0"},
		{"unknown parser", func(j *Job) { j.Parser.Kind = "ods" }, SeverityError, "parser.kind", `unknown parser kind "ods"`},
		{"bad parser comma", func(j *Job) { j.Parser.Options["comma"] = ";;" }, SeverityError, "parser.options.comma", "single character"},
		{"bad precedence", func(j *Job) { j.Generator.Precedence = "random" }, SeverityError, "generator.precedence", "unknown precedence"},
		{"negative limit", func(j *Job) { j.Generator.MaxVariants = ptr(int64(-1)) }, SeverityError, "generator.max_variants", ">= 0"},
		{"disabled limit", func(j *Job) { j.Generator.MaxVariants = ptr(int64(0)) }, SeverityWarning, "generator.max_variants", "disabled"},
		{"duplicate preferred column", func(j *Job) { j.View.PreferredColumns = []string{"ID", "Type", "ID"} }, SeverityWarning, "view.preferred_columns[2]", `"ID"`},
		{"bad export comma", func(j *Job) { j.Export.Comma = "||" }, SeverityError, "export.comma", "single character"},
		{"same export paths", func(j *Job) { j.Export.JSONPath, j.Export.CSVPath = "out", "out" }, SeverityError, "export.csv_path", "must differ"},
		{"unknown storage", func(j *Job) { j.Storage.Kind = "mssql" }, SeverityError, "storage.kind", `unknown storage kind "mssql"`},
		{"storage without dsn", func(j *Job) { j.Storage.Kind = "sqlite" }, SeverityError, "storage.db.dsn", "requires a DSN"},
		{"storage without table", func(j *Job) { j.Storage = Storage{Kind: "postgres", DB: DBConfig{DSN: "postgres://x"}} }, SeverityWarning, "storage.db.table", DefaultTable},
		{"negative workers", func(j *Job) { j.Runtime.Workers = -2 }, SeverityError, "runtime.workers", ">= 0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			j := validJob()
			tc.mutate(&j)
			issues := ValidateJob(j)
			if !hasIssue(t, issues, tc.sev, tc.path, tc.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tc.sev, tc.path, tc.msg, issues)
			}
		})
	}
}

func TestHasErrors(t *testing.T) {
	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatal("warnings alone must not count as errors")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Fatal("expected HasErrors to report the error")
	}
}

func TestIssue_Error(t *testing.T) {
	got := Issue{Severity: SeverityError, Path: "storage.kind", Message: "boom"}.Error()
	if got != "error at storage.kind: boom" {
		t.Fatalf("Issue.Error() = %q", got)
	}
}
