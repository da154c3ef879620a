// Package config defines the JSON/YAML job model for variantgen. A job names
// the workbook to expand, how to read it, how to generate and present the
// variants, and where to write them.
//
// Example (trimmed):
//
//	{
//	  "job":       "bikes-2025",
//	  "source":    { "kind": "file", "file": { "path": "bikes.xlsx" } },
//	  "parser":    { "kind": "xlsx", "options": {} },
//	  "generator": { "id_separator": "-", "precedence": "designator_order", "max_variants": 100000 },
//	  "export":    { "json_path": "out/bikes.json", "csv_path": "out/bikes.csv" },
//	  "storage":   { "kind": "sqlite", "db": { "dsn": "catalog.db", "table": "variants", "auto_create_table": true } }
//	}
package config

import (
	"encoding/json"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultSeparator joins ID parts when the job does not set one.
	DefaultSeparator = "-"
	// DefaultMaxVariants caps a run when the job does not set a limit.
	DefaultMaxVariants int64 = 1_000_000
	// DefaultTable is the storage table used when none is configured.
	DefaultTable = "variants"
)

// Job is the top-level object decoded from a job file.
type Job struct {
	// Job names the run for logs and metrics labels.
	Job string `json:"job" yaml:"job"`

	Source    Source        `json:"source" yaml:"source"`
	Parser    Parser        `json:"parser" yaml:"parser"`
	Generator Generator     `json:"generator" yaml:"generator"`
	View      View          `json:"view" yaml:"view"`
	Export    Export        `json:"export" yaml:"export"`
	Storage   Storage       `json:"storage" yaml:"storage"`
	Runtime   RuntimeConfig `json:"runtime" yaml:"runtime"`
}

// Source identifies where the workbook comes from.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string     `json:"kind" yaml:"kind"`
	File SourceFile `json:"file" yaml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http"`
}

// Location returns the path or URL the source reads from.
func (s Source) Location() string {
	if s.Kind == "http" {
		return s.HTTP.URL
	}
	return s.File.Path
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	// Path is a workbook file, or a directory of CSV tables.
	Path string `json:"path" yaml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url" yaml:"url"`
	// TimeoutSeconds bounds each attempt; 0 selects the client default.
	TimeoutSeconds int `json:"timeout_seconds" yaml:"timeout_seconds"`
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
	// Headers are sent with every request (e.g. Authorization).
	Headers map[string]string `json:"headers" yaml:"headers"`
}

// Parser selects the workbook loader.
type Parser struct {
	// Kind is one of "xlsx", "csv", "csvzip", "json". Empty means "pick by
	// file extension".
	Kind string `json:"kind" yaml:"kind"`

	// Options is interpreted by the loader. Known keys:
	//   comma (string), trim_space (bool), strip_markup (bool),
	//   collapse_space (bool), sheet_order ([]string), table (string)
	Options Options `json:"options" yaml:"options"`
}

// Generator configures variant expansion.
type Generator struct {
	// IDSeparator joins axis values. nil selects DefaultSeparator; an empty
	// string is a valid separator.
	IDSeparator *string `json:"id_separator" yaml:"id_separator"`

	// Precedence is "designator_order" (default) or "sheet_priority".
	Precedence string `json:"precedence" yaml:"precedence"`

	// MaxVariants refuses workbooks whose product exceeds it. nil selects
	// DefaultMaxVariants; 0 disables the check.
	MaxVariants *int64 `json:"max_variants" yaml:"max_variants"`
}

// Separator returns the configured separator or DefaultSeparator.
func (g Generator) Separator() string {
	if g.IDSeparator == nil {
		return DefaultSeparator
	}
	return *g.IDSeparator
}

// Limit returns the configured variant cap or DefaultMaxVariants.
func (g Generator) Limit() int64 {
	if g.MaxVariants == nil {
		return DefaultMaxVariants
	}
	return *g.MaxVariants
}

// View configures display column order.
type View struct {
	// PreferredColumns lists attributes shown first. nil selects the built-in
	// bicycle list.
	PreferredColumns []string `json:"preferred_columns" yaml:"preferred_columns"`
}

// Export selects output files. Empty paths disable the format.
type Export struct {
	JSONPath string `json:"json_path" yaml:"json_path"`
	CSVPath  string `json:"csv_path" yaml:"csv_path"`
	// Comma is the CSV delimiter; default ",".
	Comma string `json:"comma" yaml:"comma"`
}

// Delimiter returns the first rune of Comma, or ',' when unset.
func (e Export) Delimiter() rune {
	if r, _ := utf8.DecodeRuneInString(e.Comma); r != utf8.RuneError {
		return r
	}
	return ','
}

// Storage selects an optional database sink for the catalog.
type Storage struct {
	// Kind is "", "none", "sqlite", "postgres" or "mysql".
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// Enabled reports whether a sink is configured.
func (s Storage) Enabled() bool { return s.Kind != "" && s.Kind != "none" }

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is passed to the driver unchanged.
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table" yaml:"table"`

	// AutoCreateTable creates the table (all TEXT columns) when missing. An
	// existing table is not altered; a run whose catalog has attributes the
	// table lacks fails before writing.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table"`

	// Truncate deletes existing rows before loading. The schema is kept.
	Truncate bool `json:"truncate" yaml:"truncate"`
}

// RuntimeConfig controls batch concurrency.
type RuntimeConfig struct {
	// Workers bounds how many workbooks are processed at once; 0 means
	// GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// Options is a small helper to fetch typed values from free-form maps. It
// performs minimal type coercion and returns the provided default when a key
// is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringSlice returns a []string for key when the value is an array of
// strings. Returns nil when the key is missing or not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON decodes a missing or null "options" object to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for YAML job files.
func (o *Options) UnmarshalYAML(node *yaml.Node) error {
	var tmp map[string]any
	if err := node.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
