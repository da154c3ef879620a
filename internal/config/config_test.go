package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Job decoding tests
// -----------------------------------------------------------------------------

const jobJSON = `{
  "job": "bikes",
  "source": { "kind": "file", "file": { "path": "testdata/bikes.xlsx" } },
  "parser": { "kind": "xlsx", "options": { "trim_space": true, "sheet_order": ["ID", "GENERAL"] } },
  "generator": { "id_separator": "", "precedence": "sheet_priority", "max_variants": 500 },
  "view": { "preferred_columns": ["ID", "Manufacturer"] },
  "export": { "json_path": "out.json", "csv_path": "out.csv", "comma": ";" },
  "storage": { "kind": "sqlite", "db": { "dsn": "file::memory:", "table": "variants", "auto_create_table": true } },
  "runtime": { "workers": 4 }
}`

const jobYAML = `
job: bikes
source:
  kind: file
  file:
    path: testdata/bikes.xlsx
parser:
  kind: xlsx
  options:
    trim_space: true
    sheet_order: [ID, GENERAL]
generator:
  id_separator: ""
  precedence: sheet_priority
  max_variants: 500
view:
  preferred_columns: [ID, Manufacturer]
export:
  json_path: out.json
  csv_path: out.csv
  comma: ";"
storage:
  kind: sqlite
  db:
    dsn: "file::memory:"
    table: variants
    auto_create_table: true
runtime:
  workers: 4
`

func TestDecode_JSONAndYAMLAgree(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		format Format
		body   string
	}{
		{"json", FormatJSON, jobJSON},
		{"yaml", FormatYAML, jobYAML},
	} {
		t.Run(tc.name, func(t *testing.T) {
			j, err := Decode(strings.NewReader(tc.body), tc.format)
			require.NoError(t, err)

			assert.Equal(t, "bikes", j.Job)
			assert.Equal(t, "testdata/bikes.xlsx", j.Source.File.Path)
			assert.Equal(t, "xlsx", j.Parser.Kind)
			assert.True(t, j.Parser.Options.Bool("trim_space", false))
			assert.Equal(t, []string{"ID", "GENERAL"}, j.Parser.Options.StringSlice("sheet_order"))
			assert.Equal(t, "", j.Generator.Separator(), "explicit empty separator is kept")
			assert.Equal(t, "sheet_priority", j.Generator.Precedence)
			assert.Equal(t, int64(500), j.Generator.Limit())
			assert.Equal(t, []string{"ID", "Manufacturer"}, j.View.PreferredColumns)
			assert.Equal(t, ";", j.Export.Comma)
			assert.True(t, j.Storage.Enabled())
			assert.True(t, j.Storage.DB.AutoCreateTable)
			assert.Equal(t, 4, j.Runtime.Workers)
			assert.Empty(t, ValidateJob(j))
		})
	}
}

func TestDecode_Defaults(t *testing.T) {
	t.Parallel()

	j, err := Decode(strings.NewReader(`{"source":{"kind":"file","file":{"path":"a.xlsx"}}}`), FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, DefaultSeparator, j.Generator.Separator())
	assert.Equal(t, DefaultMaxVariants, j.Generator.Limit())
	assert.NotNil(t, j.Parser.Options, "options must never be nil")
	assert.False(t, j.Storage.Enabled())
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := Decode(strings.NewReader(`{"genrator":{}}`), FormatJSON)
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("genrator: {}\n"), FormatYAML)
	assert.Error(t, err)
}

func TestDecode_EmptyInput(t *testing.T) {
	t.Parallel()

	j, err := Decode(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, DefaultSeparator, j.Generator.Separator())
}

func TestFormatForPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, FormatYAML, FormatForPath("job.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("JOB.YML"))
	assert.Equal(t, FormatJSON, FormatForPath("job.json"))
	assert.Equal(t, FormatJSON, FormatForPath("job"))
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(jobYAML), 0o600))

	t.Run("separator precedence and limit", func(t *testing.T) {
		t.Setenv(EnvSeparator, "_")
		t.Setenv(EnvPrecedence, "designator_order")
		t.Setenv(EnvMaxVariants, "42")

		j, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "_", j.Generator.Separator())
		assert.Equal(t, "designator_order", j.Generator.Precedence)
		assert.Equal(t, int64(42), j.Generator.Limit())
	})

	t.Run("bad limit", func(t *testing.T) {
		t.Setenv(EnvMaxVariants, "many")
		_, err := Load(path)
		assert.ErrorContains(t, err, EnvMaxVariants)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

// -----------------------------------------------------------------------------
// Options helper tests
// -----------------------------------------------------------------------------

func TestOptions_TypedAccess(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":     "x",
		"b":     true,
		"comma": ";",
		"list":  []any{"a", 1, "b"},
	}

	assert.Equal(t, "x", o.String("s", "d"))
	assert.Equal(t, "d", o.String("b", "d"))
	assert.True(t, o.Bool("b", false))
	assert.Equal(t, ';', o.Rune("comma", ','))
	assert.Equal(t, ',', o.Rune("missing", ','))
	assert.Equal(t, []string{"a", "b"}, o.StringSlice("list"))
	assert.Nil(t, o.StringSlice("missing"))

	var nilOpts Options
	assert.Equal(t, "d", nilOpts.String("s", "d"))
}

func TestExport_Delimiter(t *testing.T) {
	assert.Equal(t, ',', Export{}.Delimiter())
	assert.Equal(t, ';', Export{Comma: ";"}.Delimiter())
	assert.Equal(t, '\t', Export{Comma: "\t"}.Delimiter())
}

func TestSource_Location(t *testing.T) {
	assert.Equal(t, "a.xlsx", Source{Kind: "file", File: SourceFile{Path: "a.xlsx"}}.Location())
	assert.Equal(t, "https://h/a.xlsx", Source{Kind: "http", HTTP: SourceHTTP{URL: "https://h/a.xlsx"}}.Location())
}
