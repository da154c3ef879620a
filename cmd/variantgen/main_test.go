package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"variantgen/internal/config"
	"variantgen/internal/export"
)

const bikesJSON = `{"sheets": [
  {"name": "ID", "columns": ["Type", "Frame color"], "rows": [["Road", "Red"], ["MTB", "Blue"]]},
  {"name": "GENERAL", "columns": ["Manufacturer"], "rows": [["Acme"]]},
  {"name": "Types", "columns": ["Type", "Wheel diameter"], "rows": [["Road", "28"], ["MTB", "29"]]},
  {"name": "Colors", "columns": ["Paint", "Finish"], "rows": [["Red", "gloss"]]}
]}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

// execute runs the CLI with args and returns stdout, stderr and the error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	a := &app{}
	cmd := a.rootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--log-format", "json"}, args...))
	err := cmd.ExecuteContext(context.Background())
	a.shutdown()
	return stdout.String(), stderr.String(), err
}

func TestGenerate_SingleWorkbook(t *testing.T) {
	dir := t.TempDir()
	wb := writeFile(t, dir, "bikes.json", bikesJSON)
	out := filepath.Join(dir, "out")

	stdout, _, err := execute(t, "generate", wb, "--out-dir", out, "--separator", "_")
	require.NoError(t, err)
	assert.Contains(t, stdout, "4 configurations from sheets ID, GENERAL, Types, Colors")

	b, err := os.ReadFile(filepath.Join(out, export.CSVFilename))
	require.NoError(t, err)
	assert.Equal(t, "ID,Manufacturer,Wheel diameter\nRoad_Red,Acme,28\nRoad_Blue,Acme,28\nMTB_Red,Acme,29\nMTB_Blue,Acme,29\n", string(b))
	_, err = os.Stat(filepath.Join(out, export.JSONFilename))
	assert.NoError(t, err)
}

func TestGenerate_FormatSelection(t *testing.T) {
	dir := t.TempDir()
	wb := writeFile(t, dir, "bikes.json", bikesJSON)
	out := filepath.Join(dir, "out")

	_, _, err := execute(t, "generate", wb, "-o", out, "--format", "json")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(out, export.CSVFilename))
	assert.True(t, os.IsNotExist(err))

	_, _, err = execute(t, "generate", wb, "-o", out, "--format", "xml")
	assert.ErrorContains(t, err, `unknown format "xml"`)
}

func TestGenerate_ManyWorkbooks(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "road.json", bikesJSON)
	b := writeFile(t, dir, "ID.csv", "Type\nBMX\n")
	list := writeFile(t, dir, "list.txt", "# more\n"+b+"\n\n"+filepath.Join(dir, "missing.xlsx")+"\n")
	out := filepath.Join(dir, "out")

	stdout, _, err := execute(t, "generate", a, "--list", list, "-o", out, "-w", "2")
	assert.ErrorContains(t, err, "1 of 3 workbooks failed")
	assert.Contains(t, stdout, "missing.xlsx: FAILED")
	assert.Contains(t, stdout, "1 configurations from sheets ID")

	for _, stem := range []string{"road", "ID"} {
		_, err := os.Stat(filepath.Join(out, stem, export.JSONFilename))
		assert.NoError(t, err, stem)
	}
}

func TestGenerate_SameNameWorkbooks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b"), 0o755))
	first := writeFile(t, filepath.Join(dir, "a"), "bikes.json", bikesJSON)
	second := writeFile(t, filepath.Join(dir, "b"), "bikes.json", `[{"name": "ID", "columns": ["Type"], "rows": [["BMX"]]}]`)
	out := filepath.Join(dir, "out")

	stdout, _, err := execute(t, "generate", first, second, "-o", out, "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+filepath.Join(out, "bikes", export.CSVFilename))
	assert.Contains(t, stdout, "wrote "+filepath.Join(out, "bikes-2", export.CSVFilename))

	b, err := os.ReadFile(filepath.Join(out, "bikes", export.CSVFilename))
	require.NoError(t, err)
	assert.Equal(t, "ID,Manufacturer,Wheel diameter\nRoad-Red,Acme,28\nRoad-Blue,Acme,28\nMTB-Red,Acme,29\nMTB-Blue,Acme,29\n", string(b))

	b, err = os.ReadFile(filepath.Join(out, "bikes-2", export.CSVFilename))
	require.NoError(t, err)
	assert.Equal(t, "ID\nBMX\n", string(b))
}

func TestUniqueStems(t *testing.T) {
	got := uniqueStems([]string{"a/bikes.json", "b/bikes.xlsx", "bikes-2.csv", "c/bikes.json", "https://example.com/road.xlsx?v=1"})
	assert.Equal(t, []string{"bikes", "bikes-2", "bikes-2-2", "bikes-3", "road"}, got)
}

func TestGenerate_LimitAndStorage(t *testing.T) {
	dir := t.TempDir()
	wb := writeFile(t, dir, "bikes.json", bikesJSON)

	stdout, _, err := execute(t, "generate", wb, "-o", dir, "--max-variants", "3")
	assert.Error(t, err)
	assert.Contains(t, stdout, "variant limit exceeded")

	db := filepath.Join(dir, "catalog.db")
	stdout, _, err = execute(t, "generate", wb, "-o", dir, "--storage-kind", "sqlite", "--dsn", db, "--table", "bikes")
	require.NoError(t, err)
	assert.Contains(t, stdout, "stored 4 rows in sqlite")
}

func TestGenerate_FromConfig(t *testing.T) {
	dir := t.TempDir()
	wb := writeFile(t, dir, "bikes.json", bikesJSON)
	jsonOut := filepath.Join(dir, "cfg-out", "catalog.json")
	cfg := writeFile(t, dir, "job.yaml", `
job: bikes
source:
  kind: file
  file:
    path: `+wb+`
generator:
  precedence: sheet_priority
export:
  json_path: `+jsonOut+`
`)

	stdout, _, err := execute(t, "generate", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote "+jsonOut)
	_, err = os.Stat(jsonOut)
	assert.NoError(t, err)
}

func TestGenerate_NoWorkbook(t *testing.T) {
	_, _, err := execute(t, "generate")
	assert.ErrorContains(t, err, "no workbook given")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"job":"bikes","source":{"kind":"file","file":{"path":"bikes.xlsx"}}}`)
	bad := writeFile(t, dir, "bad.json", `{"job":"bikes","source":{"kind":"file","file":{"path":"bikes.xlsx"}},"generator":{"precedence":"random"}}`)

	stdout, _, err := execute(t, "validate", "--config", good)
	require.NoError(t, err)
	assert.Contains(t, stdout, "configuration is valid")

	_, stderr, err := execute(t, "validate", "--config", bad)
	assert.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, stderr, "error: generator.precedence")

	_, _, err = execute(t, "validate")
	assert.Error(t, err, "--config is required")
}

func TestInspect(t *testing.T) {
	wb := writeFile(t, t.TempDir(), "bikes.json", bikesJSON)

	stdout, _, err := execute(t, "inspect", wb)
	require.NoError(t, err)
	assert.Regexp(t, `sheets:\s+ID, GENERAL, Types, Colors\n`, stdout)
	assert.Regexp(t, `Type\s+2 values\s+detail: Types\n`, stdout)
	assert.Regexp(t, `Frame color\s+2 values\s+detail: -\n`, stdout)
	assert.Regexp(t, `defaults:\s+Manufacturer=Acme\n`, stdout)
	assert.Regexp(t, `unused:\s+Colors\n`, stdout)
	assert.Regexp(t, `variants:\s+4\n`, stdout)
}

func TestUnknownMetricsBackend(t *testing.T) {
	_, _, err := execute(t, "--metrics-backend", "statsd", "validate", "--config", "x.json")
	assert.ErrorContains(t, err, `unknown metrics backend "statsd"`)
}

func TestServedIssues(t *testing.T) {
	issues := config.ValidateJob(config.Job{Generator: config.Generator{Precedence: "random"}})
	got := servedIssues(issues)
	require.Len(t, got, 1)
	assert.Equal(t, "generator.precedence", got[0].Path)
}
