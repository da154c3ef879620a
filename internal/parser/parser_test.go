package parser

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"variantgen/internal/config"
	"variantgen/pkg/records"
)

func TestNormalizeHeaders(t *testing.T) {
	t.Parallel()

	got := NormalizeHeaders([]string{"Type", "", "Type", "Type.1", "Type", " "})
	assert.Equal(t, []string{"Type", "Unnamed: 1", "Type.1", "Type.1.1", "Type.2", "Unnamed: 5"}, got)
}

func TestBuildTable(t *testing.T) {
	t.Parallel()

	header := []string{"Type", "", "Wheel", ""}
	rows := [][]string{
		{"Road", "", " 700c ", "", "extra"},
		{"MTB", "note", "", ""},
		{},
	}

	t.Run("raw cells", func(t *testing.T) {
		tbl := BuildTable("Types", header, rows, TableOptions{})

		// Column 3 is unnamed and empty; column 4 comes from the wide row.
		assert.Equal(t, []string{"Type", "Unnamed: 1", "Wheel", "Unnamed: 4"}, tbl.Columns)
		require.Len(t, tbl.Rows, 3)
		assert.Equal(t, []records.Cell{records.Text("Road"), records.Null, records.Text(" 700c "), records.Text("extra")}, tbl.Rows[0])
		assert.Equal(t, records.Text("note"), tbl.Cell(1, 1))
		assert.True(t, tbl.Cell(2, 0).IsNull())
	})

	t.Run("trim space", func(t *testing.T) {
		tbl := BuildTable("Types", []string{"Type"}, [][]string{{"  "}, {" Road "}}, TableOptions{TrimSpace: true})
		assert.True(t, tbl.Cell(0, 0).IsNull(), "whitespace-only cell is blank once trimmed")
		assert.Equal(t, records.Text("Road"), tbl.Cell(1, 0))
	})

	t.Run("empty sheet", func(t *testing.T) {
		tbl := BuildTable("ID", nil, nil, TableOptions{})
		assert.Empty(t, tbl.Columns)
		assert.Empty(t, tbl.Rows)
	})
}

func TestBuildCells(t *testing.T) {
	t.Parallel()

	rows := [][]records.Cell{
		{records.Text("Road"), records.Text(""), records.Null},
		{records.Text("MTB"), records.Text("  "), records.Null},
	}
	tbl := BuildCells("Types", []string{"Type", "Logo", ""}, rows, TableOptions{TrimSpace: true})

	assert.Equal(t, []string{"Type", "Logo"}, tbl.Columns, "unnamed column with only nulls is dropped")
	assert.Equal(t, records.Text(""), tbl.Cell(0, 1), "valid empty string survives")
	assert.True(t, tbl.Cell(1, 1).IsNull(), "whitespace trimmed to nothing is blank")
}

func TestKindForPath(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"bikes.xlsx":    "xlsx",
		"BIKES.XLSM":    "xlsx",
		"tables.zip":    "csvzip",
		"workbook.json": "json",
		"ID.csv":        "csv",
		"notes.ods":     "",
		"no-extension":  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, KindForPath(in), in)
	}
}

type stubLoader struct{ opt config.Options }

func (s stubLoader) Load(context.Context, io.Reader) (*records.Workbook, error) {
	return records.NewWorkbook(records.NewTable(s.opt.String("name", "ID"))), nil
}

func TestRegistry(t *testing.T) {
	Register("stub-test", func(opt config.Options) Loader { return stubLoader{opt: opt} })

	l, err := New("stub-test", nil)
	require.NoError(t, err)
	wb, err := l.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID"}, wb.Names())
	assert.Contains(t, Kinds(), "stub-test")

	_, err = New("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}
