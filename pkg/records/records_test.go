package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_CellOutOfRangeIsNull(t *testing.T) {
	t.Parallel()

	tbl := NewTable("ID", "Type", "Color").
		AppendRow(Text("Road"), Text("Red")).
		AppendRow(Text("MTB"))

	assert.Equal(t, Text("Red"), tbl.Cell(0, 1))
	assert.True(t, tbl.Cell(1, 1).IsNull(), "short row pads with Null")
	assert.True(t, tbl.Cell(5, 0).IsNull())
	assert.True(t, tbl.Cell(0, -1).IsNull())
	assert.Equal(t, []Cell{Text("Red"), Null}, tbl.Column(1))
	assert.Equal(t, 2, tbl.Width())
}

func TestCell_EmptyStringIsNotNull(t *testing.T) {
	t.Parallel()

	assert.False(t, Text("").IsNull())
	assert.True(t, Null.IsNull())
	assert.True(t, Cell{}.IsNull())
}

func TestWorkbook_ReplaceKeepsPosition(t *testing.T) {
	t.Parallel()

	wb := NewWorkbook(NewTable("ID"), NewTable("Frame"), NewTable("Wheels"))
	replacement := NewTable("Frame", "Frame type", "Material")
	wb.Add(replacement)

	assert.Equal(t, []string{"ID", "Frame", "Wheels"}, wb.Names())
	got, ok := wb.Get("Frame")
	require.True(t, ok)
	assert.Same(t, replacement, got)
	assert.Equal(t, 3, wb.Len())

	_, ok = wb.Get("missing")
	assert.False(t, ok)
}

func TestWorkbook_NilSafe(t *testing.T) {
	t.Parallel()

	var wb *Workbook
	_, ok := wb.Get("ID")
	assert.False(t, ok)
	assert.Zero(t, wb.Len())
	assert.Nil(t, wb.Names())
	assert.Nil(t, wb.Tables())
}

func TestBuilder_OverwriteKeepsFirstPosition(t *testing.T) {
	t.Parallel()

	b := NewBuilder(4)
	b.Set("ID", "Road-Red").Set("Wheel", "26").Set("Color", "Red").Set("Wheel", "700c")
	r := b.Build()

	assert.Equal(t, []string{"ID", "Wheel", "Color"}, r.Keys())
	assert.Equal(t, "700c", r.Value("Wheel"))
	assert.Equal(t, 3, r.Len())
	_, ok := r.Get("Brake")
	assert.False(t, ok)
}

func TestBuilder_BuildDoesNotAlias(t *testing.T) {
	t.Parallel()

	b := NewBuilder(1)
	first := b.Set("ID", "a").Build()
	second := b.Set("ID", "b").Build()

	assert.Equal(t, "a", first.Value("ID"))
	assert.Equal(t, "b", second.Value("ID"))

	m := first.Map()
	m["ID"] = "mutated"
	assert.Equal(t, "a", first.Value("ID"), "Map returns a copy")
}

func TestBuilder_Merge(t *testing.T) {
	t.Parallel()

	defaults := FromPairs("Manufacturer", "Acme", "Logo", "yes")
	r := NewBuilder(3).Set("ID", "x").Set("Logo", "no").Merge(defaults).Build()

	assert.Equal(t, []string{"ID", "Logo", "Manufacturer"}, r.Keys())
	assert.Equal(t, "yes", r.Value("Logo"))
}

func TestRecord_MarshalJSON(t *testing.T) {
	t.Parallel()

	r := FromPairs("ID", "Road-Červená", "Note", "<b>&", "Empty", "")
	b, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"ID":"Road-Červená","Note":"<b>&","Empty":""}`, string(b))

	b, err = r.MarshalOrderedJSON([]string{"Note", "Missing", "ID"})
	require.NoError(t, err)
	assert.Equal(t, `{"Note":"<b>&","ID":"Road-Červená"}`, string(b))

	b, err = Record{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}
