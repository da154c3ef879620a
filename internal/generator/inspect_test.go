package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"variantgen/pkg/records"
)

func TestDescribe(t *testing.T) {
	t.Parallel()

	wb := records.NewWorkbook(
		idTable([]string{"Type", "Color"}, []string{"Road", "MTB"}, []string{"Red", "Blue", "Green"}),
		table(GeneralTable, []string{"Manufacturer"}, []string{"Acme"}),
		table("Types old", []string{"Type", "Wheel"}, []string{"Road", "26"}),
		table("Types", []string{"Type", "Wheel"}, []string{"Road", "700c"}),
		table("Saddles", []string{"Saddle", "Color"}, []string{"Comfort", "black"}),
	)

	s, err := Describe(wb)
	require.NoError(t, err)

	assert.Equal(t, []string{"ID", "GENERAL", "Types old", "Types", "Saddles"}, s.Tables)
	require.Len(t, s.Axes, 2)
	assert.Equal(t, AxisInfo{Name: "Type", Values: []string{"Road", "MTB"}, Detail: "Types"}, s.Axes[0])
	assert.Equal(t, "", s.Axes[1].Detail)
	assert.Equal(t, []string{"Types old"}, s.Shadowed)
	assert.Equal(t, []string{"Saddles"}, s.Orphans)
	assert.Equal(t, "Acme", s.Defaults.Value("Manufacturer"))
	assert.Equal(t, uint64(6), s.Variants)
	assert.False(t, s.Overflow)
}
