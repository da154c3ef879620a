package generator

import "variantgen/pkg/records"

// AxisInfo summarizes one designator axis.
type AxisInfo struct {
	Name   string
	Values []string
	// Detail names the table that supplies attributes for this axis, or ""
	// when no detail table is keyed by it.
	Detail string
}

// Summary describes how a workbook will be expanded.
type Summary struct {
	Tables   []string
	Axes     []AxisInfo
	Defaults records.Record
	// Shadowed lists detail tables replaced by a later table with the same
	// key column.
	Shadowed []string
	// Orphans lists detail tables whose key column is not an axis.
	Orphans []string
	// Variants is the product size; Overflow is set when it exceeds uint64.
	Variants uint64
	Overflow bool
}

// Describe inspects wb without generating any variant.
func Describe(wb *records.Workbook) (Summary, error) {
	idt, ok := wb.Get(IDTable)
	if !ok {
		return Summary{}, &MissingTableError{Table: IDTable}
	}

	s := Summary{Tables: wb.Names(), Defaults: readDefaults(wb)}
	axes := readAxes(idt)
	details, _ := indexDetails(wb)

	isAxis := make(map[string]bool, len(axes))
	for _, a := range axes {
		isAxis[a.name] = true
		info := AxisInfo{Name: a.name, Values: a.values}
		if d, ok := details[a.name]; ok {
			info.Detail = d.table.Name
		}
		s.Axes = append(s.Axes, info)
	}

	for _, t := range wb.Tables() {
		if t.Name == IDTable || t.Name == GeneralTable || t.Width() < 1 {
			continue
		}
		key := t.Columns[0]
		if details[key].table != t {
			s.Shadowed = append(s.Shadowed, t.Name)
			continue
		}
		if !isAxis[key] {
			s.Orphans = append(s.Orphans, t.Name)
		}
	}

	n, err := count(axes)
	if err != nil {
		s.Overflow = true
	}
	s.Variants = n
	return s, nil
}
