// Package generator expands a designator workbook into the full catalog of
// product variants.
//
// The "ID" table lists the designator axes (one column per axis, one allowed
// value per non-blank cell). The optional "GENERAL" table supplies defaults
// from its first row. Every other table is a detail table keyed by its first
// column: rows whose key equals an axis value contribute their remaining
// columns as attributes to every variant carrying that value.
//
// Generate is a pure function. It keeps no package state and never mutates
// its input, so it may run concurrently on independent workbooks.
package generator

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"variantgen/pkg/records"
)

const (
	// IDTable is the required table whose columns define the axes.
	IDTable = "ID"
	// GeneralTable is the optional table holding default attributes.
	GeneralTable = "GENERAL"
	// IDAttribute is the attribute carrying the joined axis values.
	IDAttribute = "ID"
)

// ErrMissingTable is matched by *MissingTableError via errors.Is.
var ErrMissingTable = errors.New("missing required table")

// ErrTooManyVariants is returned by Count when the product does not fit in
// a uint64.
var ErrTooManyVariants = errors.New("variant count overflows uint64")

// MissingTableError reports that a required table is absent from the workbook.
type MissingTableError struct {
	Table string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("workbook must contain a sheet named %q", e.Table)
}

// Is reports whether target is ErrMissingTable.
func (e *MissingTableError) Is(target error) bool { return target == ErrMissingTable }

// Precedence selects the order in which detail tables are merged into a
// variant. Later sources overwrite earlier ones.
type Precedence int

const (
	// ByAxisOrder applies detail tables following the ID column order.
	ByAxisOrder Precedence = iota
	// BySheetOrder applies detail tables in the order they appear in the
	// workbook.
	BySheetOrder
)

func (p Precedence) String() string {
	switch p {
	case ByAxisOrder:
		return "designator_order"
	case BySheetOrder:
		return "sheet_priority"
	default:
		return fmt.Sprintf("Precedence(%d)", int(p))
	}
}

// ParsePrecedence maps a configuration string to a Precedence. The empty
// string selects ByAxisOrder.
func ParsePrecedence(s string) (Precedence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "designator_order", "designator", "axis", "axis_order":
		return ByAxisOrder, nil
	case "sheet_priority", "sheet", "sheet_order":
		return BySheetOrder, nil
	default:
		return ByAxisOrder, fmt.Errorf("unknown precedence %q (want designator_order or sheet_priority)", s)
	}
}

// Options controls a generation run.
type Options struct {
	// Separator joins axis values into the ID attribute. It may be empty.
	Separator string
	// Precedence selects the detail-table merge order.
	Precedence Precedence
}

type axis struct {
	name   string
	values []string
}

// detail is a detail table indexed by the text of its first column. Each
// entry holds the attribute patches of the matching rows, in row order.
type detail struct {
	table   *records.Table
	patches map[string][]records.Record
}

// Generate returns one record per combination of axis values, in Cartesian
// product order with the first axis varying slowest.
//
// It fails only when the workbook has no "ID" table. An axis without values
// yields an empty, non-nil result.
func Generate(wb *records.Workbook, opt Options) ([]records.Record, error) {
	idt, ok := wb.Get(IDTable)
	if !ok {
		return nil, &MissingTableError{Table: IDTable}
	}

	axes := readAxes(idt)
	for _, a := range axes {
		if len(a.values) == 0 {
			return []records.Record{}, nil
		}
	}

	defaults := readDefaults(wb)
	details, firstSeen := indexDetails(wb)
	order := applicationOrder(axes, details, firstSeen, opt.Precedence)

	var out []records.Record
	if n, err := count(axes); err == nil && n <= 1<<20 {
		out = make([]records.Record, 0, int(n))
	}

	idx := make([]int, len(axes))
	parts := make([]string, len(axes))
	for {
		for i, a := range axes {
			parts[i] = a.values[idx[i]]
		}

		b := records.NewBuilder(1 + defaults.Len())
		b.Set(IDAttribute, strings.Join(parts, opt.Separator))
		b.Merge(defaults)
		for _, ai := range order {
			for _, patch := range details[axes[ai].name].patches[parts[ai]] {
				b.Merge(patch)
			}
		}
		out = append(out, b.Build())

		// Advance the odometer; the last axis varies fastest.
		i := len(axes) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(axes[i].values) {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			break
		}
	}
	return out, nil
}

// Count returns the number of variants Generate would produce without
// materializing them.
func Count(wb *records.Workbook) (uint64, error) {
	idt, ok := wb.Get(IDTable)
	if !ok {
		return 0, &MissingTableError{Table: IDTable}
	}
	return count(readAxes(idt))
}

func count(axes []axis) (uint64, error) {
	for _, a := range axes {
		if len(a.values) == 0 {
			return 0, nil
		}
	}
	n := uint64(1)
	for _, a := range axes {
		hi, lo := bits.Mul64(n, uint64(len(a.values)))
		if hi != 0 {
			return 0, ErrTooManyVariants
		}
		n = lo
	}
	return n, nil
}

// readAxes returns the ID table columns with their non-blank values.
// Duplicate values are kept.
func readAxes(idt *records.Table) []axis {
	axes := make([]axis, len(idt.Columns))
	for c, name := range idt.Columns {
		axes[c].name = name
		for _, cell := range idt.Column(c) {
			if cell.Valid {
				axes[c].values = append(axes[c].values, cell.Value)
			}
		}
	}
	return axes
}

// readDefaults returns the non-blank cells of the first GENERAL row.
func readDefaults(wb *records.Workbook) records.Record {
	b := records.NewBuilder(0)
	gen, ok := wb.Get(GeneralTable)
	if !ok || len(gen.Rows) == 0 {
		return b.Build()
	}
	for c, col := range gen.Columns {
		if cell := gen.Cell(0, c); cell.Valid {
			b.Set(col, cell.Value)
		}
	}
	return b.Build()
}

// indexDetails keys every detail table by its first column name. A later
// table with the same key replaces the earlier one; firstSeen keeps the
// position where each key was first declared.
func indexDetails(wb *records.Workbook) (map[string]*detail, []string) {
	details := map[string]*detail{}
	var firstSeen []string
	for _, t := range wb.Tables() {
		if t.Name == IDTable || t.Name == GeneralTable || t.Width() < 1 {
			continue
		}
		key := t.Columns[0]
		if _, ok := details[key]; !ok {
			firstSeen = append(firstSeen, key)
		}
		details[key] = indexTable(t)
	}
	return details, firstSeen
}

func indexTable(t *records.Table) *detail {
	d := &detail{table: t, patches: map[string][]records.Record{}}
	for r := range t.Rows {
		key := t.Cell(r, 0)
		if !key.Valid {
			continue
		}
		b := records.NewBuilder(t.Width() - 1)
		for c := 1; c < t.Width(); c++ {
			if cell := t.Cell(r, c); cell.Valid {
				b.Set(t.Columns[c], cell.Value)
			}
		}
		d.patches[key.Value] = append(d.patches[key.Value], b.Build())
	}
	return d
}

// applicationOrder returns the axis indices whose detail tables are merged,
// in merge order.
func applicationOrder(axes []axis, details map[string]*detail, firstSeen []string, p Precedence) []int {
	pos := make(map[string]int, len(axes))
	for i, a := range axes {
		if _, dup := pos[a.name]; !dup {
			pos[a.name] = i
		}
	}

	var order []int
	switch p {
	case BySheetOrder:
		for _, key := range firstSeen {
			if i, ok := pos[key]; ok {
				order = append(order, i)
			}
		}
	default:
		for i, a := range axes {
			if _, ok := details[a.name]; ok {
				order = append(order, i)
			}
		}
	}
	return order
}
