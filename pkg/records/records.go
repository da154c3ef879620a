// Package records holds the schema-less tabular model shared by the loaders,
// the variant generator and the exporters.
//
// Spreadsheet input is represented as named row sets (Table) collected in an
// ordered Workbook. Generated output is a slice of Record values: ordered,
// string-valued attribute maps built through a Builder.
package records

// Cell is a single string-typed spreadsheet cell. A zero Cell is the explicit
// "no value" marker used for blank cells; it is distinct from a valid empty
// string.
type Cell struct {
	Value string
	Valid bool
}

// Null is the blank cell.
var Null = Cell{}

// Text returns a valid cell holding s.
func Text(s string) Cell { return Cell{Value: s, Valid: true} }

// IsNull reports whether the cell carries no value.
func (c Cell) IsNull() bool { return !c.Valid }

// Table is a named row set: ordered column names and rows of cells. Rows may be
// shorter than Columns; missing trailing cells read as Null.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]Cell
}

// NewTable returns an empty table with the given name and columns.
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// AppendRow adds a row of cells and returns the table for chaining.
func (t *Table) AppendRow(cells ...Cell) *Table {
	t.Rows = append(t.Rows, cells)
	return t
}

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.Columns) }

// Cell returns the cell at (row, col), or Null when out of range.
func (t *Table) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) {
		return Null
	}
	r := t.Rows[row]
	if col < 0 || col >= len(r) {
		return Null
	}
	return r[col]
}

// Column returns the cells of column col in row order.
func (t *Table) Column(col int) []Cell {
	out := make([]Cell, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, col)
	}
	return out
}

// Workbook is an ordered collection of tables keyed by name. Iteration order
// is the order in which tables were added; adding a table whose name already
// exists replaces its content but keeps its original position.
type Workbook struct {
	tables []*Table
	index  map[string]int
}

// NewWorkbook returns a workbook holding tables in the given order.
func NewWorkbook(tables ...*Table) *Workbook {
	w := &Workbook{index: make(map[string]int, len(tables))}
	for _, t := range tables {
		w.Add(t)
	}
	return w
}

// Add inserts t, or replaces the table with the same name in place.
func (w *Workbook) Add(t *Table) {
	if w.index == nil {
		w.index = map[string]int{}
	}
	if i, ok := w.index[t.Name]; ok {
		w.tables[i] = t
		return
	}
	w.index[t.Name] = len(w.tables)
	w.tables = append(w.tables, t)
}

// Get returns the table called name.
func (w *Workbook) Get(name string) (*Table, bool) {
	if w == nil {
		return nil, false
	}
	i, ok := w.index[name]
	if !ok {
		return nil, false
	}
	return w.tables[i], true
}

// Tables returns the tables in workbook order.
func (w *Workbook) Tables() []*Table {
	if w == nil {
		return nil
	}
	out := make([]*Table, len(w.tables))
	copy(out, w.tables)
	return out
}

// Names returns the table names in workbook order.
func (w *Workbook) Names() []string {
	if w == nil {
		return nil
	}
	out := make([]string, len(w.tables))
	for i, t := range w.tables {
		out[i] = t.Name
	}
	return out
}

// Len returns the number of tables.
func (w *Workbook) Len() int {
	if w == nil {
		return 0
	}
	return len(w.tables)
}
