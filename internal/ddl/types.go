package ddl

// ColumnDef describes one column. Name is unquoted; the dialect quotes it
// at render time. Default is a raw SQL expression.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef is a table name (optionally "schema.table") plus ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Dialect holds the per-backend rendering rules.
type Dialect struct {
	// Name labels errors ("postgres ddl: ...").
	Name string
	// QuoteIdent quotes one identifier segment.
	QuoteIdent func(string) string
	// TextType is the column type used for catalog attributes.
	TextType string
	// Truncate is the statement prefix that empties a table, e.g.
	// "TRUNCATE TABLE" or "DELETE FROM".
	Truncate string
}

// QuoteFQN quotes every non-empty segment of a dotted name.
func (d Dialect) QuoteFQN(fqn string) string {
	return quoteFQN(fqn, d.QuoteIdent)
}

// Standard dialects for the built-in backends.
var (
	Postgres = Dialect{Name: "postgres", QuoteIdent: DoubleQuote, TextType: "TEXT", Truncate: "TRUNCATE TABLE"}
	SQLite   = Dialect{Name: "sqlite", QuoteIdent: DoubleQuote, TextType: "TEXT", Truncate: "DELETE FROM"}
	MySQL    = Dialect{Name: "mysql", QuoteIdent: Backtick, TextType: "TEXT", Truncate: "TRUNCATE TABLE"}
)
