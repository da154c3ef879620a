// Package ddl is a small model for the catalog table and renders CREATE
// TABLE statements for the SQL backends.
package ddl

import (
	"fmt"
	"sort"
	"strings"
)

// CatalogTable returns a definition with one nullable text column per
// attribute, in display order. Attributes a variant lacks are stored as
// NULL.
func CatalogTable(fqn string, columns []string, d Dialect) TableDef {
	t := TableDef{FQN: fqn, Columns: make([]ColumnDef, len(columns))}
	for i, c := range columns {
		t.Columns[i] = ColumnDef{Name: c, SQLType: d.TextType, Nullable: true}
	}
	return t
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE IF NOT EXISTS <fqn> (
//	  <col> <type> [NOT NULL] [DEFAULT <expr>],
//	  ...
//	  [PRIMARY KEY (<cols>)]
//	);
//
// Primary-key columns are always NOT NULL and the key list is sorted.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	var pks []string
	for _, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, c.Name)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(c.Name))
		}
	}
	if len(pks) > 0 {
		sort.Strings(pks)
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", d.QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}

// TruncateSQL renders the statement that empties t.
func TruncateSQL(fqn string, d Dialect) string {
	return d.Truncate + " " + d.QuoteFQN(fqn)
}

// DoubleQuote quotes an identifier ANSI style: "weird""name".
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// Backtick quotes an identifier MySQL style: `weird``name`.
func Backtick(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}

func quoteFQN(fqn string, quote func(string) string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, quote(p))
		}
	}
	return strings.Join(out, ".")
}
