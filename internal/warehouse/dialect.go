//-------------------------------------------------------------------------
//
// pgEdge Superstore Warehouse
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"fmt"
	"strings"
)

// Dialect renders the catalogue into one SQL flavour.
type Dialect struct {
	Name string

	// KeyType is the full column definition of a surrogate key,
	// including PRIMARY KEY.
	KeyType string

	// Types maps every non-key column type to SQL.
	Types map[ColumnType]string

	// TextType is the CAST target used when dumping values as text.
	TextType string

	// quote is the identifier quote character.
	quote string

	// Numbered placeholders ($1) instead of "?".
	numbered bool

	// TableOptions is appended after the closing parenthesis of CREATE TABLE.
	TableOptions string
}

// Postgres renders PostgreSQL DDL and DML.
var Postgres = Dialect{
	Name:    "postgres",
	KeyType: "SERIAL PRIMARY KEY",
	Types: map[ColumnType]string{
		TypeRef:      "INTEGER",
		TypeName:     "VARCHAR(100)",
		TypeText:     "VARCHAR(255)",
		TypeDate:     "DATE",
		TypeInt:      "INTEGER",
		TypeMoney:    "NUMERIC(12,2)",
		TypeFraction: "NUMERIC(4,2)",
	},
	TextType: "TEXT",
	quote:    `"`,
	numbered: true,
}

// MySQL renders MySQL (InnoDB) DDL and DML.
var MySQL = Dialect{
	Name:    "mysql",
	KeyType: "INT AUTO_INCREMENT PRIMARY KEY",
	Types: map[ColumnType]string{
		TypeRef:      "INT",
		TypeName:     "VARCHAR(100)",
		TypeText:     "VARCHAR(255)",
		TypeDate:     "DATE",
		TypeInt:      "INT",
		TypeMoney:    "DECIMAL(12,2)",
		TypeFraction: "DECIMAL(4,2)",
	},
	TextType:     "CHAR",
	quote:        "`",
	TableOptions: " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
}

// SQLite renders SQLite DDL and DML. Dates and fixed point values are
// stored as canonical text so they round-trip exactly.
var SQLite = Dialect{
	Name:    "sqlite",
	KeyType: "INTEGER PRIMARY KEY AUTOINCREMENT",
	Types: map[ColumnType]string{
		TypeRef:      "INTEGER",
		TypeName:     "TEXT",
		TypeText:     "TEXT",
		TypeDate:     "TEXT",
		TypeInt:      "INTEGER",
		TypeMoney:    "TEXT",
		TypeFraction: "TEXT",
	},
	TextType: "TEXT",
	quote:    `"`,
}

// Quote quotes an identifier.
func (d Dialect) Quote(id string) string {
	return d.quote + strings.ReplaceAll(id, d.quote, d.quote+d.quote) + d.quote
}

// Placeholder returns the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	if d.numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (d Dialect) quoteAll(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = d.Quote(n)
	}
	return strings.Join(q, ", ")
}

// CreateTableSQL renders CREATE TABLE IF NOT EXISTS for t.
func (d Dialect) CreateTableSQL(t Table) string {
	var parts []string
	for _, c := range t.Columns {
		if c.Type == TypeKey {
			parts = append(parts, fmt.Sprintf("    %s %s", d.Quote(c.Name), d.KeyType))
			continue
		}
		parts = append(parts, fmt.Sprintf("    %s %s NOT NULL", d.Quote(c.Name), d.Types[c.Type]))
	}

	if t.KeyColumn() == "" && len(t.PrimaryKey) > 0 {
		parts = append(parts, fmt.Sprintf("    PRIMARY KEY (%s)", d.quoteAll(t.PrimaryKey)))
	}
	if len(t.NaturalKey) > 0 {
		parts = append(parts, fmt.Sprintf("    UNIQUE (%s)", d.quoteAll(t.NaturalKey)))
	}
	for _, fk := range t.ForeignKeys {
		parts = append(parts, fmt.Sprintf("    FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.Quote(fk.Column), d.Quote(fk.RefTable), d.Quote(fk.RefColumn)))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n)%s",
		d.Quote(t.Name), strings.Join(parts, ",\n"), d.TableOptions)
}

// DropTableSQL renders DROP TABLE IF EXISTS for t.
func (d Dialect) DropTableSQL(t Table) string {
	return "DROP TABLE IF EXISTS " + d.Quote(t.Name)
}

// DeleteSQL renders an unconditional DELETE for t.
func (d Dialect) DeleteSQL(t Table) string {
	return "DELETE FROM " + d.Quote(t.Name)
}

// InsertSQL renders a multi-row INSERT of columns with nrows value tuples.
func (d Dialect) InsertSQL(t Table, columns []string, nrows int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.Quote(t.Name), d.quoteAll(columns))

	n := 1
	for r := 0; r < nrows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(n))
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// SelectTextSQL renders a SELECT returning every column of t cast to text,
// ordered by the primary key.
func (d Dialect) SelectTextSQL(t Table) string {
	exprs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		exprs[i] = fmt.Sprintf("CAST(%s AS %s)", d.Quote(c.Name), d.TextType)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(exprs, ", "), d.Quote(t.Name), d.quoteAll(t.PrimaryKey))
}
