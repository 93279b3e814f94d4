package migration

import (
	"fmt"
	"strings"
)

// SQLiteGrammar implements Grammar for SQLite. Indexes cannot be declared
// inline, so CompileCreateTable returns one CREATE INDEX per index after the
// table statement.
type SQLiteGrammar struct{}

func (g *SQLiteGrammar) CompileCreateTable(b *Blueprint) []string {
	defs := make([]string, 0, len(b.Columns())+len(b.ForeignKeys()))
	for _, column := range b.Columns() {
		defs = append(defs, g.compileColumn(column))
	}
	for _, fk := range b.ForeignKeys() {
		defs = append(defs, compileForeignKey(fk))
	}

	statements := []string{fmt.Sprintf("CREATE TABLE `%s` (\n  %s\n)", b.Table(), strings.Join(defs, ",\n  "))}
	for _, index := range b.Indexes() {
		kind := "INDEX"
		if index.Type == IndexTypeUnique {
			kind = "UNIQUE INDEX"
		}
		statements = append(statements, fmt.Sprintf("CREATE %s `%s` ON `%s` (%s)", kind, index.Name, b.Table(), quoteColumns(index.Columns)))
	}
	return statements
}

func (g *SQLiteGrammar) CompileDropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS `%s`", table)
}

func (g *SQLiteGrammar) CompileHasTable(table string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", []interface{}{table}
}

func (g *SQLiteGrammar) compileColumn(c *Column) string {
	// SQLite'ta AUTOINCREMENT sadece "INTEGER PRIMARY KEY" ile çalışır.
	if c.Type == ColumnTypeID {
		return fmt.Sprintf("`%s` INTEGER PRIMARY KEY AUTOINCREMENT", c.Name)
	}

	parts := []string{fmt.Sprintf("`%s`", c.Name), g.typeOf(c)}
	if c.IsNullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	if c.DefaultValue != nil {
		parts = append(parts, "DEFAULT "+compileDefault(c.DefaultValue))
	}
	if c.Primary {
		parts = append(parts, "PRIMARY KEY")
	}
	if c.IsUnique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " ")
}

func (g *SQLiteGrammar) typeOf(c *Column) string {
	switch c.Type {
	case ColumnTypeString:
		length := c.Length
		if length <= 0 {
			length = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	case ColumnTypeText:
		return "TEXT"
	case ColumnTypeInteger, ColumnTypeBigInt:
		return "INTEGER"
	case ColumnTypeBoolean:
		return "BOOLEAN"
	case ColumnTypeTimestamp:
		return "DATETIME"
	case ColumnTypeDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", c.Precision, c.Scale)
	default:
		return string(c.Type)
	}
}
