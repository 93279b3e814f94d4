// -----------------------------------------------------------------------------
// MySQL Grammar for Migration System
// -----------------------------------------------------------------------------

package migration

import (
	"fmt"
	"strings"
)

// MySQLGrammar implements Grammar for MySQL/MariaDB (InnoDB, utf8mb4).
type MySQLGrammar struct{}

// CompileCreateTable emits a single CREATE TABLE with inline indexes and
// foreign keys.
func (g *MySQLGrammar) CompileCreateTable(b *Blueprint) []string {
	defs := make([]string, 0, len(b.Columns())+len(b.Indexes()))
	for _, column := range b.Columns() {
		defs = append(defs, g.compileColumn(column))
	}
	for _, index := range b.Indexes() {
		defs = append(defs, g.compileIndex(index))
	}
	for _, fk := range b.ForeignKeys() {
		defs = append(defs, compileForeignKey(fk))
	}

	return []string{fmt.Sprintf(
		"CREATE TABLE `%s` (\n  %s\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci",
		b.Table(), strings.Join(defs, ",\n  "),
	)}
}

func (g *MySQLGrammar) CompileDropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS `%s`", table)
}

func (g *MySQLGrammar) CompileHasTable(table string) (string, []interface{}) {
	return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?", []interface{}{table}
}

func (g *MySQLGrammar) compileColumn(c *Column) string {
	parts := []string{fmt.Sprintf("`%s`", c.Name), g.typeOf(c)}

	if c.IsUnsigned && c.Type != ColumnTypeID {
		parts = append(parts, "UNSIGNED")
	}
	if c.IsNullable {
		parts = append(parts, "NULL")
	} else {
		parts = append(parts, "NOT NULL")
	}
	if c.AutoIncrement {
		parts = append(parts, "AUTO_INCREMENT")
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

func (g *MySQLGrammar) typeOf(c *Column) string {
	switch c.Type {
	case ColumnTypeID:
		return "BIGINT UNSIGNED"
	case ColumnTypeString:
		length := c.Length
		if length <= 0 {
			length = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	case ColumnTypeText:
		return "TEXT"
	case ColumnTypeInteger:
		return "INT"
	case ColumnTypeBigInt:
		return "BIGINT"
	case ColumnTypeBoolean:
		return "TINYINT(1)"
	case ColumnTypeTimestamp:
		return "TIMESTAMP"
	case ColumnTypeDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", c.Precision, c.Scale)
	default:
		return string(c.Type)
	}
}

func (g *MySQLGrammar) compileIndex(index Index) string {
	columns := quoteColumns(index.Columns)
	if index.Type == IndexTypeUnique {
		return fmt.Sprintf("UNIQUE KEY `%s` (%s)", index.Name, columns)
	}
	return fmt.Sprintf("INDEX `%s` (%s)", index.Name, columns)
}

func compileForeignKey(fk *ForeignKey) string {
	sql := fmt.Sprintf("FOREIGN KEY (`%s`) REFERENCES `%s` (`%s`)", fk.Column, fk.ReferencedTable, fk.ReferencedColumn)
	if fk.OnDeleteAction != "" {
		sql += " ON DELETE " + strings.ToUpper(fk.OnDeleteAction)
	}
	return sql
}

func compileDefault(value interface{}) string {
	switch v := value.(type) {
	case Expr:
		return string(v)
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func quoteColumns(columns []string) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = fmt.Sprintf("`%s`", col)
	}
	return strings.Join(quoted, ", ")
}
