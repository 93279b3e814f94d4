package database

import (
	"fmt"
	"sort"
	"strings"
)

// allowedOperators, WHERE koşullarında izin verilen operatörler.
// Listede olmayan operatör derleme hatasına yol açar.
var allowedOperators = map[string]bool{
	"=":        true,
	"!=":       true,
	"<>":       true,
	"<":        true,
	">":        true,
	"<=":       true,
	">=":       true,
	"LIKE":     true,
	"NOT LIKE": true,
	"IN":       true,
}

// MySQLGrammar, MySQL/MariaDB için SQL üretir.
type MySQLGrammar struct{}

// Wrap, identifier'ı backtick ile sarmalar. "purchase.uid" →
// "`purchase`.`uid`".
func (g *MySQLGrammar) Wrap(value string) (string, error) {
	if value == "*" {
		return value, nil
	}
	if strings.ContainsAny(value, "`;'\"") || strings.Contains(value, "--") {
		return "", fmt.Errorf("invalid identifier %q", value)
	}
	parts := strings.Split(value, ".")
	for i, part := range parts {
		if part == "" {
			return "", fmt.Errorf("invalid identifier %q", value)
		}
		parts[i] = "`" + part + "`"
	}
	return strings.Join(parts, "."), nil
}

// CompileSelect, SELECT üretir; builder kilit istemişse FOR UPDATE ekler.
func (g *MySQLGrammar) CompileSelect(qb *QueryBuilder) (string, []interface{}, error) {
	query, args, err := compileSelect(g, qb)
	if err != nil {
		return "", nil, err
	}
	if qb.lock == LockUpdate {
		query += " FOR UPDATE"
	}
	return query, args, nil
}

func (g *MySQLGrammar) CompileInsert(table string, data map[string]interface{}) (string, []interface{}, error) {
	return compileInsert(g, table, data)
}

func (g *MySQLGrammar) CompileUpdate(table string, data map[string]interface{}, wheres []WhereClause) (string, []interface{}, error) {
	return compileUpdate(g, table, data, wheres)
}

// -----------------------------------------------------------------------------
// Dialect'ler arası ortak derleyiciler
// -----------------------------------------------------------------------------

func compileSelect(g Grammar, qb *QueryBuilder) (string, []interface{}, error) {
	table, err := g.Wrap(qb.table)
	if err != nil {
		return "", nil, err
	}

	columns := make([]string, 0, len(qb.columns))
	if qb.minOf != nil {
		col, err := g.Wrap(qb.minOf.Column)
		if err != nil {
			return "", nil, err
		}
		alias, err := g.Wrap(qb.minOf.Alias)
		if err != nil {
			return "", nil, err
		}
		columns = append(columns, qb.minOf.Func+"("+col+") AS "+alias)
	} else {
		for _, col := range qb.columns {
			wrapped, err := g.Wrap(col)
			if err != nil {
				return "", nil, err
			}
			columns = append(columns, wrapped)
		}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	where, args, err := compileWheres(g, qb.wheres)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(where)

	if len(qb.groups) > 0 {
		groups := make([]string, 0, len(qb.groups))
		for _, col := range qb.groups {
			wrapped, err := g.Wrap(col)
			if err != nil {
				return "", nil, err
			}
			groups = append(groups, wrapped)
		}
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(groups, ", "))
	}

	if len(qb.orders) > 0 {
		orders := make([]string, 0, len(qb.orders))
		for _, o := range qb.orders {
			col, err := g.Wrap(o.Column)
			if err != nil {
				return "", nil, err
			}
			if o.Direction != OrderAsc && o.Direction != OrderDesc {
				return "", nil, fmt.Errorf("invalid order direction %q", o.Direction)
			}
			orders = append(orders, col+" "+string(o.Direction))
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(orders, ", "))
	}

	if qb.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", qb.limit))
	}

	return sb.String(), args, nil
}

func compileWheres(g Grammar, wheres []WhereClause) (string, []interface{}, error) {
	if len(wheres) == 0 {
		return "", nil, nil
	}

	var sb strings.Builder
	var args []interface{}
	sb.WriteString(" WHERE ")

	for i, w := range wheres {
		op := strings.ToUpper(strings.TrimSpace(w.Operator))
		if !allowedOperators[op] {
			return "", nil, fmt.Errorf("operator %q is not allowed", w.Operator)
		}
		col, err := g.Wrap(w.Column)
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			sb.WriteString(" AND ")
		}

		switch op {
		case "IN":
			values, ok := w.Value.([]interface{})
			if !ok {
				return "", nil, fmt.Errorf("IN on %s expects []interface{}, got %T", w.Column, w.Value)
			}
			if len(values) == 0 {
				sb.WriteString("1 = 0")
				continue
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
			sb.WriteString(col + " IN (" + placeholders + ")")
			args = append(args, values...)
		default:
			sb.WriteString(col + " " + op + " ?")
			args = append(args, w.Value)
		}
	}

	return sb.String(), args, nil
}

func compileInsert(g Grammar, table string, data map[string]interface{}) (string, []interface{}, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no data", table)
	}
	wrappedTable, err := g.Wrap(table)
	if err != nil {
		return "", nil, err
	}

	keys := sortedKeys(data)
	columns := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		col, err := g.Wrap(k)
		if err != nil {
			return "", nil, err
		}
		columns = append(columns, col)
		args = append(args, data[k])
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", wrappedTable, strings.Join(columns, ", "), placeholders)
	return query, args, nil
}

func compileUpdate(g Grammar, table string, data map[string]interface{}, wheres []WhereClause) (string, []interface{}, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("update %s: no data", table)
	}
	wrappedTable, err := g.Wrap(table)
	if err != nil {
		return "", nil, err
	}

	keys := sortedKeys(data)
	sets := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))
	for _, k := range keys {
		col, err := g.Wrap(k)
		if err != nil {
			return "", nil, err
		}
		sets = append(sets, col+" = ?")
		args = append(args, data[k])
	}

	where, whereArgs, err := compileWheres(g, wheres)
	if err != nil {
		return "", nil, err
	}

	query := fmt.Sprintf("UPDATE %s SET %s%s", wrappedTable, strings.Join(sets, ", "), where)
	return query, append(args, whereArgs...), nil
}

func sortedKeys(data map[string]interface{}) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
