package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// -----------------------------------------------------------------------------
// QUERY BUILDER
// -----------------------------------------------------------------------------
// Builder; tablo, kolonlar, where'lar, gruplama, order, limit ve satır kilidi
// bilgilerini tutar. SQL'e çevirme işi Grammar'a aittir, builder sadece state
// toplar ve executor üzerinden çalıştırır.
//
// Tüm identifier'lar validateIdentifier'dan geçer, tüm değerler placeholder
// ile bağlanır.
// -----------------------------------------------------------------------------

// validIdentifierRegex, güvenli SQL identifier pattern'i.
// Sadece alphanumeric, underscore ve nokta (table.column için) kabul eder.
var validIdentifierRegex = regexp.MustCompile(`^[a-zA-Z0-9_\.]+$`)

type QueryBuilder struct {
	executor QueryExecutor
	grammar  Grammar
	table    string
	columns  []string
	minOf    *aggregateColumn
	wheres   []WhereClause
	groups   []string
	orders   []OrderClause
	limit    int
	lock     LockMode
}

// NewBuilder, executor (*sql.DB veya *sql.Tx) ve dialect grammar'ı ile yeni
// bir QueryBuilder üretir.
func NewBuilder(executor QueryExecutor, grammar Grammar) *QueryBuilder {
	return &QueryBuilder{
		executor: executor,
		grammar:  grammar,
		columns:  []string{"*"},
	}
}

// validateIdentifier, kolon/tablo adını doğrular. Geçersiz identifier
// programcı hatasıdır ve panic ile sonuçlanır.
//
//   - "purchase"             → geçerli
//   - "purchase.uid"         → geçerli
//   - "uid; DROP TABLE x--"  → panic
func validateIdentifier(identifier string, kind string) {
	if identifier == "*" {
		return
	}
	if strings.TrimSpace(identifier) == "" {
		panic(fmt.Sprintf("Invalid %s name: empty identifier", kind))
	}
	if !validIdentifierRegex.MatchString(identifier) {
		panic(fmt.Sprintf("Invalid %s name: '%s' (contains unsafe characters)", kind, identifier))
	}
	if strings.Contains(identifier, ".") {
		parts := strings.Split(identifier, ".")
		if len(parts) > 2 {
			panic(fmt.Sprintf("Invalid %s name: '%s' (too many dots)", kind, identifier))
		}
		for _, part := range parts {
			if part == "" {
				panic(fmt.Sprintf("Invalid %s name: '%s' (empty part)", kind, identifier))
			}
		}
	}
}

// Table, sorgunun çalışacağı tabloyu belirler.
func (qb *QueryBuilder) Table(tableName string) *QueryBuilder {
	validateIdentifier(tableName, "table")
	qb.table = tableName
	return qb
}

// Select, döndürülecek kolonları belirler. Varsayılan "*".
func (qb *QueryBuilder) Select(columns ...string) *QueryBuilder {
	for _, col := range columns {
		validateIdentifier(col, "column")
	}
	qb.columns = columns
	return qb
}

// Where, AND ile bağlanan bir koşul ekler.
//
//	qb.Where("status", "=", "COMPLETED")
//
// Operator whitelist kontrolü Grammar katmanında yapılır.
func (qb *QueryBuilder) Where(column string, operator string, value interface{}) *QueryBuilder {
	return qb.addWhere(column, operator, value)
}

// WhereIn, "column IN (?, ?, ...)" koşulu ekler. Boş liste hiçbir satırla
// eşleşmez.
func (qb *QueryBuilder) WhereIn(column string, values []interface{}) *QueryBuilder {
	return qb.addWhere(column, "IN", values)
}

func (qb *QueryBuilder) addWhere(column, operator string, value interface{}) *QueryBuilder {
	validateIdentifier(column, "column")
	qb.wheres = append(qb.wheres, WhereClause{
		Column:   column,
		Operator: operator,
		Value:    value,
	})
	return qb
}

// SelectMin, grup başına kolonun en küçük değerini alias adıyla seçer.
// Select ile verilen kolonların yerine geçer.
//
//	qb.Table("event_image").SelectMin("id", "id").GroupBy("event_id")
//	→ SELECT MIN(`id`) AS `id` FROM `event_image` GROUP BY `event_id`
func (qb *QueryBuilder) SelectMin(column, alias string) *QueryBuilder {
	validateIdentifier(column, "column")
	validateIdentifier(alias, "alias")
	qb.minOf = &aggregateColumn{Func: "MIN", Column: column, Alias: alias}
	return qb
}

// GroupBy, GROUP BY kolonlarını belirler.
func (qb *QueryBuilder) GroupBy(columns ...string) *QueryBuilder {
	for _, col := range columns {
		validateIdentifier(col, "column")
	}
	qb.groups = append(qb.groups, columns...)
	return qb
}

// OrderBy, sıralama ekler. Direction "ASC" ya da "DESC" dışında bir değerse
// ASC kullanılır.
func (qb *QueryBuilder) OrderBy(column string, direction string) *QueryBuilder {
	validateIdentifier(column, "column")
	dir := OrderAsc
	if strings.EqualFold(strings.TrimSpace(direction), string(OrderDesc)) {
		dir = OrderDesc
	}
	qb.orders = append(qb.orders, OrderClause{Column: column, Direction: dir})
	return qb
}

// LockForUpdate, okunan satırları transaction sonuna kadar kilitler
// (SELECT ... FOR UPDATE). Kilidi desteklemeyen dialect'ler bu bayrağı yok
// sayar; bu durumda serileştirme bağlantı havuzu seviyesinde yapılmalıdır.
//
// Sadece transaction içinde anlamlıdır.
func (qb *QueryBuilder) LockForUpdate() *QueryBuilder {
	qb.lock = LockUpdate
	return qb
}

// ToSQL, çalıştırmadan üretilecek SELECT sorgusunu ve argümanlarını döner.
func (qb *QueryBuilder) ToSQL() (string, []interface{}, error) {
	if qb.table == "" {
		return "", nil, fmt.Errorf("query builder: table is not set")
	}
	return qb.grammar.CompileSelect(qb)
}

// Get, sorguyu çalıştırır ve sonuçları dest'e (struct slice pointer) yazar.
//
//	var purchases []*models.Purchase
//	err := qb.Table("purchase").Where("user_id", "=", 7).Get(ctx, &purchases)
func (qb *QueryBuilder) Get(ctx context.Context, dest interface{}) error {
	query, args, err := qb.ToSQL()
	if err != nil {
		return err
	}

	rows, err := qb.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", qb.table, err)
	}
	defer rows.Close()

	return ScanSlice(rows, dest)
}

// First, ilk satırı dest'e (struct pointer) yazar. Satır yoksa
// sql.ErrNoRows döner.
func (qb *QueryBuilder) First(ctx context.Context, dest interface{}) error {
	qb.limit = 1
	query, args, err := qb.ToSQL()
	if err != nil {
		return err
	}

	rows, err := qb.executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", qb.table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	return ScanStruct(rows, dest)
}

// Exists, koşullara uyan en az bir satır olup olmadığını söyler.
func (qb *QueryBuilder) Exists(ctx context.Context) (bool, error) {
	qb.columns = []string{"id"}
	qb.limit = 1
	query, args, err := qb.ToSQL()
	if err != nil {
		return false, err
	}

	var id interface{}
	err = qb.executor.QueryRowContext(ctx, query, args...).Scan(&id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("exists %s: %w", qb.table, err)
	}
	return true, nil
}

// ExecInsert, data map'ini tabloya ekler.
//
//	res, err := qb.Table("purchase").ExecInsert(ctx, map[string]interface{}{
//	    "uid": uid, "user_id": 7,
//	})
func (qb *QueryBuilder) ExecInsert(ctx context.Context, data map[string]interface{}) (sql.Result, error) {
	if qb.table == "" {
		return nil, fmt.Errorf("query builder: table is not set")
	}
	for col := range data {
		validateIdentifier(col, "column")
	}
	query, args, err := qb.grammar.CompileInsert(qb.table, data)
	if err != nil {
		return nil, err
	}
	return qb.executor.ExecContext(ctx, query, args...)
}

// ExecUpdate, builder'daki where koşullarına uyan satırları data ile
// günceller. Koşulsuz update'e izin verilmez.
func (qb *QueryBuilder) ExecUpdate(ctx context.Context, data map[string]interface{}) (sql.Result, error) {
	if qb.table == "" {
		return nil, fmt.Errorf("query builder: table is not set")
	}
	if len(qb.wheres) == 0 {
		return nil, fmt.Errorf("query builder: refusing UPDATE on %s without WHERE", qb.table)
	}
	for col := range data {
		validateIdentifier(col, "column")
	}
	query, args, err := qb.grammar.CompileUpdate(qb.table, data, qb.wheres)
	if err != nil {
		return nil, err
	}
	return qb.executor.ExecContext(ctx, query, args...)
}
