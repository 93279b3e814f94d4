package database

import "fmt"

// Grammar, SQL lehçesine özgü sorgu üretimini tanımlar.
//
// Implementasyonlar:
//   - MySQLGrammar: MySQL/MariaDB (production)
//   - SQLiteGrammar: SQLite (lokal geliştirme ve testler)
type Grammar interface {
	// Wrap, identifier'ları lehçeye göre sarmalar (`table`.`column`).
	Wrap(value string) (string, error)

	// CompileSelect, builder state'inden SELECT sorgusu üretir.
	CompileSelect(qb *QueryBuilder) (string, []interface{}, error)

	// CompileInsert, INSERT sorgusu üretir. Kolonlar alfabetik sıralanır.
	CompileInsert(table string, data map[string]interface{}) (string, []interface{}, error)

	// CompileUpdate, UPDATE sorgusu üretir. Kolonlar alfabetik sıralanır.
	CompileUpdate(table string, data map[string]interface{}, wheres []WhereClause) (string, []interface{}, error)
}

// GrammarFor, driver adına karşılık gelen grammar'ı döner.
func GrammarFor(driver string) (Grammar, error) {
	switch driver {
	case DriverMySQL:
		return &MySQLGrammar{}, nil
	case DriverSQLite:
		return &SQLiteGrammar{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
