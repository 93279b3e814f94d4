package database

// SQLiteGrammar, SQLite için SQL üretir. Identifier quoting ve placeholder
// söz dizimi MySQL ile aynıdır; tek fark satır kilidinin olmamasıdır.
// SQLite yazma işlemlerini veritabanı seviyesinde serileştirir, bu yüzden
// LockForUpdate burada sessizce yok sayılır.
type SQLiteGrammar struct {
	MySQLGrammar
}

// CompileSelect, FOR UPDATE eklemeden SELECT üretir.
func (g *SQLiteGrammar) CompileSelect(qb *QueryBuilder) (string, []interface{}, error) {
	return compileSelect(g, qb)
}
