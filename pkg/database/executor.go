package database

import (
	"context"
	"database/sql"
)

// QueryExecutor, hem *sql.DB (havuz) hem de *sql.Tx (transaction) tarafından
// örtük olarak uygulanan context'li metodları tanımlar.
//
// QueryBuilder *sql.DB'ye değil bu arayüze bağlıdır; aynı builder hem normal
// sorgularda hem de transaction içinde çalışır.
type QueryExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ QueryExecutor = (*sql.DB)(nil)
	_ QueryExecutor = (*sql.Tx)(nil)
)
