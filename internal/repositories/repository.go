package repositories

import (
	"database/sql"

	"github.com/biyonik/ticket-purchase-api/pkg/database"
)

// Tablo adları.
const (
	tablePurchase    = "purchase"
	tableTicket      = "ticket"
	tableEvent       = "event"
	tableEventImage  = "event_image"
	tableUser        = "user"
	tableWithdrawFee = "withdraw_fee"
)

// conn, kardeş repository'lerin paylaştığı bağlantı durumu. Bir transaction
// içinde exec *sql.Tx'tir; Tickets()/Events() ile türetilen repository'ler
// aynı transaction'ı görür.
type conn struct {
	db      *sql.DB
	exec    database.QueryExecutor
	grammar database.Grammar
	tx      *database.Transaction
}

func newConn(db *sql.DB, grammar database.Grammar) conn {
	return conn{db: db, exec: db, grammar: grammar}
}

func (c conn) withTx(tx *database.Transaction) conn {
	return conn{db: c.db, exec: tx.Tx, grammar: c.grammar, tx: tx}
}

func (c conn) table(name string) *database.QueryBuilder {
	return database.NewBuilder(c.exec, c.grammar).Table(name)
}

func int64Args(ids []int64) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
