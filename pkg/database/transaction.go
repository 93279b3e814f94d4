// pkg/database/transaction.go
//
// Transaction, sql.Tx üzerine ince bir sarmalayıcıdır. Builder'lar
// tx.NewBuilder() ile aynı transaction içinde çalışır.
//
// Tercih edilen kullanım WithTransaction'dır; commit/rollback kararını
// callback'in dönüş değerine göre verir:
//
//	total, err := database.WithTransaction(ctx, db, grammar, func(tx *database.Transaction) (int, error) {
//	    ...
//	})

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Transaction, aktif bir veritabanı transaction'ını temsil eder.
type Transaction struct {
	Tx      *sql.Tx
	grammar Grammar
}

// BeginTransaction, yeni bir transaction başlatır. Dönen Transaction mutlaka
// Commit() veya Rollback() ile sonlandırılmalıdır.
func BeginTransaction(ctx context.Context, db *sql.DB, grammar Grammar, opts *sql.TxOptions) (*Transaction, error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Transaction{Tx: tx, grammar: grammar}, nil
}

// NewBuilder, bu transaction üzerinde çalışan bir QueryBuilder döner.
func (t *Transaction) NewBuilder() *QueryBuilder {
	return NewBuilder(t.Tx, t.grammar)
}

// Grammar, transaction'ın dialect grammar'ı.
func (t *Transaction) Grammar() Grammar {
	return t.grammar
}

func (t *Transaction) Commit() error {
	return t.Tx.Commit()
}

// Rollback, transaction'ı geri alır. Zaten sonlanmış bir transaction için
// hata dönmez.
func (t *Transaction) Rollback() error {
	if err := t.Tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// WithTransaction, fn'i yeni bir transaction içinde çalıştırır.
//
//   - fn nil hata dönerse commit edilir ve sonucu döner.
//   - fn hata dönerse rollback yapılır ve hata sarmalanmadan aynen döner.
//   - fn panic ederse rollback yapılır ve panic yeniden fırlatılır.
func WithTransaction[T any](ctx context.Context, db *sql.DB, grammar Grammar, fn func(tx *Transaction) (T, error)) (T, error) {
	var zero T

	tx, err := BeginTransaction(ctx, db, grammar, nil)
	if err != nil {
		return zero, fmt.Errorf("begin transaction: %w", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	result, err := fn(tx)
	if err != nil {
		_ = tx.Rollback()
		done = true
		return zero, err
	}

	if err := tx.Commit(); err != nil {
		_ = tx.Rollback()
		done = true
		return zero, fmt.Errorf("commit transaction: %w", err)
	}
	done = true
	return result, nil
}
