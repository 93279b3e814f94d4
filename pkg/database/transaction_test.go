package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

type counterRow struct {
	ID    int64   `db:"id"`
	Label string  `db:"label"`
	Done  bool    `db:"done"`
	Note  *string `db:"note"`
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := Connect(ctx, Options{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
	}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.ExecContext(ctx, `CREATE TABLE counter (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		label TEXT NOT NULL,
		done BOOLEAN NOT NULL DEFAULT 0,
		note TEXT NULL
	)`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM counter").Scan(&n))
	return n
}

func TestWithTransaction_CommitsOnSuccess(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	id, err := WithTransaction(ctx, db, &SQLiteGrammar{}, func(tx *Transaction) (int64, error) {
		res, err := tx.NewBuilder().Table("counter").ExecInsert(ctx, map[string]interface{}{"label": "a"})
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, 1, countRows(t, db))
}

func TestWithTransaction_RollsBackAndReturnsErrorUnchanged(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	sentinel := errors.New("domain failure")

	_, err := WithTransaction(ctx, db, &SQLiteGrammar{}, func(tx *Transaction) (struct{}, error) {
		_, err := tx.NewBuilder().Table("counter").ExecInsert(ctx, map[string]interface{}{"label": "a"})
		require.NoError(t, err)
		return struct{}{}, sentinel
	})
	assert.Same(t, sentinel, err)
	assert.Equal(t, 0, countRows(t, db))
}

func TestWithTransaction_RollsBackAndRepanics(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	assert.PanicsWithValue(t, "boom", func() {
		_, _ = WithTransaction(ctx, db, &SQLiteGrammar{}, func(tx *Transaction) (struct{}, error) {
			_, err := tx.NewBuilder().Table("counter").ExecInsert(ctx, map[string]interface{}{"label": "a"})
			require.NoError(t, err)
			panic("boom")
		})
	})

	// Tek bağlantılı havuz: rollback yapılmasaydı bu sorgu kilitlenirdi.
	assert.Equal(t, 0, countRows(t, db))
}

func TestBuilder_RoundTripOnSQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	g := &SQLiteGrammar{}

	for _, label := range []string{"a", "b", "c"} {
		_, err := NewBuilder(db, g).Table("counter").ExecInsert(ctx, map[string]interface{}{"label": label})
		require.NoError(t, err)
	}

	res, err := NewBuilder(db, g).Table("counter").
		Where("label", "=", "b").
		Where("done", "=", false).
		ExecUpdate(ctx, map[string]interface{}{"done": true, "note": "checked"})
	require.NoError(t, err)
	affected, err := res.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	var rows []*counterRow
	require.NoError(t, NewBuilder(db, g).Table("counter").OrderBy("id", "ASC").Get(ctx, &rows))
	require.Len(t, rows, 3)
	assert.False(t, rows[0].Done)
	assert.Nil(t, rows[0].Note)
	assert.True(t, rows[1].Done)
	require.NotNil(t, rows[1].Note)
	assert.Equal(t, "checked", *rows[1].Note)

	var one counterRow
	require.NoError(t, NewBuilder(db, g).Table("counter").Where("label", "=", "c").First(ctx, &one))
	assert.Equal(t, int64(3), one.ID)

	err = NewBuilder(db, g).Table("counter").Where("label", "=", "zzz").First(ctx, &one)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	exists, err := NewBuilder(db, g).Table("counter").Where("done", "=", true).Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	var none []counterRow
	require.NoError(t, NewBuilder(db, g).Table("counter").WhereIn("id", nil).Get(ctx, &none))
	assert.Empty(t, none)
}
