package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// SQL INJECTION GÜVENLİK TESTLERİ
// -----------------------------------------------------------------------------
// Her case bir exploit senaryosunu simüle eder; builder identifier'ı SQL'e
// sokmadan panic etmelidir.
// -----------------------------------------------------------------------------

var maliciousIdentifiers = []string{
	"id; DROP TABLE purchase--",
	"id' OR '1'='1",
	"id UNION SELECT * FROM user--",
	"id--",
	"id`",
	`id"`,
	"id/**/OR/**/1=1",
	"a.b.c",
	"purchase.",
	"",
	"   ",
}

func TestBuilder_RejectsMaliciousIdentifiers(t *testing.T) {
	for _, ident := range maliciousIdentifiers {
		ident := ident
		t.Run("where "+ident, func(t *testing.T) {
			assert.Panics(t, func() { NewBuilder(nil, &MySQLGrammar{}).Table("purchase").Where(ident, "=", 1) })
		})
		t.Run("order "+ident, func(t *testing.T) {
			assert.Panics(t, func() { NewBuilder(nil, &MySQLGrammar{}).Table("purchase").OrderBy(ident, "DESC") })
		})
		t.Run("table "+ident, func(t *testing.T) {
			assert.Panics(t, func() { NewBuilder(nil, &MySQLGrammar{}).Table(ident) })
		})
		t.Run("select "+ident, func(t *testing.T) {
			assert.Panics(t, func() { NewBuilder(nil, &MySQLGrammar{}).Table("purchase").Select(ident) })
		})
	}
}

func TestBuilder_InsertAndUpdateRejectMaliciousColumns(t *testing.T) {
	qb := NewBuilder(nil, &MySQLGrammar{}).Table("purchase")
	assert.Panics(t, func() {
		_, _ = qb.ExecInsert(context.Background(), map[string]interface{}{"uid; DROP TABLE purchase": "x"})
	})

	qb = NewBuilder(nil, &MySQLGrammar{}).Table("purchase").Where("uid", "=", "x")
	assert.Panics(t, func() {
		_, _ = qb.ExecUpdate(context.Background(), map[string]interface{}{"used = 1, status": "x"})
	})
}

func TestBuilder_UpdateWithoutWhereIsRefused(t *testing.T) {
	_, err := NewBuilder(nil, &MySQLGrammar{}).Table("purchase").ExecUpdate(context.Background(), map[string]interface{}{"used": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without WHERE")
}

func TestBuilder_ValidIdentifiers(t *testing.T) {
	for _, ident := range []string{"uid", "user_id", "purchase.uid", "Event2", "*"} {
		assert.NotPanics(t, func() {
			NewBuilder(nil, &MySQLGrammar{}).Table("purchase").Select(ident).Where("uid", "=", 1)
		}, ident)
	}
}

func TestBuilder_ToSQLRequiresTable(t *testing.T) {
	_, _, err := NewBuilder(nil, &MySQLGrammar{}).ToSQL()
	assert.Error(t, err)
}

func TestBuilder_OrderByFallsBackToAsc(t *testing.T) {
	query, _, err := NewBuilder(nil, &MySQLGrammar{}).
		Table("event_image").
		OrderBy("id", "; DROP TABLE event_image").
		ToSQL()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `event_image` ORDER BY `id` ASC", query)
}

func BenchmarkBuilder_Where(b *testing.B) {
	for i := 0; i < b.N; i++ {
		NewBuilder(nil, &MySQLGrammar{}).Table("purchase").Where("user_id", "=", i).Where("used", "=", false)
	}
}
