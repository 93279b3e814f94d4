// Package migrations lists the schema of the ticket purchase store in
// application order.
package migrations

import (
	"context"

	"github.com/biyonik/ticket-purchase-api/pkg/database/migration"
)

// All returns every migration in the order it must be applied.
func All() []migration.Migration {
	return []migration.Migration{
		createTable("2024_01_01_000001_create_user_table", "user", func(t *migration.Blueprint) {
			t.ID()
			t.String("username", 64).Unique()
			t.String("email", 255)
			t.String("password", 255)
			t.String("fullname", 255)
			t.Boolean("activated").Default(false)
			t.String("groups", 255).Default("USER")
			t.Timestamps()
		}),
		createTable("2024_01_01_000002_create_event_table", "event", func(t *migration.Blueprint) {
			t.ID()
			t.ForeignID("user_id")
			t.String("name", 255)
			t.Timestamp("starts_at")
			t.Timestamps()
			t.Index("user_id")
			t.Foreign("user_id").On("user")
		}),
		createTable("2024_01_01_000003_create_event_image_table", "event_image", func(t *migration.Blueprint) {
			t.ID()
			t.ForeignID("event_id")
			t.Text("url")
			t.Timestamps()
			t.Index("event_id")
			t.Foreign("event_id").On("event").OnDelete("CASCADE")
		}),
		createTable("2024_01_01_000004_create_ticket_table", "ticket", func(t *migration.Blueprint) {
			t.ID()
			t.ForeignID("event_id")
			t.String("name", 255)
			t.Decimal("price", 12, 2)
			t.Timestamps()
			t.Index("event_id")
			t.Foreign("event_id").On("event")
		}),
		createTable("2024_01_01_000005_create_purchase_table", "purchase", func(t *migration.Blueprint) {
			t.ID()
			t.String("uid", 36).Unique()
			t.ForeignID("user_id")
			t.ForeignID("ticket_id")
			t.String("status", 16).Default("PENDING")
			t.String("refund_status", 16).Nullable()
			t.Boolean("used").Default(false)
			t.Timestamp("used_at").Nullable()
			t.Timestamps()
			t.Index("user_id", "status")
			t.Index("ticket_id")
			t.Foreign("user_id").On("user")
			t.Foreign("ticket_id").On("ticket")
		}),
		createTable("2024_01_01_000006_create_withdraw_fee_table", "withdraw_fee", func(t *migration.Blueprint) {
			t.BigInteger("id").Unsigned().PrimaryKey()
			t.Decimal("amount", 12, 2)
			t.Timestamps()
		}),
	}
}

func createTable(name, table string, schema func(t *migration.Blueprint)) migration.Migration {
	return migration.Migration{
		Name: name,
		Up: func(ctx context.Context, m *migration.Migrator) error {
			return m.CreateTable(ctx, table, schema)
		},
		Down: func(ctx context.Context, m *migration.Migrator) error {
			return m.DropTable(ctx, table)
		},
	}
}
