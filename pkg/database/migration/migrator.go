// -----------------------------------------------------------------------------
// Database Migration System - Laravel-Inspired
// -----------------------------------------------------------------------------
// Şema değişikliklerini sıralı migration'lar halinde uygular ve hangi
// migration'ın hangi batch'te çalıştığını "migrations" tablosunda tutar.
//
// Kullanım:
//
//	migration.Migration{
//	    Name: "2024_01_01_000001_create_purchase_table",
//	    Up: func(ctx context.Context, m *migration.Migrator) error {
//	        return m.CreateTable(ctx, "purchase", func(t *migration.Blueprint) {
//	            t.ID()
//	            t.String("uid", 36).Unique()
//	            t.Timestamps()
//	        })
//	    },
//	    Down: func(ctx context.Context, m *migration.Migrator) error {
//	        return m.DropTable(ctx, "purchase")
//	    },
//	}
//
// Run bekleyen tüm migration'ları yeni bir batch olarak uygular; Rollback
// son batch'i ters sırada geri alır.
// -----------------------------------------------------------------------------

package migration

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

const migrationsTable = "migrations"

// Migration is a named, reversible schema change.
type Migration struct {
	Name string
	Up   func(ctx context.Context, m *Migrator) error
	Down func(ctx context.Context, m *Migrator) error
}

// Grammar defines DDL generation for a SQL dialect.
type Grammar interface {
	CompileCreateTable(b *Blueprint) []string
	CompileDropTable(table string) string
	CompileHasTable(table string) (string, []interface{})
}

// Migrator manages database migrations.
type Migrator struct {
	db      *sql.DB
	grammar Grammar
	logger  *logger.Logger
}

// NewMigrator creates a new Migrator instance.
func NewMigrator(db *sql.DB, grammar Grammar, log *logger.Logger) *Migrator {
	return &Migrator{db: db, grammar: grammar, logger: log}
}

// GrammarFor returns the DDL grammar for a database driver name.
func GrammarFor(driver string) (Grammar, error) {
	switch driver {
	case "mysql":
		return &MySQLGrammar{}, nil
	case "sqlite":
		return &SQLiteGrammar{}, nil
	default:
		return nil, fmt.Errorf("unsupported migration driver %q", driver)
	}
}

// CreateTable builds a table from the blueprint callback.
func (m *Migrator) CreateTable(ctx context.Context, table string, callback func(*Blueprint)) error {
	blueprint := NewBlueprint(table)
	callback(blueprint)

	for _, stmt := range m.grammar.CompileCreateTable(blueprint) {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

// DropTable drops the table if it exists.
func (m *Migrator) DropTable(ctx context.Context, table string) error {
	if _, err := m.db.ExecContext(ctx, m.grammar.CompileDropTable(table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}

// HasTable checks if a table exists.
func (m *Migrator) HasTable(ctx context.Context, table string) (bool, error) {
	query, args := m.grammar.CompileHasTable(table)

	var count int
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("has table %s: %w", table, err)
	}
	return count > 0, nil
}

func (m *Migrator) ensureMigrationsTable(ctx context.Context) error {
	exists, err := m.HasTable(ctx, migrationsTable)
	if err != nil || exists {
		return err
	}

	err = m.CreateTable(ctx, migrationsTable, func(t *Blueprint) {
		t.ID()
		t.String("migration", 255).Unique()
		t.Integer("batch")
		t.Timestamp("created_at").Default(CurrentTimestamp)
	})
	if err != nil {
		return err
	}
	m.logger.Info("created migrations table")
	return nil
}

// Ran returns the names of applied migrations in application order.
func (m *Migrator) Ran(ctx context.Context) ([]string, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, "SELECT `migration` FROM `migrations` ORDER BY `id` ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (m *Migrator) lastBatch(ctx context.Context) (int, error) {
	var batch sql.NullInt64
	if err := m.db.QueryRowContext(ctx, "SELECT MAX(`batch`) FROM `migrations`").Scan(&batch); err != nil {
		return 0, err
	}
	if batch.Valid {
		return int(batch.Int64), nil
	}
	return 0, nil
}

// Run applies all pending migrations as one new batch and returns the names
// it applied. A failing migration stops the run; earlier ones stay recorded.
func (m *Migrator) Run(ctx context.Context, migrations []Migration) ([]string, error) {
	ran, err := m.Ran(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(ran))
	for _, name := range ran {
		done[name] = true
	}

	last, err := m.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	batch := last + 1

	var applied []string
	for _, mig := range migrations {
		if done[mig.Name] {
			continue
		}
		if err := mig.Up(ctx, m); err != nil {
			return applied, fmt.Errorf("migration %s: %w", mig.Name, err)
		}
		if _, err := m.db.ExecContext(ctx, "INSERT INTO `migrations` (`migration`, `batch`) VALUES (?, ?)", mig.Name, batch); err != nil {
			return applied, fmt.Errorf("record migration %s: %w", mig.Name, err)
		}
		m.logger.Info("migrated", "migration", mig.Name, "batch", batch)
		applied = append(applied, mig.Name)
	}

	if len(applied) == 0 {
		m.logger.Info("nothing to migrate")
	}
	return applied, nil
}

// Rollback reverts every migration of the last batch in reverse order and
// returns the names it reverted.
func (m *Migrator) Rollback(ctx context.Context, migrations []Migration) ([]string, error) {
	if err := m.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}
	last, err := m.lastBatch(ctx)
	if err != nil || last == 0 {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, "SELECT `migration` FROM `migrations` WHERE `batch` = ? ORDER BY `id` DESC", last)
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	byName := make(map[string]Migration, len(migrations))
	for _, mig := range migrations {
		byName[mig.Name] = mig
	}

	var reverted []string
	for _, name := range names {
		mig, ok := byName[name]
		if !ok {
			return reverted, fmt.Errorf("rollback: migration %s is recorded but not registered", name)
		}
		if err := mig.Down(ctx, m); err != nil {
			return reverted, fmt.Errorf("rollback %s: %w", name, err)
		}
		if _, err := m.db.ExecContext(ctx, "DELETE FROM `migrations` WHERE `migration` = ?", name); err != nil {
			return reverted, fmt.Errorf("forget migration %s: %w", name, err)
		}
		m.logger.Info("rolled back", "migration", name)
		reverted = append(reverted, name)
	}
	return reverted, nil
}
