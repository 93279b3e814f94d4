// Package testutil provides a migrated SQLite store and row builders for
// integration tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/biyonik/ticket-purchase-api/internal/migrations"
	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/internal/repositories"
	"github.com/biyonik/ticket-purchase-api/pkg/database"
	"github.com/biyonik/ticket-purchase-api/pkg/database/migration"
	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

// Fixture is a freshly migrated SQLite database in the test's temp dir.
type Fixture struct {
	DB      *sql.DB
	Grammar database.Grammar

	seq atomic.Int64
}

// NewFixture opens the database, applies every migration and registers
// cleanup on t.
func NewFixture(t testing.TB) *Fixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.Connect(ctx, database.Options{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "tickets.db"),
	}, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = migration.NewMigrator(db, &migration.SQLiteGrammar{}, logger.NewNop()).Run(ctx, migrations.All())
	require.NoError(t, err)

	return &Fixture{DB: db, Grammar: &database.SQLiteGrammar{}}
}

func (f *Fixture) next() int64 {
	return f.seq.Add(1)
}

// CreateUser inserts an activated user with a unique username.
func (f *Fixture) CreateUser(t testing.TB) *models.User {
	t.Helper()
	n := f.next()
	user := &models.User{
		Username:  fmt.Sprintf("user%d", n),
		Email:     fmt.Sprintf("user%d@example.com", n),
		Password:  "$2a$04$invalidinvalidinvalidinvalidinvalidinvalidinvalidinvali",
		Fullname:  fmt.Sprintf("User %d", n),
		Activated: true,
		Groups:    models.GroupUser,
	}
	_, err := repositories.NewUserRepository(f.DB, f.Grammar).Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

// CreateEvent inserts an event owned by ownerID and attaches the given
// image urls in order.
func (f *Fixture) CreateEvent(t testing.TB, ownerID int64, imageURLs ...string) *models.Event {
	t.Helper()
	ctx := context.Background()
	repo := repositories.NewEventRepository(f.DB, f.Grammar)

	event := &models.Event{
		UserID:   ownerID,
		Name:     fmt.Sprintf("Event %d", f.next()),
		StartsAt: time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second),
	}
	_, err := repo.Create(ctx, event)
	require.NoError(t, err)

	for _, url := range imageURLs {
		img := &models.EventImage{EventID: event.ID, URL: url}
		_, err := repo.AddImage(ctx, img)
		require.NoError(t, err)
		event.Images = append(event.Images, *img)
	}
	return event
}

// CreateTicket inserts a ticket type for the event.
func (f *Fixture) CreateTicket(t testing.TB, eventID int64) *models.Ticket {
	t.Helper()
	ticket := &models.Ticket{
		EventID: eventID,
		Name:    fmt.Sprintf("Ticket %d", f.next()),
		Price:   decimal.RequireFromString("49.90"),
	}
	_, err := repositories.NewTicketRepository(f.DB, f.Grammar).Create(context.Background(), ticket)
	require.NoError(t, err)
	return ticket
}

// CreatePurchase inserts a COMPLETED, unused, non-refunded purchase;
// mutators adjust it before insert.
func (f *Fixture) CreatePurchase(t testing.TB, userID, ticketID int64, mutators ...func(*models.Purchase)) *models.Purchase {
	t.Helper()
	purchase := &models.Purchase{
		UserID:   userID,
		TicketID: ticketID,
		Status:   models.PurchaseStatusCompleted,
	}
	for _, m := range mutators {
		m(purchase)
	}
	_, err := repositories.NewPurchaseRepository(f.DB, f.Grammar).Create(context.Background(), purchase)
	require.NoError(t, err)
	return purchase
}

// Scenario is an organizer's event with one ticket type and a buyer.
type Scenario struct {
	Organizer *models.User
	Buyer     *models.User
	Event     *models.Event
	Ticket    *models.Ticket
}

// NewScenario builds an organizer, their event with two images, a ticket
// type and a buyer.
func (f *Fixture) NewScenario(t testing.TB) *Scenario {
	t.Helper()
	organizer := f.CreateUser(t)
	event := f.CreateEvent(t, organizer.ID, "https://cdn.example.com/a.png", "https://cdn.example.com/b.png")
	return &Scenario{
		Organizer: organizer,
		Buyer:     f.CreateUser(t),
		Event:     event,
		Ticket:    f.CreateTicket(t, event.ID),
	}
}

// WithStatus sets the purchase status.
func WithStatus(s models.PurchaseStatus) func(*models.Purchase) {
	return func(p *models.Purchase) { p.Status = s }
}

// WithRefundStatus sets the refund status.
func WithRefundStatus(s models.RefundStatus) func(*models.Purchase) {
	return func(p *models.Purchase) { p.RefundStatus = &s }
}

// Used marks the purchase as already used.
func Used(p *models.Purchase) {
	now := time.Now().UTC().Truncate(time.Second)
	p.Used = true
	p.UsedAt = &now
}
