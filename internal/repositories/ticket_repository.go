package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/pkg/database"
)

type TicketRepository struct {
	conn
}

func NewTicketRepository(db *sql.DB, grammar database.Grammar) *TicketRepository {
	return &TicketRepository{conn: newConn(db, grammar)}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *models.Ticket) (int64, error) {
	ticket.Initialize(time.Now())

	result, err := r.table(tableTicket).ExecInsert(ctx, map[string]interface{}{
		"event_id":   ticket.EventID,
		"name":       ticket.Name,
		"price":      ticket.Price,
		"created_at": ticket.CreatedAt,
		"updated_at": ticket.UpdatedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create ticket: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	ticket.ID = id
	return id, nil
}

// FindByID returns sql.ErrNoRows when the ticket does not exist.
func (r *TicketRepository) FindByID(ctx context.Context, id int64) (*models.Ticket, error) {
	ticket := &models.Ticket{}
	if err := r.table(tableTicket).Where("id", "=", id).First(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *TicketRepository) FindByIDs(ctx context.Context, ids []int64) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	if len(ids) == 0 {
		return tickets, nil
	}
	if err := r.table(tableTicket).WhereIn("id", int64Args(ids)).Get(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("failed to find tickets: %w", err)
	}
	return tickets, nil
}
