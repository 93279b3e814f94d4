package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/pkg/database"
)

type WithdrawFeeRepository struct {
	conn
}

func NewWithdrawFeeRepository(db *sql.DB, grammar database.Grammar) *WithdrawFeeRepository {
	return &WithdrawFeeRepository{conn: newConn(db, grammar)}
}

// FindByID returns sql.ErrNoRows when the fee row is missing.
func (r *WithdrawFeeRepository) FindByID(ctx context.Context, id int64) (*models.WithdrawFee, error) {
	fee := &models.WithdrawFee{}
	if err := r.table(tableWithdrawFee).Where("id", "=", id).First(ctx, fee); err != nil {
		return nil, err
	}
	return fee, nil
}

func (r *WithdrawFeeRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.table(tableWithdrawFee).Where("id", "=", id).Exists(ctx)
}

// Create inserts the fee with its explicit id.
func (r *WithdrawFeeRepository) Create(ctx context.Context, fee *models.WithdrawFee) error {
	fee.Initialize(time.Now())

	_, err := r.table(tableWithdrawFee).ExecInsert(ctx, map[string]interface{}{
		"id":         fee.ID,
		"amount":     fee.Amount,
		"created_at": fee.CreatedAt,
		"updated_at": fee.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to create withdraw fee %d: %w", fee.ID, err)
	}
	return nil
}
