package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/pkg/database"
)

// UserRepository, User model için database işlemlerini yönetir.
type UserRepository struct {
	conn
}

func NewUserRepository(db *sql.DB, grammar database.Grammar) *UserRepository {
	return &UserRepository{conn: newConn(db, grammar)}
}

// FindByUsername returns sql.ErrNoRows when no user has the username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	if err := r.table(tableUser).Where("username", "=", username).First(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Create inserts the user. Password must already be hashed.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (int64, error) {
	user.Initialize(time.Now())

	result, err := r.table(tableUser).ExecInsert(ctx, map[string]interface{}{
		"username":   user.Username,
		"email":      user.Email,
		"password":   user.Password,
		"fullname":   user.Fullname,
		"activated":  user.Activated,
		"groups":     user.Groups,
		"created_at": user.CreatedAt,
		"updated_at": user.UpdatedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	return id, nil
}
