// Package seed, boş bir veritabanına ilk superadmin kullanıcısını ve
// varsayılan çekim ücretini yazar. Run birden fazla kez çalıştırılabilir;
// mevcut satırlara dokunulmaz.
package seed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/biyonik/ticket-purchase-api/internal/config"
	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/internal/repositories"
	"github.com/biyonik/ticket-purchase-api/pkg/auth"
	"github.com/biyonik/ticket-purchase-api/pkg/database"
	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

// Options, seed edilecek değerler.
type Options struct {
	AdminUsername     string
	AdminPassword     string
	AdminEmail        string
	AdminFullname     string
	WithdrawFeeAmount decimal.Decimal
}

// OptionsFromConfig, Seed config bölümünü Options'a çevirir.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	amount, err := decimal.NewFromString(cfg.Seed.WithdrawFeeAmount)
	if err != nil {
		return Options{}, fmt.Errorf("invalid SEED_WITHDRAW_FEE_AMOUNT %q: %w", cfg.Seed.WithdrawFeeAmount, err)
	}
	return Options{
		AdminUsername:     cfg.Seed.AdminUsername,
		AdminPassword:     cfg.Seed.AdminPassword,
		AdminEmail:        cfg.Seed.AdminEmail,
		AdminFullname:     cfg.Seed.AdminFullname,
		WithdrawFeeAmount: amount,
	}, nil
}

// Result, Run'ın hangi satırları oluşturduğunu söyler.
type Result struct {
	AdminCreated       bool
	WithdrawFeeCreated bool
}

type Seeder struct {
	users  *repositories.UserRepository
	fees   *repositories.WithdrawFeeRepository
	opts   Options
	logger *logger.Logger
}

func NewSeeder(db *sql.DB, grammar database.Grammar, opts Options, log *logger.Logger) *Seeder {
	return &Seeder{
		users:  repositories.NewUserRepository(db, grammar),
		fees:   repositories.NewWithdrawFeeRepository(db, grammar),
		opts:   opts,
		logger: log,
	}
}

// Run, eksik seed satırlarını oluşturur.
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result

	created, err := s.seedAdmin(ctx)
	if err != nil {
		return res, err
	}
	res.AdminCreated = created

	created, err = s.seedWithdrawFee(ctx)
	if err != nil {
		return res, err
	}
	res.WithdrawFeeCreated = created
	return res, nil
}

func (s *Seeder) seedAdmin(ctx context.Context) (bool, error) {
	existing, err := s.users.FindByUsername(ctx, s.opts.AdminUsername)
	switch {
	case err == nil:
		s.checkExistingAdmin(existing)
		s.logger.Info("admin already exists, skipping", "username", existing.Username)
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, fmt.Errorf("failed to look up admin %s: %w", s.opts.AdminUsername, err)
	}

	hash, err := auth.HashWithCost(s.opts.AdminPassword, auth.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Username:  s.opts.AdminUsername,
		Email:     s.opts.AdminEmail,
		Password:  hash,
		Fullname:  s.opts.AdminFullname,
		Activated: true,
		Groups:    models.GroupAdmin + "," + models.GroupSuperAdmin,
	}
	if _, err := s.users.Create(ctx, admin); err != nil {
		return false, err
	}
	s.logger.Info("admin created", "username", admin.Username, "id", admin.ID)
	return true, nil
}

// checkExistingAdmin, mevcut admin kaydı yapılandırmadan saptıysa uyarır.
// Kayıt değiştirilmez.
func (s *Seeder) checkExistingAdmin(admin *models.User) {
	if !admin.HasGroup(models.GroupSuperAdmin) {
		s.logger.Warn("existing admin is not in the SUPERADMIN group", "username", admin.Username, "groups", admin.Groups)
	}
	if !admin.CheckPassword(s.opts.AdminPassword) {
		s.logger.Warn("existing admin password differs from SEED_ADMIN_PASSWORD", "username", admin.Username)
	}
	if auth.NeedsRehash(admin.Password, auth.DefaultCost) {
		s.logger.Warn("admin password hash uses an outdated cost", "username", admin.Username)
	}
}

func (s *Seeder) seedWithdrawFee(ctx context.Context) (bool, error) {
	exists, err := s.fees.Exists(ctx, models.DefaultWithdrawFeeID)
	if err != nil {
		return false, fmt.Errorf("failed to check withdraw fee: %w", err)
	}
	if exists {
		s.logger.Info("withdraw fee already exists, skipping", "id", models.DefaultWithdrawFeeID)
		return false, nil
	}

	fee := &models.WithdrawFee{Amount: s.opts.WithdrawFeeAmount}
	fee.ID = models.DefaultWithdrawFeeID
	if err := s.fees.Create(ctx, fee); err != nil {
		return false, err
	}
	s.logger.Info("withdraw fee created", "id", fee.ID, "amount", fee.Amount.String())
	return true, nil
}
