package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/biyonik/ticket-purchase-api/internal/apperror"
	"github.com/biyonik/ticket-purchase-api/internal/metrics"
	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/internal/repositories"
	"github.com/biyonik/ticket-purchase-api/pkg/cache"
	"github.com/biyonik/ticket-purchase-api/pkg/events"
	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

const (
	// DefaultQRCodeSize, TicketQRCode için size verilmediğinde kullanılan
	// piksel genişliği.
	DefaultQRCodeSize = 256
	maxQRCodeSize     = 1024

	// DefaultTicketCacheTTL, MyTicket cache süresi.
	DefaultTicketCacheTTL = time.Minute
)

// EventOwnerVerifier, satın almanın etkinliğinin kullanıcıya ait olduğunu
// açık transaction içinde doğrular. *PurchaseService implement eder.
type EventOwnerVerifier interface {
	VerifyEventOwnerByTicketPurchase(ctx context.Context, tx *repositories.PurchaseRepository, user *models.User, uid string) error
}

// MyTicketCacheKey, MyTicket sonucunun cache anahtarı.
func MyTicketCacheKey(userID int64, uid string) string {
	return fmt.Sprintf("my_ticket:%d:%s", userID, uid)
}

// TicketService, alıcının biletleri ve kapıda bilet doğrulama/kullanma.
//
// cache, dispatcher ve metrics opsiyoneldir; nil verilebilir.
type TicketService struct {
	purchaseRepo *repositories.PurchaseRepository
	verifier     EventOwnerVerifier
	dispatcher   *events.Dispatcher
	cache        cache.Cache
	cacheTTL     time.Duration
	metrics      *metrics.TicketMetrics
	logger       *logger.Logger
	now          func() time.Time
}

func NewTicketService(
	purchaseRepo *repositories.PurchaseRepository,
	verifier EventOwnerVerifier,
	dispatcher *events.Dispatcher,
	c cache.Cache,
	cacheTTL time.Duration,
	m *metrics.TicketMetrics,
	log *logger.Logger,
) *TicketService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultTicketCacheTTL
	}
	return &TicketService{
		purchaseRepo: purchaseRepo,
		verifier:     verifier,
		dispatcher:   dispatcher,
		cache:        c,
		cacheTTL:     cacheTTL,
		metrics:      m,
		logger:       log,
		now:          time.Now,
	}
}

func purchaseStatusOrDefault(s string) models.PurchaseStatus {
	if status := models.PurchaseStatus(s); status.Valid() {
		return status
	}
	return models.PurchaseStatusCompleted
}

func refundStatusOrNil(s string) *models.RefundStatus {
	if status := models.RefundStatus(s); status.Valid() {
		return &status
	}
	return nil
}

// MyTickets, kullanıcının satın almalarını Ticket → Event → ilk görsel ile
// döner.
//
// Tanımsız status COMPLETED'a düşer. Tanımsız refundStatus ise filtreyi
// tamamen kaldırır: iadesi olan ve olmayan her satın alma döner. used nil
// değilse filtreye eklenir.
func (s *TicketService) MyTickets(ctx context.Context, user *models.User, status, refundStatus string, used *bool) ([]*models.Purchase, error) {
	filterStatus := purchaseStatusOrDefault(status)
	filter := repositories.PurchaseFilter{
		UserID:       user.ID,
		Status:       &filterStatus,
		RefundStatus: refundStatusOrNil(refundStatus),
		Used:         used,
	}

	purchases, err := s.purchaseRepo.FindMany(ctx, filter)
	if err != nil {
		return nil, guardInternal(s.logger, "my tickets", err, "user_id", user.ID)
	}
	return purchases, nil
}

// MyTicket, kullanıcıya ait tek bir satın almayı ilişkileriyle döner.
// Sonuç cacheTTL süresince cache'lenir. Cache sadece bu paketin
// ticket_used ve refund_status_changed event'leriyle temizlenir; satırı
// doğrudan güncelleyen başka bir süreç (örn. iade işlemi) varsa eski
// refund_status/used değeri TTL dolana kadar dönebilir.
func (s *TicketService) MyTicket(ctx context.Context, user *models.User, uid string) (*models.Purchase, error) {
	load := func() (*models.Purchase, error) {
		purchase, err := s.purchaseRepo.FindOne(ctx, user.ID, uid)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.PurchaseNotFound()
		}
		return purchase, err
	}

	var (
		purchase *models.Purchase
		err      error
	)
	if s.cache != nil {
		purchase, err = cache.Remember(ctx, s.cache, s.logger, MyTicketCacheKey(user.ID, uid), s.cacheTTL, load)
	} else {
		purchase, err = load()
	}
	if err != nil {
		return nil, guardInternal(s.logger, "my ticket", err, "user_id", user.ID, "uid", uid)
	}
	return purchase, nil
}

// ValidateTicket, organizatörün kapıda bileti kontrol etmesidir; hiçbir şey
// değiştirmez. Dönen satın almada ticket ilişkisi yoktur.
func (s *TicketService) ValidateTicket(ctx context.Context, user *models.User, uid string, eventID int64) (*models.Purchase, error) {
	start := time.Now()

	var purchase *models.Purchase
	err := s.purchaseRepo.CreateTransactions(ctx, func(tx *repositories.PurchaseRepository) error {
		if err := s.verifier.VerifyEventOwnerByTicketPurchase(ctx, tx, user, uid); err != nil {
			return err
		}

		checked, err := s.checkTicketPurchase(ctx, tx, uid, eventID)
		if err != nil {
			return err
		}
		checked.Ticket = nil
		purchase = checked
		return nil
	})
	s.observe(metrics.OperationValidate, err, start)
	if err != nil {
		return nil, guardInternal(s.logger, "validate ticket", err, "uid", uid, "event_id", eventID)
	}

	dispatch(ctx, s.dispatcher, s.logger, EventTicketValidated, PurchaseEvent{
		UID:     purchase.UID,
		OwnerID: purchase.UserID,
		EventID: eventID,
		ActorID: user.ID,
		At:      s.now().UTC(),
	})
	return purchase, nil
}

// UseTicket, ValidateTicket ile aynı kontrollerden sonra bileti kullanılmış
// işaretler ve güncel satın almayı döner.
//
// Aynı uid için eşzamanlı çağrılardan sadece biri başarılı olur; diğerleri
// TICKET_USED alır.
func (s *TicketService) UseTicket(ctx context.Context, user *models.User, uid string, eventID int64) (*models.Purchase, error) {
	start := time.Now()
	usedAt := s.now()

	var purchase *models.Purchase
	err := s.purchaseRepo.CreateTransactions(ctx, func(tx *repositories.PurchaseRepository) error {
		if err := s.verifier.VerifyEventOwnerByTicketPurchase(ctx, tx, user, uid); err != nil {
			return err
		}
		if _, err := s.checkTicketPurchase(ctx, tx, uid, eventID); err != nil {
			return err
		}

		marked, err := tx.MarkUsed(ctx, uid, usedAt)
		if err != nil {
			return err
		}
		if !marked {
			return apperror.TicketUsed()
		}

		purchase, err = tx.FindByUID(ctx, uid, false)
		return err
	})
	s.observe(metrics.OperationUse, err, start)
	if err != nil {
		return nil, guardInternal(s.logger, "use ticket", err, "uid", uid, "event_id", eventID)
	}

	s.logger.Info("ticket used", "uid", uid, "event_id", eventID, "checked_by", user.ID)
	dispatch(ctx, s.dispatcher, s.logger, EventTicketUsed, PurchaseEvent{
		UID:     purchase.UID,
		OwnerID: purchase.UserID,
		EventID: eventID,
		ActorID: user.ID,
		At:      usedAt.UTC(),
	})
	return purchase, nil
}

// TicketQRCode, kapı okuyucusu için uid'yi taşıyan PNG QR kod üretir.
// Sadece biletin sahibi alabilir. size <= 0 ise DefaultQRCodeSize.
func (s *TicketService) TicketQRCode(ctx context.Context, user *models.User, uid string, size int) ([]byte, error) {
	purchase, err := s.MyTicket(ctx, user, uid)
	if err != nil {
		return nil, err
	}

	switch {
	case size <= 0:
		size = DefaultQRCodeSize
	case size > maxQRCodeSize:
		size = maxQRCodeSize
	}

	png, err := qrcode.Encode(purchase.UID, qrcode.Medium, size)
	if err != nil {
		return nil, guardInternal(s.logger, "ticket qr code", err, "uid", uid)
	}
	return png, nil
}

// checkTicketPurchase, satın almanın eventID için kapıda geçerli olup
// olmadığını açık transaction içinde kontrol eder. Satır transaction
// sonuna kadar kilitlenir.
//
// Sıra sabittir:
//  1. satın alma yok                          → PURCHASE_NOT_FOUND
//  2. bilet başka etkinliğin                  → PURCHASE_INVALID
//  3. COMPLETED değil ya da REFUNDED          → PURCHASE_INVALID
//  4. zaten kullanılmış                       → TICKET_USED
func (s *TicketService) checkTicketPurchase(ctx context.Context, tx *repositories.PurchaseRepository, uid string, eventID int64) (*models.Purchase, error) {
	purchase, err := tx.FindByUIDWithTicket(ctx, uid, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.PurchaseNotFound()
	}
	if err != nil {
		return nil, err
	}

	switch {
	case purchase.EventID() != eventID:
		return nil, apperror.PurchaseInvalid()
	case !purchase.IsSettled():
		return nil, apperror.PurchaseInvalid()
	case purchase.Used:
		return nil, apperror.TicketUsed()
	}
	return purchase, nil
}

func (s *TicketService) observe(operation string, err error, start time.Time) {
	s.metrics.ObserveCheck(operation, checkResult(err), time.Since(start))
}

func checkResult(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	appErr, ok := apperror.As(err)
	if !ok {
		return metrics.ResultError
	}
	switch appErr.Code {
	case apperror.CodePurchaseNotFound:
		return metrics.ResultNotFound
	case apperror.CodePurchaseInvalid:
		return metrics.ResultInvalid
	case apperror.CodeTicketUsed:
		return metrics.ResultUsed
	case apperror.CodeEventNotOwned:
		return metrics.ResultNotOwned
	default:
		return metrics.ResultError
	}
}
