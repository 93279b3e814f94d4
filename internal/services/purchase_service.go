package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/biyonik/ticket-purchase-api/internal/apperror"
	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/internal/repositories"
	"github.com/biyonik/ticket-purchase-api/pkg/events"
	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

// Purchase event adları.
const (
	EventTicketValidated     = "purchase.ticket_validated"
	EventTicketUsed          = "purchase.ticket_used"
	EventRefundStatusChanged = "purchase.refund_status_changed"
)

// PurchaseEvent, purchase event'lerinin payload'ı.
type PurchaseEvent struct {
	UID          string               `json:"uid"`
	OwnerID      int64                `json:"owner_id"`
	EventID      int64                `json:"event_id,omitempty"`
	ActorID      int64                `json:"actor_id"`
	RefundStatus *models.RefundStatus `json:"refund_status,omitempty"`
	At           time.Time            `json:"at"`
}

// PurchaseService, satın alma kayıtları üzerindeki sahiplik ve iade
// işlemleri.
type PurchaseService struct {
	purchaseRepo *repositories.PurchaseRepository
	dispatcher   *events.Dispatcher
	logger       *logger.Logger
	now          func() time.Time
}

func NewPurchaseService(
	purchaseRepo *repositories.PurchaseRepository,
	dispatcher *events.Dispatcher,
	log *logger.Logger,
) *PurchaseService {
	return &PurchaseService{
		purchaseRepo: purchaseRepo,
		dispatcher:   dispatcher,
		logger:       log,
		now:          time.Now,
	}
}

// VerifyEventOwnerByTicketPurchase, uid'li satın almanın bağlı olduğu
// etkinliğin user'a ait olduğunu doğrular.
//
// tx, çağıranın açık transaction'ına bağlı repository'dir; okumalar o
// transaction içinde yapılır. tx nil ise servisin kendi repository'si
// kullanılır.
//
//   - satın alma yoksa       → PURCHASE_NOT_FOUND (404)
//   - etkinlik başkasınınsa  → EVENT_NOT_OWNED (403)
func (s *PurchaseService) VerifyEventOwnerByTicketPurchase(ctx context.Context, tx *repositories.PurchaseRepository, user *models.User, uid string) error {
	if tx == nil {
		tx = s.purchaseRepo
	}

	purchase, err := tx.FindByUID(ctx, uid, false)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.PurchaseNotFound()
	}
	if err != nil {
		return fmt.Errorf("failed to find purchase %s: %w", uid, err)
	}

	ticket, err := tx.Tickets().FindByID(ctx, purchase.TicketID)
	if err != nil {
		return fmt.Errorf("failed to find ticket %d: %w", purchase.TicketID, err)
	}

	event, err := tx.Events().FindByID(ctx, ticket.EventID)
	if err != nil {
		return fmt.Errorf("failed to find event %d: %w", ticket.EventID, err)
	}

	if !event.IsOwnedBy(user.ID) {
		return apperror.EventNotOwned()
	}
	return nil
}

// UpdateRefundStatus, iade sürecini ilerletir. status nil ise iade kaydı
// temizlenir. Tanımsız bir status ve kullanılmış bilet PURCHASE_INVALID'dir.
func (s *PurchaseService) UpdateRefundStatus(ctx context.Context, actor *models.User, uid string, status *models.RefundStatus) (*models.Purchase, error) {
	if status != nil && !status.Valid() {
		return nil, apperror.PurchaseInvalid()
	}

	var updated *models.Purchase
	err := s.purchaseRepo.CreateTransactions(ctx, func(tx *repositories.PurchaseRepository) error {
		purchase, err := tx.FindByUID(ctx, uid, true)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.PurchaseNotFound()
		}
		if err != nil {
			return err
		}
		if purchase.Used {
			return apperror.PurchaseInvalid()
		}

		if err := tx.UpdateRefundStatus(ctx, uid, status); err != nil {
			return err
		}
		updated, err = tx.FindByUID(ctx, uid, false)
		return err
	})
	if err != nil {
		return nil, guardInternal(s.logger, "update refund status", err, "uid", uid)
	}

	dispatch(ctx, s.dispatcher, s.logger, EventRefundStatusChanged, PurchaseEvent{
		UID:          updated.UID,
		OwnerID:      updated.UserID,
		ActorID:      actor.ID,
		RefundStatus: updated.RefundStatus,
		At:           s.now().UTC(),
	})
	return updated, nil
}

// guardInternal, domain hatalarını olduğu gibi döner; diğer her şeyi
// loglayıp detaysız Internal hatasına çevirir.
func guardInternal(log *logger.Logger, op string, err error, keysAndValues ...interface{}) error {
	if apperror.IsDomain(err) {
		return err
	}
	log.Error(op+" failed", append(keysAndValues, "error", err)...)
	return apperror.Internal()
}

// dispatch, commit sonrası event'i senkron yayar. Listener hataları
// loglanır, çağırana dönmez.
func dispatch(ctx context.Context, d *events.Dispatcher, log *logger.Logger, name string, payload PurchaseEvent) {
	if d == nil {
		return
	}
	if err := d.Dispatch(ctx, events.NewBaseEventAt(name, payload, payload.At)); err != nil {
		log.Warn("event listener failed", "event", name, "uid", payload.UID, "error", err)
	}
}
