package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/biyonik/ticket-purchase-api/internal/models"
	"github.com/biyonik/ticket-purchase-api/pkg/database"
)

// PurchaseFilter, FindMany predicate'leri. Nil alanlar sorguya eklenmez.
type PurchaseFilter struct {
	UserID       int64
	Status       *models.PurchaseStatus
	RefundStatus *models.RefundStatus
	Used         *bool
}

// PurchaseRepository, purchase satırları üzerindeki veri erişimi.
//
// CreateTransactions ile elde edilen tx-bound kopya ve onun Tickets() /
// Events() kardeşleri aynı transaction üzerinde çalışır.
type PurchaseRepository struct {
	conn
}

func NewPurchaseRepository(db *sql.DB, grammar database.Grammar) *PurchaseRepository {
	return &PurchaseRepository{conn: newConn(db, grammar)}
}

// Tickets, aynı bağlantıyı (ve varsa transaction'ı) kullanan TicketRepository.
func (r *PurchaseRepository) Tickets() *TicketRepository {
	return &TicketRepository{conn: r.conn}
}

// Events, aynı bağlantıyı (ve varsa transaction'ı) kullanan EventRepository.
func (r *PurchaseRepository) Events() *EventRepository {
	return &EventRepository{conn: r.conn}
}

// InTransaction, repository bir transaction'a bağlıysa true döner.
func (r *PurchaseRepository) InTransaction() bool {
	return r.tx != nil
}

// CreateTransactions, work'ü tek bir transaction içinde tx-bound bir
// repository ile çalıştırır. work nil dönerse commit, hata dönerse rollback
// yapılır ve hata aynen döner; panic rollback'ten sonra yeniden fırlatılır.
//
// Zaten transaction'a bağlı bir repository üzerinde çağrılırsa work mevcut
// transaction içinde çalışır.
func (r *PurchaseRepository) CreateTransactions(ctx context.Context, work func(tx *PurchaseRepository) error) error {
	if r.InTransaction() {
		return work(r)
	}
	_, err := database.WithTransaction(ctx, r.db, r.grammar, func(tx *database.Transaction) (struct{}, error) {
		return struct{}{}, work(&PurchaseRepository{conn: r.withTx(tx)})
	})
	return err
}

func (r *PurchaseRepository) Create(ctx context.Context, purchase *models.Purchase) (int64, error) {
	if purchase.UID == "" {
		purchase.UID = uuid.NewString()
	}
	if purchase.Status == "" {
		purchase.Status = models.PurchaseStatusPending
	}
	purchase.Initialize(time.Now())

	result, err := r.table(tablePurchase).ExecInsert(ctx, map[string]interface{}{
		"uid":           purchase.UID,
		"user_id":       purchase.UserID,
		"ticket_id":     purchase.TicketID,
		"status":        string(purchase.Status),
		"refund_status": refundStatusValue(purchase.RefundStatus),
		"used":          purchase.Used,
		"used_at":       timeValue(purchase.UsedAt),
		"created_at":    purchase.CreatedAt,
		"updated_at":    purchase.UpdatedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create purchase: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	purchase.ID = id
	return id, nil
}

// FindMany, filtreye uyan satın almaları Ticket → Event → ilk görsel
// ilişkileriyle döner. Sıralama veritabanına bırakılır.
func (r *PurchaseRepository) FindMany(ctx context.Context, filter PurchaseFilter) ([]*models.Purchase, error) {
	qb := r.table(tablePurchase).Where("user_id", "=", filter.UserID)
	if filter.Status != nil {
		qb.Where("status", "=", string(*filter.Status))
	}
	if filter.RefundStatus != nil {
		qb.Where("refund_status", "=", string(*filter.RefundStatus))
	}
	if filter.Used != nil {
		qb.Where("used", "=", *filter.Used)
	}

	purchases := []*models.Purchase{}
	if err := qb.Get(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("failed to find purchases: %w", err)
	}
	if err := r.LoadTickets(ctx, purchases...); err != nil {
		return nil, err
	}
	return purchases, nil
}

// FindOne, kullanıcıya ait uid'li satın almayı ilişkileriyle döner.
// Bulunamazsa sql.ErrNoRows.
func (r *PurchaseRepository) FindOne(ctx context.Context, userID int64, uid string) (*models.Purchase, error) {
	purchase := &models.Purchase{}
	err := r.table(tablePurchase).
		Where("user_id", "=", userID).
		Where("uid", "=", uid).
		First(ctx, purchase)
	if err != nil {
		return nil, err
	}
	if err := r.LoadTickets(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// FindByUID, ilişkisiz satırı döner. lock true ise satır transaction
// sonuna kadar kilitlenir. Bulunamazsa sql.ErrNoRows.
func (r *PurchaseRepository) FindByUID(ctx context.Context, uid string, lock bool) (*models.Purchase, error) {
	qb := r.table(tablePurchase).Where("uid", "=", uid)
	if lock {
		qb.LockForUpdate()
	}

	purchase := &models.Purchase{}
	if err := qb.First(ctx, purchase); err != nil {
		return nil, err
	}
	return purchase, nil
}

// FindByUIDWithTicket, FindByUID gibidir; ek olarak purchase.Ticket'a
// sadece id ve event_id alanları yüklenir.
func (r *PurchaseRepository) FindByUIDWithTicket(ctx context.Context, uid string, lock bool) (*models.Purchase, error) {
	purchase, err := r.FindByUID(ctx, uid, lock)
	if err != nil {
		return nil, err
	}

	ticket := &models.Ticket{}
	err = r.table(tableTicket).
		Select("id", "event_id").
		Where("id", "=", purchase.TicketID).
		First(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("failed to find ticket %d of purchase %s: %w", purchase.TicketID, uid, err)
	}
	purchase.Ticket = ticket
	return purchase, nil
}

// LoadTickets, satın almalara Ticket → Event → ilk görsel ilişkilerini
// üç sorguda yükler.
func (r *PurchaseRepository) LoadTickets(ctx context.Context, purchases ...*models.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}

	ticketIDs := make([]int64, 0, len(purchases))
	seen := make(map[int64]bool, len(purchases))
	for _, p := range purchases {
		if !seen[p.TicketID] {
			seen[p.TicketID] = true
			ticketIDs = append(ticketIDs, p.TicketID)
		}
	}

	tickets, err := r.Tickets().FindByIDs(ctx, ticketIDs)
	if err != nil {
		return err
	}

	eventIDs := make([]int64, 0, len(tickets))
	seenEvents := make(map[int64]bool, len(tickets))
	for _, t := range tickets {
		if !seenEvents[t.EventID] {
			seenEvents[t.EventID] = true
			eventIDs = append(eventIDs, t.EventID)
		}
	}

	events, err := r.Events().FindByIDsWithFirstImage(ctx, eventIDs)
	if err != nil {
		return err
	}

	eventByID := make(map[int64]*models.Event, len(events))
	for _, e := range events {
		eventByID[e.ID] = e
	}
	ticketByID := make(map[int64]*models.Ticket, len(tickets))
	for _, t := range tickets {
		t.Event = eventByID[t.EventID]
		ticketByID[t.ID] = t
	}
	for _, p := range purchases {
		p.Ticket = ticketByID[p.TicketID]
	}
	return nil
}

// MarkUsed, used=false koşuluyla satırı kullanılmış işaretler. Satır zaten
// kullanılmışsa (ya da yoksa) false döner.
func (r *PurchaseRepository) MarkUsed(ctx context.Context, uid string, at time.Time) (bool, error) {
	at = at.UTC().Truncate(time.Second)

	result, err := r.table(tablePurchase).
		Where("uid", "=", uid).
		Where("used", "=", false).
		ExecUpdate(ctx, map[string]interface{}{
			"used":       true,
			"used_at":    at,
			"updated_at": at,
		})
	if err != nil {
		return false, fmt.Errorf("failed to mark purchase %s used: %w", uid, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected == 1, nil
}

// UpdateRefundStatus, iade durumunu günceller; nil NULL yazar.
func (r *PurchaseRepository) UpdateRefundStatus(ctx context.Context, uid string, status *models.RefundStatus) error {
	_, err := r.table(tablePurchase).
		Where("uid", "=", uid).
		ExecUpdate(ctx, map[string]interface{}{
			"refund_status": refundStatusValue(status),
			"updated_at":    time.Now().UTC().Truncate(time.Second),
		})
	if err != nil {
		return fmt.Errorf("failed to update refund status of %s: %w", uid, err)
	}
	return nil
}

func refundStatusValue(s *models.RefundStatus) interface{} {
	if s == nil {
		return nil
	}
	return string(*s)
}

func timeValue(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
