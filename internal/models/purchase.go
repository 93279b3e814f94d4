// -----------------------------------------------------------------------------
// Purchase Model
// -----------------------------------------------------------------------------
// Bir kullanıcının satın aldığı bileti temsil eder. Dışarıya id değil uid
// paylaşılır; kapıdaki QR kod da uid'yi taşır.
//
// Durumlar:
//   - Status: PENDING → COMPLETED | CANCELLED (ödeme akışı, burada değişmez)
//   - RefundStatus: NULL → REFUNDING → REFUNDED | DENIED
//   - Used: false → true (tek yönlü, sadece UseTicket ile)
// -----------------------------------------------------------------------------

package models

import "time"

// PurchaseStatus, satın alma işleminin ödeme durumu.
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "PENDING"
	PurchaseStatusCompleted PurchaseStatus = "COMPLETED"
	PurchaseStatusCancelled PurchaseStatus = "CANCELLED"
)

// Valid, değerin tanımlı bir PurchaseStatus olup olmadığını söyler.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseStatusPending, PurchaseStatusCompleted, PurchaseStatusCancelled:
		return true
	}
	return false
}

// RefundStatus, iade sürecinin durumu. İade talebi yoksa kolon NULL'dır.
type RefundStatus string

const (
	RefundStatusRefunding RefundStatus = "REFUNDING"
	RefundStatusRefunded  RefundStatus = "REFUNDED"
	RefundStatusDenied    RefundStatus = "DENIED"
)

// Valid, değerin tanımlı bir RefundStatus olup olmadığını söyler.
func (s RefundStatus) Valid() bool {
	switch s {
	case RefundStatusRefunding, RefundStatusRefunded, RefundStatusDenied:
		return true
	}
	return false
}

// Purchase, purchase tablosundaki bir satır.
type Purchase struct {
	BaseModel
	UID          string         `json:"uid" db:"uid"`
	UserID       int64          `json:"user_id" db:"user_id"`
	TicketID     int64          `json:"ticket_id" db:"ticket_id"`
	Status       PurchaseStatus `json:"status" db:"status"`
	RefundStatus *RefundStatus  `json:"refund_status" db:"refund_status"`
	Used         bool           `json:"used" db:"used"`
	UsedAt       *time.Time     `json:"used_at,omitempty" db:"used_at"`

	// İlişkili veriler
	Ticket *Ticket `json:"ticket,omitempty" db:"-"`
}

// IsRefunded, iadenin tamamlanıp tamamlanmadığını söyler.
func (p *Purchase) IsRefunded() bool {
	return p.RefundStatus != nil && *p.RefundStatus == RefundStatusRefunded
}

// IsSettled, ödemesi tamamlanmış ve iade edilmemiş satın almalar için true
// döner. Sadece settled bir bilet kapıda geçerlidir.
func (p *Purchase) IsSettled() bool {
	return p.Status == PurchaseStatusCompleted && !p.IsRefunded()
}

// EventID, yüklü ticket ilişkisinden event id'yi döner; ilişki yüklü
// değilse 0.
func (p *Purchase) EventID() int64 {
	if p.Ticket == nil {
		return 0
	}
	return p.Ticket.EventID
}
