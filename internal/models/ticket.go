// -----------------------------------------------------------------------------
// Ticket Model
// -----------------------------------------------------------------------------
// Bir event için satılan bilet tipi (örn. "VIP", "Tribün"). Purchase'lar bir
// ticket'a bağlanır. Bu serviste salt okunurdur.
// -----------------------------------------------------------------------------

package models

import "github.com/shopspring/decimal"

// Ticket, ticket tablosundaki bir satır.
type Ticket struct {
	BaseModel
	EventID int64           `json:"event_id" db:"event_id"`
	Name    string          `json:"name" db:"name"`
	Price   decimal.Decimal `json:"price" db:"price"`

	// İlişkili veriler
	Event *Event `json:"event,omitempty" db:"-"`
}
