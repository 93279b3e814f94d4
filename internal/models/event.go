// -----------------------------------------------------------------------------
// Event Model
// -----------------------------------------------------------------------------
// Etkinlik ve görselleri. UserID etkinliği oluşturan organizatördür; kapıda
// bilet doğrulamayı sadece o yapabilir.
// -----------------------------------------------------------------------------

package models

import "time"

// Event, event tablosundaki bir satır.
type Event struct {
	BaseModel
	UserID   int64     `json:"user_id" db:"user_id"`
	Name     string    `json:"name" db:"name"`
	StartsAt time.Time `json:"starts_at" db:"starts_at"`

	// Listelerde sadece ilk görsel (en küçük id) yüklenir.
	Images []EventImage `json:"images" db:"-"`
}

// IsOwnedBy, kullanıcının etkinliğin organizatörü olup olmadığını söyler.
func (e *Event) IsOwnedBy(userID int64) bool {
	return e.UserID == userID
}

// EventImage, event_image tablosundaki bir satır.
type EventImage struct {
	BaseModel
	EventID int64  `json:"event_id" db:"event_id"`
	URL     string `json:"url" db:"url"`
}
