// -----------------------------------------------------------------------------
// Event System - Core Interfaces
// -----------------------------------------------------------------------------
// Event (olay), sistemde meydana gelen önemli bir durumu temsil eder.
// Örnek: "purchase.ticket_used"
//
// Event'ler sadece gerçekleşmiş (commit edilmiş) durumları bildirir;
// listener'lar cache temizliği, bildirim yayını gibi yan işleri yapar.
// -----------------------------------------------------------------------------

package events

import "time"

// Event, tüm event'lerin implement etmesi gereken interface.
type Event interface {
	// Name, event'in benzersiz adı. Örnek: "purchase.ticket_used"
	Name() string

	// OccurredAt, event'in gerçekleşme zamanı.
	OccurredAt() time.Time

	// Payload, event ile taşınan veri.
	Payload() interface{}
}

// BaseEvent, Event'in genel amaçlı implementasyonu.
type BaseEvent struct {
	name       string
	occurredAt time.Time
	payload    interface{}
}

// NewBaseEvent, şu anki zamanla yeni bir event oluşturur.
//
//	event := events.NewBaseEvent("purchase.ticket_used", payload)
func NewBaseEvent(name string, payload interface{}) *BaseEvent {
	return NewBaseEventAt(name, payload, time.Now())
}

// NewBaseEventAt, verilen zamanla yeni bir event oluşturur.
func NewBaseEventAt(name string, payload interface{}, at time.Time) *BaseEvent {
	return &BaseEvent{
		name:       name,
		occurredAt: at,
		payload:    payload,
	}
}

func (e *BaseEvent) Name() string {
	return e.name
}

func (e *BaseEvent) OccurredAt() time.Time {
	return e.occurredAt
}

func (e *BaseEvent) Payload() interface{} {
	return e.payload
}
