// -----------------------------------------------------------------------------
// Purchase Event Listeners
// -----------------------------------------------------------------------------
// Commit edilmiş purchase event'lerine bağlanan yan işler:
//
//   - CacheInvalidator: MyTicket cache entry'sini siler
//   - RedisPublisher:   event'i JSON olarak bir Redis kanalına yayar
//   - AuditLogger:      event'i yapılandırılmış log olarak yazar
//
//	listeners.Register(dispatcher, listeners.NewCacheInvalidator(c),
//	    listeners.NewRedisPublisher(client, "purchase-events"))
// -----------------------------------------------------------------------------

package listeners

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/biyonik/ticket-purchase-api/internal/services"
	"github.com/biyonik/ticket-purchase-api/pkg/cache"
	"github.com/biyonik/ticket-purchase-api/pkg/events"
	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

// PurchaseEvents, servislerin yaydığı tüm event adları.
var PurchaseEvents = []string{
	services.EventTicketValidated,
	services.EventTicketUsed,
	services.EventRefundStatusChanged,
}

// Register, her listener'ı tüm purchase event'lerine kaydeder. Listener
// kendisini ilgilendirmeyen event'i yok sayar.
func Register(d *events.Dispatcher, ls ...events.Listener) {
	for _, l := range ls {
		d.Subscribe(PurchaseEvents, l)
	}
}

func purchasePayload(event events.Event) (services.PurchaseEvent, error) {
	switch p := event.Payload().(type) {
	case services.PurchaseEvent:
		return p, nil
	case *services.PurchaseEvent:
		return *p, nil
	default:
		return services.PurchaseEvent{}, fmt.Errorf("invalid payload type %T for event %s", p, event.Name())
	}
}

// CacheInvalidator, bileti değiştiren event'lerde sahibinin MyTicket
// cache'ini siler.
type CacheInvalidator struct {
	cache cache.Cache
}

func NewCacheInvalidator(c cache.Cache) *CacheInvalidator {
	return &CacheInvalidator{cache: c}
}

func (l *CacheInvalidator) Handle(ctx context.Context, event events.Event) error {
	switch event.Name() {
	case services.EventTicketUsed, services.EventRefundStatusChanged:
	default:
		return nil
	}

	p, err := purchasePayload(event)
	if err != nil {
		return err
	}
	return l.cache.Delete(ctx, services.MyTicketCacheKey(p.OwnerID, p.UID))
}

// Message, Redis kanalına yazılan zarf.
type Message struct {
	Event      string                 `json:"event"`
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    services.PurchaseEvent `json:"payload"`
}

// RedisPublisher, event'leri Redis pub/sub kanalına yayar. Gate ekranları
// ve bildirim servisleri bu kanala abone olur.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (l *RedisPublisher) Handle(ctx context.Context, event events.Event) error {
	p, err := purchasePayload(event)
	if err != nil {
		return err
	}

	data, err := json.Marshal(Message{
		Event:      event.Name(),
		OccurredAt: event.OccurredAt().UTC(),
		Payload:    p,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event.Name(), err)
	}

	if err := l.client.Publish(ctx, l.channel, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", event.Name(), l.channel, err)
	}
	return nil
}

// AuditLogger, her purchase event'ini info seviyesinde loglar.
type AuditLogger struct {
	logger *logger.Logger
}

func NewAuditLogger(log *logger.Logger) *AuditLogger {
	return &AuditLogger{logger: log}
}

func (l *AuditLogger) Handle(_ context.Context, event events.Event) error {
	p, err := purchasePayload(event)
	if err != nil {
		return err
	}
	kv := []interface{}{"uid", p.UID, "owner_id", p.OwnerID, "actor_id", p.ActorID}
	if p.EventID != 0 {
		kv = append(kv, "event_id", p.EventID)
	}
	if p.RefundStatus != nil {
		kv = append(kv, "refund_status", string(*p.RefundStatus))
	}
	l.logger.Info(event.Name(), kv...)
	return nil
}
