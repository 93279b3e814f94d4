// -----------------------------------------------------------------------------
// Event Dispatcher
// -----------------------------------------------------------------------------
// Event'leri kayıtlı listener'lara iletir.
//
// Özellikler:
// - Thread-safe listener kaydı
// - Senkron gönderim; listener hataları birleştirilir, panic'ler yakalanır
// -----------------------------------------------------------------------------

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/biyonik/ticket-purchase-api/pkg/logger"
)

// Dispatcher, event'leri listener'lara dağıtır.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	logger    *logger.Logger
}

// NewDispatcher, yeni bir Dispatcher oluşturur.
//
//	dispatcher := events.NewDispatcher(log)
//	listeners.Register(dispatcher, listeners.NewAuditLogger(log))
func NewDispatcher(log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		listeners: make(map[string][]Listener),
		logger:    log,
	}
}

// Listen, event'e bir listener kaydeder. Listener'lar kayıt sırasıyla
// çağrılır.
func (d *Dispatcher) Listen(eventName string, listener Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.listeners[eventName] = append(d.listeners[eventName], listener)
	d.logger.Debug("listener registered", "event", eventName)
}

// Subscribe, aynı listener'ı birden fazla event'e kaydeder.
func (d *Dispatcher) Subscribe(eventNames []string, listener Listener) {
	for _, name := range eventNames {
		d.Listen(name, listener)
	}
}

// Dispatch, event'i tüm listener'lara senkron olarak gönderir. Bir
// listener'ın hatası diğerlerini durdurmaz; tüm hatalar birleştirilerek
// döner.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	d.mu.RLock()
	listeners := append([]Listener(nil), d.listeners[event.Name()]...)
	d.mu.RUnlock()

	if len(listeners) == 0 {
		d.logger.Debug("no listeners for event", "event", event.Name())
		return nil
	}

	var errs []error
	for i, listener := range listeners {
		if err := d.handle(ctx, listener, event); err != nil {
			d.logger.Warn("listener failed", "event", event.Name(), "listener", i, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) handle(ctx context.Context, listener Listener, event Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("listener panic: %v", p)
		}
	}()
	return listener.Handle(ctx, event)
}
