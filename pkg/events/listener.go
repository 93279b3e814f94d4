// -----------------------------------------------------------------------------
// Event Listeners
// -----------------------------------------------------------------------------
// Listener, bir event gerçekleştiğinde çalışacak kod bloğudur.
//
//	type InvalidateCache struct{ cache cache.Cache }
//
//	func (l *InvalidateCache) Handle(ctx context.Context, e events.Event) error {
//	    return l.cache.Delete(ctx, keyFor(e))
//	}
//
//	dispatcher.Listen("purchase.ticket_used", &InvalidateCache{cache: c})
// -----------------------------------------------------------------------------

package events

import "context"

// Listener, event'leri işleyen interface.
//
// Handle error dönerse dispatcher hatayı loglar; diğer listener'lar yine
// çalışır.
type Listener interface {
	Handle(ctx context.Context, event Event) error
}

// ListenerFunc, fonksiyonları Listener interface'ine çevirir.
//
//	dispatcher.Listen("purchase.ticket_used", events.ListenerFunc(func(ctx context.Context, e events.Event) error {
//	    return nil
//	}))
type ListenerFunc func(ctx context.Context, event Event) error

func (f ListenerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}
