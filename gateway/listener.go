package gateway

import (
	"context"

	"github.com/pamojavote/pamoja-go/models"
)

// Listener receives session lifecycle events (login, renewed, expired,
// logout, profile_updated). Implementations must not block for long: they
// run on the goroutine that triggered the event.
type Listener interface {
	OnSessionEvent(ctx context.Context, event models.SessionEvent)
}

type ListenerFunc func(ctx context.Context, event models.SessionEvent)

func (f ListenerFunc) OnSessionEvent(ctx context.Context, event models.SessionEvent) {
	f(ctx, event)
}

// MultiListener fans an event out to several listeners in order.
type MultiListener []Listener

func (m MultiListener) OnSessionEvent(ctx context.Context, event models.SessionEvent) {
	for _, l := range m {
		if l != nil {
			l.OnSessionEvent(ctx, event)
		}
	}
}
