package middleware

import (
	"context"

	"github.com/imemo88/nautilus-trader/pkg/bus"
)

// Middleware decorates a subscriber. The result keeps the id of the wrapped subscriber so
// it can be unsubscribed with the original.
type Middleware = func(bus.Subscriber) bus.Subscriber

// Chain composes middlewares, the first one is the outermost.
func Chain[T any](middlewares ...func(T) T) func(T) T {
	return func(next T) T {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

func wrap(sub bus.Subscriber, fn func(ctx context.Context, ev bus.Event) error) bus.Subscriber {
	return bus.NewSubscriber(sub.Id(), fn)
}
