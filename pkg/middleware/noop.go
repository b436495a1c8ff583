package middleware

import (
	"context"

	"github.com/imemo88/nautilus-trader/pkg/bus"
)

var NoopHandler bus.HandlerFunc = func(context.Context, bus.Event) error { return nil }

func Noop(id string) bus.Subscriber {
	return bus.NewSubscriber(id, NoopHandler)
}
