package bus

import (
	"context"
	"errors"
	"fmt"
)

var ErrUnexpectedData = errors.New("unexpected event data")

// Subscriber receives routed events. Subscribers are identified by Id, so the same
// subscriber can be unsubscribed without comparing functions.
type Subscriber interface {
	Id() string
	OnEvent(ctx context.Context, ev Event) error
}

type HandlerFunc func(ctx context.Context, ev Event) error

type EventHandler[T any] = func(context.Context, T) error

type subscriber struct {
	id string
	fn HandlerFunc
}

func NewSubscriber(id string, fn HandlerFunc) Subscriber {
	return subscriber{id: id, fn: fn}
}

func (s subscriber) Id() string { return s.id }

func (s subscriber) OnEvent(ctx context.Context, ev Event) error { return s.fn(ctx, ev) }

// Typed adapts a handler of a concrete payload type. An event carrying anything else
// fails with ErrUnexpectedData.
func Typed[T any](handler EventHandler[T]) HandlerFunc {
	return func(ctx context.Context, ev Event) error {
		data, ok := ev.Data.(T)
		if !ok {
			return fmt.Errorf("%w: %s carries %T", ErrUnexpectedData, ev, ev.Data)
		}
		return handler(ctx, data)
	}
}

// MergeHandlers calls every handler in order and joins their errors.
func MergeHandlers(handlers ...HandlerFunc) HandlerFunc {
	return func(ctx context.Context, ev Event) error {
		var errs []error
		for _, handler := range handlers {
			if err := handler(ctx, ev); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}
