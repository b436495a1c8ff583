package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
)

var (
	ErrUnsupported   = errors.New("operation not supported by client")
	ErrNotConnected  = errors.New("client is not connected")
	ErrEndOfData     = errors.New("end of data")
	ErrUnboundWindow = errors.New("window needs a limit or an end time")
)

// Client is a venue adapter. Id is the venue identifier symbols of the venue end with.
// Every tick, bar, instrument and status update of the client is delivered on the single
// Events channel.
type Client interface {
	Id() string

	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	Subscribe(ctx context.Context, kind bus.Kind, key string) error
	Unsubscribe(ctx context.Context, kind bus.Kind, key string) error

	RequestTicks(ctx context.Context, symbol string, w Window) ([]common.Tick, error)
	RequestBars(ctx context.Context, barType common.BarType, w Window) ([]common.Bar, error)

	Events() <-chan bus.Event
}

// Window bounds a historical request. A zero Limit is unlimited, a zero From or To leaves
// that side open. Both ends are inclusive.
type Window struct {
	Limit int
	From  time.Time
	To    time.Time
}

func (w Window) Contains(ts time.Time) bool {
	if !w.From.IsZero() && ts.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && ts.After(w.To) {
		return false
	}
	return true
}

// Bounded reports whether the window ends, either by limit or by end time.
func (w Window) Bounded() bool {
	return w.Limit > 0 || !w.To.IsZero()
}

// Full reports whether n items already satisfy the limit.
func (w Window) Full(n int) bool {
	return w.Limit > 0 && n >= w.Limit
}
