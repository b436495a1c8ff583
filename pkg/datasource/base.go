package datasource

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
)

const defaultEventCapacity = 1024

type Topic struct {
	Kind bus.Kind
	Key  string
}

// Base carries the parts every adapter shares: the upward event channel, the connected
// flag with its status events and the set of active subscriptions.
type Base struct {
	id     string
	logger *zap.Logger
	events chan bus.Event

	connected atomic.Bool

	mu            sync.Mutex
	subscriptions map[Topic]struct{}
}

func NewBase(id string, logger *zap.Logger, capacity int) *Base {
	if logger == nil {
		logger = zap.NewNop()
	}
	if capacity <= 0 {
		capacity = defaultEventCapacity
	}
	return &Base{
		id:            id,
		logger:        logger.With(zap.String("client", id)),
		events:        make(chan bus.Event, capacity),
		subscriptions: make(map[Topic]struct{}),
	}
}

func (b *Base) Id() string                { return b.id }
func (b *Base) Events() <-chan bus.Event { return b.events }
func (b *Base) IsConnected() bool        { return b.connected.Load() }
func (b *Base) Logger() *zap.Logger      { return b.logger }

// SetStatus records the connection state and reports the transition upward.
func (b *Base) SetStatus(ctx context.Context, status bus.ConnectionStatus, cause error) {
	b.connected.Store(status == bus.ConnectionStatusConnected)

	fields := []zap.Field{zap.Stringer("status", status)}
	if cause != nil {
		b.logger.Warn("client status changed", append(fields, zap.Error(cause))...)
	} else {
		b.logger.Info("client status changed", fields...)
	}

	_ = b.Emit(ctx, bus.NewStatusEvent(b.id, status, cause))
}

// Emit blocks until the event is accepted or ctx is done.
func (b *Base) Emit(ctx context.Context, ev bus.Event) error {
	select {
	case b.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddSubscription returns false when the topic was already subscribed.
func (b *Base) AddSubscription(kind bus.Kind, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := Topic{kind, key}
	if _, ok := b.subscriptions[t]; ok {
		return false
	}
	b.subscriptions[t] = struct{}{}
	return true
}

// RemoveSubscription returns false when the topic was not subscribed.
func (b *Base) RemoveSubscription(kind bus.Kind, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := Topic{kind, key}
	if _, ok := b.subscriptions[t]; !ok {
		return false
	}
	delete(b.subscriptions, t)
	return true
}

func (b *Base) IsSubscribed(kind bus.Kind, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.subscriptions[Topic{kind, key}]
	return ok
}

// Subscriptions returns the active topics ordered by kind and key.
func (b *Base) Subscriptions() []Topic {
	b.mu.Lock()
	out := make([]Topic, 0, len(b.subscriptions))
	for t := range b.subscriptions {
		out = append(out, t)
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (b *Base) ClearSubscriptions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.subscriptions)
}
