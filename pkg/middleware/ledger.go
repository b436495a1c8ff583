package middleware

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
)

const defaultLedgerBatch = 1000

// TickStore persists ticks, e.g. the duckdb client.
type TickStore interface {
	Store(ctx context.Context, ticks []common.Tick) error
}

// Ledger records the ticks passing through the wrapped subscribers in batches.
type Ledger struct {
	logger *zap.Logger
	store  TickStore
	batch  int

	mu  sync.Mutex
	buf []common.Tick
}

func NewLedger(logger *zap.Logger, store TickStore, batch int) *Ledger {
	if batch <= 0 {
		batch = defaultLedgerBatch
	}
	return &Ledger{
		logger: logger,
		store:  store,
		batch:  batch,
	}
}

func (l *Ledger) Wrap(sub bus.Subscriber) bus.Subscriber {
	return wrap(sub, func(ctx context.Context, ev bus.Event) error {
		if t, ok := ev.Tick(); ok {
			l.add(ctx, t)
		}
		return sub.OnEvent(ctx, ev)
	})
}

// Flush stores the buffered ticks.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	ticks := l.buf
	l.buf = nil
	l.mu.Unlock()

	if len(ticks) == 0 {
		return nil
	}
	return l.store.Store(ctx, ticks)
}

func (l *Ledger) add(ctx context.Context, t common.Tick) {
	l.mu.Lock()
	l.buf = append(l.buf, t)
	full := len(l.buf) >= l.batch
	l.mu.Unlock()

	if full {
		if err := l.Flush(ctx); err != nil {
			l.logger.Warn("unable to store ticks", zap.Error(err))
		}
	}
}
