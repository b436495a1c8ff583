package middleware

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
)

// Telemetry counts the events seen by the subscribers it wraps, per kind.
type Telemetry struct {
	logger   *zap.Logger
	counters [bus.KindStatus + 1]atomic.Int64
}

func NewTelemetry(logger *zap.Logger) *Telemetry {
	return &Telemetry{logger: logger}
}

func (t *Telemetry) Wrap(sub bus.Subscriber) bus.Subscriber {
	return wrap(sub, func(ctx context.Context, ev bus.Event) error {
		if int(ev.Kind) < len(t.counters) {
			t.counters[ev.Kind].Add(1)
		}
		return sub.OnEvent(ctx, ev)
	})
}

func (t *Telemetry) Count(kind bus.Kind) int64 {
	if int(kind) >= len(t.counters) {
		return 0
	}
	return t.counters[kind].Load()
}

func (t *Telemetry) PrintStatistics() {
	t.logger.Info("event statistics",
		zap.Int64("tick_events", t.Count(bus.KindTick)),
		zap.Int64("bar_events", t.Count(bus.KindBar)),
		zap.Int64("instrument_events", t.Count(bus.KindInstrument)),
		zap.Int64("status_events", t.Count(bus.KindStatus)))
}
