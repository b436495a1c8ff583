package middleware

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/codec"
)

type MonitorFlags uint16

//goland:noinspection GoUnusedConst
const (
	MonitorNone MonitorFlags = 1 << iota
	MonitorAll
	MonitorTicks
	MonitorBars
	MonitorInstruments
	MonitorStatus
)

var monitorKinds = map[bus.Kind]MonitorFlags{
	bus.KindTick:       MonitorTicks,
	bus.KindBar:        MonitorBars,
	bus.KindInstrument: MonitorInstruments,
	bus.KindStatus:     MonitorStatus,
}

var monitorNames = map[string]MonitorFlags{
	"none":        MonitorNone,
	"all":         MonitorAll,
	"ticks":       MonitorTicks,
	"bars":        MonitorBars,
	"instruments": MonitorInstruments,
	"status":      MonitorStatus,
}

// ParseMonitorFlags combines flag names such as "ticks" or "status", case-insensitive.
// No names select MonitorNone.
func ParseMonitorFlags(names []string) (MonitorFlags, error) {
	if len(names) == 0 {
		return MonitorNone, nil
	}
	var flags MonitorFlags
	for _, name := range names {
		flag, ok := monitorNames[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("unknown monitor flag %q", name)
		}
		flags |= flag
	}
	return flags, nil
}

// Monitor logs the events of the selected kinds before passing them on.
type Monitor struct {
	logger *zap.Logger
	flags  MonitorFlags
}

func NewMonitor(logger *zap.Logger, flags MonitorFlags) *Monitor {
	return &Monitor{
		logger: logger,
		flags:  flags,
	}
}

func (m *Monitor) Wrap(sub bus.Subscriber) bus.Subscriber {
	return wrap(sub, func(ctx context.Context, ev bus.Event) error {
		if m.enabled(ev.Kind) {
			m.logger.Info("event", append([]zap.Field{zap.String("subscriber", sub.Id())}, eventFields(ev)...)...)
		}
		return sub.OnEvent(ctx, ev)
	})
}

func (m *Monitor) enabled(kind bus.Kind) bool {
	if m.flags&MonitorAll != 0 {
		return true
	}
	flag, ok := monitorKinds[kind]
	return ok && m.flags&flag != 0
}

func eventFields(ev bus.Event) []zap.Field {
	fields := []zap.Field{zap.Stringer("kind", ev.Kind), zap.String("key", ev.Key)}

	switch ev.Kind {
	case bus.KindTick:
		if t, ok := ev.Tick(); ok {
			fields = append(fields, zap.ByteString("tick", codec.EncodeTick(t)))
		}
	case bus.KindBar:
		if b, ok := ev.Bar(); ok {
			fields = append(fields, zap.ByteString("bar", codec.EncodeBar(b)))
		}
	case bus.KindInstrument:
		if i, ok := ev.Instrument(); ok {
			fields = append(fields, zap.Stringer("id", i.Id), zap.Time("ts", i.TimeStamp))
		}
	case bus.KindStatus:
		if s, ok := ev.Status(); ok {
			fields = append(fields, zap.Stringer("status", s.Status), zap.Error(s.Err))
		}
	}
	return fields
}
