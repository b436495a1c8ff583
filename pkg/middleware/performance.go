package middleware

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
)

type handlerStats struct {
	calls int64
	total time.Duration
}

// Performance measures the time spent in each wrapped subscriber.
type Performance struct {
	logger *zap.Logger

	mu    sync.Mutex
	stats map[string]*handlerStats
}

func NewPerformance(logger *zap.Logger) *Performance {
	return &Performance{
		logger: logger,
		stats:  make(map[string]*handlerStats),
	}
}

func (p *Performance) Wrap(sub bus.Subscriber) bus.Subscriber {
	return wrap(sub, func(ctx context.Context, ev bus.Event) error {
		startTime := time.Now()
		err := sub.OnEvent(ctx, ev)
		p.record(sub.Id(), time.Since(startTime))
		return err
	})
}

// Stats returns the number of calls and the total handler duration of a subscriber.
func (p *Performance) Stats(id string) (int64, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[id]
	if !ok {
		return 0, 0
	}
	return s.calls, s.total
}

func (p *Performance) PrintStatistics() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.stats))
	for id := range p.stats {
		ids = append(ids, id)
	}
	p.mu.Unlock()
	sort.Strings(ids)

	for _, id := range ids {
		calls, total := p.Stats(id)
		if calls == 0 {
			continue
		}
		p.logger.Info("performance statistics",
			zap.String("subscriber", id),
			zap.Int64("calls", calls),
			zap.Duration("avg_duration", total/time.Duration(calls)),
			zap.Duration("total_duration", total))
	}
}

func (p *Performance) record(id string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[id]
	if !ok {
		s = &handlerStats{}
		p.stats[id] = s
	}
	s.calls++
	s.total += d
}
