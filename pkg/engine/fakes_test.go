package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

var start = time.Date(2021, 1, 4, 10, 0, 0, 0, time.UTC)

func tickAt(symbol string, offset time.Duration, bid string) common.Tick {
	b := fixed.MustParse(bid)
	return common.Tick{
		Symbol:    symbol,
		Bid:       b,
		Ask:       b.Add(fixed.MustParse("0.00002")),
		TimeStamp: start.Add(offset),
	}
}

type fakeClient struct {
	*datasource.Base

	mu    sync.Mutex
	calls []string
	ticks []common.Tick
}

func newFakeClient(id string) *fakeClient {
	return &fakeClient{Base: datasource.NewBase(id, nil, 16)}
}

func (c *fakeClient) record(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, fmt.Sprintf(format, args...))
}

func (c *fakeClient) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *fakeClient) Connect(ctx context.Context) error {
	c.record("CONNECT")
	c.SetStatus(ctx, bus.ConnectionStatusConnected, nil)
	return nil
}

func (c *fakeClient) Disconnect(context.Context) error {
	c.record("DISCONNECT")
	return nil
}

func (c *fakeClient) Subscribe(_ context.Context, kind bus.Kind, key string) error {
	c.record("SUB %s %s", kind, key)
	return nil
}

func (c *fakeClient) Unsubscribe(_ context.Context, kind bus.Kind, key string) error {
	c.record("UNSUB %s %s", kind, key)
	return nil
}

func (c *fakeClient) RequestTicks(_ context.Context, symbol string, w datasource.Window) ([]common.Tick, error) {
	var out []common.Tick
	for _, t := range c.ticks {
		if t.Symbol == symbol && w.Contains(t.TimeStamp) && !w.Full(len(out)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *fakeClient) RequestBars(context.Context, common.BarType, datasource.Window) ([]common.Bar, error) {
	return nil, datasource.ErrUnsupported
}

// recorder collects "<subscriber> <event>" lines, optionally failing or panicking.
type recorder struct {
	mu    sync.Mutex
	lines []string
	ch    chan bus.Event
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan bus.Event, 1024)}
}

func (r *recorder) subscriber(id string) bus.Subscriber {
	return bus.NewSubscriber(id, func(_ context.Context, ev bus.Event) error {
		r.mu.Lock()
		r.lines = append(r.lines, id+" "+ev.String()+" "+ev.TimeStamp.Format(time.TimeOnly))
		r.mu.Unlock()
		r.ch <- ev
		return nil
	})
}

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func (r *recorder) wait(t *testing.T, n int) []bus.Event {
	t.Helper()
	out := make([]bus.Event, 0, n)
	for len(out) < n {
		select {
		case ev := <-r.ch:
			out = append(out, ev)
		case <-time.After(2 * time.Second):
			t.Fatalf("received %d of %d events", len(out), n)
		}
	}
	return out
}
