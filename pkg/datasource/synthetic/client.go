package synthetic

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/tools/bar"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

var historyEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

type Config struct {
	Venue      string
	StartPrice fixed.Point
	Spread     fixed.Point
	Mu         float64
	Sigma      float64
	Interval   time.Duration
	Seed       int64
	// Instruments are published on connect and on instrument subscriptions.
	Instruments []common.Instrument
}

func (c Config) withDefaults() Config {
	if c.StartPrice.IsZero() {
		c.StartPrice = fixed.MustParse("1.00000")
	}
	if c.Spread.IsZero() {
		c.Spread = fixed.MustParse("0.00002")
	}
	if c.Sigma == 0 {
		c.Sigma = 0.1
	}
	if c.Interval <= 0 {
		c.Interval = 250 * time.Millisecond
	}
	return c
}

// Client is a venue of generated quotes. Streams are paced in real time by the generated
// tick intervals; historical requests replay a generator seeded per symbol, so the same
// request always returns the same data.
type Client struct {
	*datasource.Base
	cfg Config

	mu      sync.Mutex
	streams map[string]context.CancelFunc
	wg      sync.WaitGroup
}

var _ datasource.Client = (*Client)(nil)

func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		Base:    datasource.NewBase(cfg.Venue, logger, 0),
		cfg:     cfg.withDefaults(),
		streams: make(map[string]context.CancelFunc),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	if c.IsConnected() {
		return nil
	}
	c.SetStatus(ctx, bus.ConnectionStatusConnected, nil)
	for _, inst := range c.cfg.Instruments {
		if err := c.Emit(ctx, bus.NewInstrumentEvent(inst)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	for symbol, cancel := range c.streams {
		cancel()
		delete(c.streams, symbol)
	}
	c.mu.Unlock()
	c.wg.Wait()

	c.ClearSubscriptions()
	if c.IsConnected() {
		c.SetStatus(ctx, bus.ConnectionStatusDisconnected, nil)
	}
	return nil
}

func (c *Client) Subscribe(ctx context.Context, kind bus.Kind, key string) error {
	if !c.IsConnected() {
		return datasource.ErrNotConnected
	}

	switch kind {
	case bus.KindTick:
		if !c.AddSubscription(kind, key) {
			return nil
		}
		c.startStream(key)
		return nil
	case bus.KindInstrument:
		for _, inst := range c.cfg.Instruments {
			if inst.Symbol == key {
				c.AddSubscription(kind, key)
				return c.Emit(ctx, bus.NewInstrumentEvent(inst))
			}
		}
		return fmt.Errorf("unknown instrument %q", key)
	default:
		return fmt.Errorf("%w: %s subscription", datasource.ErrUnsupported, kind)
	}
}

func (c *Client) Unsubscribe(_ context.Context, kind bus.Kind, key string) error {
	if !c.RemoveSubscription(kind, key) {
		return nil
	}
	if kind != bus.KindTick {
		return nil
	}

	c.mu.Lock()
	cancel, ok := c.streams[key]
	delete(c.streams, key)
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

func (c *Client) RequestTicks(_ context.Context, symbol string, w datasource.Window) ([]common.Tick, error) {
	if !w.Bounded() {
		return nil, datasource.ErrUnboundWindow
	}
	start := w.From
	if start.IsZero() {
		start = historyEpoch
	}
	return datasource.CollectTicks(c.generator(symbol, start, c.seed(symbol)), w)
}

func (c *Client) RequestBars(ctx context.Context, barType common.BarType, w datasource.Window) ([]common.Bar, error) {
	if !w.Bounded() {
		return nil, datasource.ErrUnboundWindow
	}

	tickWindow := datasource.Window{From: w.From, To: w.To}
	if w.To.IsZero() {
		// enough ticks to cover the requested number of bars plus the bar completing the last one
		span := time.Duration(w.Limit+1) * barType.Spec.Duration()
		from := w.From
		if from.IsZero() {
			from = historyEpoch
		}
		tickWindow.To = from.Add(span)
	}

	ticks, err := c.RequestTicks(ctx, barType.Symbol, tickWindow)
	if err != nil {
		return nil, err
	}
	bars, err := bar.Aggregate(barType, ticks)
	if err != nil {
		return nil, err
	}
	if w.Limit > 0 && len(bars) > w.Limit {
		bars = bars[:w.Limit]
	}
	return bars, nil
}

func (c *Client) startStream(symbol string) {
	ctx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.streams[symbol] = cancel
	c.mu.Unlock()

	gen := c.generator(symbol, time.Now().UTC(), time.Now().UnixNano())

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := datasource.StreamTicks(ctx, gen, c.paced)
		if err != nil && !errors.Is(err, context.Canceled) {
			c.Logger().Warn("tick stream stopped", zap.String("symbol", symbol), zap.Error(err))
		}
	}()
}

// paced holds each tick back until its generated timestamp.
func (c *Client) paced(ctx context.Context, ev bus.Event) error {
	timer := time.NewTimer(time.Until(ev.TimeStamp))
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.Emit(ctx, ev)
}

func (c *Client) generator(symbol string, start time.Time, seed int64) *TickGenerator {
	return NewTickGenerator(symbol, rand.New(rand.NewSource(seed)), start,
		c.cfg.StartPrice, c.cfg.Spread, c.cfg.Mu, c.cfg.Sigma, c.cfg.Interval, 0)
}

func (c *Client) seed(symbol string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(symbol))
	return c.cfg.Seed ^ int64(h.Sum64()) // #nosec G115
}
