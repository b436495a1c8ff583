package historical

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/tools/bar"
)

const symbolPlaceholder = "{symbol}"

type Config struct {
	Venue string
	// PathTemplate locates the tick file of a symbol, "{symbol}" is replaced by the symbol
	// code without its venue and without slashes, e.g. "data/{symbol}.bin" -> "data/AUDUSD.bin".
	PathTemplate string
	PriceDigits  int
}

// Client serves tick files. A tick subscription replays the whole file of the symbol
// as fast as the consumer accepts it.
type Client struct {
	*datasource.Base
	cfg Config

	mu      sync.Mutex
	replays map[string]context.CancelFunc
	wg      sync.WaitGroup
}

var _ datasource.Client = (*Client)(nil)

func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		Base:    datasource.NewBase(cfg.Venue, logger, 0),
		cfg:     cfg,
		replays: make(map[string]context.CancelFunc),
	}
}

func (c *Client) Path(symbol string) string {
	code := strings.ReplaceAll(common.Code(symbol), "/", "")
	return strings.ReplaceAll(c.cfg.PathTemplate, symbolPlaceholder, code)
}

func (c *Client) Connect(ctx context.Context) error {
	if !strings.Contains(c.cfg.PathTemplate, symbolPlaceholder) {
		err := fmt.Errorf("path template %q has no %s placeholder", c.cfg.PathTemplate, symbolPlaceholder)
		c.SetStatus(ctx, bus.ConnectionStatusFailed, err)
		return err
	}
	if !c.IsConnected() {
		c.SetStatus(ctx, bus.ConnectionStatusConnected, nil)
	}
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	for symbol, cancel := range c.replays {
		cancel()
		delete(c.replays, symbol)
	}
	c.mu.Unlock()
	c.wg.Wait()

	c.ClearSubscriptions()
	if c.IsConnected() {
		c.SetStatus(ctx, bus.ConnectionStatusDisconnected, nil)
	}
	return nil
}

func (c *Client) Subscribe(_ context.Context, kind bus.Kind, key string) error {
	if !c.IsConnected() {
		return datasource.ErrNotConnected
	}
	if kind != bus.KindTick {
		return fmt.Errorf("%w: %s subscription", datasource.ErrUnsupported, kind)
	}
	if !c.AddSubscription(kind, key) {
		return nil
	}

	source := NewSource[BinaryTick](c.Path(key))
	if err := source.Open(); err != nil {
		c.RemoveSubscription(kind, key)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.replays[key] = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer func() { _ = source.Close() }()

		reader := NewTickReader(source, key, c.cfg.PriceDigits, time.Time{}, time.Time{})
		err := datasource.StreamTicks(ctx, reader, c.Emit)
		switch {
		case err == nil:
			c.Logger().Info("replay finished", zap.String("symbol", key), zap.Int64("ticks", source.EntryCount()))
		case !errors.Is(err, context.Canceled):
			c.Logger().Warn("replay stopped", zap.String("symbol", key), zap.Error(err))
		}
	}()
	return nil
}

func (c *Client) Unsubscribe(_ context.Context, kind bus.Kind, key string) error {
	if !c.RemoveSubscription(kind, key) {
		return nil
	}
	c.mu.Lock()
	cancel, ok := c.replays[key]
	delete(c.replays, key)
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

func (c *Client) RequestTicks(_ context.Context, symbol string, w datasource.Window) ([]common.Tick, error) {
	source := NewSource[BinaryTick](c.Path(symbol))
	if err := source.Open(); err != nil {
		return nil, err
	}
	defer func() { _ = source.Close() }()

	return datasource.CollectTicks(NewTickReader(source, symbol, c.cfg.PriceDigits, w.From, w.To), w)
}

func (c *Client) RequestBars(ctx context.Context, barType common.BarType, w datasource.Window) ([]common.Bar, error) {
	ticks, err := c.RequestTicks(ctx, barType.Symbol, datasource.Window{From: w.From, To: w.To})
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
