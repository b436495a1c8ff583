package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
)

const (
	defaultDialTimeout = 5 * time.Second
	writeWait          = 10 * time.Second
)

type Config struct {
	Venue       string
	URL         string
	DialTimeout time.Duration
}

// Client streams ticks, bars and instruments from a websocket feed. It has no history,
// requests return datasource.ErrUnsupported.
type Client struct {
	*datasource.Base
	cfg Config

	mu     sync.Mutex
	conn   *gws.Conn
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ datasource.Client = (*Client)(nil)

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	return &Client{
		Base: datasource.NewBase(cfg.Venue, logger, 0),
		cfg:  cfg,
	}
}

// Connect dials the feed and restores the subscriptions of a previous session.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	c.SetStatus(ctx, bus.ConnectionStatusConnecting, nil)

	dialer := gws.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		err = fmt.Errorf("unable to dial %s: %w", c.cfg.URL, err)
		c.SetStatus(ctx, bus.ConnectionStatusFailed, err)
		return err
	}

	for _, t := range c.Subscriptions() {
		if err := writeCommand(conn, commandSubscribe, t.Kind, t.Key); err != nil {
			_ = conn.Close()
			err = fmt.Errorf("unable to restore subscription %s %s: %w", t.Kind, t.Key, err)
			c.SetStatus(ctx, bus.ConnectionStatusFailed, err)
			return err
		}
	}

	readCtx, cancel := context.WithCancel(context.Background())
	c.conn = conn
	c.cancel = cancel

	c.wg.Add(1)
	go c.readLoop(readCtx, conn)

	c.SetStatus(ctx, bus.ConnectionStatusConnected, nil)
	return nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	conn, cancel := c.conn, c.cancel
	c.conn, c.cancel = nil, nil
	c.mu.Unlock()

	if conn == nil {
		return nil
	}

	cancel()
	_ = conn.WriteControl(gws.CloseMessage, gws.FormatCloseMessage(gws.CloseNormalClosure, ""), time.Now().Add(writeWait))
	err := conn.Close()
	c.wg.Wait()

	c.ClearSubscriptions()
	c.SetStatus(ctx, bus.ConnectionStatusDisconnected, nil)
	return err
}

func (c *Client) Subscribe(_ context.Context, kind bus.Kind, key string) error {
	if err := checkKind(kind); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return datasource.ErrNotConnected
	}
	if !c.AddSubscription(kind, key) {
		return nil
	}
	if err := writeCommand(c.conn, commandSubscribe, kind, key); err != nil {
		c.RemoveSubscription(kind, key)
		return fmt.Errorf("unable to subscribe %s %s: %w", kind, key, err)
	}
	return nil
}

func (c *Client) Unsubscribe(_ context.Context, kind bus.Kind, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.RemoveSubscription(kind, key) || c.conn == nil {
		return nil
	}
	if err := writeCommand(c.conn, commandUnsubscribe, kind, key); err != nil {
		return fmt.Errorf("unable to unsubscribe %s %s: %w", kind, key, err)
	}
	return nil
}

func (c *Client) RequestTicks(context.Context, string, datasource.Window) ([]common.Tick, error) {
	return nil, fmt.Errorf("%w: tick history", datasource.ErrUnsupported)
}

func (c *Client) RequestBars(context.Context, common.BarType, datasource.Window) ([]common.Bar, error) {
	return nil, fmt.Errorf("%w: bar history", datasource.ErrUnsupported)
}

func (c *Client) readLoop(ctx context.Context, conn *gws.Conn) {
	defer c.wg.Done()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			var cancel context.CancelFunc
			c.mu.Lock()
			if c.conn == conn {
				cancel = c.cancel
				c.conn, c.cancel = nil, nil
			}
			c.mu.Unlock()
			_ = conn.Close()

			// Subscriptions are kept, the next Connect restores them.
			c.SetStatus(ctx, bus.ConnectionStatusFailed, fmt.Errorf("read failed: %w", err))
			if cancel != nil {
				cancel()
			}
			return
		}

		ev, err := DecodeFrame(message)
		if err != nil {
			c.Logger().Warn("dropping frame", zap.ByteString("frame", message), zap.Error(err))
			continue
		}
		if err := c.Emit(ctx, ev); err != nil {
			return
		}
	}
}

func checkKind(kind bus.Kind) error {
	switch kind {
	case bus.KindTick, bus.KindBar, bus.KindInstrument:
		return nil
	}
	return fmt.Errorf("%w: %s subscription", datasource.ErrUnsupported, kind)
}

// writeCommand must be called with the client lock held, gorilla connections support a
// single concurrent writer.
func writeCommand(conn *gws.Conn, typ string, kind bus.Kind, key string) error {
	data, err := json.Marshal(Command{Type: typ, Kind: kind.String(), Key: key})
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteMessage(gws.TextMessage, data); err != nil {
		if errors.Is(err, gws.ErrCloseSent) {
			return datasource.ErrNotConnected
		}
		return err
	}
	return nil
}
