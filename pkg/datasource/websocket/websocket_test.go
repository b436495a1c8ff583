package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

var ts = time.Date(2021, 1, 4, 10, 30, 15, 123000000, time.UTC)

func testTick() common.Tick {
	return common.Tick{
		Symbol:    "AUD/USD.SIM",
		Bid:       fixed.MustParse("100.10"),
		Ask:       fixed.MustParse("100.12"),
		TimeStamp: ts,
	}
}

// feed answers every subscribe command with one tick frame and closes the connection
// when it receives a command for the key "CLOSE".
type feed struct {
	t        *testing.T
	commands chan Command
}

func newFeed(t *testing.T) (*feed, *httptest.Server) {
	f := &feed{t: t, commands: make(chan Command, 16)}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *feed) serve(w http.ResponseWriter, r *http.Request) {
	upgrader := gws.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			return
		}
		f.commands <- cmd

		if cmd.Key == "CLOSE" {
			return
		}
		if cmd.Type != commandSubscribe || cmd.Kind != "TICK" {
			continue
		}

		tick := testTick()
		tick.Symbol = cmd.Key
		frame, err := EncodeFrame(bus.NewTickEvent(tick))
		if err != nil {
			return
		}
		_ = conn.WriteMessage(gws.TextMessage, []byte("garbage"))
		if err := conn.WriteMessage(gws.TextMessage, frame); err != nil {
			return
		}
	}
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func nextEvent(t *testing.T, c *Client) bus.Event {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return bus.Event{}
	}
}

func nextStatus(t *testing.T, c *Client) bus.ConnectionStatus {
	t.Helper()
	status, ok := nextEvent(t, c).Status()
	require.True(t, ok)
	return status.Status
}

func TestFrame_RoundTrip(t *testing.T) {
	barType, err := common.ParseBarType("AUD/USD.SIM-1-MINUTE-BID")
	require.NoError(t, err)

	events := []bus.Event{
		bus.NewTickEvent(testTick()),
		bus.NewBarEvent(common.Bar{
			Type:      barType,
			Open:      fixed.MustParse("1.00010"),
			High:      fixed.MustParse("1.00020"),
			Low:       fixed.MustParse("1.00000"),
			Close:     fixed.MustParse("1.00015"),
			Volume:    fixed.MustParse("42"),
			TimeStamp: ts,
		}),
		bus.NewInstrumentEvent(common.StubXBTUSD()),
	}

	for _, ev := range events {
		t.Run(ev.Kind.String(), func(t *testing.T) {
			frame, err := EncodeFrame(ev)
			require.NoError(t, err)

			got, err := DecodeFrame(frame)
			require.NoError(t, err)
			assert.Equal(t, ev.Kind, got.Kind)
			assert.Equal(t, ev.Key, got.Key)
			assert.Equal(t, ev.TimeStamp, got.TimeStamp)
		})
	}

	frame, err := EncodeFrame(events[0])
	require.NoError(t, err)
	assert.Equal(t, "TICK AUD/USD.SIM 100.10,100.12,2021-01-04T10:30:15.123Z", string(frame))
}

func TestFrame_DecodeInvalid(t *testing.T) {
	for _, frame := range []string{
		"",
		"TICK AUD/USD.SIM",
		"QUOTE AUD/USD.SIM 1,2,2021-01-04T10:30:15Z",
		"STATUS SIM connected",
		"TICK AUD/USD.SIM 1,2",
		"BAR AUD/USD.SIM 1,2,3,4,5,2021-01-04T10:30:15Z",
		"INSTRUMENT BTC/USD.BITMEX !!!",
	} {
		_, err := DecodeFrame([]byte(frame))
		assert.Error(t, err, frame)
	}

	_, err := EncodeFrame(bus.NewStatusEvent("SIM", bus.ConnectionStatusConnected, nil))
	assert.ErrorIs(t, err, ErrInvalidFrame)
}

func TestClient_Stream(t *testing.T) {
	f, srv := newFeed(t)
	c := NewClient(Config{Venue: "SIM", URL: wsURL(srv)}, zaptest.NewLogger(t))
	ctx := context.Background()

	assert.ErrorIs(t, c.Subscribe(ctx, bus.KindTick, "AUD/USD.SIM"), datasource.ErrNotConnected)

	require.NoError(t, c.Connect(ctx))
	assert.Equal(t, bus.ConnectionStatusConnecting, nextStatus(t, c))
	assert.Equal(t, bus.ConnectionStatusConnected, nextStatus(t, c))
	assert.True(t, c.IsConnected())

	require.NoError(t, c.Subscribe(ctx, bus.KindTick, "AUD/USD.SIM"))
	assert.Equal(t, Command{Type: "subscribe", Kind: "TICK", Key: "AUD/USD.SIM"}, <-f.commands)

	tick, ok := nextEvent(t, c).Tick()
	require.True(t, ok)
	assert.True(t, tick.Equal(testTick()))

	assert.ErrorIs(t, c.Subscribe(ctx, bus.KindStatus, "SIM"), datasource.ErrUnsupported)

	require.NoError(t, c.Unsubscribe(ctx, bus.KindTick, "AUD/USD.SIM"))
	assert.Equal(t, Command{Type: "unsubscribe", Kind: "TICK", Key: "AUD/USD.SIM"}, <-f.commands)

	_, err := c.RequestTicks(ctx, "AUD/USD.SIM", datasource.Window{Limit: 1})
	assert.ErrorIs(t, err, datasource.ErrUnsupported)

	require.NoError(t, c.Disconnect(ctx))
	assert.Equal(t, bus.ConnectionStatusDisconnected, nextStatus(t, c))
	assert.False(t, c.IsConnected())
	require.NoError(t, c.Disconnect(ctx))
}

func TestClient_ReadFailureAndReconnect(t *testing.T) {
	f, srv := newFeed(t)
	c := NewClient(Config{Venue: "SIM", URL: wsURL(srv)}, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx))
	nextStatus(t, c)
	nextStatus(t, c)

	require.NoError(t, c.Subscribe(ctx, bus.KindInstrument, "CLOSE"))
	<-f.commands
	assert.Equal(t, bus.ConnectionStatusFailed, nextStatus(t, c))
	assert.False(t, c.IsConnected())

	require.NoError(t, c.Connect(ctx))
	assert.Equal(t, Command{Type: "subscribe", Kind: "INSTRUMENT", Key: "CLOSE"}, <-f.commands)
	assert.Equal(t, bus.ConnectionStatusConnecting, nextStatus(t, c))
	assert.Equal(t, bus.ConnectionStatusConnected, nextStatus(t, c))
	assert.Equal(t, bus.ConnectionStatusFailed, nextStatus(t, c))
}

func TestClient_DialFailure(t *testing.T) {
	c := NewClient(Config{Venue: "SIM", URL: "ws://127.0.0.1:1", DialTimeout: time.Second}, zaptest.NewLogger(t))

	assert.Error(t, c.Connect(context.Background()))
	assert.Equal(t, bus.ConnectionStatusConnecting, nextStatus(t, c))
	assert.Equal(t, bus.ConnectionStatusFailed, nextStatus(t, c))
	assert.False(t, c.IsConnected())
}
