package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

var start = time.Date(2021, 1, 4, 10, 0, 0, 0, time.UTC)

type sliceSource struct {
	ticks []common.Tick
	err   error
}

func (s *sliceSource) GetNext() (common.Tick, error) {
	if len(s.ticks) == 0 {
		if s.err != nil {
			return common.Tick{}, s.err
		}
		return common.Tick{}, ErrEndOfData
	}
	t := s.ticks[0]
	s.ticks = s.ticks[1:]
	return t, nil
}

func makeTicks(n int) []common.Tick {
	out := make([]common.Tick, n)
	for i := range out {
		out[i] = common.Tick{
			Symbol:    "AUD/USD.SIM",
			Bid:       fixed.MustParse("1.00000"),
			Ask:       fixed.MustParse("1.00002"),
			TimeStamp: start.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

func TestWindow(t *testing.T) {
	w := Window{From: start, To: start.Add(time.Minute)}

	assert.True(t, w.Contains(start))
	assert.True(t, w.Contains(start.Add(time.Minute)))
	assert.False(t, w.Contains(start.Add(-time.Nanosecond)))
	assert.False(t, w.Contains(start.Add(time.Minute+time.Nanosecond)))
	assert.True(t, Window{}.Contains(start))

	assert.True(t, w.Bounded())
	assert.True(t, Window{Limit: 1}.Bounded())
	assert.False(t, Window{From: start}.Bounded())

	assert.False(t, Window{}.Full(1000))
	assert.False(t, Window{Limit: 3}.Full(2))
	assert.True(t, Window{Limit: 3}.Full(3))
}

func TestCollectTicks(t *testing.T) {
	tests := []struct {
		name      string
		w         Window
		wantCount int
		wantFirst time.Time
	}{
		{"all", Window{}, 10, start},
		{"limit", Window{Limit: 4}, 4, start},
		{"from", Window{From: start.Add(3 * time.Second)}, 7, start.Add(3 * time.Second)},
		{"from to", Window{From: start.Add(3 * time.Second), To: start.Add(5 * time.Second)}, 3, start.Add(3 * time.Second)},
		{"from limit", Window{Limit: 2, From: start.Add(8 * time.Second)}, 2, start.Add(8 * time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticks, err := CollectTicks(&sliceSource{ticks: makeTicks(10)}, tt.w)
			require.NoError(t, err)
			require.Len(t, ticks, tt.wantCount)
			assert.Equal(t, tt.wantFirst, ticks[0].TimeStamp)
		})
	}

	boom := errors.New("boom")
	_, err := CollectTicks(&sliceSource{ticks: makeTicks(2), err: boom}, Window{})
	assert.ErrorIs(t, err, boom)
}

func TestStreamTicks(t *testing.T) {
	var got []bus.Event
	emit := func(_ context.Context, ev bus.Event) error {
		got = append(got, ev)
		return nil
	}

	require.NoError(t, StreamTicks(context.Background(), &sliceSource{ticks: makeTicks(3)}, emit))
	require.Len(t, got, 3)
	assert.Equal(t, bus.KindTick, got[0].Kind)
	assert.Equal(t, "AUD/USD.SIM", got[0].Key)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, StreamTicks(ctx, &sliceSource{ticks: makeTicks(3)}, emit), context.Canceled)

	boom := errors.New("boom")
	failing := func(context.Context, bus.Event) error { return boom }
	assert.ErrorIs(t, StreamTicks(context.Background(), &sliceSource{ticks: makeTicks(3)}, failing), boom)
}

func TestBase_Subscriptions(t *testing.T) {
	b := NewBase("SIM", zaptest.NewLogger(t), 4)

	assert.True(t, b.AddSubscription(bus.KindTick, "EUR/USD.SIM"))
	assert.False(t, b.AddSubscription(bus.KindTick, "EUR/USD.SIM"))
	assert.True(t, b.AddSubscription(bus.KindTick, "AUD/USD.SIM"))
	assert.True(t, b.AddSubscription(bus.KindInstrument, "AUD/USD.SIM"))

	assert.Equal(t, []Topic{
		{bus.KindTick, "AUD/USD.SIM"},
		{bus.KindTick, "EUR/USD.SIM"},
		{bus.KindInstrument, "AUD/USD.SIM"},
	}, b.Subscriptions())

	assert.True(t, b.IsSubscribed(bus.KindTick, "AUD/USD.SIM"))
	assert.True(t, b.RemoveSubscription(bus.KindTick, "AUD/USD.SIM"))
	assert.False(t, b.RemoveSubscription(bus.KindTick, "AUD/USD.SIM"))
	assert.False(t, b.IsSubscribed(bus.KindTick, "AUD/USD.SIM"))

	b.ClearSubscriptions()
	assert.Empty(t, b.Subscriptions())
}

func TestBase_StatusAndEmit(t *testing.T) {
	b := NewBase("SIM", nil, 1)
	ctx := context.Background()

	b.SetStatus(ctx, bus.ConnectionStatusConnected, nil)
	assert.True(t, b.IsConnected())

	ev := <-b.Events()
	status, ok := ev.Status()
	require.True(t, ok)
	assert.Equal(t, "SIM", status.ClientId)
	assert.Equal(t, bus.ConnectionStatusConnected, status.Status)

	require.NoError(t, b.Emit(ctx, bus.NewTickEvent(makeTicks(1)[0])))

	timeout, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Emit(timeout, bus.NewTickEvent(makeTicks(1)[0])), context.DeadlineExceeded)

	<-b.Events()
	b.SetStatus(ctx, bus.ConnectionStatusFailed, errors.New("refused"))
	assert.False(t, b.IsConnected())
}
