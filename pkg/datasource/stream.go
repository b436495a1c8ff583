package datasource

import (
	"context"
	"errors"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/common"
)

type TickSource interface {
	GetNext() (common.Tick, error)
}

// StreamTicks forwards ticks from src to emit until the source ends, ctx is done or emit
// fails. Reaching the end of the source is not an error.
func StreamTicks(ctx context.Context, src TickSource, emit func(context.Context, bus.Event) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tick, err := src.GetNext()
		if errors.Is(err, ErrEndOfData) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := emit(ctx, bus.NewTickEvent(tick)); err != nil {
			return err
		}
	}
}

// CollectTicks reads ticks of src inside w, stopping at the end of the source, at the end
// of the window or when the limit is reached.
func CollectTicks(src TickSource, w Window) ([]common.Tick, error) {
	var out []common.Tick
	for !w.Full(len(out)) {
		tick, err := src.GetNext()
		if errors.Is(err, ErrEndOfData) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !w.To.IsZero() && tick.TimeStamp.After(w.To) {
			break
		}
		if w.Contains(tick.TimeStamp) {
			out = append(out, tick)
		}
	}
	return out, nil
}
