package websocket

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/imemo88/nautilus-trader/pkg/bus"
	"github.com/imemo88/nautilus-trader/pkg/codec"
	"github.com/imemo88/nautilus-trader/pkg/common"
)

const (
	commandSubscribe   = "subscribe"
	commandUnsubscribe = "unsubscribe"
)

var ErrInvalidFrame = errors.New("invalid frame")

// Command is the JSON control frame sent to the feed.
type Command struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
	Key  string `json:"key"`
}

// EncodeFrame renders ev as "<KIND> <KEY> <payload>". Ticks and bars carry their line
// encoding, instruments the base64 structured encoding.
func EncodeFrame(ev bus.Event) ([]byte, error) {
	var payload []byte
	switch ev.Kind {
	case bus.KindTick:
		t, _ := ev.Tick()
		payload = codec.EncodeTick(t)
	case bus.KindBar:
		b, _ := ev.Bar()
		payload = codec.EncodeBar(b)
	case bus.KindInstrument:
		i, _ := ev.Instrument()
		data, err := codec.EncodeInstrument(i)
		if err != nil {
			return nil, err
		}
		payload = []byte(base64.StdEncoding.EncodeToString(data))
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrInvalidFrame, ev.Kind)
	}

	frame := make([]byte, 0, len(ev.Key)+len(payload)+16)
	frame = append(frame, ev.Kind.String()...)
	frame = append(frame, ' ')
	frame = append(frame, ev.Key...)
	frame = append(frame, ' ')
	return append(frame, payload...), nil
}

func DecodeFrame(frame []byte) (bus.Event, error) {
	parts := bytes.SplitN(bytes.TrimSpace(frame), []byte{' '}, 3)
	if len(parts) != 3 {
		return bus.Event{}, fmt.Errorf("%w: expected 3 parts, got %d", ErrInvalidFrame, len(parts))
	}

	kind, err := bus.ParseKind(string(parts[0]))
	if err != nil {
		return bus.Event{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
	}
	key, payload := string(parts[1]), parts[2]

	switch kind {
	case bus.KindTick:
		t, err := codec.DecodeTick(key, payload)
		if err != nil {
			return bus.Event{}, err
		}
		return bus.NewTickEvent(t), nil
	case bus.KindBar:
		barType, err := common.ParseBarType(key)
		if err != nil {
			return bus.Event{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
		}
		b, err := codec.DecodeBar(barType, payload)
		if err != nil {
			return bus.Event{}, err
		}
		return bus.NewBarEvent(b), nil
	case bus.KindInstrument:
		data, err := base64.StdEncoding.DecodeString(string(payload))
		if err != nil {
			return bus.Event{}, fmt.Errorf("%w: %w", ErrInvalidFrame, err)
		}
		i, err := codec.DecodeInstrument(data)
		if err != nil {
			return bus.Event{}, err
		}
		if i.Symbol != key {
			return bus.Event{}, fmt.Errorf("%w: instrument %s under key %s", ErrInvalidFrame, i.Symbol, key)
		}
		return bus.NewInstrumentEvent(i), nil
	}
	return bus.Event{}, fmt.Errorf("%w: kind %s", ErrInvalidFrame, kind)
}
