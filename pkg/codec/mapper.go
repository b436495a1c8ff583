package codec

import (
	"encoding/base64"
	"fmt"
	"reflect"

	"github.com/imemo88/nautilus-trader/pkg/common"
)

// MapData wraps a non-empty sequence of ticks, bars or instruments into an envelope keyed
// by key. Every item must have the runtime type of the first one; the check runs before
// anything is encoded.
func MapData(key string, items ...any) (Data, error) {
	if len(items) == 0 {
		return Data{}, ErrEmptySequence
	}
	first := reflect.TypeOf(items[0])
	if first == nil {
		return Data{}, fmt.Errorf("%w: nil item", ErrPrecondition)
	}
	for i, item := range items[1:] {
		if reflect.TypeOf(item) != first {
			return Data{}, fmt.Errorf("%w: item %d is %T, expected %s", ErrHeterogeneousSequence, i+1, item, first)
		}
	}

	d := Data{DataType: first.Name(), Key: key, Values: make([]string, len(items))}
	switch items[0].(type) {
	case common.Tick:
		d.KeyName = KeySymbol
		for i, item := range items {
			d.Values[i] = string(EncodeTick(item.(common.Tick)))
		}
	case common.Bar:
		d.KeyName = KeyBarType
		for i, item := range items {
			d.Values[i] = string(EncodeBar(item.(common.Bar)))
		}
	case common.Instrument:
		d.KeyName = KeySymbol
		for i, item := range items {
			b, err := EncodeInstrument(item.(common.Instrument))
			if err != nil {
				return Data{}, err
			}
			d.Values[i] = base64.StdEncoding.EncodeToString(b)
		}
	default:
		return Data{}, fmt.Errorf("%w: unsupported data type %s", ErrPrecondition, first)
	}
	return d, nil
}

// MapTicks keys the envelope by the symbol of the ticks, which must all be equal.
func MapTicks(ticks []common.Tick) (Data, error) {
	if len(ticks) == 0 {
		return Data{}, ErrEmptySequence
	}
	items := make([]any, len(ticks))
	for i, t := range ticks {
		if t.Symbol != ticks[0].Symbol {
			return Data{}, fmt.Errorf("%w: tick %d is for %s, expected %s", ErrHeterogeneousSequence, i, t.Symbol, ticks[0].Symbol)
		}
		items[i] = t
	}
	return MapData(ticks[0].Symbol, items...)
}

// MapBars keys the envelope by the bar type of the bars, which must all be equal.
func MapBars(bars []common.Bar) (Data, error) {
	if len(bars) == 0 {
		return Data{}, ErrEmptySequence
	}
	items := make([]any, len(bars))
	for i, b := range bars {
		if b.Type != bars[0].Type {
			return Data{}, fmt.Errorf("%w: bar %d is %s, expected %s", ErrHeterogeneousSequence, i, b.Type, bars[0].Type)
		}
		items[i] = b
	}
	return MapData(bars[0].Type.String(), items...)
}

// MapInstruments keys the envelope by the venue of the first instrument.
func MapInstruments(instruments []common.Instrument) (Data, error) {
	if len(instruments) == 0 {
		return Data{}, ErrEmptySequence
	}
	items := make([]any, len(instruments))
	for i, inst := range instruments {
		items[i] = inst
	}
	return MapData(instruments[0].Venue(), items...)
}

func UnmapTicks(d Data) ([]common.Tick, error) {
	if err := expect(d, "Tick", KeySymbol); err != nil {
		return nil, err
	}
	ticks := make([]common.Tick, len(d.Values))
	for i, v := range d.Values {
		t, err := DecodeTick(d.Key, []byte(v))
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		ticks[i] = t
	}
	return ticks, nil
}

func UnmapBars(d Data) ([]common.Bar, error) {
	if err := expect(d, "Bar", KeyBarType); err != nil {
		return nil, err
	}
	barType, err := common.ParseBarType(d.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	bars := make([]common.Bar, len(d.Values))
	for i, v := range d.Values {
		b, err := DecodeBar(barType, []byte(v))
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		bars[i] = b
	}
	return bars, nil
}

func UnmapInstruments(d Data) ([]common.Instrument, error) {
	if err := expect(d, "Instrument", KeySymbol); err != nil {
		return nil, err
	}
	instruments := make([]common.Instrument, len(d.Values))
	for i, v := range d.Values {
		raw, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%w: value %d: %w", ErrMalformed, i, err)
		}
		inst, err := DecodeInstrument(raw)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		instruments[i] = inst
	}
	return instruments, nil
}

func expect(d Data, dataType, keyName string) error {
	if d.DataType != dataType || d.KeyName != keyName {
		return fmt.Errorf("%w: %s data keyed by %s, expected %s keyed by %s", ErrMalformed, d.DataType, d.KeyName, dataType, keyName)
	}
	return nil
}
