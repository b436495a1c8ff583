package codec

import (
	"bytes"
	"fmt"
	"time"

	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

// Line format, positional and comma separated:
//
//	tick: bid,ask,timestamp
//	bar:  open,high,low,close,volume,timestamp
//
// Timestamps are RFC 3339 in UTC with nanoseconds. The symbol or bar type is not part
// of the line and is supplied by the caller on decode. Decoders only accept fields in the
// form the encoders write them, so a decoded line encodes back to the same bytes.

const (
	separator  = ','
	tickFields = 3
	barFields  = 6
	timeLayout = time.RFC3339Nano
)

func EncodeTick(t common.Tick) []byte {
	b := make([]byte, 0, 64)
	b = append(b, t.Bid.String()...)
	b = append(b, separator)
	b = append(b, t.Ask.String()...)
	b = append(b, separator)
	return t.TimeStamp.UTC().AppendFormat(b, timeLayout)
}

func DecodeTick(symbol string, data []byte) (common.Tick, error) {
	fields, err := split(data, tickFields)
	if err != nil {
		return common.Tick{}, fmt.Errorf("unable to decode tick: %w", err)
	}

	var d decoder
	tick := common.Tick{
		Symbol:    symbol,
		Bid:       d.point("bid", fields[0]),
		Ask:       d.point("ask", fields[1]),
		TimeStamp: d.time(fields[2]),
	}
	if d.err != nil {
		return common.Tick{}, fmt.Errorf("unable to decode tick: %w", d.err)
	}
	return tick, nil
}

func EncodeBar(b common.Bar) []byte {
	buf := make([]byte, 0, 96)
	for _, p := range [...]fixed.Point{b.Open, b.High, b.Low, b.Close, b.Volume} {
		buf = append(buf, p.String()...)
		buf = append(buf, separator)
	}
	return b.TimeStamp.UTC().AppendFormat(buf, timeLayout)
}

func DecodeBar(barType common.BarType, data []byte) (common.Bar, error) {
	fields, err := split(data, barFields)
	if err != nil {
		return common.Bar{}, fmt.Errorf("unable to decode bar: %w", err)
	}

	var d decoder
	bar := common.Bar{
		Type:      barType,
		Open:      d.point("open", fields[0]),
		High:      d.point("high", fields[1]),
		Low:       d.point("low", fields[2]),
		Close:     d.point("close", fields[3]),
		Volume:    d.point("volume", fields[4]),
		TimeStamp: d.time(fields[5]),
	}
	if d.err != nil {
		return common.Bar{}, fmt.Errorf("unable to decode bar: %w", d.err)
	}
	return bar, nil
}

// EncodeTicks encodes every tick independently, keeping the input order.
func EncodeTicks(ticks []common.Tick) [][]byte {
	out := make([][]byte, len(ticks))
	for i, t := range ticks {
		out[i] = EncodeTick(t)
	}
	return out
}

func DecodeTicks(symbol string, data [][]byte) ([]common.Tick, error) {
	out := make([]common.Tick, len(data))
	for i, line := range data {
		t, err := DecodeTick(symbol, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// EncodeBars encodes every bar independently, keeping the input order.
func EncodeBars(bars []common.Bar) [][]byte {
	out := make([][]byte, len(bars))
	for i, b := range bars {
		out[i] = EncodeBar(b)
	}
	return out
}

func DecodeBars(barType common.BarType, data [][]byte) ([]common.Bar, error) {
	out := make([]common.Bar, len(data))
	for i, line := range data {
		b, err := DecodeBar(barType, line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		out[i] = b
	}
	return out, nil
}

func split(data []byte, n int) ([]string, error) {
	parts := bytes.Split(data, []byte{separator})
	if len(parts) != n {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformed, n, len(parts))
	}
	fields := make([]string, n)
	for i, p := range parts {
		fields[i] = string(p)
	}
	return fields, nil
}

// decoder keeps the first parse error so a record can be decoded field by field.
type decoder struct {
	err error
}

func (d *decoder) point(name, s string) fixed.Point {
	if d.err != nil {
		return fixed.Point{}
	}
	p, err := fixed.Parse(s)
	if err != nil {
		d.err = fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
		return fixed.Point{}
	}
	if p.String() != s {
		d.err = fmt.Errorf("%w: %s %q is not canonical, expected %q", ErrMalformed, name, s, p.String())
	}
	return p
}

func (d *decoder) time(s string) time.Time {
	if d.err != nil {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		d.err = fmt.Errorf("%w: timestamp: %w", ErrMalformed, err)
		return time.Time{}
	}
	t = t.UTC()
	if canonical := t.Format(timeLayout); canonical != s {
		d.err = fmt.Errorf("%w: timestamp %q is not canonical, expected %q", ErrMalformed, s, canonical)
	}
	return t
}
