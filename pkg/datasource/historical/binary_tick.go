package historical

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

// BinaryTick is the fixed size record of a tick file. Files are plain arrays of records
// in little endian byte order, sorted by TimeStamp (unix nanoseconds). The struct has no
// padding, so records are read by casting the mapped bytes.
type BinaryTick struct {
	TimeStamp int64
	Bid       float64
	Ask       float64
	BidVolume float64
	AskVolume float64
}

// ToTick converts the record. With priceDigits > 0 prices are rounded to that many
// decimal places, otherwise the shortest exact representation of the float is kept.
func (b BinaryTick) ToTick(symbol string, priceDigits int) common.Tick {
	bid := fixed.FromFloat64(b.Bid)
	ask := fixed.FromFloat64(b.Ask)
	if priceDigits > 0 {
		bid = bid.Round(priceDigits).Rescale(priceDigits)
		ask = ask.Round(priceDigits).Rescale(priceDigits)
	}
	return common.Tick{
		Symbol:    symbol,
		Bid:       bid,
		Ask:       ask,
		TimeStamp: time.Unix(0, b.TimeStamp).UTC(),
	}
}

func FromTick(t common.Tick) BinaryTick {
	bid, _ := t.Bid.Float64()
	ask, _ := t.Ask.Float64()
	return BinaryTick{
		TimeStamp: t.TimeStamp.UnixNano(),
		Bid:       bid,
		Ask:       ask,
	}
}

func WriteTicks(w io.Writer, ticks []BinaryTick) error {
	for i, t := range ticks {
		if err := binary.Write(w, binary.LittleEndian, t); err != nil {
			return fmt.Errorf("unable to write tick %d: %w", i, err)
		}
	}
	return nil
}
