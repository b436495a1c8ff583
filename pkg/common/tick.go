package common

import (
	"time"

	"github.com/imemo88/nautilus-trader/pkg/utility"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

type Tick struct {
	Symbol    string      `json:"symbol"`
	Bid       fixed.Point `json:"bid"`
	Ask       fixed.Point `json:"ask"`
	TimeStamp time.Time   `json:"ts"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
}

// Equal compares the quote itself and ignores the stamping metadata.
func (t Tick) Equal(o Tick) bool {
	return t.Symbol == o.Symbol &&
		t.Bid.Eq(o.Bid) &&
		t.Ask.Eq(o.Ask) &&
		t.TimeStamp.Equal(o.TimeStamp)
}

func (t Tick) Mid() fixed.Point {
	return t.Bid.Add(t.Ask).DivInt(2)
}

// Price selects the side of the quote a bar of the given price type is built from.
// LAST is not quoted by a tick and falls back to MID.
func (t Tick) Price(priceType PriceType) fixed.Point {
	switch priceType {
	case PriceTypeBid:
		return t.Bid
	case PriceTypeAsk:
		return t.Ask
	default:
		return t.Mid()
	}
}
