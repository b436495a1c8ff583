package bar

import (
	"fmt"
	"time"

	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/utility"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

const aggregatorComponentName = "tools.bar.aggregator"

type EmitFunc func(common.Bar)

// Aggregator builds bars of one bar type from the ticks of its symbol. Periods are aligned
// to multiples of the bar duration in UTC and a bar is stamped with its period close time.
// The first tick at or after the close time completes the bar. Volume is the tick count.
type Aggregator struct {
	barType common.BarType
	period  time.Duration
	emit    EmitFunc

	building bool
	openTime time.Time
	bar      common.Bar
	count    int
}

func NewAggregator(barType common.BarType, emit EmitFunc) (*Aggregator, error) {
	if err := barType.Spec.Validate(); err != nil {
		return nil, fmt.Errorf("unable to aggregate %s: %w", barType, err)
	}
	if emit == nil {
		emit = func(common.Bar) {}
	}
	return &Aggregator{
		barType: barType,
		period:  barType.Spec.Duration(),
		emit:    emit,
	}, nil
}

func (a *Aggregator) BarType() common.BarType { return a.barType }

// OnTick folds tick into the bar in construction. Ticks of other symbols and ticks older
// than the bar in construction are ignored.
func (a *Aggregator) OnTick(tick common.Tick) {
	if tick.Symbol != a.barType.Symbol {
		return
	}

	if a.building {
		if tick.TimeStamp.Before(a.openTime) {
			return
		}
		if !tick.TimeStamp.Before(a.openTime.Add(a.period)) {
			a.emit(a.complete())
		}
	}

	price := tick.Price(a.barType.Spec.PriceType)

	if !a.building {
		a.building = true
		a.openTime = tick.TimeStamp.UTC().Truncate(a.period)
		a.count = 0
		a.bar = common.Bar{
			Type:        a.barType,
			Open:        price,
			High:        price,
			Low:         price,
			Close:       price,
			TimeStamp:   a.openTime.Add(a.period),
			Source:      aggregatorComponentName,
			ExecutionId: utility.GetExecutionID(),
			TraceID:     utility.CreateTraceID(),
		}
	}

	if price.Gt(a.bar.High) {
		a.bar.High = price
	}
	if price.Lt(a.bar.Low) {
		a.bar.Low = price
	}
	a.bar.Close = price
	a.count++
}

// Flush returns the bar in construction, if any, and resets the aggregator.
func (a *Aggregator) Flush() (common.Bar, bool) {
	if !a.building {
		return common.Bar{}, false
	}
	return a.complete(), true
}

func (a *Aggregator) complete() common.Bar {
	b := a.bar
	b.Volume = fixed.FromInt(a.count, 0)
	a.building = false
	a.bar = common.Bar{}
	return b
}

// Aggregate builds the completed bars of barType from ticks. The bar still in construction
// after the last tick is not returned.
func Aggregate(barType common.BarType, ticks []common.Tick) ([]common.Bar, error) {
	var bars []common.Bar
	agg, err := NewAggregator(barType, func(b common.Bar) { bars = append(bars, b) })
	if err != nil {
		return nil, err
	}
	for _, t := range ticks {
		agg.OnTick(t)
	}
	return bars, nil
}
