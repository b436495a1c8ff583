package synthetic

import (
	"math/rand"
	"time"

	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/datasource"
	"github.com/imemo88/nautilus-trader/pkg/utility"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

const (
	tickGeneratorComponentName = "datasource.synthetic.generator"

	secondsPerYear = 365.25 * 24 * 3600
)

var pointFive = fixed.FromInt64(5, 1)

// TickGenerator produces quotes following a geometric Brownian motion of the mid price
// with a randomly drifting spread and exponentially distributed tick intervals.
type TickGenerator struct {
	symbol string
	rng    *rand.Rand

	steps int64
	t     int64

	avgTickInterval time.Duration
	tickVariability float64

	deltaLogPre1 fixed.Point
	deltaLogPre2 fixed.Point

	spreadVolatility float64
	minSpread        fixed.Point
	maxSpread        fixed.Point

	lastTime      time.Time
	lastPrice     fixed.Point
	currentSpread fixed.Point

	priceDigits int
}

// NewTickGenerator starts at startPrice with a full spread of fullSpread. mu and sigma are
// annualised drift and volatility. steps bounds the number of ticks, zero is unbounded.
func NewTickGenerator(symbol string, rng *rand.Rand, startTime time.Time, startPrice, fullSpread fixed.Point,
	mu, sigma float64, avgInterval time.Duration, steps int64) *TickGenerator {

	deltaT := fixed.FromFloat64(avgInterval.Seconds() / secondsPerYear)
	muFixed := fixed.FromFloat64(mu)
	sigmaFixed := fixed.FromFloat64(sigma)

	return &TickGenerator{
		symbol: symbol,
		rng:    rng,
		steps:  steps,

		avgTickInterval: avgInterval,
		tickVariability: 0.3,

		deltaLogPre1: muFixed.Sub(sigmaFixed.Mul(sigmaFixed).Mul(pointFive)).Mul(deltaT),
		deltaLogPre2: sigmaFixed.Mul(deltaT.Sqrt()),

		spreadVolatility: 0.1,
		minSpread:        fullSpread.Mul(fixed.FromInt64(25, 2)),
		maxSpread:        fullSpread.Mul(fixed.FromInt64(75, 2)),

		lastTime:      startTime,
		lastPrice:     startPrice,
		currentSpread: fullSpread.DivInt64(2),

		priceDigits: startPrice.Scale(),
	}
}

func (e *TickGenerator) SetSpreadDynamics(volatility float64, minSpread, maxSpread fixed.Point) {
	e.spreadVolatility = volatility
	e.minSpread = minSpread
	e.maxSpread = maxSpread
}

func (e *TickGenerator) SetTickVariability(variability float64) {
	e.tickVariability = variability
}

func (e *TickGenerator) SetPriceDigits(digits int) {
	e.priceDigits = digits
}

func (e *TickGenerator) GetNext() (common.Tick, error) {
	var tick common.Tick

	if e.steps > 0 && e.t >= e.steps {
		return tick, datasource.ErrEndOfData
	}

	z := e.rng.NormFloat64()
	deltaLog := e.deltaLogPre1.Add(e.deltaLogPre2.Mul(fixed.FromFloat64(z)))
	e.lastPrice = e.lastPrice.Mul(deltaLog.Exp()).Round(e.priceDigits + 4)

	e.updateSpread()

	e.lastTime = e.lastTime.Add(e.generateTickInterval())
	e.t++

	tick.Ask = e.lastPrice.Add(e.currentSpread)
	tick.Bid = e.lastPrice.Sub(e.currentSpread)
	tick.TimeStamp = e.lastTime

	e.addTickNoise(&tick)

	tick.Ask = tick.Ask.Round(e.priceDigits).Rescale(e.priceDigits)
	tick.Bid = tick.Bid.Round(e.priceDigits).Rescale(e.priceDigits)
	if tick.Bid.Gte(tick.Ask) {
		tick.Ask = tick.Bid.Add(fixed.FromInt64(1, e.priceDigits))
	}

	tick.Source = tickGeneratorComponentName
	tick.Symbol = e.symbol
	tick.ExecutionId = utility.GetExecutionID()
	tick.TraceID = utility.CreateTraceID()

	return tick, nil
}

func (e *TickGenerator) updateSpread() {
	if e.spreadVolatility <= 0 {
		return
	}

	spreadChange := e.rng.NormFloat64() * e.spreadVolatility
	newSpread := e.currentSpread.Mul(fixed.FromFloat64(1.0 + spreadChange))

	if newSpread.Lt(e.minSpread) {
		e.currentSpread = e.minSpread
	} else if newSpread.Gt(e.maxSpread) {
		e.currentSpread = e.maxSpread
	} else {
		e.currentSpread = newSpread
	}
}

func (e *TickGenerator) generateTickInterval() time.Duration {
	if e.tickVariability <= 0 {
		return e.avgTickInterval
	}

	lambda := 1.0 / float64(e.avgTickInterval.Nanoseconds())
	interval := e.rng.ExpFloat64() / lambda

	minInterval := float64(e.avgTickInterval.Nanoseconds()) * (1.0 - e.tickVariability)
	maxInterval := float64(e.avgTickInterval.Nanoseconds()) * (1.0 + e.tickVariability*3)

	if interval < minInterval {
		interval = minInterval
	} else if interval > maxInterval {
		interval = maxInterval
	}

	return time.Duration(int64(interval))
}

func (e *TickGenerator) addTickNoise(tick *common.Tick) {
	tickSize := e.currentSpread.DivInt64(10)

	askNoise := fixed.FromFloat64(e.rng.NormFloat64() * 0.1).Mul(tickSize)
	bidNoise := fixed.FromFloat64(e.rng.NormFloat64() * 0.1).Mul(tickSize)

	tick.Ask = tick.Ask.Add(askNoise)
	tick.Bid = tick.Bid.Add(bidNoise)

	if tick.Bid.Gte(tick.Ask) {
		mid := tick.Bid.Add(tick.Ask).DivInt64(2)
		tick.Bid = mid.Sub(tickSize)
		tick.Ask = mid.Add(tickSize)
	}
}
