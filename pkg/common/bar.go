package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/imemo88/nautilus-trader/pkg/utility"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

type BarAggregation uint8

const (
	BarAggregationUndefined BarAggregation = iota
	BarAggregationSecond
	BarAggregationMinute
	BarAggregationHour
	BarAggregationDay
)

var barAggregationNames = []string{
	BarAggregationUndefined: "UNDEFINED",
	BarAggregationSecond:    "SECOND",
	BarAggregationMinute:    "MINUTE",
	BarAggregationHour:      "HOUR",
	BarAggregationDay:       "DAY",
}

var barAggregationUnits = []time.Duration{
	BarAggregationSecond: time.Second,
	BarAggregationMinute: time.Minute,
	BarAggregationHour:   time.Hour,
	BarAggregationDay:    24 * time.Hour,
}

func ParseBarAggregation(name string) (BarAggregation, error) {
	if i := lookup(barAggregationNames, name); i > 0 {
		return BarAggregation(i), nil
	}
	return BarAggregationUndefined, fmt.Errorf("%w: %q", ErrUnknownAggregation, name)
}

func (a BarAggregation) String() string { return nameOf(barAggregationNames, int(a), "BarAggregation") }

const internalSuffix = "INTERNAL"

type BarSpecification struct {
	Step        int            `json:"step"`
	Aggregation BarAggregation `json:"aggregation"`
	PriceType   PriceType      `json:"price_type"`
}

func (s BarSpecification) String() string {
	return fmt.Sprintf("%d-%s-%s", s.Step, s.Aggregation, s.PriceType)
}

// Duration is the length of one bar interval.
func (s BarSpecification) Duration() time.Duration {
	if int(s.Aggregation) >= len(barAggregationUnits) {
		return 0
	}
	return time.Duration(s.Step) * barAggregationUnits[s.Aggregation]
}

func (s BarSpecification) Validate() error {
	if s.Step <= 0 {
		return fmt.Errorf("%w: step must be positive, was %d", ErrInvalidBarType, s.Step)
	}
	if s.Aggregation == BarAggregationUndefined || int(s.Aggregation) >= len(barAggregationNames) {
		return fmt.Errorf("%w: %s", ErrUnknownAggregation, s.Aggregation)
	}
	if s.PriceType == PriceTypeUndefined || int(s.PriceType) >= len(priceTypeNames) {
		return fmt.Errorf("%w: %s", ErrUnknownPriceType, s.PriceType)
	}
	return nil
}

// ParseBarSpecification reads "1-MINUTE-BID".
func ParseBarSpecification(s string) (BarSpecification, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return BarSpecification{}, fmt.Errorf("%w: %q", ErrInvalidBarType, s)
	}
	return parseSpecParts(parts)
}

func parseSpecParts(parts []string) (BarSpecification, error) {
	step, err := strconv.Atoi(parts[0])
	if err != nil {
		return BarSpecification{}, fmt.Errorf("%w: step %q", ErrInvalidBarType, parts[0])
	}
	aggregation, err := ParseBarAggregation(parts[1])
	if err != nil {
		return BarSpecification{}, err
	}
	priceType, err := ParsePriceType(parts[2])
	if err != nil {
		return BarSpecification{}, err
	}
	spec := BarSpecification{Step: step, Aggregation: aggregation, PriceType: priceType}
	return spec, spec.Validate()
}

// BarType is the subscription key of a bar stream. Internal bar types are aggregated
// from ticks by the engine instead of being streamed by a venue.
type BarType struct {
	Symbol   string           `json:"symbol"`
	Spec     BarSpecification `json:"spec"`
	Internal bool             `json:"internal,omitempty"`
}

func (b BarType) String() string {
	s := b.Symbol + "-" + b.Spec.String()
	if b.Internal {
		s += "-" + internalSuffix
	}
	return s
}

// ParseBarType reads "AUD/USD.FXCM-1-MINUTE-BID", optionally suffixed with "-INTERNAL".
// The symbol itself may contain dashes.
func ParseBarType(s string) (BarType, error) {
	parts := strings.Split(s, "-")
	internal := false
	if len(parts) > 0 && parts[len(parts)-1] == internalSuffix {
		internal = true
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 4 {
		return BarType{}, fmt.Errorf("%w: %q", ErrInvalidBarType, s)
	}

	n := len(parts)
	spec, err := parseSpecParts(parts[n-3:])
	if err != nil {
		return BarType{}, fmt.Errorf("unable to parse bar type %q: %w", s, err)
	}
	symbol := strings.Join(parts[:n-3], "-")
	if symbol == "" {
		return BarType{}, fmt.Errorf("%w: empty symbol in %q", ErrInvalidBarType, s)
	}
	return BarType{Symbol: symbol, Spec: spec, Internal: internal}, nil
}

type Bar struct {
	Type      BarType     `json:"type"`
	Open      fixed.Point `json:"open"`
	High      fixed.Point `json:"high"`
	Low       fixed.Point `json:"low"`
	Close     fixed.Point `json:"close"`
	Volume    fixed.Point `json:"volume"`
	TimeStamp time.Time   `json:"ts"`

	Source      string              `json:"src,omitempty"`
	ExecutionId utility.ExecutionID `json:"eid,omitempty"`
	TraceID     utility.TraceID     `json:"tid,omitempty"`
}

// Equal compares bar type, prices, volume and timestamp and ignores the stamping metadata.
func (b Bar) Equal(o Bar) bool {
	return b.Type == o.Type &&
		b.Open.Eq(o.Open) &&
		b.High.Eq(o.High) &&
		b.Low.Eq(o.Low) &&
		b.Close.Eq(o.Close) &&
		b.Volume.Eq(o.Volume) &&
		b.TimeStamp.Equal(o.TimeStamp)
}
