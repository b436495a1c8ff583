package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

const (
	InfoIsInverse = "is_inverse"
	InfoIsQuanto  = "is_quanto"
)

// InstrumentParams carries venue reference data into NewInstrument. Info is the open
// ended venue metadata; it is read once to derive the inverse and quanto flags.
type InstrumentParams struct {
	Id           uuid.UUID
	Symbol       string
	BrokerSymbol string

	AssetClass         AssetClass
	AssetType          AssetType
	BaseCurrency       Currency
	QuoteCurrency      Currency
	SettlementCurrency Currency

	PricePrecision int
	SizePrecision  int
	TickSize       fixed.Point
	Multiplier     fixed.Point
	Leverage       fixed.Point
	LotSize        fixed.Point

	MaxQuantity fixed.NullPoint
	MinQuantity fixed.NullPoint
	MaxNotional fixed.NullPoint
	MinNotional fixed.NullPoint
	MaxPrice    fixed.NullPoint
	MinPrice    fixed.NullPoint

	MarginInit       fixed.Point
	MarginMaint      fixed.Point
	MakerFee         fixed.Point
	TakerFee         fixed.Point
	SettlementFee    fixed.Point
	FundingRateLong  fixed.Point
	FundingRateShort fixed.Point

	MinStopDistanceEntry  int
	MinLimitDistanceEntry int
	MinStopDistance       int
	MinLimitDistance      int

	TimeStamp time.Time
	Info      map[string]any
}

// Instrument describes a tradeable contract. It is built once per reference data update
// and never mutated; an update produces a new instance with a newer TimeStamp.
// Two instruments are the same instrument when their symbols match.
type Instrument struct {
	Id           uuid.UUID
	Symbol       string
	BrokerSymbol string

	AssetClass         AssetClass
	AssetType          AssetType
	BaseCurrency       Currency
	QuoteCurrency      Currency
	SettlementCurrency Currency

	PricePrecision int
	SizePrecision  int
	TickSize       fixed.Point
	Multiplier     fixed.Point
	Leverage       fixed.Point
	LotSize        fixed.Point

	MaxQuantity fixed.NullPoint
	MinQuantity fixed.NullPoint
	MaxNotional fixed.NullPoint
	MinNotional fixed.NullPoint
	MaxPrice    fixed.NullPoint
	MinPrice    fixed.NullPoint

	MarginInit       fixed.Point
	MarginMaint      fixed.Point
	MakerFee         fixed.Point
	TakerFee         fixed.Point
	SettlementFee    fixed.Point
	FundingRateLong  fixed.Point
	FundingRateShort fixed.Point

	MinStopDistanceEntry  int
	MinLimitDistanceEntry int
	MinStopDistance       int
	MinLimitDistance      int

	TimeStamp time.Time

	isInverse bool
	isQuanto  bool
}

func NewInstrument(p InstrumentParams) (Instrument, error) {
	if err := validate(p); err != nil {
		return Instrument{}, fmt.Errorf("%w %q: %w", ErrInvalidInstrument, p.Symbol, err)
	}

	isInverse, err := infoFlag(p.Info, InfoIsInverse)
	if err != nil {
		return Instrument{}, fmt.Errorf("%w %q: %w", ErrInvalidInstrument, p.Symbol, err)
	}
	isQuanto, err := infoFlag(p.Info, InfoIsQuanto)
	if err != nil {
		return Instrument{}, fmt.Errorf("%w %q: %w", ErrInvalidInstrument, p.Symbol, err)
	}

	id := p.Id
	if id == uuid.Nil {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.Symbol))
	}
	multiplier := p.Multiplier
	if multiplier.IsZero() {
		multiplier = fixed.One
	}
	settlement := p.SettlementCurrency
	if settlement == CurrencyUndefined {
		settlement = p.QuoteCurrency
	}

	return Instrument{
		Id:                    id,
		Symbol:                p.Symbol,
		BrokerSymbol:          p.BrokerSymbol,
		AssetClass:            p.AssetClass,
		AssetType:             p.AssetType,
		BaseCurrency:          p.BaseCurrency,
		QuoteCurrency:         p.QuoteCurrency,
		SettlementCurrency:    settlement,
		PricePrecision:        p.PricePrecision,
		SizePrecision:         p.SizePrecision,
		TickSize:              p.TickSize,
		Multiplier:            multiplier,
		Leverage:              p.Leverage,
		LotSize:               p.LotSize,
		MaxQuantity:           p.MaxQuantity,
		MinQuantity:           p.MinQuantity,
		MaxNotional:           p.MaxNotional,
		MinNotional:           p.MinNotional,
		MaxPrice:              p.MaxPrice,
		MinPrice:              p.MinPrice,
		MarginInit:            p.MarginInit,
		MarginMaint:           p.MarginMaint,
		MakerFee:              p.MakerFee,
		TakerFee:              p.TakerFee,
		SettlementFee:         p.SettlementFee,
		FundingRateLong:       p.FundingRateLong,
		FundingRateShort:      p.FundingRateShort,
		MinStopDistanceEntry:  p.MinStopDistanceEntry,
		MinLimitDistanceEntry: p.MinLimitDistanceEntry,
		MinStopDistance:       p.MinStopDistance,
		MinLimitDistance:      p.MinLimitDistance,
		TimeStamp:             p.TimeStamp,
		isInverse:             isInverse,
		isQuanto:              isQuanto,
	}, nil
}

func validate(p InstrumentParams) error {
	switch {
	case p.Symbol == "":
		return fmt.Errorf("symbol is empty")
	case p.AssetType == AssetTypeUndefined || int(p.AssetType) >= len(assetTypeNames):
		return fmt.Errorf("asset type is %s", p.AssetType)
	case int(p.AssetClass) >= len(assetClassNames):
		return fmt.Errorf("asset class is %s", p.AssetClass)
	case p.BaseCurrency == CurrencyUndefined || int(p.BaseCurrency) >= len(currencyTable):
		return fmt.Errorf("base currency is %s", p.BaseCurrency)
	case p.QuoteCurrency == CurrencyUndefined || int(p.QuoteCurrency) >= len(currencyTable):
		return fmt.Errorf("quote currency is %s", p.QuoteCurrency)
	case int(p.SettlementCurrency) >= len(currencyTable):
		return fmt.Errorf("settlement currency is %s", p.SettlementCurrency)
	case p.PricePrecision < 0:
		return fmt.Errorf("price precision is negative (%d)", p.PricePrecision)
	case p.SizePrecision < 0:
		return fmt.Errorf("size precision is negative (%d)", p.SizePrecision)
	case !p.TickSize.IsPos():
		return fmt.Errorf("tick size is not positive (%s)", p.TickSize)
	case !p.LotSize.IsPos():
		return fmt.Errorf("lot size is not positive (%s)", p.LotSize)
	case !p.Leverage.IsPos():
		return fmt.Errorf("leverage is not positive (%s)", p.Leverage)
	case p.Multiplier.IsNeg():
		return fmt.Errorf("multiplier is negative (%s)", p.Multiplier)
	}
	return nil
}

func infoFlag(info map[string]any, key string) (bool, error) {
	v, ok := info[key]
	if !ok || v == nil {
		return false, nil
	}
	switch flag := v.(type) {
	case bool:
		return flag, nil
	case string:
		switch strings.ToLower(flag) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no", "":
			return false, nil
		}
	}
	return false, fmt.Errorf("info %q has unsupported value %v", key, v)
}

func (i Instrument) IsInverse() bool { return i.isInverse }
func (i Instrument) IsQuanto() bool  { return i.isQuanto }

// CostPrecision is the display precision of amounts settled for this instrument.
func (i Instrument) CostPrecision() int { return i.SettlementCurrency.Precision() }

func (i Instrument) Venue() string { return Venue(i.Symbol) }

// Key is the identity of the instrument, used for equality and map keys.
func (i Instrument) Key() string { return i.Symbol }

func (i Instrument) Equal(o Instrument) bool { return i.Symbol == o.Symbol }

// Updated returns a copy stamped with ts.
func (i Instrument) Updated(ts time.Time) Instrument {
	i.TimeStamp = ts
	return i
}

func (i Instrument) Params() InstrumentParams {
	return InstrumentParams{
		Id:                    i.Id,
		Symbol:                i.Symbol,
		BrokerSymbol:          i.BrokerSymbol,
		AssetClass:            i.AssetClass,
		AssetType:             i.AssetType,
		BaseCurrency:          i.BaseCurrency,
		QuoteCurrency:         i.QuoteCurrency,
		SettlementCurrency:    i.SettlementCurrency,
		PricePrecision:        i.PricePrecision,
		SizePrecision:         i.SizePrecision,
		TickSize:              i.TickSize,
		Multiplier:            i.Multiplier,
		Leverage:              i.Leverage,
		LotSize:               i.LotSize,
		MaxQuantity:           i.MaxQuantity,
		MinQuantity:           i.MinQuantity,
		MaxNotional:           i.MaxNotional,
		MinNotional:           i.MinNotional,
		MaxPrice:              i.MaxPrice,
		MinPrice:              i.MinPrice,
		MarginInit:            i.MarginInit,
		MarginMaint:           i.MarginMaint,
		MakerFee:              i.MakerFee,
		TakerFee:              i.TakerFee,
		SettlementFee:         i.SettlementFee,
		FundingRateLong:       i.FundingRateLong,
		FundingRateShort:      i.FundingRateShort,
		MinStopDistanceEntry:  i.MinStopDistanceEntry,
		MinLimitDistanceEntry: i.MinLimitDistanceEntry,
		MinStopDistance:       i.MinStopDistance,
		MinLimitDistance:      i.MinLimitDistance,
		TimeStamp:             i.TimeStamp,
		Info: map[string]any{
			InfoIsInverse: i.isInverse,
			InfoIsQuanto:  i.isQuanto,
		},
	}
}

func (i Instrument) Fields() []zap.Field {
	return []zap.Field{
		zap.String("symbol", i.Symbol),
		zap.String("asset_class", i.AssetClass.String()),
		zap.String("asset_type", i.AssetType.String()),
		zap.String("quote_currency", i.QuoteCurrency.String()),
		zap.Int("price_precision", i.PricePrecision),
		zap.String("tick_size", i.TickSize.String()),
		zap.String("lot_size", i.LotSize.String()),
		zap.Bool("inverse", i.isInverse),
		zap.Bool("quanto", i.isQuanto),
		zap.Time("ts", i.TimeStamp),
	}
}
