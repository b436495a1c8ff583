package common

import (
	"time"

	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

// Reference instruments for tests and the synthetic venue.

func StubAUDUSD() Instrument {
	return mustInstrument(InstrumentParams{
		Symbol:                "AUD/USD.SIM",
		BrokerSymbol:          "AUD/USD",
		AssetClass:            AssetClassFX,
		AssetType:             AssetTypeSpot,
		BaseCurrency:          CurrencyAUD,
		QuoteCurrency:         CurrencyUSD,
		PricePrecision:        5,
		SizePrecision:         0,
		TickSize:              fixed.MustParse("0.00001"),
		Leverage:              fixed.MustParse("50"),
		LotSize:               fixed.MustParse("1000"),
		MinQuantity:           fixed.Some(fixed.MustParse("1000")),
		MaxQuantity:           fixed.Some(fixed.MustParse("10000000")),
		MarginInit:            fixed.MustParse("0.03"),
		MarginMaint:           fixed.MustParse("0.03"),
		MakerFee:              fixed.MustParse("0.00002"),
		TakerFee:              fixed.MustParse("0.00002"),
		FundingRateLong:       fixed.MustParse("-0.0065"),
		FundingRateShort:      fixed.MustParse("0.0042"),
		MinStopDistanceEntry:  1,
		MinLimitDistanceEntry: 1,
		TimeStamp:             time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
	})
}

// StubXBTUSD is an inverse perpetual: quoted in USD, margined and settled in BTC.
func StubXBTUSD() Instrument {
	return mustInstrument(InstrumentParams{
		Symbol:             "BTC/USD.BITMEX",
		BrokerSymbol:       "XBTUSD",
		AssetClass:         AssetClassCrypto,
		AssetType:          AssetTypeSwap,
		BaseCurrency:       CurrencyBTC,
		QuoteCurrency:      CurrencyUSD,
		SettlementCurrency: CurrencyBTC,
		PricePrecision:     1,
		SizePrecision:      0,
		TickSize:           fixed.MustParse("0.5"),
		Multiplier:         fixed.One,
		Leverage:           fixed.MustParse("100"),
		LotSize:            fixed.One,
		MaxQuantity:        fixed.Some(fixed.MustParse("10000000")),
		MinQuantity:        fixed.Some(fixed.One),
		MaxPrice:           fixed.Some(fixed.MustParse("1000000.0")),
		MinPrice:           fixed.Some(fixed.MustParse("0.5")),
		MarginInit:         fixed.MustParse("0.01"),
		MarginMaint:        fixed.MustParse("0.0035"),
		MakerFee:           fixed.MustParse("-0.00025"),
		TakerFee:           fixed.MustParse("0.00075"),
		TimeStamp:          time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
		Info:               map[string]any{InfoIsInverse: true},
	})
}

// StubETHUSD is a quanto perpetual: quoted in USD, settled in BTC.
func StubETHUSD() Instrument {
	return mustInstrument(InstrumentParams{
		Symbol:             "ETH/USD.BITMEX",
		BrokerSymbol:       "ETHUSD",
		AssetClass:         AssetClassCrypto,
		AssetType:          AssetTypeSwap,
		BaseCurrency:       CurrencyETH,
		QuoteCurrency:      CurrencyUSD,
		SettlementCurrency: CurrencyBTC,
		PricePrecision:     2,
		SizePrecision:      0,
		TickSize:           fixed.MustParse("0.05"),
		Multiplier:         fixed.MustParse("0.000001"),
		Leverage:           fixed.MustParse("50"),
		LotSize:            fixed.One,
		MaxQuantity:        fixed.Some(fixed.MustParse("10000000")),
		MinQuantity:        fixed.Some(fixed.One),
		MarginInit:         fixed.MustParse("0.02"),
		MarginMaint:        fixed.MustParse("0.007"),
		MakerFee:           fixed.MustParse("-0.00025"),
		TakerFee:           fixed.MustParse("0.00075"),
		TimeStamp:          time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
		Info:               map[string]any{InfoIsQuanto: "true"},
	})
}

func mustInstrument(p InstrumentParams) Instrument {
	i, err := NewInstrument(p)
	if err != nil {
		panic(err)
	}
	return i
}
