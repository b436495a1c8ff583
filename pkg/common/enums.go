package common

import (
	"fmt"
	"strings"
)

type Currency uint8
type AssetClass uint8
type AssetType uint8
type PositionSide uint8
type LiquiditySide uint8
type PriceType uint8

const (
	CurrencyUndefined Currency = iota
	CurrencyUSD
	CurrencyEUR
	CurrencyGBP
	CurrencyJPY
	CurrencyAUD
	CurrencyCAD
	CurrencyCHF
	CurrencyNZD
	CurrencyHKD
	CurrencySGD
	CurrencySEK
	CurrencyNOK
	CurrencyCNY
	CurrencyMXN
	CurrencyZAR
	CurrencyBTC
	CurrencyETH
	CurrencyXRP
	CurrencyLTC
	CurrencyBCH
	CurrencyBNB
	CurrencyUSDT
	CurrencyUSDC
	CurrencyXAU
	CurrencyXAG
)

var currencyTable = []struct {
	code      string
	precision int
}{
	CurrencyUndefined: {"UNDEFINED", 0},
	CurrencyUSD:       {"USD", 2},
	CurrencyEUR:       {"EUR", 2},
	CurrencyGBP:       {"GBP", 2},
	CurrencyJPY:       {"JPY", 0},
	CurrencyAUD:       {"AUD", 2},
	CurrencyCAD:       {"CAD", 2},
	CurrencyCHF:       {"CHF", 2},
	CurrencyNZD:       {"NZD", 2},
	CurrencyHKD:       {"HKD", 2},
	CurrencySGD:       {"SGD", 2},
	CurrencySEK:       {"SEK", 2},
	CurrencyNOK:       {"NOK", 2},
	CurrencyCNY:       {"CNY", 2},
	CurrencyMXN:       {"MXN", 2},
	CurrencyZAR:       {"ZAR", 2},
	CurrencyBTC:       {"BTC", 8},
	CurrencyETH:       {"ETH", 8},
	CurrencyXRP:       {"XRP", 6},
	CurrencyLTC:       {"LTC", 8},
	CurrencyBCH:       {"BCH", 8},
	CurrencyBNB:       {"BNB", 8},
	CurrencyUSDT:      {"USDT", 8},
	CurrencyUSDC:      {"USDC", 8},
	CurrencyXAU:       {"XAU", 2},
	CurrencyXAG:       {"XAG", 2},
}

var currencyByCode = func() map[string]Currency {
	m := make(map[string]Currency, len(currencyTable))
	for c, entry := range currencyTable {
		if Currency(c) != CurrencyUndefined {
			m[entry.code] = Currency(c)
		}
	}
	return m
}()

func ParseCurrency(code string) (Currency, error) {
	if c, ok := currencyByCode[strings.ToUpper(code)]; ok {
		return c, nil
	}
	return CurrencyUndefined, fmt.Errorf("%w: %q", ErrUnknownCurrency, code)
}

func (c Currency) String() string {
	if int(c) < len(currencyTable) {
		return currencyTable[c].code
	}
	return fmt.Sprintf("Currency(%d)", c)
}

// Precision is the number of decimal places amounts in this currency are displayed with.
func (c Currency) Precision() int {
	if int(c) < len(currencyTable) {
		return currencyTable[c].precision
	}
	return 0
}

const (
	AssetClassUndefined AssetClass = iota
	AssetClassFX
	AssetClassEquity
	AssetClassCommodity
	AssetClassBond
	AssetClassIndex
	AssetClassCrypto
	AssetClassBetting
)

var assetClassNames = []string{
	AssetClassUndefined: "UNDEFINED",
	AssetClassFX:        "FX",
	AssetClassEquity:    "EQUITY",
	AssetClassCommodity: "COMMODITY",
	AssetClassBond:      "BOND",
	AssetClassIndex:     "INDEX",
	AssetClassCrypto:    "CRYPTO",
	AssetClassBetting:   "BETTING",
}

func ParseAssetClass(name string) (AssetClass, error) {
	if i := lookup(assetClassNames, name); i >= 0 {
		return AssetClass(i), nil
	}
	return AssetClassUndefined, fmt.Errorf("%w: %q", ErrUnknownAssetClass, name)
}

func (a AssetClass) String() string { return nameOf(assetClassNames, int(a), "AssetClass") }

const (
	AssetTypeUndefined AssetType = iota
	AssetTypeSpot
	AssetTypeSwap
	AssetTypeFuture
	AssetTypeForward
	AssetTypeCFD
	AssetTypeOption
	AssetTypeWarrant
)

var assetTypeNames = []string{
	AssetTypeUndefined: "UNDEFINED",
	AssetTypeSpot:      "SPOT",
	AssetTypeSwap:      "SWAP",
	AssetTypeFuture:    "FUTURE",
	AssetTypeForward:   "FORWARD",
	AssetTypeCFD:       "CFD",
	AssetTypeOption:    "OPTION",
	AssetTypeWarrant:   "WARRANT",
}

// ParseAssetType accepts "UNDEFINED" so decoders can report the invariant violation
// rather than an unknown name.
func ParseAssetType(name string) (AssetType, error) {
	if i := lookup(assetTypeNames, name); i >= 0 {
		return AssetType(i), nil
	}
	return AssetTypeUndefined, fmt.Errorf("%w: %q", ErrUnknownAssetType, name)
}

func (a AssetType) String() string { return nameOf(assetTypeNames, int(a), "AssetType") }

const (
	PositionSideUndefined PositionSide = iota
	PositionSideFlat
	PositionSideLong
	PositionSideShort
)

var positionSideNames = []string{
	PositionSideUndefined: "UNDEFINED",
	PositionSideFlat:      "FLAT",
	PositionSideLong:      "LONG",
	PositionSideShort:     "SHORT",
}

func (s PositionSide) String() string { return nameOf(positionSideNames, int(s), "PositionSide") }

const (
	LiquiditySideUndefined LiquiditySide = iota
	LiquiditySideMaker
	LiquiditySideTaker
)

var liquiditySideNames = []string{
	LiquiditySideUndefined: "UNDEFINED",
	LiquiditySideMaker:     "MAKER",
	LiquiditySideTaker:     "TAKER",
}

func (s LiquiditySide) String() string { return nameOf(liquiditySideNames, int(s), "LiquiditySide") }

const (
	PriceTypeUndefined PriceType = iota
	PriceTypeBid
	PriceTypeAsk
	PriceTypeMid
	PriceTypeLast
)

var priceTypeNames = []string{
	PriceTypeUndefined: "UNDEFINED",
	PriceTypeBid:       "BID",
	PriceTypeAsk:       "ASK",
	PriceTypeMid:       "MID",
	PriceTypeLast:      "LAST",
}

func ParsePriceType(name string) (PriceType, error) {
	if i := lookup(priceTypeNames, name); i > 0 {
		return PriceType(i), nil
	}
	return PriceTypeUndefined, fmt.Errorf("%w: %q", ErrUnknownPriceType, name)
}

func (p PriceType) String() string { return nameOf(priceTypeNames, int(p), "PriceType") }

func lookup(names []string, name string) int {
	name = strings.ToUpper(name)
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func nameOf(names []string, i int, typeName string) string {
	if i >= 0 && i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("%s(%d)", typeName, i)
}
