package common

import "errors"

var (
	ErrInvalidInstrument = errors.New("invalid instrument")
	ErrInvalidBarType    = errors.New("invalid bar type")

	ErrUnknownCurrency    = errors.New("unknown currency")
	ErrUnknownAssetClass  = errors.New("unknown asset class")
	ErrUnknownAssetType   = errors.New("unknown asset type")
	ErrUnknownPriceType   = errors.New("unknown price type")
	ErrUnknownAggregation = errors.New("unknown bar aggregation")

	ErrInvalidPositionSide  = errors.New("invalid position side")
	ErrInvalidLiquiditySide = errors.New("invalid liquidity side")
	ErrInvalidPrice         = errors.New("invalid price")
	ErrMissingExchangeRate  = errors.New("exchange rate required for quanto instrument")
	ErrInvalidExchangeRate  = errors.New("invalid exchange rate")
	ErrCurrencyMismatch     = errors.New("currency mismatch")
)
