package common

import (
	"fmt"

	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

// CalculatePnL returns the profit of a position in the base currency. The result is exact,
// use Money.Rounded for display.
func (i Instrument) CalculatePnL(side PositionSide, openPrice, closePrice, quantity fixed.Point) (Money, error) {
	ret, err := i.returnFraction(side, openPrice, closePrice)
	if err != nil {
		return Money{}, err
	}

	pnl := ret.MulPoint(quantity).MulPoint(i.Multiplier)
	if i.isInverse && !pnl.IsZero() {
		if !closePrice.IsPos() {
			return Money{}, fmt.Errorf("%w: close price %s of inverse instrument %s", ErrInvalidPrice, closePrice, i.Symbol)
		}
		pnl = pnl.QuoPoint(closePrice)
	}

	return NewMoneyFraction(pnl, i.BaseCurrency), nil
}

// CalculatePnLForSettlement converts CalculatePnL into the settlement currency with xrate.
// A zero xrate means none was supplied: it stands for 1 unless the instrument is quanto.
func (i Instrument) CalculatePnLForSettlement(side PositionSide, openPrice, closePrice, quantity, xrate fixed.Point) (Money, error) {
	rate, err := i.settlementRate(xrate)
	if err != nil {
		return Money{}, err
	}
	pnl, err := i.CalculatePnL(side, openPrice, closePrice, quantity)
	if err != nil {
		return Money{}, err
	}
	return pnl.Convert(rate, i.SettlementCurrency), nil
}

// CalculateCommission returns the fee of a fill in the base currency. The settlement fee is
// charged on top of the commission itself.
func (i Instrument) CalculateCommission(quantity, avgPrice fixed.Point, liquiditySide LiquiditySide) (Money, error) {
	var rate fixed.Point
	switch liquiditySide {
	case LiquiditySideMaker:
		rate = i.MakerFee
	case LiquiditySideTaker:
		rate = i.TakerFee
	default:
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidLiquiditySide, liquiditySide)
	}

	notional := fixed.ToFraction(quantity).MulPoint(i.Multiplier)
	if i.isInverse {
		if !avgPrice.IsPos() {
			return Money{}, fmt.Errorf("%w: average price %s of inverse instrument %s", ErrInvalidPrice, avgPrice, i.Symbol)
		}
		notional = notional.QuoPoint(avgPrice)
	}

	commission := notional.MulPoint(rate)
	commission = commission.Add(commission.MulPoint(i.SettlementFee))

	return NewMoneyFraction(commission, i.BaseCurrency), nil
}

// CalculateCommissionForSettlement converts CalculateCommission into the settlement currency,
// with the same xrate rules as CalculatePnLForSettlement.
func (i Instrument) CalculateCommissionForSettlement(quantity, avgPrice fixed.Point, liquiditySide LiquiditySide, xrate fixed.Point) (Money, error) {
	rate, err := i.settlementRate(xrate)
	if err != nil {
		return Money{}, err
	}
	commission, err := i.CalculateCommission(quantity, avgPrice, liquiditySide)
	if err != nil {
		return Money{}, err
	}
	return commission.Convert(rate, i.SettlementCurrency), nil
}

// CalculateNotional is the value of quantity at price: in the quote currency for linear
// contracts, in the base currency for inverse ones.
func (i Instrument) CalculateNotional(quantity, price fixed.Point) (Money, error) {
	if !price.IsPos() {
		return Money{}, fmt.Errorf("%w: %s for %s", ErrInvalidPrice, price, i.Symbol)
	}
	notional := fixed.ToFraction(quantity.Abs()).MulPoint(i.Multiplier)
	if i.isInverse {
		return NewMoneyFraction(notional.QuoPoint(price), i.BaseCurrency), nil
	}
	return NewMoneyFraction(notional.MulPoint(price), i.QuoteCurrency), nil
}

func (i Instrument) CalculateInitialMargin(quantity, price fixed.Point) (Money, error) {
	return i.margin(quantity, price, i.MarginInit)
}

func (i Instrument) CalculateMaintenanceMargin(quantity, price fixed.Point) (Money, error) {
	return i.margin(quantity, price, i.MarginMaint)
}

// MakePrice rounds value to the price precision of the instrument.
func (i Instrument) MakePrice(value fixed.Point) fixed.Point {
	return value.Round(i.PricePrecision).Rescale(i.PricePrecision)
}

// MakeQuantity rounds value to the size precision of the instrument.
func (i Instrument) MakeQuantity(value fixed.Point) fixed.Point {
	return value.Round(i.SizePrecision).Rescale(i.SizePrecision)
}

func (i Instrument) margin(quantity, price, rate fixed.Point) (Money, error) {
	notional, err := i.CalculateNotional(quantity, price)
	if err != nil {
		return Money{}, err
	}
	return notional.Div(i.Leverage).Mul(rate), nil
}

func (i Instrument) returnFraction(side PositionSide, openPrice, closePrice fixed.Point) (fixed.Fraction, error) {
	switch side {
	case PositionSideFlat:
		return fixed.Fraction{}, nil
	case PositionSideLong, PositionSideShort:
	default:
		return fixed.Fraction{}, fmt.Errorf("%w: %s", ErrInvalidPositionSide, side)
	}

	if !openPrice.IsPos() {
		return fixed.Fraction{}, fmt.Errorf("%w: open price %s for %s", ErrInvalidPrice, openPrice, i.Symbol)
	}

	if side == PositionSideLong {
		return fixed.ToFraction(closePrice.Sub(openPrice)).QuoPoint(openPrice), nil
	}
	return fixed.ToFraction(openPrice.Sub(closePrice)).QuoPoint(openPrice), nil
}

func (i Instrument) settlementRate(xrate fixed.Point) (fixed.Point, error) {
	switch {
	case xrate.IsNeg():
		return fixed.Zero, fmt.Errorf("%w: %s", ErrInvalidExchangeRate, xrate)
	case xrate.IsZero() && i.isQuanto:
		return fixed.Zero, fmt.Errorf("%w: %s", ErrMissingExchangeRate, i.Symbol)
	case xrate.IsZero():
		return fixed.One, nil
	}
	return xrate, nil
}
