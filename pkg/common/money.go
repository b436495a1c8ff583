package common

import (
	"fmt"

	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

// Money is an exact rational amount tagged with a currency. Divisions stay exact, the amount
// only becomes a decimal through Rounded. The zero value is zero of an undefined currency.
type Money struct {
	Amount   fixed.Fraction `json:"amount"`
	Currency Currency       `json:"currency"`
}

func NewMoney(amount fixed.Point, currency Currency) Money {
	return Money{Amount: fixed.ToFraction(amount), Currency: currency}
}

func NewMoneyFraction(amount fixed.Fraction, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

func ZeroMoney(currency Currency) Money {
	return Money{Currency: currency}
}

func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s + %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return Money{m.Amount.Add(o.Amount), m.Currency}, nil
}

func (m Money) Sub(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s - %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return Money{m.Amount.Sub(o.Amount), m.Currency}, nil
}

func (m Money) Mul(f fixed.Point) Money { return Money{m.Amount.MulPoint(f), m.Currency} }
func (m Money) Div(f fixed.Point) Money { return Money{m.Amount.QuoPoint(f), m.Currency} }

// Convert re-expresses the amount in another currency using xrate units of to per unit of m.Currency.
func (m Money) Convert(xrate fixed.Point, to Currency) Money {
	return Money{m.Amount.MulPoint(xrate), to}
}

func (m Money) Eq(o Money) bool { return m.Currency == o.Currency && m.Amount.Eq(o.Amount) }

func (m Money) IsZero() bool { return m.Amount.IsZero() }

// Rounded returns the amount as a decimal at the display precision of its currency.
func (m Money) Rounded() fixed.Point {
	return m.Amount.Round(m.Currency.Precision())
}

func (m Money) String() string {
	return m.Amount.String() + " " + m.Currency.String()
}
