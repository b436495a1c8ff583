package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

func TestInstrument_CalculatePnLSign(t *testing.T) {
	prices := []struct{ open, close string }{
		{"1.00000", "1.10000"},
		{"1.10000", "1.00000"},
		{"0.80000", "0.80000"},
		{"10000", "10500"},
		{"10500", "10000"},
	}

	for _, inst := range []Instrument{StubAUDUSD(), StubXBTUSD()} {
		for _, p := range prices {
			open, closePrice := fixed.MustParse(p.open), fixed.MustParse(p.close)
			qty := fixed.MustParse("1000")

			long, err := inst.CalculatePnL(PositionSideLong, open, closePrice, qty)
			require.NoError(t, err)
			assert.Equal(t, closePrice.Gt(open), long.Amount.IsPos(), "%s long %s -> %s", inst.Symbol, p.open, p.close)

			short, err := inst.CalculatePnL(PositionSideShort, open, closePrice, qty)
			require.NoError(t, err)
			assert.Equal(t, closePrice.Lt(open), short.Amount.IsPos(), "%s short %s -> %s", inst.Symbol, p.open, p.close)

			flat, err := inst.CalculatePnL(PositionSideFlat, open, closePrice, qty)
			require.NoError(t, err)
			assert.True(t, flat.Amount.IsZero())
			assert.Equal(t, inst.BaseCurrency, flat.Currency)
		}
	}
}

func TestInstrument_CalculatePnLFlatIgnoresPrices(t *testing.T) {
	pnl, err := StubAUDUSD().CalculatePnL(PositionSideFlat, fixed.Zero, fixed.Zero, fixed.MustParse("5"))
	require.NoError(t, err)
	assert.True(t, pnl.IsZero())
}

func TestInstrument_CalculatePnLInvalidSide(t *testing.T) {
	inst := StubAUDUSD()
	for _, side := range []PositionSide{PositionSideUndefined, PositionSide(9)} {
		_, err := inst.CalculatePnL(side, fixed.One, fixed.Two, fixed.One)
		assert.ErrorIs(t, err, ErrInvalidPositionSide)
	}
}

func TestInstrument_CalculatePnLInvalidOpenPrice(t *testing.T) {
	_, err := StubAUDUSD().CalculatePnL(PositionSideLong, fixed.Zero, fixed.One, fixed.One)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestInstrument_CalculatePnLLinear(t *testing.T) {
	pnl, err := StubAUDUSD().CalculatePnL(PositionSideLong, fixed.MustParse("1.00000"), fixed.MustParse("1.10000"), fixed.MustParse("1000"))
	require.NoError(t, err)

	assert.True(t, pnl.Amount.EqPoint(fixed.MustParse("100")), "got %s", pnl)
	assert.Equal(t, CurrencyAUD, pnl.Currency)
}

func TestInstrument_CalculatePnLInverse(t *testing.T) {
	inst := StubXBTUSD()
	open := fixed.MustParse("10000")
	closePrice := fixed.MustParse("10500")

	pnl, err := inst.CalculatePnL(PositionSideLong, open, closePrice, fixed.One)
	require.NoError(t, err)

	assert.True(t, pnl.Amount.Eq(fixed.NewFraction(1, 210000)), "got %s", pnl.Amount)
	assert.True(t, pnl.Amount.MulPoint(closePrice).EqPoint(fixed.MustParse("0.05")))
	assert.Equal(t, CurrencyBTC, pnl.Currency)
	assert.Equal(t, "0.00000476", pnl.Rounded().String())

	f, ok := pnl.Amount.Float64()
	require.True(t, ok)
	assert.InDelta(t, 0.05/10500, f, 1e-15)
}

func TestInstrument_CalculatePnLIsExact(t *testing.T) {
	pnl, err := StubAUDUSD().CalculatePnL(PositionSideLong, fixed.FromInt(3, 0), fixed.FromInt(4, 0), fixed.FromInt(3, 0))
	require.NoError(t, err)
	assert.True(t, pnl.Amount.EqPoint(fixed.One), "got %s", pnl.Amount)
	assert.Equal(t, "1 AUD", pnl.String())

	pnl, err = StubAUDUSD().CalculatePnL(PositionSideShort, fixed.FromInt(3, 0), fixed.FromInt(2, 0), fixed.FromInt(1, 0))
	require.NoError(t, err)
	assert.True(t, pnl.Amount.Eq(fixed.NewFraction(1, 3)), "got %s", pnl.Amount)
	assert.Equal(t, "1/3 AUD", pnl.String())
	assert.Equal(t, "0.33", pnl.Rounded().String())
}

func TestInstrument_CalculatePnLForSettlement(t *testing.T) {
	open, closePrice, qty := fixed.MustParse("1.00000"), fixed.MustParse("1.10000"), fixed.MustParse("1000")

	t.Run("same currency defaults to rate one", func(t *testing.T) {
		pnl, err := StubAUDUSD().CalculatePnLForSettlement(PositionSideLong, open, closePrice, qty, fixed.Zero)
		require.NoError(t, err)
		assert.True(t, pnl.Amount.EqPoint(fixed.MustParse("100")))
		assert.Equal(t, CurrencyUSD, pnl.Currency)
	})

	t.Run("explicit rate", func(t *testing.T) {
		pnl, err := StubAUDUSD().CalculatePnLForSettlement(PositionSideLong, open, closePrice, qty, fixed.MustParse("0.75"))
		require.NoError(t, err)
		assert.True(t, pnl.Amount.EqPoint(fixed.MustParse("75")))
	})

	t.Run("quanto requires rate", func(t *testing.T) {
		_, err := StubETHUSD().CalculatePnLForSettlement(PositionSideLong, open, closePrice, qty, fixed.Zero)
		assert.ErrorIs(t, err, ErrMissingExchangeRate)
	})

	t.Run("quanto with rate", func(t *testing.T) {
		inst := StubETHUSD()
		base, err := inst.CalculatePnL(PositionSideShort, open, closePrice, qty)
		require.NoError(t, err)

		rate := fixed.MustParse("0.05")
		pnl, err := inst.CalculatePnLForSettlement(PositionSideShort, open, closePrice, qty, rate)
		require.NoError(t, err)
		assert.Equal(t, CurrencyBTC, pnl.Currency)
		assert.True(t, pnl.Amount.Eq(base.Amount.MulPoint(rate)))
	})

	t.Run("negative rate", func(t *testing.T) {
		_, err := StubAUDUSD().CalculatePnLForSettlement(PositionSideLong, open, closePrice, qty, fixed.NegOne)
		assert.ErrorIs(t, err, ErrInvalidExchangeRate)
	})
}

func TestInstrument_CalculateCommission(t *testing.T) {
	tests := []struct {
		name     string
		inst     Instrument
		qty      string
		price    string
		side     LiquiditySide
		want     string
		currency Currency
	}{
		{"linear taker", StubAUDUSD(), "100000", "0.80000", LiquiditySideTaker, "2", CurrencyAUD},
		{"linear maker", StubAUDUSD(), "100000", "0.80000", LiquiditySideMaker, "2", CurrencyAUD},
		{"inverse taker", StubXBTUSD(), "100000", "10000", LiquiditySideTaker, "0.0075", CurrencyBTC},
		{"inverse maker rebate", StubXBTUSD(), "100000", "10000", LiquiditySideMaker, "-0.0025", CurrencyBTC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.inst.CalculateCommission(fixed.MustParse(tt.qty), fixed.MustParse(tt.price), tt.side)
			require.NoError(t, err)
			assert.True(t, c.Amount.EqPoint(fixed.MustParse(tt.want)), "got %s want %s", c.Amount, tt.want)
			assert.Equal(t, tt.currency, c.Currency)
		})
	}
}

func TestInstrument_CalculateCommissionSettlementFee(t *testing.T) {
	p := validParams()
	p.TakerFee = fixed.MustParse("0.001")
	p.SettlementFee = fixed.MustParse("0.1")
	inst, err := NewInstrument(p)
	require.NoError(t, err)

	c, err := inst.CalculateCommission(fixed.MustParse("1000"), fixed.One, LiquiditySideTaker)
	require.NoError(t, err)
	assert.True(t, c.Amount.EqPoint(fixed.MustParse("1.1")), "got %s", c.Amount)
}

func TestInstrument_CalculateCommissionInvalidSide(t *testing.T) {
	_, err := StubAUDUSD().CalculateCommission(fixed.One, fixed.One, LiquiditySideUndefined)
	assert.ErrorIs(t, err, ErrInvalidLiquiditySide)

	_, err = StubAUDUSD().CalculateCommission(fixed.One, fixed.One, LiquiditySide(7))
	assert.ErrorIs(t, err, ErrInvalidLiquiditySide)
}

func TestInstrument_CalculateCommissionMonotonic(t *testing.T) {
	price := fixed.MustParse("1.25")

	for _, inverse := range []bool{false, true} {
		var prev fixed.Fraction
		for _, fee := range []string{"0.0001", "0.0002", "0.0005", "0.001", "0.01"} {
			p := validParams()
			p.TakerFee = fixed.MustParse(fee)
			p.SettlementFee = fixed.MustParse("0.05")
			p.Info = map[string]any{InfoIsInverse: inverse}
			inst, err := NewInstrument(p)
			require.NoError(t, err)

			c, err := inst.CalculateCommission(fixed.MustParse("1000"), price, LiquiditySideTaker)
			require.NoError(t, err)
			assert.True(t, c.Amount.Gt(prev), "fee %s: %s <= %s", fee, c.Amount, prev)
			prev = c.Amount
		}

		p := validParams()
		p.TakerFee = fixed.MustParse("0.0002")
		p.Info = map[string]any{InfoIsInverse: inverse}
		inst, err := NewInstrument(p)
		require.NoError(t, err)

		prev = fixed.Fraction{}
		for _, qty := range []string{"1", "10", "1000", "1000.5", "250000"} {
			c, err := inst.CalculateCommission(fixed.MustParse(qty), price, LiquiditySideTaker)
			require.NoError(t, err)
			assert.True(t, c.Amount.Gt(prev), "qty %s: %s <= %s", qty, c.Amount, prev)
			prev = c.Amount
		}
	}
}

func TestInstrument_CalculateCommissionForSettlement(t *testing.T) {
	inst := StubETHUSD()
	qty, price := fixed.MustParse("100"), fixed.MustParse("2000")

	_, err := inst.CalculateCommissionForSettlement(qty, price, LiquiditySideTaker, fixed.Point{})
	assert.ErrorIs(t, err, ErrMissingExchangeRate)

	base, err := inst.CalculateCommission(qty, price, LiquiditySideTaker)
	require.NoError(t, err)

	settled, err := inst.CalculateCommissionForSettlement(qty, price, LiquiditySideTaker, fixed.MustParse("0.06"))
	require.NoError(t, err)
	assert.Equal(t, CurrencyBTC, settled.Currency)
	assert.True(t, settled.Amount.Eq(base.Amount.MulPoint(fixed.MustParse("0.06"))))
}

func TestInstrument_NotionalAndMargin(t *testing.T) {
	inst := StubAUDUSD()

	notional, err := inst.CalculateNotional(fixed.MustParse("100000"), fixed.MustParse("0.8"))
	require.NoError(t, err)
	assert.True(t, notional.Amount.EqPoint(fixed.MustParse("80000")))
	assert.Equal(t, CurrencyUSD, notional.Currency)

	margin, err := inst.CalculateInitialMargin(fixed.MustParse("100000"), fixed.MustParse("0.8"))
	require.NoError(t, err)
	assert.True(t, margin.Amount.EqPoint(fixed.MustParse("48")), "got %s", margin.Amount)

	inverse, err := StubXBTUSD().CalculateNotional(fixed.MustParse("10000"), fixed.MustParse("10000"))
	require.NoError(t, err)
	assert.True(t, inverse.Amount.EqPoint(fixed.One))
	assert.Equal(t, CurrencyBTC, inverse.Currency)

	_, err = inst.CalculateMaintenanceMargin(fixed.One, fixed.Zero)
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestInstrument_MakePriceAndQuantity(t *testing.T) {
	inst := StubAUDUSD()

	assert.Equal(t, "0.80000", inst.MakePrice(fixed.MustParse("0.800004")).String())
	assert.Equal(t, "0.80000", inst.MakePrice(fixed.MustParse("0.8")).String())
	assert.Equal(t, "1001", inst.MakeQuantity(fixed.MustParse("1000.6")).String())
}
