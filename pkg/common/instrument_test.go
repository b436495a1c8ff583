package common

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

func validParams() InstrumentParams {
	return InstrumentParams{
		Symbol:         "EUR/USD.SIM",
		AssetClass:     AssetClassFX,
		AssetType:      AssetTypeSpot,
		BaseCurrency:   CurrencyEUR,
		QuoteCurrency:  CurrencyUSD,
		PricePrecision: 5,
		SizePrecision:  0,
		TickSize:       fixed.MustParse("0.00001"),
		Leverage:       fixed.MustParse("30"),
		LotSize:        fixed.MustParse("1000"),
		TimeStamp:      time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestInstrument_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *InstrumentParams)
		wantErr bool
	}{
		{"valid", func(p *InstrumentParams) {}, false},
		{"zero precisions", func(p *InstrumentParams) { p.PricePrecision, p.SizePrecision = 0, 0 }, false},
		{"undefined asset type", func(p *InstrumentParams) { p.AssetType = AssetTypeUndefined }, true},
		{"out of range asset type", func(p *InstrumentParams) { p.AssetType = AssetType(200) }, true},
		{"negative price precision", func(p *InstrumentParams) { p.PricePrecision = -1 }, true},
		{"negative size precision", func(p *InstrumentParams) { p.SizePrecision = -2 }, true},
		{"zero tick size", func(p *InstrumentParams) { p.TickSize = fixed.Zero }, true},
		{"negative tick size", func(p *InstrumentParams) { p.TickSize = fixed.MustParse("-0.1") }, true},
		{"zero lot size", func(p *InstrumentParams) { p.LotSize = fixed.Zero }, true},
		{"negative lot size", func(p *InstrumentParams) { p.LotSize = fixed.MustParse("-1") }, true},
		{"zero leverage", func(p *InstrumentParams) { p.Leverage = fixed.Point{} }, true},
		{"negative leverage", func(p *InstrumentParams) { p.Leverage = fixed.MustParse("-10") }, true},
		{"empty symbol", func(p *InstrumentParams) { p.Symbol = "" }, true},
		{"undefined quote currency", func(p *InstrumentParams) { p.QuoteCurrency = CurrencyUndefined }, true},
		{"bad info flag", func(p *InstrumentParams) { p.Info = map[string]any{InfoIsInverse: 3.5} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)

			_, err := NewInstrument(p)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInstrument), "got %v", err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestInstrument_Defaults(t *testing.T) {
	inst, err := NewInstrument(validParams())
	require.NoError(t, err)

	assert.True(t, inst.Multiplier.Eq(fixed.One))
	assert.Equal(t, CurrencyUSD, inst.SettlementCurrency)
	assert.Equal(t, uuid.NewSHA1(uuid.NameSpaceOID, []byte("EUR/USD.SIM")), inst.Id)
	assert.False(t, inst.IsInverse())
	assert.False(t, inst.IsQuanto())
	assert.Equal(t, 2, inst.CostPrecision())
	assert.Equal(t, "SIM", inst.Venue())
	assert.False(t, inst.MaxQuantity.Valid)
}

func TestInstrument_InfoFlags(t *testing.T) {
	tests := []struct {
		name        string
		info        map[string]any
		wantInverse bool
		wantQuanto  bool
	}{
		{"absent", nil, false, false},
		{"bool inverse", map[string]any{InfoIsInverse: true}, true, false},
		{"string quanto", map[string]any{InfoIsQuanto: "True"}, false, true},
		{"both", map[string]any{InfoIsInverse: "1", InfoIsQuanto: true}, true, true},
		{"explicit false", map[string]any{InfoIsInverse: false, InfoIsQuanto: "false"}, false, false},
		{"unrelated keys ignored", map[string]any{"venue_id": 42}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			p.Info = tt.info
			inst, err := NewInstrument(p)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInverse, inst.IsInverse())
			assert.Equal(t, tt.wantQuanto, inst.IsQuanto())
		})
	}
}

func TestInstrument_EqualityBySymbol(t *testing.T) {
	a := StubAUDUSD()
	b := a.Updated(a.TimeStamp.Add(time.Hour))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.TimeStamp, b.TimeStamp)
	assert.False(t, a.Equal(StubXBTUSD()))
}

func TestInstrument_ParamsRoundTrip(t *testing.T) {
	for _, inst := range []Instrument{StubAUDUSD(), StubXBTUSD(), StubETHUSD()} {
		t.Run(inst.Symbol, func(t *testing.T) {
			rebuilt, err := NewInstrument(inst.Params())
			require.NoError(t, err)
			assert.Equal(t, inst, rebuilt)
		})
	}
}

func TestInstrument_Stubs(t *testing.T) {
	assert.True(t, StubXBTUSD().IsInverse())
	assert.False(t, StubXBTUSD().IsQuanto())
	assert.True(t, StubETHUSD().IsQuanto())
	assert.Equal(t, CurrencyBTC, StubETHUSD().SettlementCurrency)
	assert.Equal(t, 8, StubXBTUSD().CostPrecision())
}
