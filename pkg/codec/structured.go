package codec

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/imemo88/nautilus-trader/pkg/common"
	"github.com/imemo88/nautilus-trader/pkg/utility/fixed"
)

// Instrument documents are protobuf Structs keyed by these field names. Enumerations are
// stored by name, precisions and distances as numbers, decimals as exact strings and
// absent optional decimals as null.
const (
	fieldId                    = "Id"
	fieldSymbol                = "Symbol"
	fieldBrokerSymbol          = "BrokerSymbol"
	fieldAssetClass            = "AssetClass"
	fieldSecurityType          = "SecurityType"
	fieldBaseCurrency          = "BaseCurrency"
	fieldQuoteCurrency         = "QuoteCurrency"
	fieldSettlementCurrency    = "SettlementCurrency"
	fieldTickPrecision         = "TickPrecision"
	fieldSizePrecision         = "SizePrecision"
	fieldTickSize              = "TickSize"
	fieldRoundLotSize          = "RoundLotSize"
	fieldMultiplier            = "Multiplier"
	fieldLeverage              = "Leverage"
	fieldMinStopDistanceEntry  = "MinStopDistanceEntry"
	fieldMinLimitDistanceEntry = "MinLimitDistanceEntry"
	fieldMinStopDistance       = "MinStopDistance"
	fieldMinLimitDistance      = "MinLimitDistance"
	fieldMinTradeSize          = "MinTradeSize"
	fieldMaxTradeSize          = "MaxTradeSize"
	fieldMinNotional           = "MinNotional"
	fieldMaxNotional           = "MaxNotional"
	fieldMinPrice              = "MinPrice"
	fieldMaxPrice              = "MaxPrice"
	fieldMarginInit            = "MarginInit"
	fieldMarginMaint           = "MarginMaint"
	fieldMakerFee              = "MakerFee"
	fieldTakerFee              = "TakerFee"
	fieldSettlementFee         = "SettlementFee"
	fieldRolloverInterestBuy   = "RolloverInterestBuy"
	fieldRolloverInterestSell  = "RolloverInterestSell"
	fieldIsInverse             = "IsInverse"
	fieldIsQuanto              = "IsQuanto"
	fieldTimestamp             = "Timestamp"
)

var marshalOptions = proto.MarshalOptions{Deterministic: true}

func EncodeInstrument(inst common.Instrument) ([]byte, error) {
	doc := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldId:                    structpb.NewStringValue(inst.Id.String()),
		fieldSymbol:                structpb.NewStringValue(inst.Symbol),
		fieldBrokerSymbol:          structpb.NewStringValue(inst.BrokerSymbol),
		fieldAssetClass:            structpb.NewStringValue(inst.AssetClass.String()),
		fieldSecurityType:          structpb.NewStringValue(inst.AssetType.String()),
		fieldBaseCurrency:          structpb.NewStringValue(inst.BaseCurrency.String()),
		fieldQuoteCurrency:         structpb.NewStringValue(inst.QuoteCurrency.String()),
		fieldSettlementCurrency:    structpb.NewStringValue(inst.SettlementCurrency.String()),
		fieldTickPrecision:         structpb.NewNumberValue(float64(inst.PricePrecision)),
		fieldSizePrecision:         structpb.NewNumberValue(float64(inst.SizePrecision)),
		fieldTickSize:              decimalValue(inst.TickSize),
		fieldRoundLotSize:          decimalValue(inst.LotSize),
		fieldMultiplier:            decimalValue(inst.Multiplier),
		fieldLeverage:              decimalValue(inst.Leverage),
		fieldMinStopDistanceEntry:  structpb.NewNumberValue(float64(inst.MinStopDistanceEntry)),
		fieldMinLimitDistanceEntry: structpb.NewNumberValue(float64(inst.MinLimitDistanceEntry)),
		fieldMinStopDistance:       structpb.NewNumberValue(float64(inst.MinStopDistance)),
		fieldMinLimitDistance:      structpb.NewNumberValue(float64(inst.MinLimitDistance)),
		fieldMinTradeSize:          nullDecimalValue(inst.MinQuantity),
		fieldMaxTradeSize:          nullDecimalValue(inst.MaxQuantity),
		fieldMinNotional:           nullDecimalValue(inst.MinNotional),
		fieldMaxNotional:           nullDecimalValue(inst.MaxNotional),
		fieldMinPrice:              nullDecimalValue(inst.MinPrice),
		fieldMaxPrice:              nullDecimalValue(inst.MaxPrice),
		fieldMarginInit:            decimalValue(inst.MarginInit),
		fieldMarginMaint:           decimalValue(inst.MarginMaint),
		fieldMakerFee:              decimalValue(inst.MakerFee),
		fieldTakerFee:              decimalValue(inst.TakerFee),
		fieldSettlementFee:         decimalValue(inst.SettlementFee),
		fieldRolloverInterestBuy:   decimalValue(inst.FundingRateLong),
		fieldRolloverInterestSell:  decimalValue(inst.FundingRateShort),
		fieldIsInverse:             structpb.NewBoolValue(inst.IsInverse()),
		fieldIsQuanto:              structpb.NewBoolValue(inst.IsQuanto()),
		fieldTimestamp:             structpb.NewStringValue(inst.TimeStamp.UTC().Format(timeLayout)),
	}}

	data, err := marshalOptions.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("unable to encode instrument %q: %w", inst.Symbol, err)
	}
	return data, nil
}

// DecodeInstrument rebuilds the instrument through common.NewInstrument, so a document
// violating an instrument invariant fails like any other invalid construction. Documents
// that do not encode back to the same bytes are rejected with ErrMalformed.
func DecodeInstrument(data []byte) (common.Instrument, error) {
	doc := &structpb.Struct{}
	if err := proto.Unmarshal(data, doc); err != nil {
		return common.Instrument{}, fmt.Errorf("%w: instrument: %w", ErrMalformed, err)
	}

	r := fieldReader{fields: doc.GetFields()}
	p := common.InstrumentParams{
		Id:                    r.id(fieldId),
		Symbol:                r.str(fieldSymbol),
		BrokerSymbol:          r.str(fieldBrokerSymbol),
		AssetClass:            r.assetClass(fieldAssetClass),
		AssetType:             r.assetType(fieldSecurityType),
		BaseCurrency:          r.currency(fieldBaseCurrency),
		QuoteCurrency:         r.currency(fieldQuoteCurrency),
		SettlementCurrency:    r.currency(fieldSettlementCurrency),
		PricePrecision:        r.integer(fieldTickPrecision),
		SizePrecision:         r.integer(fieldSizePrecision),
		TickSize:              r.decimal(fieldTickSize),
		LotSize:               r.decimal(fieldRoundLotSize),
		Multiplier:            r.decimal(fieldMultiplier),
		Leverage:              r.decimal(fieldLeverage),
		MinStopDistanceEntry:  r.integer(fieldMinStopDistanceEntry),
		MinLimitDistanceEntry: r.integer(fieldMinLimitDistanceEntry),
		MinStopDistance:       r.integer(fieldMinStopDistance),
		MinLimitDistance:      r.integer(fieldMinLimitDistance),
		MinQuantity:           r.nullDecimal(fieldMinTradeSize),
		MaxQuantity:           r.nullDecimal(fieldMaxTradeSize),
		MinNotional:           r.nullDecimal(fieldMinNotional),
		MaxNotional:           r.nullDecimal(fieldMaxNotional),
		MinPrice:              r.nullDecimal(fieldMinPrice),
		MaxPrice:              r.nullDecimal(fieldMaxPrice),
		MarginInit:            r.decimal(fieldMarginInit),
		MarginMaint:           r.decimal(fieldMarginMaint),
		MakerFee:              r.decimal(fieldMakerFee),
		TakerFee:              r.decimal(fieldTakerFee),
		SettlementFee:         r.decimal(fieldSettlementFee),
		FundingRateLong:       r.decimal(fieldRolloverInterestBuy),
		FundingRateShort:      r.decimal(fieldRolloverInterestSell),
		TimeStamp:             r.timestamp(fieldTimestamp),
		Info: map[string]any{
			common.InfoIsInverse: r.boolean(fieldIsInverse),
			common.InfoIsQuanto:  r.boolean(fieldIsQuanto),
		},
	}
	if r.err != nil {
		return common.Instrument{}, fmt.Errorf("unable to decode instrument: %w", r.err)
	}

	inst, err := common.NewInstrument(p)
	if err != nil {
		return common.Instrument{}, err
	}
	if err := checkCanonical(data, func() ([]byte, error) { return EncodeInstrument(inst) }); err != nil {
		return common.Instrument{}, fmt.Errorf("unable to decode instrument %q: %w", inst.Symbol, err)
	}
	return inst, nil
}

// checkCanonical compares data with its re-encoding.
func checkCanonical(data []byte, encode func() ([]byte, error)) error {
	again, err := encode()
	if err != nil {
		return err
	}
	if !bytes.Equal(again, data) {
		return fmt.Errorf("%w: document is not in canonical form", ErrMalformed)
	}
	return nil
}

func decimalValue(p fixed.Point) *structpb.Value {
	return structpb.NewStringValue(p.String())
}

func nullDecimalValue(p fixed.NullPoint) *structpb.Value {
	if !p.Valid {
		return structpb.NewNullValue()
	}
	return structpb.NewStringValue(p.Point.String())
}

// fieldReader reads typed fields out of a document and keeps the first error.
type fieldReader struct {
	fields map[string]*structpb.Value
	err    error
}

func (r *fieldReader) value(name string) *structpb.Value {
	if r.err != nil {
		return nil
	}
	v, ok := r.fields[name]
	if !ok {
		r.err = fmt.Errorf("%w: %s", ErrMissingField, name)
		return nil
	}
	return v
}

func (r *fieldReader) fail(name, want string, v *structpb.Value) {
	r.err = fmt.Errorf("%w: %s is %T, expected %s", ErrMalformed, name, v.GetKind(), want)
}

func (r *fieldReader) str(name string) string {
	v := r.value(name)
	if v == nil {
		return ""
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		r.fail(name, "string", v)
		return ""
	}
	return s.StringValue
}

func (r *fieldReader) integer(name string) int {
	v := r.value(name)
	if v == nil {
		return 0
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		r.fail(name, "number", v)
		return 0
	}
	if n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		r.err = fmt.Errorf("%w: %s is not an integer (%v)", ErrMalformed, name, n.NumberValue)
		return 0
	}
	return int(n.NumberValue)
}

func (r *fieldReader) boolean(name string) bool {
	v := r.value(name)
	if v == nil {
		return false
	}
	b, ok := v.GetKind().(*structpb.Value_BoolValue)
	if !ok {
		r.fail(name, "bool", v)
		return false
	}
	return b.BoolValue
}

func (r *fieldReader) decimal(name string) fixed.Point {
	s := r.str(name)
	if r.err != nil {
		return fixed.Point{}
	}
	p, err := fixed.Parse(s)
	if err != nil {
		r.err = fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
	}
	return p
}

func (r *fieldReader) nullDecimal(name string) fixed.NullPoint {
	v := r.value(name)
	if v == nil {
		return fixed.NullPoint{}
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return fixed.None()
	}
	return fixed.Some(r.decimal(name))
}

func (r *fieldReader) id(name string) uuid.UUID {
	s := r.str(name)
	if r.err != nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		r.err = fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
	}
	return id
}

func (r *fieldReader) timestamp(name string) time.Time {
	s := r.str(name)
	if r.err != nil {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		r.err = fmt.Errorf("%w: %s: %w", ErrMalformed, name, err)
		return time.Time{}
	}
	return t.UTC()
}

func (r *fieldReader) currency(name string) common.Currency {
	s := r.str(name)
	if r.err != nil {
		return common.CurrencyUndefined
	}
	c, err := common.ParseCurrency(s)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return c
}

func (r *fieldReader) assetClass(name string) common.AssetClass {
	s := r.str(name)
	if r.err != nil {
		return common.AssetClassUndefined
	}
	a, err := common.ParseAssetClass(s)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return a
}

func (r *fieldReader) assetType(name string) common.AssetType {
	s := r.str(name)
	if r.err != nil {
		return common.AssetTypeUndefined
	}
	a, err := common.ParseAssetType(s)
	if err != nil {
		r.err = fmt.Errorf("%s: %w", name, err)
	}
	return a
}
