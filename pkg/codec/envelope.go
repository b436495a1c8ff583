package codec

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	KeySymbol  = "Symbol"
	KeyBarType = "BarType"

	fieldDataType = "DataType"
	fieldValues   = "Values"
)

// Data is the type tagged envelope exchanged with consumers that do not need typed
// payloads. KeyName is KeySymbol or KeyBarType and names the field Key is stored under.
type Data struct {
	DataType string
	KeyName  string
	Key      string
	Values   []string
}

func (d Data) validate() error {
	if d.DataType == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, fieldDataType)
	}
	if d.KeyName != KeySymbol && d.KeyName != KeyBarType {
		return fmt.Errorf("%w: key name %q", ErrMalformed, d.KeyName)
	}
	return nil
}

// EncodeData writes {DataType, Symbol|BarType, Values} as a deterministic document.
func EncodeData(d Data) ([]byte, error) {
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("unable to encode %s data: %w", d.DataType, err)
	}

	values := make([]*structpb.Value, len(d.Values))
	for i, v := range d.Values {
		values[i] = structpb.NewStringValue(v)
	}

	doc := &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldDataType: structpb.NewStringValue(d.DataType),
		d.KeyName:     structpb.NewStringValue(d.Key),
		fieldValues:   structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}

	data, err := marshalOptions.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("unable to encode %s data: %w", d.DataType, err)
	}
	return data, nil
}

func DecodeData(data []byte) (Data, error) {
	doc := &structpb.Struct{}
	if err := proto.Unmarshal(data, doc); err != nil {
		return Data{}, fmt.Errorf("%w: data: %w", ErrMalformed, err)
	}

	r := fieldReader{fields: doc.GetFields()}
	d := Data{DataType: r.str(fieldDataType)}

	_, hasSymbol := r.fields[KeySymbol]
	_, hasBarType := r.fields[KeyBarType]
	switch {
	case hasSymbol && hasBarType:
		return Data{}, fmt.Errorf("%w: data carries both %s and %s", ErrMalformed, KeySymbol, KeyBarType)
	case hasSymbol:
		d.KeyName = KeySymbol
	case hasBarType:
		d.KeyName = KeyBarType
	default:
		return Data{}, fmt.Errorf("%w: %s or %s", ErrMissingField, KeySymbol, KeyBarType)
	}
	d.Key = r.str(d.KeyName)

	if list := r.value(fieldValues); list != nil {
		lv, ok := list.GetKind().(*structpb.Value_ListValue)
		if !ok {
			r.fail(fieldValues, "list", list)
		} else {
			d.Values = make([]string, 0, len(lv.ListValue.GetValues()))
			for i, v := range lv.ListValue.GetValues() {
				s, ok := v.GetKind().(*structpb.Value_StringValue)
				if !ok {
					r.fail(fmt.Sprintf("%s[%d]", fieldValues, i), "string", v)
					break
				}
				d.Values = append(d.Values, s.StringValue)
			}
		}
	}

	if r.err != nil {
		return Data{}, fmt.Errorf("unable to decode data: %w", r.err)
	}
	if err := checkCanonical(data, func() ([]byte, error) { return EncodeData(d) }); err != nil {
		return Data{}, fmt.Errorf("unable to decode data: %w", err)
	}
	return d, nil
}
