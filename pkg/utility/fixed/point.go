package fixed

import (
	"fmt"

	"github.com/govalues/decimal"
)

// Point is an unsafe wrapper around decimal implementation. Caller must make sure the calculations
// are correct and will not result in an error state, otherwise it will panic
type Point struct {
	v decimal.Decimal
}

func FromInt(value int, scale int) Point {
	return Point{must(decimal.New(int64(value), scale))}
}

func FromInt64(value int64, scale int) Point {
	return Point{must(decimal.New(value, scale))}
}

func FromFloat64(value float64) Point {
	return Point{must(decimal.NewFromFloat64(value))}
}

// Parse reads a decimal string. The scale of the input is kept, so "100.10" prints back as "100.10".
func Parse(s string) (Point, error) {
	d, err := decimal.Parse(s)
	if err != nil {
		return Point{}, fmt.Errorf("unable to parse decimal %q: %w", s, err)
	}
	return Point{d}, nil
}

func MustParse(s string) Point {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Point) String() string           { return p.v.String() }
func (p Point) Float64() (float64, bool) { return p.v.Float64() }

func (p Point) Abs() Point { return Point{p.v.Abs()} }
func (p Point) Neg() Point { return Point{p.v.Neg()} }

func (p Point) Add(o Point) Point { return Point{must(p.v.Add(o.v))} }
func (p Point) Sub(o Point) Point { return Point{must(p.v.Sub(o.v))} }
func (p Point) Mul(o Point) Point { return Point{must(p.v.Mul(o.v))} }

// Div rounds to 19 significant digits. Use Fraction.QuoPoint for an exact quotient.
func (p Point) Div(o Point) Point { return Point{must(p.v.Quo(o.v))} }

func (p Point) Sqrt() Point { return Point{must(p.v.Sqrt())} }
func (p Point) Exp() Point  { return Point{must(p.v.Exp())} }

func (p Point) MulInt64(o int64) Point { return Point{must(p.v.Mul(decimal.MustNew(o, 0)))} }
func (p Point) MulInt(o int) Point     { return Point{must(p.v.Mul(decimal.MustNew(int64(o), 0)))} }
func (p Point) DivInt64(o int64) Point { return Point{must(p.v.Quo(decimal.MustNew(o, 0)))} }
func (p Point) DivInt(o int) Point     { return Point{must(p.v.Quo(decimal.MustNew(int64(o), 0)))} }

func (p Point) Eq(o Point) bool  { return p.v.Cmp(o.v) == 0 }
func (p Point) Gt(o Point) bool  { return p.v.Cmp(o.v) > 0 }
func (p Point) Lt(o Point) bool  { return p.v.Cmp(o.v) < 0 }
func (p Point) Gte(o Point) bool { return p.v.Cmp(o.v) >= 0 }
func (p Point) Lte(o Point) bool { return p.v.Cmp(o.v) <= 0 }

func (p Point) IsZero() bool { return p.v.IsZero() }
func (p Point) IsPos() bool  { return p.v.IsPos() }
func (p Point) IsNeg() bool  { return p.v.IsNeg() }
func (p Point) Sign() int    { return p.v.Sign() }
func (p Point) Scale() int   { return p.v.Scale() }
func (p Point) IsInt() bool  { return p.v.IsInt() }

func (p Point) Rescale(scale int) Point { return Point{p.v.Rescale(scale)} }
func (p Point) Round(scale int) Point   { return Point{p.v.Round(scale)} }

func (p Point) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Point) UnmarshalText(text []byte) error {
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func must(v decimal.Decimal, err error) decimal.Decimal {
	if err == nil {
		// Return in the happy path
		return v
	}
	panic(err)
}
