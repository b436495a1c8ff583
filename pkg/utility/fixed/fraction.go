package fixed

import (
	"fmt"
	"math/big"
	"strings"
)

var (
	bigOne  = big.NewInt(1)
	bigTwo  = big.NewInt(2)
	bigFive = big.NewInt(5)
	bigTen  = big.NewInt(10)
)

// Fraction is an exact rational number. Results of division are kept as a numerator and
// denominator, nothing is rounded until Round is called. The zero value is zero.
// Fractions are immutable, every operation returns a new value.
type Fraction struct {
	r *big.Rat
}

func NewFraction(num, den int64) Fraction {
	if den == 0 {
		panic("fixed: fraction with zero denominator")
	}
	return Fraction{big.NewRat(num, den)}
}

// ToFraction converts a decimal exactly.
func ToFraction(p Point) Fraction {
	r, ok := new(big.Rat).SetString(p.v.String())
	if !ok {
		panic(fmt.Sprintf("fixed: unable to convert %s to a fraction", p))
	}
	return Fraction{r}
}

// ParseFraction reads a decimal ("0.0075") or a ratio ("1/3").
func ParseFraction(s string) (Fraction, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Fraction{}, fmt.Errorf("unable to parse fraction %q", s)
	}
	return Fraction{r}, nil
}

func MustParseFraction(s string) Fraction {
	f, err := ParseFraction(s)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Fraction) rat() *big.Rat {
	if f.r == nil {
		return new(big.Rat)
	}
	return f.r
}

func (f Fraction) Add(o Fraction) Fraction { return Fraction{new(big.Rat).Add(f.rat(), o.rat())} }
func (f Fraction) Sub(o Fraction) Fraction { return Fraction{new(big.Rat).Sub(f.rat(), o.rat())} }
func (f Fraction) Mul(o Fraction) Fraction { return Fraction{new(big.Rat).Mul(f.rat(), o.rat())} }

// Quo panics on division by zero, like Point.Div.
func (f Fraction) Quo(o Fraction) Fraction {
	if o.IsZero() {
		panic("fixed: fraction division by zero")
	}
	return Fraction{new(big.Rat).Quo(f.rat(), o.rat())}
}

func (f Fraction) MulPoint(p Point) Fraction { return f.Mul(ToFraction(p)) }
func (f Fraction) QuoPoint(p Point) Fraction { return f.Quo(ToFraction(p)) }

func (f Fraction) Neg() Fraction { return Fraction{new(big.Rat).Neg(f.rat())} }
func (f Fraction) Abs() Fraction { return Fraction{new(big.Rat).Abs(f.rat())} }

func (f Fraction) Cmp(o Fraction) int   { return f.rat().Cmp(o.rat()) }
func (f Fraction) Eq(o Fraction) bool   { return f.Cmp(o) == 0 }
func (f Fraction) Gt(o Fraction) bool   { return f.Cmp(o) > 0 }
func (f Fraction) Lt(o Fraction) bool   { return f.Cmp(o) < 0 }
func (f Fraction) EqPoint(p Point) bool { return f.Eq(ToFraction(p)) }

func (f Fraction) Sign() int    { return f.rat().Sign() }
func (f Fraction) IsZero() bool { return f.Sign() == 0 }
func (f Fraction) IsPos() bool  { return f.Sign() > 0 }
func (f Fraction) IsNeg() bool  { return f.Sign() < 0 }

// Float64 returns the nearest float and whether it is exact.
func (f Fraction) Float64() (float64, bool) { return f.rat().Float64() }

// Round returns the fraction as a decimal with scale digits after the point, rounding half
// to even like Point.Round. It panics when the result does not fit a Point.
func (f Fraction) Round(scale int) Point {
	if scale < 0 {
		panic("fixed: negative scale")
	}
	r := f.rat()
	num := new(big.Int).Mul(r.Num(), new(big.Int).Exp(bigTen, big.NewInt(int64(scale)), nil))
	q, m := new(big.Int).QuoRem(num, r.Denom(), new(big.Int))

	twice := new(big.Int).Mul(new(big.Int).Abs(m), bigTwo)
	if c := twice.Cmp(r.Denom()); c > 0 || (c == 0 && q.Bit(0) == 1) {
		if num.Sign() < 0 {
			q.Sub(q, bigOne)
		} else {
			q.Add(q, bigOne)
		}
	}
	return MustParse(insertPoint(q, scale))
}

// String prints terminating fractions as exact decimals and the others as "num/den".
func (f Fraction) String() string {
	r := f.rat()
	if digits, ok := decimalDigits(r.Denom()); ok {
		return r.FloatString(digits)
	}
	return r.String()
}

func (f Fraction) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Fraction) UnmarshalText(text []byte) error {
	v, err := ParseFraction(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// decimalDigits reports how many decimal places represent 1/den exactly, if any.
func decimalDigits(den *big.Int) (int, bool) {
	d := new(big.Int).Set(den)
	twos, fives := 0, 0
	m := new(big.Int)
	for {
		if _, m = new(big.Int).QuoRem(d, bigTwo, m); m.Sign() != 0 {
			break
		}
		d.Quo(d, bigTwo)
		twos++
	}
	for {
		if _, m = new(big.Int).QuoRem(d, bigFive, m); m.Sign() != 0 {
			break
		}
		d.Quo(d, bigFive)
		fives++
	}
	if d.Cmp(bigOne) != 0 {
		return 0, false
	}
	return max(twos, fives), true
}

func insertPoint(v *big.Int, scale int) string {
	s := new(big.Int).Abs(v).String()
	if scale > 0 {
		if len(s) <= scale {
			s = strings.Repeat("0", scale-len(s)+1) + s
		}
		s = s[:len(s)-scale] + "." + s[len(s)-scale:]
	}
	if v.Sign() < 0 {
		s = "-" + s
	}
	return s
}
