package fixed

// NullPoint is a Point that may be absent. The zero value is absent, which keeps
// "unbounded" distinguishable from an explicit zero.
type NullPoint struct {
	Point Point
	Valid bool
}

func Some(p Point) NullPoint {
	return NullPoint{Point: p, Valid: true}
}

func None() NullPoint {
	return NullPoint{}
}

// ParseNull treats the empty string as absent.
func ParseNull(s string) (NullPoint, error) {
	if s == "" {
		return NullPoint{}, nil
	}
	p, err := Parse(s)
	if err != nil {
		return NullPoint{}, err
	}
	return Some(p), nil
}

func (n NullPoint) String() string {
	if !n.Valid {
		return "None"
	}
	return n.Point.String()
}
