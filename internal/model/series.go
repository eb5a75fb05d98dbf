package model

// Value is an optional numeric: Valid is false where an indicator has
// insufficient history at that position.
type Value struct {
	Float float64
	Valid bool
}

// Some returns a defined Value.
func Some(v float64) Value { return Value{Float: v, Valid: true} }

// None is the undefined Value.
var None = Value{}

// Series is an indicator output index-aligned with the price series.
type Series []Value

// NewSeries returns an all-undefined series of length n.
func NewSeries(n int) Series {
	if n < 0 {
		n = 0
	}
	return make(Series, n)
}

// At returns the value at i, or None when i is out of range.
func (s Series) At(i int) Value {
	if i < 0 || i >= len(s) {
		return None
	}
	return s[i]
}

// Defined reports how many positions hold a value.
func (s Series) Defined() int {
	n := 0
	for _, v := range s {
		if v.Valid {
			n++
		}
	}
	return n
}

// Empty reports whether no position is defined, which callers treat as
// insufficient data.
func (s Series) Empty() bool { return s.Defined() == 0 }

// Last returns the last defined value.
func (s Series) Last() Value {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Valid {
			return s[i]
		}
	}
	return None
}

// MinLen returns the length of the shortest series, 0 when none is given.
func MinLen(series ...Series) int {
	if len(series) == 0 {
		return 0
	}
	n := len(series[0])
	for _, s := range series[1:] {
		if len(s) < n {
			n = len(s)
		}
	}
	return n
}
