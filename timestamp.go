package astiremux

import (
	"math"
	"math/big"
	"strconv"
)

// Timestamp represents a timestamp that may be undefined
type Timestamp struct {
	ok bool
	v  int64
}

// NoTimestamp is the undefined timestamp
var NoTimestamp = Timestamp{}

// NewTimestamp creates a defined timestamp
func NewTimestamp(v int64) Timestamp {
	return Timestamp{
		ok: true,
		v:  v,
	}
}

// IsSet returns whether the timestamp is defined
func (t Timestamp) IsSet() bool {
	return t.ok
}

// Value returns the timestamp value and whether it is defined
func (t Timestamp) Value() (int64, bool) {
	return t.v, t.ok
}

// String implements the Stringer interface
func (t Timestamp) String() string {
	if !t.ok {
		return "unset"
	}
	return strconv.FormatInt(t.v, 10)
}

// Rational represents a rational number such as a time base
type Rational struct {
	Den int
	Num int
}

// NewRational creates a new rational
func NewRational(num, den int) Rational {
	return Rational{
		Den: den,
		Num: num,
	}
}

// Valid returns whether the rational can be used as a time base
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// String implements the Stringer interface
func (r Rational) String() string {
	return strconv.Itoa(r.Num) + "/" + strconv.Itoa(r.Den)
}

// Rescale converts v from the "from" time base to the "to" time base.
// It rounds to the nearest value with ties away from zero, lets math.MinInt64 and math.MaxInt64
// through untouched and clamps the result to the int64 range.
// v is returned as is when one of the time bases is invalid.
func Rescale(v int64, from, to Rational) int64 {
	// Pass min/max
	if v == math.MinInt64 || v == math.MaxInt64 {
		return v
	}

	// Invalid time bases
	if !from.Valid() || !to.Valid() {
		return v
	}

	// Same time base
	if int64(from.Num)*int64(to.Den) == int64(from.Den)*int64(to.Num) {
		return v
	}

	// v * from.Num * to.Den / (from.Den * to.Num)
	n := new(big.Int).Mul(big.NewInt(v), new(big.Int).Mul(big.NewInt(int64(from.Num)), big.NewInt(int64(to.Den))))
	d := new(big.Int).Mul(big.NewInt(int64(from.Den)), big.NewInt(int64(to.Num)))

	// Round to nearest, ties away from zero
	neg := n.Sign() < 0
	n.Abs(n)
	n.Add(n, new(big.Int).Rsh(d, 1))
	n.Quo(n, d)
	if neg {
		n.Neg(n)
	}

	// Clamp
	if !n.IsInt64() {
		if neg {
			return math.MinInt64 + 1
		}
		return math.MaxInt64 - 1
	}
	return n.Int64()
}

// MarshalJSON implements the json.Marshaler interface
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if !t.ok {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, t.v, 10), nil
}
