package astiremux

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	v, ok := NoTimestamp.Value()
	assert.False(t, ok)
	assert.Equal(t, int64(0), v)
	assert.Equal(t, "unset", NoTimestamp.String())

	// 0 is a legitimate timestamp
	ts := NewTimestamp(0)
	v, ok = ts.Value()
	assert.True(t, ok)
	assert.True(t, ts.IsSet())
	assert.Equal(t, int64(0), v)
	assert.Equal(t, "0", ts.String())
	assert.NotEqual(t, NoTimestamp, ts)
}

func TestRescale(t *testing.T) {
	for _, r := range []struct {
		from Rational
		in   int64
		out  int64
		to   Rational
	}{
		{from: NewRational(1, 1000), in: 40, out: 3600, to: NewRational(1, 90000)},
		{from: NewRational(1, 90000), in: 3600, out: 40, to: NewRational(1, 1000)},
		{from: NewRational(1, 90000), in: 3645, out: 41, to: NewRational(1, 1000)},
		// Tie is rounded away from zero
		{from: NewRational(1, 90000), in: 45, out: 1, to: NewRational(1, 1000)},
		{from: NewRational(1, 90000), in: -45, out: -1, to: NewRational(1, 1000)},
		{from: NewRational(1, 90000), in: 44, out: 0, to: NewRational(1, 1000)},
		{from: NewRational(1, 25), in: 3, out: 10800, to: NewRational(1, 90000)},
		{from: NewRational(1001, 30000), in: 1, out: 3003, to: NewRational(1, 90000)},
		// Same time base
		{from: NewRational(1, 90000), in: 12345, out: 12345, to: NewRational(2, 180000)},
		// Invalid time base
		{from: NewRational(0, 1), in: 12, out: 12, to: NewRational(1, 90000)},
		// Min/max are passed through
		{from: NewRational(1, 1000), in: math.MinInt64, out: math.MinInt64, to: NewRational(1, 90000)},
		{from: NewRational(1, 1000), in: math.MaxInt64, out: math.MaxInt64, to: NewRational(1, 90000)},
		// Overflows are clamped
		{from: NewRational(1, 1), in: math.MaxInt64 / 2, out: math.MaxInt64 - 1, to: NewRational(1, 90000)},
		{from: NewRational(1, 1), in: math.MinInt64 / 2, out: math.MinInt64 + 1, to: NewRational(1, 90000)},
	} {
		assert.Equal(t, r.out, Rescale(r.in, r.from, r.to), "%d from %s to %s", r.in, r.from, r.to)
	}
}

func TestRescaleRoundTrip(t *testing.T) {
	for _, tbs := range [][2]Rational{
		{NewRational(1, 1000), NewRational(1, 1001)},
		{NewRational(1, 25), NewRational(1, 90000)},
		{NewRational(1001, 30000), NewRational(1, 1000)},
		{NewRational(1, 48000), NewRational(1, 44100)},
	} {
		for _, v := range []int64{0, 1, 7, 40, 1001, 123456789, -3600} {
			got := Rescale(Rescale(v, tbs[0], tbs[1]), tbs[1], tbs[0])
			require.InDelta(t, v, got, 1, "%d with %s <-> %s", v, tbs[0], tbs[1])
		}
	}
}
