package stats

import (
	"math"
	"math/big"
	"math/bits"
)

// Int128 is a signed 128-bit two's complement integer used to accumulate
// nanosecond totals. It is a value type; the zero value is 0.
type Int128 struct {
	hi int64
	lo uint64
}

// FromInt64 sign-extends v to 128 bits.
func FromInt64(v int64) Int128 {
	var hi int64
	if v < 0 {
		hi = -1
	}
	return Int128{hi: hi, lo: uint64(v)}
}

// Add returns a+b. Overflow past 128 bits wraps.
func (a Int128) Add(b Int128) Int128 {
	lo, carry := bits.Add64(a.lo, b.lo, 0)
	return Int128{hi: a.hi + b.hi + int64(carry), lo: lo}
}

// AddInt64 returns a+v.
func (a Int128) AddInt64(v int64) Int128 {
	return a.Add(FromInt64(v))
}

// IsZero reports whether a == 0.
func (a Int128) IsZero() bool {
	return a.hi == 0 && a.lo == 0
}

// Sign returns -1, 0 or +1.
func (a Int128) Sign() int {
	switch {
	case a.hi < 0:
		return -1
	case a.hi == 0 && a.lo == 0:
		return 0
	default:
		return 1
	}
}

// Int64 returns a as an int64 and whether the conversion was exact.
func (a Int128) Int64() (int64, bool) {
	v := int64(a.lo)
	if (a.hi == 0 && v >= 0) || (a.hi == -1 && v < 0) {
		return v, true
	}
	return v, false
}

// Neg returns -a.
func (a Int128) Neg() Int128 {
	lo, borrow := bits.Sub64(0, a.lo, 0)
	return Int128{hi: -a.hi - int64(borrow), lo: lo}
}

// Float64 returns the nearest float64 to a.
func (a Int128) Float64() float64 {
	if a.hi < 0 {
		n := a.Neg()
		if n.hi >= 0 {
			return -n.Float64()
		}
		// -2^127 has no positive counterpart.
		return -0x1p127
	}
	return float64(a.hi)*0x1p64 + float64(a.lo)
}

// Quo returns a/n as a float64. Dividing by zero yields NaN or ±Inf.
func (a Int128) Quo(n int64) float64 {
	if n == 0 {
		if a.IsZero() {
			return math.NaN()
		}
		return math.Inf(a.Sign())
	}
	return a.Float64() / float64(n)
}

// String formats a in base 10.
func (a Int128) String() string {
	if v, ok := a.Int64(); ok {
		return big.NewInt(v).String()
	}
	b := new(big.Int).SetInt64(a.hi)
	b.Lsh(b, 64)
	return b.Add(b, new(big.Int).SetUint64(a.lo)).String()
}
