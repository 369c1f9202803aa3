// Package numeric provides the scalar abstraction shared by the streaming accumulators.
//
// Every accumulator is generic over Float and relies on a small set of elementary functions
// exposed via Ops. The concrete provider is selected at build time: the host math library is used
// by default, while the `streamstats_softfloat` build tag switches to a pure software fallback.
//
// Accumulators follow the same merge contract: the empty accumulator is the identity element,
// and Merge combines two accumulators of the same kind and configuration into the state obtained
// by feeding the union of their inputs to a single accumulator. Merge is associative and
// commutative up to floating-point rounding, so it can be used as a reducer by parallel callers.
package numeric

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Float is the set of scalar types supported by accumulators.
type Float interface {
	constraints.Float
}

// Ops is the set of elementary functions accumulators need for the scalar type F.
type Ops[F Float] interface {
	// Sqrt returns the square root of x.
	Sqrt(x F) F

	// Abs returns the absolute value of x.
	Abs(x F) F

	// Floor returns the greatest integer value less than or equal to x.
	Floor(x F) F

	// IsNaN reports whether x is NaN.
	IsNaN(x F) bool

	// Inf returns +Inf if sign >= 0 and -Inf otherwise.
	Inf(sign int) F
}

// Sqrt returns the square root of x using the build-selected provider.
func Sqrt[F Float](x F) F {
	return Provider[F]().Sqrt(x)
}

// Abs returns the absolute value of x using the build-selected provider.
func Abs[F Float](x F) F {
	return Provider[F]().Abs(x)
}

// Floor returns the floor of x using the build-selected provider.
func Floor[F Float](x F) F {
	return Provider[F]().Floor(x)
}

// IsNaN reports whether x is NaN.
func IsNaN[F Float](x F) bool {
	return x != x
}

// IsInf returns true if x is +Inf or -Inf.
func IsInf[F Float](x F) bool {
	return x == x && x-x != 0
}

// Inf returns the infinity with the given sign.
func Inf[F Float](sign int) F {
	return Provider[F]().Inf(sign)
}

// NaN returns NaN of type F.
func NaN[F Float]() F {
	return F(math.NaN())
}

// FromCount converts sample count n to F.
func FromCount[F Float](n uint64) F {
	return F(n)
}

// ToFloat64 widens x to float64. The conversion is exact for every supported F.
func ToFloat64[F Float](x F) float64 {
	return float64(x)
}

// Bits returns the bit pattern of x widened to float64.
//
// The widening is injective, so two values have equal Bits if and only if they are bit-for-bit identical.
func Bits[F Float](x F) uint64 {
	return math.Float64bits(float64(x))
}

// FromBits is the inverse of Bits.
func FromBits[F Float](b uint64) F {
	return F(math.Float64frombits(b))
}
