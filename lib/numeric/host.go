package numeric

import (
	"math"
)

// HostOps implements Ops via the host math package.
type HostOps[F Float] struct{}

// Sqrt implements Ops.
func (HostOps[F]) Sqrt(x F) F {
	return F(math.Sqrt(float64(x)))
}

// Abs implements Ops.
func (HostOps[F]) Abs(x F) F {
	return F(math.Abs(float64(x)))
}

// Floor implements Ops.
func (HostOps[F]) Floor(x F) F {
	return F(math.Floor(float64(x)))
}

// IsNaN implements Ops.
func (HostOps[F]) IsNaN(x F) bool {
	return math.IsNaN(float64(x))
}

// Inf implements Ops.
func (HostOps[F]) Inf(sign int) F {
	return F(math.Inf(sign))
}
