package numeric

// SoftOps implements Ops without the host math library.
//
// It is slower than HostOps and is meant for targets where the math package is unavailable or
// must not be used. Results match HostOps within one ulp.
type SoftOps[F Float] struct{}

const (
	// 2^52: every float64 with a larger magnitude is an integer.
	softIntegerBound = 4503599627370496.0

	softScaleUp   = 18446744073709551616.0 // 2^64
	softScaleDown = 1 / softScaleUp
	softSqrtUp    = 4294967296.0 // 2^32
	softSqrtDown  = 1 / softSqrtUp
)

// Sqrt implements Ops via range reduction and Newton-Raphson iterations.
func (SoftOps[F]) Sqrt(x F) F {
	return F(softSqrt(float64(x)))
}

func softSqrt(x float64) float64 {
	switch {
	case x != x:
		return x
	case x < 0:
		return softNaN()
	case x == 0:
		return x
	case x > maxFloat64:
		return x
	}

	// Reduce x to [2^-64, 2^64), so the initial guess is close enough for fast convergence.
	scale := 1.0
	for x >= softScaleUp {
		x *= softScaleDown
		scale *= softSqrtUp
	}
	for x < softScaleDown {
		x *= softScaleUp
		scale *= softSqrtDown
	}
	for x >= 4 {
		x *= 0.25
		scale *= 2
	}
	for x < 0.25 {
		x *= 4
		scale *= 0.5
	}

	// x is in [0.25, 4) now.
	y := (x + 1) / 2
	for i := 0; i < 6; i++ {
		y = (y + x/y) / 2
	}
	return y * scale
}

// Abs implements Ops.
func (SoftOps[F]) Abs(x F) F {
	if x < 0 {
		return -x
	}
	if x == 0 {
		// Drops the sign of -0.
		return 0
	}
	return x
}

// Floor implements Ops.
func (SoftOps[F]) Floor(x F) F {
	return F(softFloor(float64(x)))
}

func softFloor(x float64) float64 {
	if x != x || x == 0 || x >= softIntegerBound || x <= -softIntegerBound {
		return x
	}
	t := float64(int64(x))
	if t > x {
		t--
	}
	return t
}

// IsNaN implements Ops.
func (SoftOps[F]) IsNaN(x F) bool {
	return x != x
}

// Inf implements Ops.
func (SoftOps[F]) Inf(sign int) F {
	inf := softInf()
	if sign < 0 {
		return F(-inf)
	}
	return F(inf)
}

const maxFloat64 = 1.79769313486231570814527423731704356798070e+308

func softInf() float64 {
	x := maxFloat64
	return x * 2
}

func softNaN() float64 {
	inf := softInf()
	return inf - inf
}
