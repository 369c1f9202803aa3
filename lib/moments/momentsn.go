package moments

import (
	"fmt"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// MaxOrder is the maximum order supported by MomentsN.
const MaxOrder = 32

// MomentsN tracks the central moment sums up to an arbitrary order.
//
// Use NewN for obtaining an empty MomentsN.
type MomentsN[F numeric.Float] struct {
	n    uint64
	mean F

	// m[k-2] holds the sum of (x - mean)^k for k in [2..order].
	m []F
}

// NewN returns an empty accumulator for central moments up to the given order.
//
// order must be in the range [2..MaxOrder].
func NewN[F numeric.Float](order int) (*MomentsN[F], error) {
	if order < 2 || order > MaxOrder {
		return nil, fmt.Errorf("moments order must be in the range [2..%d]; got %d: %w", MaxOrder, order, numeric.ErrInvalidConfig)
	}
	return &MomentsN[F]{
		m: make([]F, order-1),
	}, nil
}

// Order returns the highest tracked central moment order.
func (m *MomentsN[F]) Order() int {
	return len(m.m) + 1
}

// Add registers x in m.
//
// This is equivalent to merging an accumulator holding the single sample x.
func (m *MomentsN[F]) Add(x F) {
	if m.n == 0 {
		m.n = 1
		m.mean = x
		return
	}

	na := numeric.FromCount[F](m.n)
	n := na + 1
	delta := x - m.mean
	wa := -1 / n
	wb := na / n

	// Walk orders from the top, so lower-order sums still hold their previous values when they are read.
	order := m.Order()
	for p := order; p >= 2; p-- {
		sum := m.m[p-2]
		c := F(1)
		dk := F(1)
		wak := F(1)
		wbk := F(1)
		for k := 1; k <= p; k++ {
			c = c * F(p-k+1) / F(k)
			dk *= delta
			wak *= wa
			wbk *= wb
			// The single-sample side contributes only its zero-order sum, which equals 1.
			t := wak * m.sum(p-k, na)
			if k == p {
				t += wbk
			}
			sum += c * dk * t
		}
		m.m[p-2] = sum
	}
	m.mean += delta / n
	m.n++
}

// Merge merges src into m.
//
// ErrIncompatibleMerge is returned if src tracks a different order.
func (m *MomentsN[F]) Merge(src *MomentsN[F]) error {
	if m.Order() != src.Order() {
		return fmt.Errorf("cannot merge moments of order %d into moments of order %d: %w", src.Order(), m.Order(), numeric.ErrIncompatibleMerge)
	}
	if src.n == 0 {
		return nil
	}
	if m.n == 0 {
		m.n = src.n
		m.mean = src.mean
		copy(m.m, src.m)
		return nil
	}

	na := numeric.FromCount[F](m.n)
	nb := numeric.FromCount[F](src.n)
	n := na + nb
	delta := src.mean - m.mean
	wa := -nb / n
	wb := na / n

	order := m.Order()
	for p := order; p >= 2; p-- {
		sum := m.m[p-2] + src.m[p-2]
		c := F(1)
		dk := F(1)
		wak := F(1)
		wbk := F(1)
		for k := 1; k <= p; k++ {
			c = c * F(p-k+1) / F(k)
			dk *= delta
			wak *= wa
			wbk *= wb
			sum += c * dk * (wak*m.sum(p-k, na) + wbk*src.sum(p-k, nb))
		}
		m.m[p-2] = sum
	}
	m.mean += delta * nb / n
	m.n += src.n
	return nil
}

// sum returns the central moment sum of order k, where the zero-order sum is the count n.
func (m *MomentsN[F]) sum(k int, n F) F {
	switch k {
	case 0:
		return n
	case 1:
		return 0
	default:
		return m.m[k-2]
	}
}

// Count returns the number of registered samples.
func (m *MomentsN[F]) Count() uint64 {
	return m.n
}

// IsEmpty returns true if no samples were registered.
func (m *MomentsN[F]) IsEmpty() bool {
	return m.n == 0
}

// Mean returns the arithmetic mean.
func (m *MomentsN[F]) Mean() (F, error) {
	if err := numeric.NeedSamples("mean", m.n, 1); err != nil {
		return 0, err
	}
	return m.mean, nil
}

// Variance returns the unbiased sample variance.
func (m *MomentsN[F]) Variance() (F, error) {
	if err := numeric.NeedSamples("variance", m.n, 2); err != nil {
		return 0, err
	}
	return m.m[0] / numeric.FromCount[F](m.n-1), nil
}

// CentralMoment returns the k-th central moment for k in [0..Order()].
func (m *MomentsN[F]) CentralMoment(k int) (F, error) {
	if k < 0 || k > m.Order() {
		return 0, fmt.Errorf("central moment of order %d isn't tracked; supported orders: 0..%d: %w", k, m.Order(), numeric.ErrInvalidConfig)
	}
	if err := numeric.NeedSamples("central moment", m.n, 1); err != nil {
		return 0, err
	}
	n := numeric.FromCount[F](m.n)
	return m.sum(k, n) / n, nil
}

// StandardizedMoment returns CentralMoment(k) divided by the population variance raised to k/2.
func (m *MomentsN[F]) StandardizedMoment(k int) (F, error) {
	cm, err := m.CentralMoment(k)
	if err != nil {
		return 0, err
	}
	return standardize(cm, m.m[0]/numeric.FromCount[F](m.n), k)
}
