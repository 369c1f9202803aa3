// Package moments implements mergeable accumulators of central moments.
//
// Moments tracks the central moment sums up to the 4th order, which is enough for skewness and kurtosis.
// MomentsN tracks the central moment sums up to an arbitrary order.
//
// Samples are registered with the incremental update by Terriberry, partial accumulators are combined
// with the pairwise formulas by Pébay (https://doi.org/10.1007/s00180-015-0637-z). The second-order part
// of both formulas is identical to the running variance update from the meanvar package.
package moments

import (
	"fmt"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// Moments tracks the count, the mean and the central moment sums of orders 2 to 4.
//
// The zero value is an empty accumulator ready for use.
type Moments[F numeric.Float] struct {
	n    uint64
	mean F
	m2   F
	m3   F
	m4   F
}

// Add registers x in m.
func (m *Moments[F]) Add(x F) {
	n1 := numeric.FromCount[F](m.n)
	m.n++
	n := numeric.FromCount[F](m.n)

	delta := x - m.mean
	deltaN := delta / n
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * n1

	m.mean += deltaN
	m.m4 += term1*deltaN2*(n*n-3*n+3) + 6*deltaN2*m.m2 - 4*deltaN*m.m3
	m.m3 += term1*deltaN*(n-2) - 3*deltaN*m.m2
	m.m2 += term1
}

// Merge merges src into m.
func (m *Moments[F]) Merge(src *Moments[F]) {
	if src.n == 0 {
		return
	}
	if m.n == 0 {
		*m = *src
		return
	}

	na := numeric.FromCount[F](m.n)
	nb := numeric.FromCount[F](src.n)
	n := na + nb
	nn := n * n

	delta := src.mean - m.mean
	delta2 := delta * delta
	delta3 := delta2 * delta
	delta4 := delta2 * delta2

	m4 := m.m4 + src.m4 + delta4*na*nb*(na*na-na*nb+nb*nb)/(nn*n) +
		6*delta2*(na*na*src.m2+nb*nb*m.m2)/nn + 4*delta*(na*src.m3-nb*m.m3)/n
	m3 := m.m3 + src.m3 + delta3*na*nb*(na-nb)/nn + 3*delta*(na*src.m2-nb*m.m2)/n
	m2 := m.m2 + src.m2 + delta2*na*nb/n

	m.mean += delta * nb / n
	m.m2 = m2
	m.m3 = m3
	m.m4 = m4
	m.n += src.n
}

// Count returns the number of registered samples.
func (m *Moments[F]) Count() uint64 {
	return m.n
}

// IsEmpty returns true if no samples were registered.
func (m *Moments[F]) IsEmpty() bool {
	return m.n == 0
}

// Mean returns the arithmetic mean.
func (m *Moments[F]) Mean() (F, error) {
	if err := numeric.NeedSamples("mean", m.n, 1); err != nil {
		return 0, err
	}
	return m.mean, nil
}

// Variance returns the unbiased sample variance.
func (m *Moments[F]) Variance() (F, error) {
	if err := numeric.NeedSamples("variance", m.n, 2); err != nil {
		return 0, err
	}
	return m.m2 / numeric.FromCount[F](m.n-1), nil
}

// PopulationVariance returns the biased population variance.
func (m *Moments[F]) PopulationVariance() (F, error) {
	if err := numeric.NeedSamples("population variance", m.n, 1); err != nil {
		return 0, err
	}
	return m.m2 / numeric.FromCount[F](m.n), nil
}

// StdDev returns the sample standard deviation.
func (m *Moments[F]) StdDev() (F, error) {
	v, err := m.Variance()
	if err != nil {
		return 0, fmt.Errorf("cannot calculate standard deviation: %w", err)
	}
	return numeric.Sqrt(v), nil
}

// Error returns the standard error of the mean.
func (m *Moments[F]) Error() (F, error) {
	v, err := m.Variance()
	if err != nil {
		return 0, fmt.Errorf("cannot calculate standard error: %w", err)
	}
	return numeric.Sqrt(v / numeric.FromCount[F](m.n)), nil
}

// Skewness returns the population skewness g1 = sqrt(n)*m3/m2^1.5.
func (m *Moments[F]) Skewness() (F, error) {
	if err := m.checkShape("skewness", 3); err != nil {
		return 0, err
	}
	return numeric.Sqrt(numeric.FromCount[F](m.n)) * m.m3 / (m.m2 * numeric.Sqrt(m.m2)), nil
}

// Kurtosis returns the population excess kurtosis g2 = n*m4/m2^2 - 3.
func (m *Moments[F]) Kurtosis() (F, error) {
	if err := m.checkShape("kurtosis", 4); err != nil {
		return 0, err
	}
	return numeric.FromCount[F](m.n)*m.m4/(m.m2*m.m2) - 3, nil
}

// SampleSkewness returns the adjusted Fisher-Pearson skewness G1.
func (m *Moments[F]) SampleSkewness() (F, error) {
	g1, err := m.Skewness()
	if err != nil {
		return 0, err
	}
	n := numeric.FromCount[F](m.n)
	return g1 * numeric.Sqrt(n*(n-1)) / (n - 2), nil
}

// SampleKurtosis returns the sample excess kurtosis G2.
func (m *Moments[F]) SampleKurtosis() (F, error) {
	g2, err := m.Kurtosis()
	if err != nil {
		return 0, err
	}
	n := numeric.FromCount[F](m.n)
	return ((n+1)*g2 + 6) * (n - 1) / ((n - 2) * (n - 3)), nil
}

// CentralMoment returns the k-th central moment, i.e. the mean of (x - mean)^k over the registered samples.
//
// k must be in the range [0..4].
func (m *Moments[F]) CentralMoment(k int) (F, error) {
	if err := numeric.NeedSamples("central moment", m.n, 1); err != nil {
		return 0, err
	}
	n := numeric.FromCount[F](m.n)
	switch k {
	case 0:
		return 1, nil
	case 1:
		return 0, nil
	case 2:
		return m.m2 / n, nil
	case 3:
		return m.m3 / n, nil
	case 4:
		return m.m4 / n, nil
	default:
		return 0, fmt.Errorf("central moment of order %d isn't tracked; supported orders: 0..4: %w", k, numeric.ErrInvalidConfig)
	}
}

// StandardizedMoment returns CentralMoment(k) divided by PopulationVariance^(k/2).
func (m *Moments[F]) StandardizedMoment(k int) (F, error) {
	cm, err := m.CentralMoment(k)
	if err != nil {
		return 0, err
	}
	return standardize(cm, m.m2/numeric.FromCount[F](m.n), k)
}

func (m *Moments[F]) checkShape(name string, minSamples uint64) error {
	if err := numeric.NeedSamples(name, m.n, minSamples); err != nil {
		return err
	}
	if m.m2 <= 0 {
		return fmt.Errorf("%s of identical samples: %w", name, numeric.ErrUndefinedStatistic)
	}
	return nil
}

func standardize[F numeric.Float](cm, pv F, k int) (F, error) {
	if k < 2 {
		return cm, nil
	}
	if pv <= 0 {
		return 0, fmt.Errorf("standardized moment of order %d for identical samples: %w", k, numeric.ErrUndefinedStatistic)
	}
	d := F(1)
	for i := 0; i < k/2; i++ {
		d *= pv
	}
	if k%2 == 1 {
		d *= numeric.Sqrt(pv)
	}
	return cm / d, nil
}
