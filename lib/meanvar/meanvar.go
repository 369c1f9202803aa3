// Package meanvar implements numerically stable running mean and variance.
//
// Samples are registered with the Welford update, partial accumulators are combined
// with the pairwise update from Chan et al., so shards may be accumulated independently.
package meanvar

import (
	"fmt"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// MeanVariance tracks the count, the mean and the sum of squared deviations from the mean.
//
// The zero value is an empty accumulator ready for use.
type MeanVariance[F numeric.Float] struct {
	n        uint64
	mean     F
	sumSqDev F
}

// Add registers x in mv.
func (mv *MeanVariance[F]) Add(x F) {
	mv.n++
	delta := x - mv.mean
	mv.mean += delta / numeric.FromCount[F](mv.n)
	mv.sumSqDev += delta * (x - mv.mean)
}

// Merge merges src into mv.
func (mv *MeanVariance[F]) Merge(src *MeanVariance[F]) {
	if src.n == 0 {
		return
	}
	if mv.n == 0 {
		*mv = *src
		return
	}
	na := numeric.FromCount[F](mv.n)
	nb := numeric.FromCount[F](src.n)
	n := na + nb
	delta := src.mean - mv.mean
	mv.mean += delta * nb / n
	mv.sumSqDev += src.sumSqDev + delta*delta*na*nb/n
	mv.n += src.n
}

// Count returns the number of registered samples.
func (mv *MeanVariance[F]) Count() uint64 {
	return mv.n
}

// IsEmpty returns true if no samples were registered.
func (mv *MeanVariance[F]) IsEmpty() bool {
	return mv.n == 0
}

// Mean returns the arithmetic mean of the registered samples.
func (mv *MeanVariance[F]) Mean() (F, error) {
	if err := numeric.NeedSamples("mean", mv.n, 1); err != nil {
		return 0, err
	}
	return mv.mean, nil
}

// Variance returns the unbiased sample variance.
func (mv *MeanVariance[F]) Variance() (F, error) {
	if err := numeric.NeedSamples("variance", mv.n, 2); err != nil {
		return 0, err
	}
	return mv.sumSqDev / numeric.FromCount[F](mv.n-1), nil
}

// PopulationVariance returns the biased population variance.
func (mv *MeanVariance[F]) PopulationVariance() (F, error) {
	if err := numeric.NeedSamples("population variance", mv.n, 1); err != nil {
		return 0, err
	}
	return mv.sumSqDev / numeric.FromCount[F](mv.n), nil
}

// StdDev returns the sample standard deviation.
func (mv *MeanVariance[F]) StdDev() (F, error) {
	v, err := mv.Variance()
	if err != nil {
		return 0, fmt.Errorf("cannot calculate standard deviation: %w", err)
	}
	return numeric.Sqrt(v), nil
}

// Error returns the standard error of the mean.
func (mv *MeanVariance[F]) Error() (F, error) {
	v, err := mv.Variance()
	if err != nil {
		return 0, fmt.Errorf("cannot calculate standard error: %w", err)
	}
	return numeric.Sqrt(v / numeric.FromCount[F](mv.n)), nil
}

// SumSquaredDeviations returns the sum of squared deviations from the mean.
func (mv *MeanVariance[F]) SumSquaredDeviations() F {
	return mv.sumSqDev
}
