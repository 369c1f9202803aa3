package histogram

import (
	"fmt"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// Mean returns the mean of samples approximated by bin midpoints.
//
// numeric.ErrUndefinedStatistic is returned if an unbounded bin holds samples.
func (h *Histogram[F]) Mean() (F, error) {
	total := h.Total()
	if err := numeric.NeedSamples("histogram mean", total, 1); err != nil {
		return 0, err
	}
	if err := h.checkBoundedBins("histogram mean"); err != nil {
		return 0, err
	}
	return h.mean(total), nil
}

// checkBoundedBins returns an error if a bin with an infinite edge holds samples.
//
// The midpoint of such a bin is undefined.
func (h *Histogram[F]) checkBoundedBins(name string) error {
	for i, c := range h.counts {
		if c > 0 && !h.isBounded(i) {
			return unboundedBinError(name, i, c)
		}
	}
	return nil
}

func (h *Histogram[F]) isBounded(i int) bool {
	return !numeric.IsInf(h.edges[i]) && !numeric.IsInf(h.edges[i+1])
}

func unboundedBinError(name string, i int, c uint64) error {
	return fmt.Errorf("%s is undefined, since the unbounded bin #%d holds %d samples: %w", name, i, c, numeric.ErrUndefinedStatistic)
}

func (h *Histogram[F]) mean(total uint64) F {
	var sum F
	for i, c := range h.counts {
		if c > 0 {
			sum += F(c) * h.Center(i)
		}
	}
	return sum / numeric.FromCount[F](total)
}

// Variance returns the sample variance approximated by bin midpoints.
func (h *Histogram[F]) Variance() (F, error) {
	total := h.Total()
	if err := numeric.NeedSamples("histogram variance", total, 2); err != nil {
		return 0, err
	}
	if err := h.checkBoundedBins("histogram variance"); err != nil {
		return 0, err
	}
	return h.sumSqDev(total) / numeric.FromCount[F](total-1), nil
}

// PopulationVariance returns the population variance approximated by bin midpoints.
func (h *Histogram[F]) PopulationVariance() (F, error) {
	total := h.Total()
	if err := numeric.NeedSamples("histogram population variance", total, 1); err != nil {
		return 0, err
	}
	if err := h.checkBoundedBins("histogram population variance"); err != nil {
		return 0, err
	}
	return h.sumSqDev(total) / numeric.FromCount[F](total), nil
}

func (h *Histogram[F]) sumSqDev(total uint64) F {
	mean := h.mean(total)
	var sum F
	for i, c := range h.counts {
		if c > 0 {
			d := h.Center(i) - mean
			sum += F(c) * d * d
		}
	}
	return sum
}

// Quantile returns the phi-quantile of samples, where phi is in the range [0..1].
//
// The result is interpolated linearly inside the bin containing the target cumulative count.
// numeric.ErrUndefinedStatistic is returned if this bin is unbounded.
func (h *Histogram[F]) Quantile(phi F) (F, error) {
	if numeric.IsNaN(phi) || phi < 0 || phi > 1 {
		return 0, fmt.Errorf("phi must be in the range [0..1]; got %v: %w", phi, numeric.ErrInvalidConfig)
	}
	total := h.Total()
	if err := numeric.NeedSamples("histogram quantile", total, 1); err != nil {
		return 0, err
	}

	target := phi * numeric.FromCount[F](total)
	var cum F
	for i, c := range h.counts {
		if c == 0 {
			continue
		}
		cf := F(c)
		if cum+cf >= target {
			if !h.isBounded(i) {
				return 0, unboundedBinError("histogram quantile", i, c)
			}
			return h.edges[i] + (target-cum)/cf*h.Width(i), nil
		}
		cum += cf
	}
	return h.edges[len(h.edges)-1], nil
}

// Fraction returns the share of samples smaller than x.
//
// Samples are assumed to be distributed uniformly inside bins.
// numeric.ErrUndefinedStatistic is returned if x falls into a non-empty unbounded bin.
func (h *Histogram[F]) Fraction(x F) (F, error) {
	if numeric.IsNaN(x) {
		return 0, fmt.Errorf("cannot calculate fraction of samples below NaN: %w", numeric.ErrInvalidConfig)
	}
	total := h.Total()
	if err := numeric.NeedSamples("histogram fraction", total, 1); err != nil {
		return 0, err
	}
	if x <= h.edges[0] {
		return 0, nil
	}
	if x >= h.edges[len(h.edges)-1] {
		return 1, nil
	}

	i, _ := h.binIndex(x)
	var below uint64
	for _, c := range h.counts[:i] {
		below += c
	}
	var partial F
	if c := h.counts[i]; c > 0 {
		if !h.isBounded(i) {
			return 0, unboundedBinError("histogram fraction", i, c)
		}
		partial = F(c) * (x - h.edges[i]) / h.Width(i)
	}
	return (F(below) + partial) / numeric.FromCount[F](total), nil
}
