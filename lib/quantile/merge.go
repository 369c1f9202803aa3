package quantile

import (
	"fmt"
	"slices"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// Clone returns a deep copy of q.
func (q *Quantile[F]) Clone() *Quantile[F] {
	heights := make([]F, len(q.heights), len(q.increments))
	copy(heights, q.heights)
	return &Quantile[F]{
		probs:      append([]F{}, q.probs...),
		increments: append([]F{}, q.increments...),
		heights:    heights,
		positions:  append([]int64{}, q.positions...),
		desired:    append([]F{}, q.desired...),
		n:          q.n,
	}
}

// Merge merges src into q.
//
// The merge is exact while either side holds fewer samples than markers, since such a side still keeps
// raw samples. Otherwise the merge is LOSSY: the markers are re-initialized from the sum of the rank functions
// approximated by markers of both estimators. Min and max stay exact.
//
// ErrIncompatibleMerge is returned if src estimates different quantiles.
func (q *Quantile[F]) Merge(src *Quantile[F]) error {
	if !slices.Equal(q.probs, src.probs) {
		return fmt.Errorf("cannot merge estimator for quantiles %v into estimator for quantiles %v: %w", src.probs, q.probs, numeric.ErrIncompatibleMerge)
	}
	if src.n == 0 {
		return nil
	}
	if src.inFillPhase() {
		for _, x := range src.heights {
			q.Add(x)
		}
		return nil
	}
	if q.inFillPhase() {
		pending := append([]F{}, q.heights...)
		*q = *src.Clone()
		for _, x := range pending {
			q.Add(x)
		}
		return nil
	}
	q.mergeSteady(src)
	return nil
}

func (q *Quantile[F]) mergeSteady(src *Quantile[F]) {
	markers := len(q.increments)
	last := markers - 1
	n := q.n + src.n

	// Collect the points where the combined rank function changes its slope.
	xs := make([]F, 0, 2*markers)
	xs = append(xs, q.heights...)
	xs = append(xs, src.heights...)
	slices.Sort(xs)
	xs = slices.Compact(xs)

	ranks := make([]float64, len(xs))
	ranksLeft := make([]float64, len(xs))
	for i, x := range xs {
		r := q.rankAt(x) + src.rankAt(x)
		ranks[i] = r

		// Rank functions jump from 0 to 1 at min.
		rl := r
		if x == q.heights[0] {
			rl--
		}
		if x == src.heights[0] {
			rl--
		}
		ranksLeft[i] = rl
	}

	positions := q.positions
	nf := float64(n - 1)
	for i, inc := range q.increments {
		positions[i] = int64(1.5 + nf*numeric.ToFloat64(inc))
	}
	positions[0] = 1
	positions[last] = int64(n)
	for i := 1; i < markers; i++ {
		if positions[i] <= positions[i-1] {
			positions[i] = positions[i-1] + 1
		}
	}
	for i := last - 1; i >= 0; i-- {
		if positions[i] >= positions[i+1] {
			positions[i] = positions[i+1] - 1
		}
	}

	minV := min(q.heights[0], src.heights[0])
	maxV := max(q.heights[last], src.heights[last])
	for i := 1; i < last; i++ {
		q.heights[i] = invertRank(xs, ranks, ranksLeft, float64(positions[i]))
	}
	q.heights[0] = minV
	q.heights[last] = maxV

	q.n = n
	for i, inc := range q.increments {
		q.desired[i] = 1 + F(nf)*inc
	}
}

// rankAt returns the approximate number of samples smaller or equal to x.
//
// The rank function is linearly interpolated between markers.
func (q *Quantile[F]) rankAt(x F) float64 {
	h := q.heights
	last := len(h) - 1
	if x < h[0] {
		return 0
	}
	if x >= h[last] {
		return float64(q.n)
	}
	i := 0
	for !(h[i] <= x && x < h[i+1]) {
		i++
	}
	pLo := float64(q.positions[i])
	pHi := float64(q.positions[i+1])
	return pLo + (pHi-pLo)*numeric.ToFloat64(x-h[i])/numeric.ToFloat64(h[i+1]-h[i])
}

// invertRank returns the smallest x, where the piecewise linear rank function reaches rank.
func invertRank[F numeric.Float](xs []F, ranks, ranksLeft []float64, rank float64) F {
	for k, r := range ranks {
		if r < rank {
			continue
		}
		if k == 0 || rank >= ranksLeft[k] {
			return xs[k]
		}
		rPrev := ranks[k-1]
		frac := (rank - rPrev) / (ranksLeft[k] - rPrev)
		return xs[k-1] + F(frac)*(xs[k]-xs[k-1])
	}
	return xs[len(xs)-1]
}
