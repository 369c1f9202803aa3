// Package quantile implements the P² online quantile estimator.
//
// The estimator tracks a small fixed set of markers whose heights approximate order statistics of the
// observed samples, so it needs O(1) memory and O(1) time per sample. See
// "The P² algorithm for dynamic calculation of quantiles and histograms without storing observations"
// by Jain and Chlamtac, and its extension to multiple quantiles by Raatikainen.
//
// The estimate is approximate. Its error is probabilistic and depends on the order of observed samples,
// so no hard error bound is guaranteed. Estimates are exact while fewer samples than markers are observed.
//
// Merging estimators is lossy: see Quantile.Merge for details.
package quantile

import (
	"fmt"
	"slices"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// Quantile estimates one or more quantiles of a sample stream.
//
// Use New or NewMulti for creating Quantile.
type Quantile[F numeric.Float] struct {
	// probs contains the estimated quantiles in ascending order.
	probs []F

	// increments contains marker probabilities. Desired marker positions are advanced by them on every sample.
	increments []F

	// heights contains marker heights.
	//
	// It buffers raw samples until len(heights) samples are observed.
	heights []F

	// positions contains 1-based marker positions.
	positions []int64

	// desired contains desired marker positions.
	desired []F

	n uint64
}

// New returns an estimator for the p-quantile, where p is in the range [0..1].
//
// The estimator tracks 5 markers.
func New[F numeric.Float](p F) (*Quantile[F], error) {
	return NewMulti(p)
}

// NewMulti returns an estimator for multiple quantiles ps.
//
// ps must be sorted in ascending order without duplicates. Every p must be in the range [0..1].
// The estimator tracks 2*len(ps)+3 markers.
func NewMulti[F numeric.Float](ps ...F) (*Quantile[F], error) {
	increments, err := newIncrements(ps)
	if err != nil {
		return nil, err
	}
	markers := len(increments)
	return &Quantile[F]{
		probs:      append([]F{}, ps...),
		increments: increments,
		heights:    make([]F, 0, markers),
		positions:  make([]int64, markers),
		desired:    make([]F, markers),
	}, nil
}

func newIncrements[F numeric.Float](ps []F) ([]F, error) {
	if len(ps) == 0 {
		return nil, fmt.Errorf("at least a single quantile must be set: %w", numeric.ErrInvalidConfig)
	}
	for i, p := range ps {
		if numeric.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("quantile must be in the range [0..1]; got %v: %w", p, numeric.ErrInvalidConfig)
		}
		if i > 0 && p <= ps[i-1] {
			return nil, fmt.Errorf("quantiles must be sorted in ascending order without duplicates; got %v after %v: %w", p, ps[i-1], numeric.ErrInvalidConfig)
		}
	}

	// Every quantile marker is surrounded by middle markers. The first and the last markers track min and max.
	increments := make([]F, 0, 2*len(ps)+3)
	increments = append(increments, 0)
	prev := F(0)
	for _, p := range ps {
		increments = append(increments, (prev+p)/2, p)
		prev = p
	}
	increments = append(increments, (1+prev)/2, 1)
	return increments, nil
}

// Add registers x in q. NaN samples are ignored.
func (q *Quantile[F]) Add(x F) {
	if numeric.IsNaN(x) {
		return
	}
	markers := len(q.increments)
	if len(q.heights) < markers {
		q.fill(x)
		return
	}
	q.n++

	h := q.heights
	last := markers - 1

	// Find the cell containing x and extend the range if needed.
	var k int
	switch {
	case x < h[0]:
		h[0] = x
		k = 1
	case x >= h[last]:
		if x > h[last] {
			h[last] = x
		}
		k = last
	default:
		k = 1
		for x >= h[k] {
			k++
		}
	}

	for i := k; i < markers; i++ {
		q.positions[i]++
	}
	for i, inc := range q.increments {
		q.desired[i] += inc
	}

	for i := 1; i < last; i++ {
		q.adjustMarker(i)
	}
}

func (q *Quantile[F]) fill(x F) {
	q.heights = append(q.heights, x)
	q.n++
	markers := len(q.increments)
	if len(q.heights) < markers {
		return
	}

	slices.Sort(q.heights)
	m := F(markers - 1)
	for i, inc := range q.increments {
		q.positions[i] = int64(i + 1)
		q.desired[i] = 1 + m*inc
	}
}

func (q *Quantile[F]) adjustMarker(i int) {
	n := q.positions
	d := q.desired[i] - F(n[i])
	if !(d >= 1 && n[i+1]-n[i] > 1) && !(d <= -1 && n[i-1]-n[i] < -1) {
		return
	}

	step := int64(1)
	if d < 0 {
		step = -1
	}
	h := q.heights
	hNew := q.parabolic(i, step)
	if h[i-1] < hNew && hNew < h[i+1] {
		h[i] = hNew
	} else {
		h[i] = q.linear(i, step)
	}
	n[i] += step
}

func (q *Quantile[F]) parabolic(i int, step int64) F {
	h := q.heights
	n := q.positions
	d := F(step)
	left := F(n[i] - n[i-1])
	right := F(n[i+1] - n[i])
	return h[i] + d/F(n[i+1]-n[i-1])*((F(n[i]-n[i-1]+step))*(h[i+1]-h[i])/right+(F(n[i+1]-n[i]-step))*(h[i]-h[i-1])/left)
}

func (q *Quantile[F]) linear(i int, step int64) F {
	h := q.heights
	n := q.positions
	j := i + int(step)
	return h[i] + F(step)*(h[j]-h[i])/F(n[j]-n[i])
}

// Count returns the number of registered samples.
func (q *Quantile[F]) Count() uint64 {
	return q.n
}

// IsEmpty returns true if no samples were registered.
func (q *Quantile[F]) IsEmpty() bool {
	return q.n == 0
}

// Markers returns the number of markers tracked by q.
func (q *Quantile[F]) Markers() int {
	return len(q.increments)
}

// Probabilities returns the estimated quantiles.
func (q *Quantile[F]) Probabilities() []F {
	return append([]F{}, q.probs...)
}

// Quantile returns the estimate for the first configured quantile.
func (q *Quantile[F]) Quantile() (F, error) {
	return q.QuantileAt(0)
}

// QuantileAt returns the estimate for the i-th configured quantile.
func (q *Quantile[F]) QuantileAt(i int) (F, error) {
	if i < 0 || i >= len(q.probs) {
		return 0, fmt.Errorf("quantile index must be in the range [0..%d]; got %d", len(q.probs)-1, i)
	}
	if err := numeric.NeedSamples("quantile", q.n, 1); err != nil {
		return 0, err
	}
	p := q.probs[i]
	if q.inFillPhase() {
		return exactQuantile(q.heights, p), nil
	}

	// Markers for the extreme quantiles cannot reach min and max, so use the exact values instead.
	if p == 0 {
		return q.heights[0], nil
	}
	if p == 1 {
		return q.heights[len(q.heights)-1], nil
	}
	return q.heights[2*i+2], nil
}

// Quantiles appends estimates for all the configured quantiles to dst and returns the result.
func (q *Quantile[F]) Quantiles(dst []F) ([]F, error) {
	for i := range q.probs {
		v, err := q.QuantileAt(i)
		if err != nil {
			return dst, err
		}
		dst = append(dst, v)
	}
	return dst, nil
}

// Min returns the smallest registered sample.
func (q *Quantile[F]) Min() (F, error) {
	if err := numeric.NeedSamples("min", q.n, 1); err != nil {
		return 0, err
	}
	if q.inFillPhase() {
		return slices.Min(q.heights), nil
	}
	return q.heights[0], nil
}

// Max returns the largest registered sample.
func (q *Quantile[F]) Max() (F, error) {
	if err := numeric.NeedSamples("max", q.n, 1); err != nil {
		return 0, err
	}
	if q.inFillPhase() {
		return slices.Max(q.heights), nil
	}
	return q.heights[len(q.heights)-1], nil
}

func (q *Quantile[F]) inFillPhase() bool {
	return len(q.heights) < len(q.increments)
}

// exactQuantile returns the p-quantile of samples via linear interpolation between the closest ranks.
func exactQuantile[F numeric.Float](samples []F, p F) F {
	a := append([]F{}, samples...)
	slices.Sort(a)
	idx := p * F(len(a)-1)
	lo := numeric.Floor(idx)
	i := int(lo)
	if i+1 >= len(a) {
		return a[len(a)-1]
	}
	return a[i] + (a[i+1]-a[i])*(idx-lo)
}
