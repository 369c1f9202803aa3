// Package extrema tracks the running minimum and maximum of a sample stream.
package extrema

import (
	"fmt"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// Extrema holds the smallest and the largest observed sample.
//
// The zero value is an empty Extrema ready for use.
type Extrema[F numeric.Float] struct {
	min     F
	max     F
	defined bool
}

// New returns an empty Extrema.
func New[F numeric.Float]() *Extrema[F] {
	return &Extrema[F]{}
}

// Add registers x. NaN samples are ignored.
func (e *Extrema[F]) Add(x F) {
	if numeric.IsNaN(x) {
		return
	}
	if !e.defined {
		e.min = x
		e.max = x
		e.defined = true
		return
	}
	if x < e.min {
		e.min = x
	}
	if x > e.max {
		e.max = x
	}
}

// Merge merges src into e.
func (e *Extrema[F]) Merge(src *Extrema[F]) {
	if !src.defined {
		return
	}
	if !e.defined {
		*e = *src
		return
	}
	if src.min < e.min {
		e.min = src.min
	}
	if src.max > e.max {
		e.max = src.max
	}
}

// IsEmpty returns true if no samples were registered in e.
func (e *Extrema[F]) IsEmpty() bool {
	return !e.defined
}

// Min returns the smallest registered sample.
func (e *Extrema[F]) Min() (F, error) {
	if e.IsEmpty() {
		return 0, fmt.Errorf("min of empty stream: %w", numeric.ErrUndefinedStatistic)
	}
	return e.min, nil
}

// Max returns the largest registered sample.
func (e *Extrema[F]) Max() (F, error) {
	if e.IsEmpty() {
		return 0, fmt.Errorf("max of empty stream: %w", numeric.ErrUndefinedStatistic)
	}
	return e.max, nil
}

// Range returns Max() - Min().
func (e *Extrema[F]) Range() (F, error) {
	if e.IsEmpty() {
		return 0, fmt.Errorf("range of empty stream: %w", numeric.ErrUndefinedStatistic)
	}
	return e.max - e.min, nil
}
