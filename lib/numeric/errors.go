package numeric

import (
	"errors"
	"fmt"
)

var (
	// ErrUndefinedStatistic is returned when a statistic is queried before enough samples were observed
	// or when it is mathematically undefined for the observed samples (for example, skewness of constant samples).
	ErrUndefinedStatistic = errors.New("undefined statistic")

	// ErrSampleOutOfRange is returned when a sample falls outside the range covered by an accumulator.
	ErrSampleOutOfRange = errors.New("sample out of range")

	// ErrIncompatibleMerge is returned when accumulators with different static configuration are merged.
	ErrIncompatibleMerge = errors.New("incompatible merge")

	// ErrInvalidConfig is returned when an accumulator is constructed with invalid configuration.
	ErrInvalidConfig = errors.New("invalid config")
)

// NeedSamples returns ErrUndefinedStatistic for the statistic name if n is smaller than minSamples.
func NeedSamples(name string, n, minSamples uint64) error {
	if n >= minSamples {
		return nil
	}
	return fmt.Errorf("%s needs at least %d samples; got %d: %w", name, minSamples, n, ErrUndefinedStatistic)
}
