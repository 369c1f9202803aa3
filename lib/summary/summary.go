// Package summary composes streaming accumulators into a single mergeable summary of a sample stream.
package summary

import (
	"errors"
	"fmt"
	"slices"

	"github.com/VictoriaMetrics/streamstats/lib/extrema"
	"github.com/VictoriaMetrics/streamstats/lib/histogram"
	"github.com/VictoriaMetrics/streamstats/lib/logger"
	"github.com/VictoriaMetrics/streamstats/lib/meanvar"
	"github.com/VictoriaMetrics/streamstats/lib/moments"
	"github.com/VictoriaMetrics/streamstats/lib/numeric"
	"github.com/VictoriaMetrics/streamstats/lib/quantile"
)

// Summary tracks extrema, mean, variance, moments, quantiles and optionally
// higher-order moments and a histogram of the registered samples.
type Summary[F numeric.Float] struct {
	valueType string

	extrema  *extrema.Extrema[F]
	mv       meanvar.MeanVariance[F]
	moments  moments.Moments[F]
	quantile *quantile.Quantile[F]

	// momentsN and hist are nil if they are disabled in the config.
	momentsN *moments.MomentsN[F]
	hist     *histogram.Histogram[F]
}

// New returns a summary for the given cfg.
//
// The cfg.ValueType is ignored: it is determined by F.
func New[F numeric.Float](cfg *Config) (*Summary[F], error) {
	ps := make([]F, len(cfg.Quantiles))
	for i, p := range cfg.Quantiles {
		ps[i] = F(p)
	}
	q, err := quantile.NewMulti(ps...)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize quantiles: %w", err)
	}
	s := &Summary[F]{
		valueType: valueTypeOf[F](),
		extrema:   extrema.New[F](),
		quantile:  q,
	}
	if cfg.MomentsOrder > 0 {
		s.momentsN, err = moments.NewN[F](cfg.MomentsOrder)
		if err != nil {
			return nil, fmt.Errorf("cannot initialize moments: %w", err)
		}
	}
	if hc := cfg.Histogram; hc != nil {
		s.hist, err = newHistogram[F](hc)
		if err != nil {
			return nil, fmt.Errorf("cannot initialize histogram: %w", err)
		}
	}
	return s, nil
}

func newHistogram[F numeric.Float](hc *HistogramConfig) (*histogram.Histogram[F], error) {
	if len(hc.Edges) > 0 {
		edges := make([]F, len(hc.Edges))
		for i, e := range hc.Edges {
			edges[i] = F(e)
		}
		return histogram.New(edges)
	}
	if hc.Start == nil || hc.End == nil {
		return nil, fmt.Errorf("missing histogram start or end: %w", numeric.ErrInvalidConfig)
	}
	return histogram.NewUniform(F(*hc.Start), F(*hc.End), hc.Bins)
}

func valueTypeOf[F numeric.Float]() string {
	var x F
	switch any(x).(type) {
	case float32:
		return ValueTypeFloat32
	case float64:
		return ValueTypeFloat64
	}
	// Named types derived from float32 have 4-byte values.
	if F(1)+F(1e-9) == F(1) {
		return ValueTypeFloat32
	}
	return ValueTypeFloat64
}

// Add registers x in s.
//
// NaN samples are rejected with numeric.ErrSampleOutOfRange without updating s.
// Samples outside the histogram range are registered in all the other accumulators,
// while numeric.ErrSampleOutOfRange is returned.
func (s *Summary[F]) Add(x F) error {
	if numeric.IsNaN(x) {
		return fmt.Errorf("cannot register NaN sample: %w", numeric.ErrSampleOutOfRange)
	}
	s.extrema.Add(x)
	s.mv.Add(x)
	s.moments.Add(x)
	s.quantile.Add(x)
	if s.momentsN != nil {
		s.momentsN.Add(x)
	}
	if s.hist != nil {
		return s.hist.Add(x)
	}
	return nil
}

// Merge merges src into s.
//
// numeric.ErrIncompatibleMerge is returned without modifying s if src is built with a different config.
func (s *Summary[F]) Merge(src *Summary[F]) error {
	if err := s.checkCompatible(src); err != nil {
		return err
	}
	s.extrema.Merge(src.extrema)
	s.mv.Merge(&src.mv)
	s.moments.Merge(&src.moments)
	if err := s.quantile.Merge(src.quantile); err != nil {
		logger.Panicf("BUG: unexpected error when merging compatible quantiles: %s", err)
	}
	if s.momentsN != nil {
		if err := s.momentsN.Merge(src.momentsN); err != nil {
			logger.Panicf("BUG: unexpected error when merging compatible moments: %s", err)
		}
	}
	if s.hist != nil {
		if err := s.hist.Merge(src.hist); err != nil {
			logger.Panicf("BUG: unexpected error when merging compatible histograms: %s", err)
		}
	}
	return nil
}

func (s *Summary[F]) checkCompatible(src *Summary[F]) error {
	if !slices.Equal(s.quantile.Probabilities(), src.quantile.Probabilities()) {
		return fmt.Errorf("cannot merge summary with quantiles %v into summary with quantiles %v: %w",
			src.quantile.Probabilities(), s.quantile.Probabilities(), numeric.ErrIncompatibleMerge)
	}
	if s.momentsOrder() != src.momentsOrder() {
		return fmt.Errorf("cannot merge summary with momentsOrder=%d into summary with momentsOrder=%d: %w",
			src.momentsOrder(), s.momentsOrder(), numeric.ErrIncompatibleMerge)
	}
	if (s.hist == nil) != (src.hist == nil) {
		return fmt.Errorf("cannot merge summaries with and without histogram: %w", numeric.ErrIncompatibleMerge)
	}
	if s.hist != nil && !equalBits(s.hist.Edges(), src.hist.Edges()) {
		return fmt.Errorf("cannot merge histogram with edges %v into histogram with edges %v: %w",
			src.hist.Edges(), s.hist.Edges(), numeric.ErrIncompatibleMerge)
	}
	return nil
}

func equalBits[F numeric.Float](a, b []F) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if numeric.Bits(a[i]) != numeric.Bits(b[i]) {
			return false
		}
	}
	return true
}

func (s *Summary[F]) momentsOrder() int {
	if s.momentsN == nil {
		return 0
	}
	return s.momentsN.Order()
}

// Count returns the number of registered samples.
func (s *Summary[F]) Count() uint64 {
	return s.mv.Count()
}

// Config returns the config s was built with.
//
// Histogram bins are always returned as edges.
func (s *Summary[F]) Config() *Config {
	cfg := &Config{
		ValueType:    s.valueType,
		Quantiles:    toFloat64s(s.quantile.Probabilities()),
		MomentsOrder: s.momentsOrder(),
	}
	if s.hist != nil {
		cfg.Histogram = &HistogramConfig{
			Edges: toFloat64s(s.hist.Edges()),
		}
	}
	return cfg
}

func toFloat64s[F numeric.Float](a []F) []float64 {
	dst := make([]float64, len(a))
	for i, v := range a {
		dst[i] = numeric.ToFloat64(v)
	}
	return dst
}

// Accumulator is a Summary with the scalar type hidden behind float64 samples.
//
// It allows selecting the scalar type at runtime via Config.ValueType.
type Accumulator interface {
	// AddFloat64 registers x converted to the summary scalar type.
	AddFloat64(x float64) error

	// MergeAccumulator merges src into the accumulator.
	MergeAccumulator(src Accumulator) error

	Count() uint64
	Config() *Config
	Report() *Report

	MarshalProtobuf(dst []byte) []byte
	UnmarshalProtobuf(src []byte) error
}

// NewAccumulator returns an Accumulator for cfg.
func NewAccumulator(cfg *Config) (Accumulator, error) {
	switch cfg.ValueType {
	case ValueTypeFloat32:
		return New[float32](cfg)
	case ValueTypeFloat64, "":
		return New[float64](cfg)
	default:
		return nil, fmt.Errorf("unsupported valueType %q: %w", cfg.ValueType, numeric.ErrInvalidConfig)
	}
}

// AddFloat64 implements Accumulator.
func (s *Summary[F]) AddFloat64(x float64) error {
	return s.Add(F(x))
}

// MergeAccumulator implements Accumulator.
func (s *Summary[F]) MergeAccumulator(src Accumulator) error {
	ss, ok := src.(*Summary[F])
	if !ok {
		return fmt.Errorf("cannot merge %s summary into %s summary: %w", src.Config().ValueType, s.valueType, numeric.ErrIncompatibleMerge)
	}
	return s.Merge(ss)
}

// errValueTypeMismatch is returned by UnmarshalProtobuf when the encoded summary has another scalar type.
var errValueTypeMismatch = errors.New("value type mismatch")
