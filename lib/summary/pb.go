package summary

import (
	"fmt"

	"github.com/VictoriaMetrics/easyproto"

	"github.com/VictoriaMetrics/streamstats/lib/extrema"
	"github.com/VictoriaMetrics/streamstats/lib/histogram"
	"github.com/VictoriaMetrics/streamstats/lib/moments"
	"github.com/VictoriaMetrics/streamstats/lib/numeric"
	"github.com/VictoriaMetrics/streamstats/lib/quantile"
)

var mp easyproto.MarshalerPool

// MarshalProtobuf appends protobuf-encoded s to dst and returns the result.
//
//	message Summary {
//		string value_type = 1;
//		Extrema extrema = 2;
//		MeanVariance mean_variance = 3;
//		Moments moments = 4;
//		Quantile quantile = 5;
//		MomentsN moments_n = 6;
//		Histogram histogram = 7;
//	}
func (s *Summary[F]) MarshalProtobuf(dst []byte) []byte {
	m := mp.Get()
	mm := m.MessageMarshaler()
	mm.AppendString(1, s.valueType)
	mm.AppendBytes(2, s.extrema.MarshalProtobuf(nil))
	mm.AppendBytes(3, s.mv.MarshalProtobuf(nil))
	mm.AppendBytes(4, s.moments.MarshalProtobuf(nil))
	mm.AppendBytes(5, s.quantile.MarshalProtobuf(nil))
	if s.momentsN != nil {
		mm.AppendBytes(6, s.momentsN.MarshalProtobuf(nil))
	}
	if s.hist != nil {
		mm.AppendBytes(7, s.hist.MarshalProtobuf(nil))
	}
	dst = m.Marshal(dst)
	mp.Put(m)
	return dst
}

// UnmarshalProtobuf replaces s with the protobuf-encoded state from src.
//
// The encoded summary must have the same scalar type as s.
func (s *Summary[F]) UnmarshalProtobuf(src []byte) (err error) {
	var sNew Summary[F]
	sNew.valueType = valueTypeOf[F]()
	sNew.extrema = extrema.New[F]()
	hasQuantile := false

	var fc easyproto.FieldContext
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return fmt.Errorf("cannot read next field in Summary message: %w", err)
		}
		switch fc.FieldNum {
		case 1:
			valueType, ok := fc.String()
			if !ok {
				return fmt.Errorf("cannot read value_type")
			}
			if valueType != sNew.valueType {
				return fmt.Errorf("cannot unmarshal %s summary into %s summary: %w", valueType, sNew.valueType, errValueTypeMismatch)
			}
		case 2:
			data, ok := fc.MessageData()
			if !ok {
				return fmt.Errorf("cannot read extrema data")
			}
			if err := sNew.extrema.UnmarshalProtobuf(data); err != nil {
				return fmt.Errorf("cannot unmarshal extrema: %w", err)
			}
		case 3:
			data, ok := fc.MessageData()
			if !ok {
				return fmt.Errorf("cannot read mean_variance data")
			}
			if err := sNew.mv.UnmarshalProtobuf(data); err != nil {
				return fmt.Errorf("cannot unmarshal mean_variance: %w", err)
			}
		case 4:
			data, ok := fc.MessageData()
			if !ok {
				return fmt.Errorf("cannot read moments data")
			}
			if err := sNew.moments.UnmarshalProtobuf(data); err != nil {
				return fmt.Errorf("cannot unmarshal moments: %w", err)
			}
		case 5:
			data, ok := fc.MessageData()
			if !ok {
				return fmt.Errorf("cannot read quantile data")
			}
			sNew.quantile = &quantile.Quantile[F]{}
			if err := sNew.quantile.UnmarshalProtobuf(data); err != nil {
				return fmt.Errorf("cannot unmarshal quantile: %w", err)
			}
			hasQuantile = true
		case 6:
			data, ok := fc.MessageData()
			if !ok {
				return fmt.Errorf("cannot read moments_n data")
			}
			sNew.momentsN = &moments.MomentsN[F]{}
			if err := sNew.momentsN.UnmarshalProtobuf(data); err != nil {
				return fmt.Errorf("cannot unmarshal moments_n: %w", err)
			}
		case 7:
			data, ok := fc.MessageData()
			if !ok {
				return fmt.Errorf("cannot read histogram data")
			}
			sNew.hist = &histogram.Histogram[F]{}
			if err := sNew.hist.UnmarshalProtobuf(data); err != nil {
				return fmt.Errorf("cannot unmarshal histogram: %w", err)
			}
		}
	}
	if !hasQuantile {
		return fmt.Errorf("missing quantile field")
	}

	// All the accumulators observe the same samples.
	n := sNew.mv.Count()
	if sNew.moments.Count() != n || sNew.quantile.Count() != n {
		return fmt.Errorf("inconsistent sample counts; mean_variance=%d, moments=%d, quantile=%d",
			n, sNew.moments.Count(), sNew.quantile.Count())
	}
	if sNew.momentsN != nil && sNew.momentsN.Count() != n {
		return fmt.Errorf("inconsistent sample counts; mean_variance=%d, moments_n=%d", n, sNew.momentsN.Count())
	}
	*s = sNew
	return nil
}

// Unmarshal returns an Accumulator for the protobuf-encoded summary in src.
//
// The scalar type of the returned Accumulator is taken from src.
func Unmarshal(src []byte) (Accumulator, error) {
	valueType, err := readValueType(src)
	if err != nil {
		return nil, err
	}
	var a Accumulator
	switch valueType {
	case ValueTypeFloat32:
		a = &Summary[float32]{}
	case ValueTypeFloat64:
		a = &Summary[float64]{}
	default:
		return nil, fmt.Errorf("unsupported value_type %q: %w", valueType, numeric.ErrInvalidConfig)
	}
	if err := a.UnmarshalProtobuf(src); err != nil {
		return nil, err
	}
	return a, nil
}

func readValueType(src []byte) (string, error) {
	var fc easyproto.FieldContext
	for len(src) > 0 {
		var err error
		src, err = fc.NextField(src)
		if err != nil {
			return "", fmt.Errorf("cannot read next field in Summary message: %w", err)
		}
		if fc.FieldNum == 1 {
			valueType, ok := fc.String()
			if !ok {
				return "", fmt.Errorf("cannot read value_type")
			}
			return valueType, nil
		}
	}
	return "", fmt.Errorf("missing value_type field")
}

var (
	_ Accumulator = (*Summary[float64])(nil)
	_ Accumulator = (*Summary[float32])(nil)
)
