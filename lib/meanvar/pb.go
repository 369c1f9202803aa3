package meanvar

import (
	"fmt"

	"github.com/VictoriaMetrics/easyproto"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// MarshalProtobuf appends protobuf-encoded mv to dst and returns the result.
//
//	message MeanVariance {
//		fixed64 count = 1;
//		double mean = 2;
//		double sum_sq_dev = 3;
//	}
func (mv *MeanVariance[F]) MarshalProtobuf(dst []byte) []byte {
	m := mp.Get()
	mm := m.MessageMarshaler()
	mm.AppendFixed64(1, mv.n)
	mm.AppendDouble(2, numeric.ToFloat64(mv.mean))
	mm.AppendDouble(3, numeric.ToFloat64(mv.sumSqDev))
	dst = m.Marshal(dst)
	mp.Put(m)
	return dst
}

var mp easyproto.MarshalerPool

// UnmarshalProtobuf replaces mv with the protobuf-encoded state from src.
func (mv *MeanVariance[F]) UnmarshalProtobuf(src []byte) (err error) {
	*mv = MeanVariance[F]{}
	var fc easyproto.FieldContext
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return fmt.Errorf("cannot read next field in MeanVariance message: %w", err)
		}
		switch fc.FieldNum {
		case 1:
			n, ok := fc.Fixed64()
			if !ok {
				return fmt.Errorf("cannot read count")
			}
			mv.n = n
		case 2:
			v, ok := fc.Double()
			if !ok {
				return fmt.Errorf("cannot read mean")
			}
			mv.mean = F(v)
		case 3:
			v, ok := fc.Double()
			if !ok {
				return fmt.Errorf("cannot read sum_sq_dev")
			}
			mv.sumSqDev = F(v)
		}
	}
	if mv.sumSqDev < 0 {
		return fmt.Errorf("sum_sq_dev cannot be negative; got %v", mv.sumSqDev)
	}
	return nil
}
