package moments

import (
	"fmt"

	"github.com/VictoriaMetrics/easyproto"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

var mp easyproto.MarshalerPool

// MarshalProtobuf appends protobuf-encoded m to dst and returns the result.
//
//	message Moments {
//		fixed64 count = 1;
//		double mean = 2;
//		double m2 = 3;
//		double m3 = 4;
//		double m4 = 5;
//	}
func (m *Moments[F]) MarshalProtobuf(dst []byte) []byte {
	pm := mp.Get()
	mm := pm.MessageMarshaler()
	mm.AppendFixed64(1, m.n)
	mm.AppendDouble(2, numeric.ToFloat64(m.mean))
	mm.AppendDouble(3, numeric.ToFloat64(m.m2))
	mm.AppendDouble(4, numeric.ToFloat64(m.m3))
	mm.AppendDouble(5, numeric.ToFloat64(m.m4))
	dst = pm.Marshal(dst)
	mp.Put(pm)
	return dst
}

// UnmarshalProtobuf replaces m with the protobuf-encoded state from src.
func (m *Moments[F]) UnmarshalProtobuf(src []byte) (err error) {
	*m = Moments[F]{}
	var fc easyproto.FieldContext
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return fmt.Errorf("cannot read next field in Moments message: %w", err)
		}
		switch fc.FieldNum {
		case 1:
			n, ok := fc.Fixed64()
			if !ok {
				return fmt.Errorf("cannot read count")
			}
			m.n = n
		case 2, 3, 4, 5:
			v, ok := fc.Double()
			if !ok {
				return fmt.Errorf("cannot read field #%d", fc.FieldNum)
			}
			switch fc.FieldNum {
			case 2:
				m.mean = F(v)
			case 3:
				m.m2 = F(v)
			case 4:
				m.m3 = F(v)
			case 5:
				m.m4 = F(v)
			}
		}
	}
	if m.m2 < 0 {
		return fmt.Errorf("m2 cannot be negative; got %v", m.m2)
	}
	return nil
}

// MarshalProtobuf appends protobuf-encoded m to dst and returns the result.
//
//	message MomentsN {
//		uint32 order = 1;
//		fixed64 count = 2;
//		double mean = 3;
//		repeated double sums = 4;
//	}
func (m *MomentsN[F]) MarshalProtobuf(dst []byte) []byte {
	pm := mp.Get()
	mm := pm.MessageMarshaler()
	mm.AppendUint32(1, uint32(m.Order()))
	mm.AppendFixed64(2, m.n)
	mm.AppendDouble(3, numeric.ToFloat64(m.mean))
	sums := make([]float64, len(m.m))
	for i, v := range m.m {
		sums[i] = numeric.ToFloat64(v)
	}
	mm.AppendDoubles(4, sums)
	dst = pm.Marshal(dst)
	mp.Put(pm)
	return dst
}

// UnmarshalProtobuf replaces m with the protobuf-encoded state from src.
func (m *MomentsN[F]) UnmarshalProtobuf(src []byte) (err error) {
	var (
		order uint32
		n     uint64
		mean  float64
		sums  []float64
	)
	var fc easyproto.FieldContext
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return fmt.Errorf("cannot read next field in MomentsN message: %w", err)
		}
		var ok bool
		switch fc.FieldNum {
		case 1:
			order, ok = fc.Uint32()
			if !ok {
				return fmt.Errorf("cannot read order")
			}
		case 2:
			n, ok = fc.Fixed64()
			if !ok {
				return fmt.Errorf("cannot read count")
			}
		case 3:
			mean, ok = fc.Double()
			if !ok {
				return fmt.Errorf("cannot read mean")
			}
		case 4:
			sums, ok = fc.UnpackDoubles(sums)
			if !ok {
				return fmt.Errorf("cannot read sums")
			}
		}
	}

	if order < 2 || order > MaxOrder {
		return fmt.Errorf("unexpected order %d; must be in the range [2..%d]", order, MaxOrder)
	}
	if len(sums) != int(order)-1 {
		return fmt.Errorf("unexpected number of central moment sums for order %d; got %d; want %d", order, len(sums), order-1)
	}
	if sums[0] < 0 {
		return fmt.Errorf("second order sum cannot be negative; got %v", sums[0])
	}
	m.n = n
	m.mean = F(mean)
	m.m = make([]F, len(sums))
	for i, v := range sums {
		m.m[i] = F(v)
	}
	return nil
}
