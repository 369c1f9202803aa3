package extrema

import (
	"fmt"

	"github.com/VictoriaMetrics/easyproto"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// MarshalProtobuf appends protobuf-encoded e to dst and returns the result.
//
//	message Extrema {
//		double min = 1;
//		double max = 2;
//	}
//
// Both fields are omitted for an empty e.
func (e *Extrema[F]) MarshalProtobuf(dst []byte) []byte {
	m := mp.Get()
	e.marshalProtobuf(m.MessageMarshaler())
	dst = m.Marshal(dst)
	mp.Put(m)
	return dst
}

var mp easyproto.MarshalerPool

func (e *Extrema[F]) marshalProtobuf(mm *easyproto.MessageMarshaler) {
	if !e.defined {
		return
	}
	mm.AppendDouble(1, numeric.ToFloat64(e.min))
	mm.AppendDouble(2, numeric.ToFloat64(e.max))
}

// UnmarshalProtobuf replaces e with the protobuf-encoded state from src.
func (e *Extrema[F]) UnmarshalProtobuf(src []byte) (err error) {
	*e = Extrema[F]{}
	var hasMin, hasMax bool
	var fc easyproto.FieldContext
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return fmt.Errorf("cannot read next field in Extrema message: %w", err)
		}
		switch fc.FieldNum {
		case 1:
			v, ok := fc.Double()
			if !ok {
				return fmt.Errorf("cannot read min")
			}
			e.min = F(v)
			hasMin = true
		case 2:
			v, ok := fc.Double()
			if !ok {
				return fmt.Errorf("cannot read max")
			}
			e.max = F(v)
			hasMax = true
		}
	}
	if hasMin != hasMax {
		return fmt.Errorf("extrema message must contain both min and max or none of them")
	}
	if hasMin && e.min > e.max {
		return fmt.Errorf("min=%v cannot exceed max=%v", e.min, e.max)
	}
	e.defined = hasMin
	return nil
}
