package quantile

import (
	"fmt"

	"github.com/VictoriaMetrics/easyproto"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

var mp easyproto.MarshalerPool

// MarshalProtobuf appends protobuf-encoded q to dst and returns the result.
//
//	message Quantile {
//		repeated double probs = 1;
//		fixed64 count = 2;
//		repeated double heights = 3;
//		repeated fixed64 positions = 4;
//		repeated double desired = 5;
//	}
//
// positions and desired are omitted while q buffers raw samples.
func (q *Quantile[F]) MarshalProtobuf(dst []byte) []byte {
	m := mp.Get()
	mm := m.MessageMarshaler()
	mm.AppendDoubles(1, toFloat64s(nil, q.probs))
	mm.AppendFixed64(2, q.n)
	mm.AppendDoubles(3, toFloat64s(nil, q.heights))
	if !q.inFillPhase() {
		positions := make([]uint64, len(q.positions))
		for i, p := range q.positions {
			positions[i] = uint64(p)
		}
		mm.AppendFixed64s(4, positions)
		mm.AppendDoubles(5, toFloat64s(nil, q.desired))
	}
	dst = m.Marshal(dst)
	mp.Put(m)
	return dst
}

// UnmarshalProtobuf replaces q with the protobuf-encoded state from src.
func (q *Quantile[F]) UnmarshalProtobuf(src []byte) (err error) {
	var (
		probs     []float64
		n         uint64
		heights   []float64
		positions []uint64
		desired   []float64
	)
	var fc easyproto.FieldContext
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return fmt.Errorf("cannot read next field in Quantile message: %w", err)
		}
		var ok bool
		switch fc.FieldNum {
		case 1:
			probs, ok = fc.UnpackDoubles(probs)
			if !ok {
				return fmt.Errorf("cannot read probs")
			}
		case 2:
			n, ok = fc.Fixed64()
			if !ok {
				return fmt.Errorf("cannot read count")
			}
		case 3:
			heights, ok = fc.UnpackDoubles(heights)
			if !ok {
				return fmt.Errorf("cannot read heights")
			}
		case 4:
			positions, ok = fc.UnpackFixed64s(positions)
			if !ok {
				return fmt.Errorf("cannot read positions")
			}
		case 5:
			desired, ok = fc.UnpackDoubles(desired)
			if !ok {
				return fmt.Errorf("cannot read desired")
			}
		}
	}

	ps := make([]F, len(probs))
	for i, p := range probs {
		ps[i] = F(p)
	}
	qNew, err := NewMulti(ps...)
	if err != nil {
		return fmt.Errorf("cannot restore quantile estimator: %w", err)
	}
	markers := qNew.Markers()
	if n < uint64(markers) {
		if uint64(len(heights)) != n {
			return fmt.Errorf("unexpected number of buffered samples; got %d; want %d", len(heights), n)
		}
		qNew.heights = qNew.heights[:0]
		for _, h := range heights {
			qNew.heights = append(qNew.heights, F(h))
		}
		qNew.n = n
		*q = *qNew
		return nil
	}

	if len(heights) != markers || len(positions) != markers || len(desired) != markers {
		return fmt.Errorf("unexpected number of markers; got heights=%d, positions=%d, desired=%d; want %d",
			len(heights), len(positions), len(desired), markers)
	}
	if positions[0] != 1 || positions[markers-1] != n {
		return fmt.Errorf("unexpected positions of the first and the last markers; got %d and %d; want 1 and %d", positions[0], positions[markers-1], n)
	}
	qNew.heights = qNew.heights[:markers]
	for i := 0; i < markers; i++ {
		if i > 0 {
			if positions[i] <= positions[i-1] {
				return fmt.Errorf("marker positions must increase; got %d after %d", positions[i], positions[i-1])
			}
			if heights[i] < heights[i-1] {
				return fmt.Errorf("marker heights mustn't decrease; got %v after %v", heights[i], heights[i-1])
			}
		}
		qNew.heights[i] = F(heights[i])
		qNew.positions[i] = int64(positions[i])
		qNew.desired[i] = F(desired[i])
	}
	qNew.n = n
	*q = *qNew
	return nil
}

func toFloat64s[F numeric.Float](dst []float64, a []F) []float64 {
	for _, v := range a {
		dst = append(dst, numeric.ToFloat64(v))
	}
	return dst
}
