package histogram

import (
	"fmt"

	"github.com/VictoriaMetrics/easyproto"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

var mp easyproto.MarshalerPool

// MarshalProtobuf appends protobuf-encoded h to dst and returns the result.
//
//	message Histogram {
//		repeated double edges = 1;
//		repeated fixed64 counts = 2;
//		fixed64 fingerprint = 3;
//	}
func (h *Histogram[F]) MarshalProtobuf(dst []byte) []byte {
	m := mp.Get()
	mm := m.MessageMarshaler()
	edges := make([]float64, len(h.edges))
	for i, e := range h.edges {
		edges[i] = numeric.ToFloat64(e)
	}
	mm.AppendDoubles(1, edges)
	mm.AppendFixed64s(2, h.counts)
	mm.AppendFixed64(3, h.fingerprint)
	dst = m.Marshal(dst)
	mp.Put(m)
	return dst
}

// UnmarshalProtobuf replaces h with the protobuf-encoded state from src.
func (h *Histogram[F]) UnmarshalProtobuf(src []byte) (err error) {
	var (
		edges       []float64
		counts      []uint64
		fingerprint uint64
	)
	var fc easyproto.FieldContext
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return fmt.Errorf("cannot read next field in Histogram message: %w", err)
		}
		var ok bool
		switch fc.FieldNum {
		case 1:
			edges, ok = fc.UnpackDoubles(edges)
			if !ok {
				return fmt.Errorf("cannot read edges")
			}
		case 2:
			counts, ok = fc.UnpackFixed64s(counts)
			if !ok {
				return fmt.Errorf("cannot read counts")
			}
		case 3:
			fingerprint, ok = fc.Fixed64()
			if !ok {
				return fmt.Errorf("cannot read fingerprint")
			}
		}
	}

	es := make([]F, len(edges))
	for i, e := range edges {
		es[i] = F(e)
	}
	hNew, err := New(es)
	if err != nil {
		return fmt.Errorf("cannot restore histogram: %w", err)
	}
	if hNew.fingerprint != fingerprint {
		return fmt.Errorf("unexpected edges fingerprint; got %016x; want %016x", hNew.fingerprint, fingerprint)
	}
	if len(counts) != hNew.Bins() {
		return fmt.Errorf("unexpected number of counts; got %d; want %d", len(counts), hNew.Bins())
	}
	copy(hNew.counts, counts)
	*h = *hNew
	return nil
}
