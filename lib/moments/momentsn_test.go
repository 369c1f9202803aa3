package moments

import (
	"errors"
	"math"
	"testing"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

func TestNewNInvalidOrder(t *testing.T) {
	f := func(order int) {
		t.Helper()
		if _, err := NewN[float64](order); !errors.Is(err, numeric.ErrInvalidConfig) {
			t.Fatalf("expecting ErrInvalidConfig for order %d; got %v", order, err)
		}
	}

	f(-1)
	f(0)
	f(1)
	f(MaxOrder + 1)
}

func TestMomentsNMatchesMoments(t *testing.T) {
	samples := randomSamples(5000)
	mn, err := NewN[float64](4)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var m Moments[float64]
	for _, x := range samples {
		mn.Add(x)
		m.Add(x)
	}
	if mn.Count() != m.Count() {
		t.Fatalf("unexpected count; got %d; want %d", mn.Count(), m.Count())
	}
	for k := 0; k <= 4; k++ {
		got, err := mn.CentralMoment(k)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		want, _ := m.CentralMoment(k)
		if !almostEqual(got, want, 1e-9) {
			t.Fatalf("unexpected central moment of order %d; got %v; want %v", k, got, want)
		}
	}
}

func TestMomentsNAgainstTwoPass(t *testing.T) {
	samples := randomSamples(500)
	const order = 6
	mn, _ := NewN[float64](order)
	for _, x := range samples {
		mn.Add(x)
	}

	var mean float64
	for _, x := range samples {
		mean += x
	}
	mean /= float64(len(samples))
	for k := 2; k <= order; k++ {
		var want float64
		for _, x := range samples {
			want += math.Pow(x-mean, float64(k))
		}
		want /= float64(len(samples))
		got, _ := mn.CentralMoment(k)
		if !almostEqual(got, want, 1e-9) {
			t.Fatalf("unexpected central moment of order %d; got %v; want %v", k, got, want)
		}
	}
	v, err := mn.Variance()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	cm2, _ := mn.CentralMoment(2)
	if !almostEqual(v, cm2*float64(len(samples))/float64(len(samples)-1), 1e-12) {
		t.Fatalf("unexpected variance; got %v", v)
	}
}

func TestMomentsNMerge(t *testing.T) {
	samples := randomSamples(1000)
	const order = 5
	f := func(split int) {
		t.Helper()
		all, _ := NewN[float64](order)
		a, _ := NewN[float64](order)
		b, _ := NewN[float64](order)
		for i, x := range samples {
			all.Add(x)
			if i < split {
				a.Add(x)
			} else {
				b.Add(x)
			}
		}
		if err := a.Merge(b); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if a.Count() != all.Count() {
			t.Fatalf("unexpected count; got %d; want %d", a.Count(), all.Count())
		}
		for k := 1; k <= order; k++ {
			got, _ := a.CentralMoment(k)
			want, _ := all.CentralMoment(k)
			if !almostEqual(got, want, 1e-9) {
				t.Fatalf("unexpected central moment of order %d at split %d; got %v; want %v", k, split, got, want)
			}
		}
	}

	f(0)
	f(1)
	f(333)
	f(999)
	f(1000)
}

func TestMomentsNMergeIncompatible(t *testing.T) {
	a, _ := NewN[float64](3)
	b, _ := NewN[float64](4)
	b.Add(1)
	if err := a.Merge(b); !errors.Is(err, numeric.ErrIncompatibleMerge) {
		t.Fatalf("expecting ErrIncompatibleMerge; got %v", err)
	}
	if !a.IsEmpty() {
		t.Fatalf("failed merge mustn't modify the destination")
	}
}

func TestMomentsNStandardizedMoment(t *testing.T) {
	mn, _ := NewN[float64](4)
	var m Moments[float64]
	for _, x := range []float64{1, 2, 3, 4, 5, 1} {
		mn.Add(x)
		m.Add(x)
	}
	for k := 0; k <= 4; k++ {
		got, err := mn.StandardizedMoment(k)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		want, _ := m.StandardizedMoment(k)
		if !almostEqual(got, want, 1e-14) {
			t.Fatalf("unexpected standardized moment of order %d; got %v; want %v", k, got, want)
		}
	}
	if _, err := mn.CentralMoment(5); !errors.Is(err, numeric.ErrInvalidConfig) {
		t.Fatalf("expecting ErrInvalidConfig for untracked order; got %v", err)
	}
}

func TestMomentsNMarshalUnmarshal(t *testing.T) {
	samples := randomSamples(100)
	mn, _ := NewN[float32](5)
	twin, _ := NewN[float32](5)
	for _, x := range samples[:50] {
		mn.Add(float32(x))
		twin.Add(float32(x))
	}
	var restored MomentsN[float32]
	if err := restored.UnmarshalProtobuf(mn.MarshalProtobuf(nil)); err != nil {
		t.Fatalf("cannot unmarshal MomentsN: %s", err)
	}
	if restored.Order() != 5 {
		t.Fatalf("unexpected order; got %d; want 5", restored.Order())
	}
	for _, x := range samples[50:] {
		restored.Add(float32(x))
		twin.Add(float32(x))
	}
	if restored.n != twin.n || restored.mean != twin.mean {
		t.Fatalf("restored accumulator diverged; got %+v; want %+v", restored, *twin)
	}
	for i := range twin.m {
		if restored.m[i] != twin.m[i] {
			t.Fatalf("restored sum #%d diverged; got %v; want %v", i, restored.m[i], twin.m[i])
		}
	}

	var m Moments[float64]
	if err := restored.UnmarshalProtobuf(m.MarshalProtobuf(nil)); err == nil {
		t.Fatalf("expecting non-nil error when unmarshaling Moments into MomentsN")
	}
}

func TestMomentsNMergeOrder(t *testing.T) {
	const order = 6
	newMomentsN := func(samples []float64) *MomentsN[float64] {
		m, err := NewN[float64](order)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		for _, x := range samples {
			m.Add(x)
		}
		return m
	}
	merge := func(a, b *MomentsN[float64]) *MomentsN[float64] {
		dst := newMomentsN(nil)
		if err := dst.Merge(a); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if err := dst.Merge(b); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		return dst
	}
	assertEqual := func(kind string, got, want *MomentsN[float64]) {
		t.Helper()
		if got.Count() != want.Count() {
			t.Fatalf("%s: unexpected count; got %d; want %d", kind, got.Count(), want.Count())
		}
		if !almostEqual(got.mean, want.mean, 1e-12) {
			t.Fatalf("%s: unexpected mean; got %v; want %v", kind, got.mean, want.mean)
		}
		for k := 2; k <= order; k++ {
			if !almostEqual(got.m[k-2], want.m[k-2], 1e-9) {
				t.Fatalf("%s: unexpected sum of order %d; got %v; want %v", kind, k, got.m[k-2], want.m[k-2])
			}
		}
	}
	f := func(a, b, c *MomentsN[float64]) {
		t.Helper()
		assertEqual("commutativity", merge(a, b), merge(b, a))
		assertEqual("associativity", merge(merge(a, b), c), merge(a, merge(b, c)))
	}

	samples := randomSamples(800)
	f(newMomentsN(samples[:50]), newMomentsN(samples[50:500]), newMomentsN(samples[500:]))
	f(newMomentsN(nil), newMomentsN(samples[:1]), newMomentsN(samples[1:3]))
	f(newMomentsN(samples[:7]), newMomentsN(nil), newMomentsN(nil))
}
