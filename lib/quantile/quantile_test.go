package quantile

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/valyala/fastrand"
	"github.com/valyala/histogram"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

func TestQuantileReference(t *testing.T) {
	observations := []float64{
		0.02, 0.5, 0.74, 3.39, 0.83,
		22.37, 10.15, 15.43, 38.62, 15.92,
		34.60, 10.28, 1.47, 0.40, 0.05,
		11.39, 0.27, 0.42, 0.09, 11.37,
	}
	q := mustNew(t, 0.5)
	for _, x := range observations {
		q.Add(x)
	}
	if diff := cmp.Diff([]int64{1, 6, 10, 16, 20}, q.positions); diff != "" {
		t.Fatalf("unexpected marker positions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 5.75, 10.5, 15.25, 20}, q.desired); diff != "" {
		t.Fatalf("unexpected desired marker positions (-want +got):\n%s", diff)
	}
	if q.Count() != 20 {
		t.Fatalf("unexpected count; got %d; want 20", q.Count())
	}
	v, err := q.Quantile()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if math.Abs(v-4.2462394088036435) > 1e-12 {
		t.Fatalf("unexpected median; got %v; want 4.2462394088036435", v)
	}
}

func TestQuantileFillPhase(t *testing.T) {
	f := func(samples []float64, p, resultExpected float64) {
		t.Helper()
		q := mustNew(t, p)
		for _, x := range samples {
			q.Add(x)
		}
		v, err := q.Quantile()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if v != resultExpected {
			t.Fatalf("unexpected quantile %v for %v; got %v; want %v", p, samples, v, resultExpected)
		}
	}

	f([]float64{1}, 0.5, 1)
	f([]float64{1, 2}, 0.5, 1.5)
	f([]float64{2, 1}, 0.5, 1.5)
	f([]float64{1, 2, 3}, 0.5, 2)
	f([]float64{4, 3, 2, 1}, 0.5, 2.5)
	f([]float64{1, 2, 3, 4}, 0, 1)
	f([]float64{1, 2, 3, 4}, 1, 4)
	f([]float64{1, 2, 3, 4, 5}, 0.5, 3)
}

func TestQuantileEmpty(t *testing.T) {
	q := mustNew(t, 0.9)
	if !q.IsEmpty() {
		t.Fatalf("new estimator must be empty")
	}
	if _, err := q.Quantile(); !errors.Is(err, numeric.ErrUndefinedStatistic) {
		t.Fatalf("expecting ErrUndefinedStatistic; got %v", err)
	}
	if _, err := q.Min(); !errors.Is(err, numeric.ErrUndefinedStatistic) {
		t.Fatalf("expecting ErrUndefinedStatistic; got %v", err)
	}

	// NaN samples are ignored
	q.Add(math.NaN())
	if !q.IsEmpty() {
		t.Fatalf("estimator must remain empty after adding NaN")
	}
	if _, err := q.QuantileAt(1); err == nil {
		t.Fatalf("expecting non-nil error for out of range quantile index")
	}
}

func TestNewInvalidConfig(t *testing.T) {
	f := func(ps ...float64) {
		t.Helper()
		if _, err := NewMulti(ps...); !errors.Is(err, numeric.ErrInvalidConfig) {
			t.Fatalf("expecting ErrInvalidConfig for %v; got %v", ps, err)
		}
	}

	f()
	f(-0.1)
	f(1.1)
	f(math.NaN())
	f(0.5, 0.5)
	f(0.9, 0.1)
	f(0.1, math.Inf(1))
}

func TestQuantileMarkers(t *testing.T) {
	q := mustNew(t, 0.5)
	if q.Markers() != 5 {
		t.Fatalf("unexpected number of markers; got %d; want 5", q.Markers())
	}
	q, err := NewMulti(0.1, 0.5, 0.9)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if q.Markers() != 9 {
		t.Fatalf("unexpected number of markers; got %d; want 9", q.Markers())
	}
	if diff := cmp.Diff([]float64{0, 0.05, 0.1, 0.3, 0.5, 0.7, 0.9, 0.95, 1}, q.increments); diff != "" {
		t.Fatalf("unexpected marker probabilities (-want +got):\n%s", diff)
	}
}

func TestQuantileSortedSequence(t *testing.T) {
	q := mustNew(t, 0.5)
	for i := 1; i <= 10000; i++ {
		q.Add(float64(i))
	}
	v, _ := q.Quantile()
	if math.Abs(v-5000) > 50 {
		t.Fatalf("median estimate is too far from 5000; got %v", v)
	}
	minV, _ := q.Min()
	maxV, _ := q.Max()
	if minV != 1 || maxV != 10000 {
		t.Fatalf("unexpected min and max; got %v and %v; want 1 and 10000", minV, maxV)
	}
}

func TestQuantileExtremeProbabilities(t *testing.T) {
	q, err := NewMulti[float64](0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for _, x := range shuffledSequence(1000) {
		q.Add(x)
	}
	vs, err := q.Quantiles(nil)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if diff := cmp.Diff([]float64{1, 1000}, vs); diff != "" {
		t.Fatalf("unexpected quantiles (-want +got):\n%s", diff)
	}
}

func TestQuantileAgainstHistogram(t *testing.T) {
	phis := []float64{0.1, 0.5, 0.9, 0.99}
	q, err := NewMulti(phis...)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	h := histogram.NewFast()
	var rng fastrand.RNG
	rng.Seed(42)
	for i := 0; i < 100000; i++ {
		x := float64(rng.Uint32n(1e6)) / 1e3
		q.Add(x)
		h.Update(x)
	}
	for i, phi := range phis {
		got, err := q.QuantileAt(i)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		want := h.Quantile(phi)
		if math.Abs(got-want) > 60 {
			t.Fatalf("unexpected estimate for quantile %v; got %v; want %v", phi, got, want)
		}
	}
}

func TestQuantileFloat32(t *testing.T) {
	q, err := New[float32](0.5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	for _, x := range shuffledSequence(10000) {
		q.Add(float32(x))
	}
	v, _ := q.Quantile()
	if math.Abs(float64(v)-5000) > 200 {
		t.Fatalf("median estimate is too far from 5000; got %v", v)
	}
}

func mustNew(t *testing.T, p float64) *Quantile[float64] {
	t.Helper()
	q, err := New(p)
	if err != nil {
		t.Fatalf("cannot create estimator: %s", err)
	}
	return q
}

// shuffledSequence returns 1..n in pseudo-random order.
func shuffledSequence(n int) []float64 {
	a := make([]float64, n)
	for i := range a {
		a[i] = float64(i + 1)
	}
	var rng fastrand.RNG
	rng.Seed(uint32(n))
	for i := len(a) - 1; i > 0; i-- {
		j := int(rng.Uint32n(uint32(i + 1)))
		a[i], a[j] = a[j], a[i]
	}
	return a
}
