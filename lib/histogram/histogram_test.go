package histogram

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/montanaflynn/stats"
	"github.com/valyala/fastrand"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

func TestNewInvalidEdges(t *testing.T) {
	f := func(edges []float64) {
		t.Helper()
		if _, err := New(edges); !errors.Is(err, numeric.ErrInvalidConfig) {
			t.Fatalf("expecting ErrInvalidConfig for edges %v; got %v", edges, err)
		}
	}

	f(nil)
	f([]float64{1})
	f([]float64{1, 1})
	f([]float64{2, 1})
	f([]float64{0, 1, 1, 2})
	f([]float64{0, math.NaN(), 2})
}

func TestNewUniformInvalid(t *testing.T) {
	f := func(start, end float64, bins int) {
		t.Helper()
		if _, err := NewUniform(start, end, bins); !errors.Is(err, numeric.ErrInvalidConfig) {
			t.Fatalf("expecting ErrInvalidConfig for start=%v, end=%v, bins=%d; got %v", start, end, bins, err)
		}
	}

	f(0, 1, 0)
	f(1, 1, 3)
	f(2, 1, 3)
	f(math.NaN(), 1, 3)
	f(0, math.Inf(1), 3)
}

func TestHistogramAdd(t *testing.T) {
	h := mustNew(t, []float64{0, 1, 2, 3})
	for _, x := range []float64{0.5, 1.5, 1.5, 2.9} {
		if err := h.Add(x); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}
	if diff := cmp.Diff([]uint64{1, 2, 1}, h.Counts(nil)); diff != "" {
		t.Fatalf("unexpected counts (-want +got):\n%s", diff)
	}

	// The last edge is exclusive.
	f := func(x float64) {
		t.Helper()
		if err := h.Add(x); !errors.Is(err, numeric.ErrSampleOutOfRange) {
			t.Fatalf("expecting ErrSampleOutOfRange for %v; got %v", x, err)
		}
	}
	f(3)
	f(-0.1)
	f(100)
	f(math.NaN())
	f(math.Inf(1))
	f(math.Inf(-1))

	if h.Total() != 4 {
		t.Fatalf("rejected samples mustn't be counted; got total %d; want 4", h.Total())
	}

	// Lower edges belong to their bins.
	for _, x := range []float64{0, 1, 2} {
		if err := h.Add(x); err != nil {
			t.Fatalf("unexpected error for %v: %s", x, err)
		}
	}
	if diff := cmp.Diff([]uint64{2, 3, 2}, h.Counts(nil)); diff != "" {
		t.Fatalf("unexpected counts (-want +got):\n%s", diff)
	}
}

func TestHistogramUniform(t *testing.T) {
	h, err := NewUniform(0.0, 100, 10)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if h.Bins() != 10 {
		t.Fatalf("unexpected number of bins; got %d; want 10", h.Bins())
	}
	if err := h.Add(-0.1); !errors.Is(err, numeric.ErrSampleOutOfRange) {
		t.Fatalf("expecting ErrSampleOutOfRange; got %v", err)
	}
	if err := h.Add(0); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := h.Add(100); !errors.Is(err, numeric.ErrSampleOutOfRange) {
		t.Fatalf("expecting ErrSampleOutOfRange; got %v", err)
	}
	for i := 0; i < h.Bins(); i++ {
		if w := h.Width(i); math.Abs(w-10) > 1e-12 {
			t.Fatalf("unexpected width of bin #%d; got %v; want 10", i, w)
		}
	}
	edges := h.Edges()
	if edges[0] != 0 || edges[10] != 100 {
		t.Fatalf("unexpected range; got [%v, %v); want [0, 100)", edges[0], edges[10])
	}
}

func TestHistogramMerge(t *testing.T) {
	a := mustNew(t, []float64{0, 1, 2, 3})
	b := mustNew(t, []float64{0, 1, 2, 3})
	for _, x := range []float64{0.5, 1.5} {
		_ = a.Add(x)
	}
	for _, x := range []float64{1.1, 2.2, 2.5} {
		_ = b.Add(x)
	}
	if err := a.Merge(b); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if diff := cmp.Diff([]uint64{1, 2, 2}, a.Counts(nil)); diff != "" {
		t.Fatalf("unexpected counts (-want +got):\n%s", diff)
	}
	if a.Total() != 5 {
		t.Fatalf("unexpected total; got %d; want 5", a.Total())
	}

	// merging the empty histogram is a no-op
	if err := a.Merge(mustNew(t, []float64{0, 1, 2, 3})); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if a.Total() != 5 {
		t.Fatalf("unexpected total after merging empty histogram; got %d; want 5", a.Total())
	}
}

func TestHistogramMergeIncompatible(t *testing.T) {
	f := func(edgesA, edgesB []float64) {
		t.Helper()
		a := mustNew(t, edgesA)
		b := mustNew(t, edgesB)
		_ = b.Add(edgesB[0])
		if err := a.Merge(b); !errors.Is(err, numeric.ErrIncompatibleMerge) {
			t.Fatalf("expecting ErrIncompatibleMerge; got %v", err)
		}
		if !a.IsEmpty() {
			t.Fatalf("failed merge mustn't modify the destination")
		}
	}

	f([]float64{0, 1, 2, 3}, []float64{0, 1, 2})
	f([]float64{0, 1, 2, 3}, []float64{0, 1, 2, 4})
	f([]float64{0, 1, 2, 3}, []float64{0, math.Nextafter(1, 2), 2, 3})
	f([]float64{math.Copysign(0, -1), 1}, []float64{0, 1})
}

func TestHistogramStats(t *testing.T) {
	h := mustNew(t, []float64{0, 1, 2, 3})
	if _, err := h.Mean(); !errors.Is(err, numeric.ErrUndefinedStatistic) {
		t.Fatalf("expecting ErrUndefinedStatistic; got %v", err)
	}
	if _, err := h.Quantile(0.5); !errors.Is(err, numeric.ErrUndefinedStatistic) {
		t.Fatalf("expecting ErrUndefinedStatistic; got %v", err)
	}
	for _, x := range []float64{0.5, 1.5, 1.5, 2.9} {
		_ = h.Add(x)
	}

	f := func(name string, got, want float64) {
		t.Helper()
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("unexpected %s; got %v; want %v", name, got, want)
		}
	}
	mean, _ := h.Mean()
	f("mean", mean, 1.5)
	pv, _ := h.PopulationVariance()
	f("population variance", pv, 0.5)
	v, _ := h.Variance()
	f("variance", v, 2.0/3)
	f("center", h.Center(1), 1.5)
	f("density", h.Density(1), 2)
	f("bin variance", h.BinVariance(1), 1)

	q, _ := h.Quantile(0.5)
	f("median", q, 1.5)
	q, _ = h.Quantile(0)
	f("quantile 0", q, 0)
	q, _ = h.Quantile(1)
	f("quantile 1", q, 3)
	q, _ = h.Quantile(0.25)
	f("quantile 0.25", q, 1)
	if _, err := h.Quantile(1.5); !errors.Is(err, numeric.ErrInvalidConfig) {
		t.Fatalf("expecting ErrInvalidConfig; got %v", err)
	}

	fr, _ := h.Fraction(-1)
	f("fraction below -1", fr, 0)
	fr, _ = h.Fraction(1.5)
	f("fraction below 1.5", fr, 0.5)
	fr, _ = h.Fraction(2)
	f("fraction below 2", fr, 0.75)
	fr, _ = h.Fraction(3)
	f("fraction below 3", fr, 1)
}

func TestHistogramUnboundedBins(t *testing.T) {
	h := mustNew(t, []float64{math.Inf(-1), 0, 1, math.Inf(1)})

	// Samples in the bounded bin only keep every statistic defined.
	for _, x := range []float64{0.25, 0.75} {
		if err := h.Add(x); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}
	mean, err := h.Mean()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if mean != 0.5 {
		t.Fatalf("unexpected mean; got %v; want 0.5", mean)
	}
	fr, err := h.Fraction(-1)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fr != 0 {
		t.Fatalf("unexpected fraction below -1; got %v; want 0", fr)
	}
	fr, err = h.Fraction(5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fr != 1 {
		t.Fatalf("unexpected fraction below 5; got %v; want 1", fr)
	}

	h = mustNew(t, []float64{math.Inf(-1), 0, 1, math.Inf(1)})
	for _, x := range []float64{-5, 0.5, 7} {
		if err := h.Add(x); err != nil {
			t.Fatalf("unexpected error for %v: %s", x, err)
		}
	}
	f := func(name string, v float64, err error) {
		t.Helper()
		if !errors.Is(err, numeric.ErrUndefinedStatistic) {
			t.Fatalf("expecting ErrUndefinedStatistic from %s; got value %v, error %v", name, v, err)
		}
	}
	v, err := h.Mean()
	f("Mean", v, err)
	v, err = h.Variance()
	f("Variance", v, err)
	v, err = h.PopulationVariance()
	f("PopulationVariance", v, err)
	v, err = h.Quantile(0.1)
	f("Quantile(0.1)", v, err)
	v, err = h.Quantile(1)
	f("Quantile(1)", v, err)
	v, err = h.Fraction(-1)
	f("Fraction(-1)", v, err)

	// The bounded bin still answers quantile and fraction queries.
	q, err := h.Quantile(0.5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if q != 0.5 {
		t.Fatalf("unexpected median; got %v; want 0.5", q)
	}
	fr, err = h.Fraction(0.5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if fr != 0.5 {
		t.Fatalf("unexpected fraction below 0.5; got %v; want 0.5", fr)
	}
}

func TestHistogramBinIndexOutOfRange(t *testing.T) {
	h := mustNew(t, []float64{0, 1, 2})
	f := func(name string, fn func(i int)) {
		t.Helper()
		for _, i := range []int{-1, h.Bins(), 100} {
			func() {
				defer func() {
					r := recover()
					if r == nil {
						t.Fatalf("expecting panic from %s(%d)", name, i)
					}
					err, ok := r.(error)
					if !ok || !strings.HasPrefix(err.Error(), "BUG: ") {
						t.Fatalf("unexpected panic from %s(%d): %v", name, i, r)
					}
				}()
				fn(i)
			}()
		}
	}

	f("Count", func(i int) { h.Count(i) })
	f("Width", func(i int) { h.Width(i) })
	f("Center", func(i int) { h.Center(i) })
	f("Density", func(i int) { h.Density(i) })
	f("BinVariance", func(i int) { h.BinVariance(i) })
}

func TestHistogramAgainstStats(t *testing.T) {
	h, err := NewUniform(0.0, 1000, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	var rng fastrand.RNG
	rng.Seed(1)
	samples := make([]float64, 10000)
	for i := range samples {
		x := float64(rng.Uint32n(1e6)) / 1e3
		samples[i] = x
		if err := h.Add(x); err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
	}

	f := func(name string, got, want, eps float64) {
		t.Helper()
		if math.Abs(got-want) > eps {
			t.Fatalf("unexpected %s; got %v; want %v", name, got, want)
		}
	}
	meanExpected, _ := stats.Mean(samples)
	mean, _ := h.Mean()
	f("mean", mean, meanExpected, 0.5)
	sdExpected, _ := stats.StandardDeviationSample(samples)
	v, _ := h.Variance()
	f("stddev", math.Sqrt(v), sdExpected, 0.5)
	for _, phi := range []float64{0.1, 0.5, 0.9, 0.99} {
		want, _ := stats.Percentile(samples, phi*100)
		got, _ := h.Quantile(phi)
		f("quantile", got, want, 1.5)
	}
}

func TestHistogramClone(t *testing.T) {
	h := mustNew(t, []float64{0, 10})
	_ = h.Add(5)
	c := h.Clone()
	_ = c.Add(6)
	if h.Total() != 1 || c.Total() != 2 {
		t.Fatalf("clone must own its counts; got totals %d and %d; want 1 and 2", h.Total(), c.Total())
	}
	if err := h.Merge(c); err != nil {
		t.Fatalf("clone must be compatible with the source: %s", err)
	}
}

func TestHistogramMarshalUnmarshal(t *testing.T) {
	h, _ := NewUniform[float32](-1, 1, 7)
	_ = h.Add(0.1)
	_ = h.Add(-0.9)
	_ = h.Add(0.95)

	var restored Histogram[float32]
	if err := restored.UnmarshalProtobuf(h.MarshalProtobuf(nil)); err != nil {
		t.Fatalf("cannot unmarshal Histogram: %s", err)
	}
	if !cmp.Equal(h, &restored, cmp.AllowUnexported(Histogram[float32]{})) {
		t.Fatalf("unexpected restored histogram:\n%s", cmp.Diff(h, &restored, cmp.AllowUnexported(Histogram[float32]{})))
	}
	if err := restored.Merge(h); err != nil {
		t.Fatalf("restored histogram must be compatible with the source: %s", err)
	}

	// Histogram with distinct edges mustn't be accepted as a fingerprint match.
	data := h.MarshalProtobuf(nil)
	other, _ := NewUniform[float32](-1, 1, 8)
	otherData := other.MarshalProtobuf(nil)
	if err := restored.UnmarshalProtobuf(append(data, otherData...)); err == nil {
		t.Fatalf("expecting non-nil error for mismatched fingerprint")
	}
}

func mustNew(t *testing.T, edges []float64) *Histogram[float64] {
	t.Helper()
	h, err := New(edges)
	if err != nil {
		t.Fatalf("cannot create histogram: %s", err)
	}
	return h
}
