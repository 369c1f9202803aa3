// Package histogram implements a mergeable histogram with fixed bins.
//
// Bins are half-open: the i-th bin covers [edges[i], edges[i+1]), so the last edge itself
// is out of range. Samples outside [edges[0], edges[N]) are rejected with numeric.ErrSampleOutOfRange.
//
// Histograms can be merged only if their edges are bit-for-bit identical.
// Statistics derived from bins (mean, variance, quantiles) are approximate,
// since the exact positions of samples inside bins are lost.
package histogram

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/VictoriaMetrics/streamstats/lib/numeric"
)

// Histogram counts samples per bin.
//
// Use New or NewUniform for creating Histogram.
type Histogram[F numeric.Float] struct {
	edges  []F
	counts []uint64

	// fingerprint is a hash of edges bit patterns. It speeds up compatibility checks on Merge.
	fingerprint uint64
}

// New returns a histogram with the given bin edges.
//
// edges must contain at least 2 items, must be strictly increasing and mustn't contain NaN.
// The histogram has len(edges)-1 bins.
func New[F numeric.Float](edges []F) (*Histogram[F], error) {
	if len(edges) < 2 {
		return nil, fmt.Errorf("histogram needs at least 2 edges; got %d: %w", len(edges), numeric.ErrInvalidConfig)
	}
	for i, e := range edges {
		if numeric.IsNaN(e) {
			return nil, fmt.Errorf("histogram edge #%d cannot be NaN: %w", i, numeric.ErrInvalidConfig)
		}
		if i > 0 && e <= edges[i-1] {
			return nil, fmt.Errorf("histogram edges must be strictly increasing; got %v after %v at position %d: %w", e, edges[i-1], i, numeric.ErrInvalidConfig)
		}
	}
	edgesCopy := append([]F{}, edges...)
	return &Histogram[F]{
		edges:       edgesCopy,
		counts:      make([]uint64, len(edges)-1),
		fingerprint: fingerprintEdges(edgesCopy),
	}, nil
}

// NewUniform returns a histogram with the given number of equal-width bins covering [start, end).
func NewUniform[F numeric.Float](start, end F, bins int) (*Histogram[F], error) {
	if bins < 1 {
		return nil, fmt.Errorf("the number of bins must be positive; got %d: %w", bins, numeric.ErrInvalidConfig)
	}
	if !(start < end) {
		return nil, fmt.Errorf("start must be smaller than end; got start=%v, end=%v: %w", start, end, numeric.ErrInvalidConfig)
	}
	if start == numeric.Inf[F](-1) || end == numeric.Inf[F](1) {
		return nil, fmt.Errorf("start and end must be finite; got start=%v, end=%v: %w", start, end, numeric.ErrInvalidConfig)
	}
	edges := make([]F, bins+1)
	for i := range edges {
		edges[i] = start + (end-start)*F(i)/F(bins)
	}
	edges[bins] = end
	return New(edges)
}

func fingerprintEdges[F numeric.Float](edges []F) uint64 {
	buf := make([]byte, 0, 8*len(edges))
	for _, e := range edges {
		buf = binary.LittleEndian.AppendUint64(buf, numeric.Bits(e))
	}
	return xxhash.Sum64(buf)
}

// Add registers x in h.
//
// numeric.ErrSampleOutOfRange is returned if x is outside [edges[0], edges[N]) or if x is NaN.
// Rejected samples aren't counted.
func (h *Histogram[F]) Add(x F) error {
	i, ok := h.binIndex(x)
	if !ok {
		return fmt.Errorf("sample %v is outside histogram range [%v, %v): %w", x, h.edges[0], h.edges[len(h.edges)-1], numeric.ErrSampleOutOfRange)
	}
	h.counts[i]++
	return nil
}

func (h *Histogram[F]) binIndex(x F) (int, bool) {
	if numeric.IsNaN(x) || x < h.edges[0] || x >= h.edges[len(h.edges)-1] {
		return 0, false
	}
	// The first edge bigger than x closes the bin containing x.
	n := sort.Search(len(h.edges), func(i int) bool {
		return h.edges[i] > x
	})
	return n - 1, true
}

// Merge adds bin counts from src to h.
//
// numeric.ErrIncompatibleMerge is returned if src edges differ from h edges.
func (h *Histogram[F]) Merge(src *Histogram[F]) error {
	if !h.sameEdges(src) {
		return fmt.Errorf("cannot merge histograms with distinct bin edges: %w", numeric.ErrIncompatibleMerge)
	}
	for i, c := range src.counts {
		h.counts[i] += c
	}
	return nil
}

func (h *Histogram[F]) sameEdges(src *Histogram[F]) bool {
	if h.fingerprint != src.fingerprint || len(h.edges) != len(src.edges) {
		return false
	}
	for i, e := range h.edges {
		if numeric.Bits(e) != numeric.Bits(src.edges[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of h.
func (h *Histogram[F]) Clone() *Histogram[F] {
	return &Histogram[F]{
		edges:       append([]F{}, h.edges...),
		counts:      append([]uint64{}, h.counts...),
		fingerprint: h.fingerprint,
	}
}

// Bins returns the number of bins.
func (h *Histogram[F]) Bins() int {
	return len(h.counts)
}

// Edges returns a copy of bin edges.
func (h *Histogram[F]) Edges() []F {
	return append([]F{}, h.edges...)
}

// Count returns the number of samples in the i-th bin.
//
// i must be in the range [0..Bins()).
func (h *Histogram[F]) Count(i int) uint64 {
	h.checkBin(i)
	return h.counts[i]
}

// Counts appends per-bin counts to dst and returns the result.
func (h *Histogram[F]) Counts(dst []uint64) []uint64 {
	return append(dst, h.counts...)
}

// Total returns the number of registered samples.
func (h *Histogram[F]) Total() uint64 {
	n := uint64(0)
	for _, c := range h.counts {
		n += c
	}
	return n
}

// IsEmpty returns true if no samples were registered.
func (h *Histogram[F]) IsEmpty() bool {
	return h.Total() == 0
}

// Width returns the width of the i-th bin.
//
// i must be in the range [0..Bins()). The width of a bin with an infinite edge is +Inf.
func (h *Histogram[F]) Width(i int) F {
	h.checkBin(i)
	return h.edges[i+1] - h.edges[i]
}

// Center returns the midpoint of the i-th bin.
//
// i must be in the range [0..Bins()). The midpoint of a bin with an infinite edge is NaN.
func (h *Histogram[F]) Center(i int) F {
	return h.edges[i] + h.Width(i)/2
}

// Density returns the number of samples in the i-th bin per unit of width.
//
// i must be in the range [0..Bins()).
func (h *Histogram[F]) Density(i int) F {
	h.checkBin(i)
	return F(h.counts[i]) / h.Width(i)
}

// BinVariance returns the multinomial variance of the count in the i-th bin.
//
// i must be in the range [0..Bins()).
func (h *Histogram[F]) BinVariance(i int) F {
	h.checkBin(i)
	total := h.Total()
	if total == 0 {
		return 0
	}
	c := F(h.counts[i])
	return c * (1 - c/numeric.FromCount[F](total))
}

func (h *Histogram[F]) checkBin(i int) {
	if i < 0 || i >= len(h.counts) {
		panic(fmt.Errorf("BUG: bin index must be in the range [0..%d); got %d", len(h.counts), i))
	}
}
