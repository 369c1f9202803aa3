package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VictoriaMetrics/streamstats/lib/logger"
	"github.com/VictoriaMetrics/streamstats/lib/numeric"
	"github.com/VictoriaMetrics/streamstats/lib/reduce"
	"github.com/VictoriaMetrics/streamstats/lib/summary"
)

const defaultWarnsThrottle = 5 * time.Second

// summarizer builds a summary over the configured inputs.
type summarizer struct {
	cfg         *summary.Config
	pc          *parseConfig
	concurrency int
	strict      bool

	rejectedLogger *logger.LogThrottler
}

// run summarizes all the inputs at paths.
//
// Every worker reads its own share of inputs into a dedicated summary. Summaries are merged at the end.
func (s *summarizer) run(ctx context.Context, paths []string) (summary.Accumulator, error) {
	if _, err := summary.NewAccumulator(s.cfg); err != nil {
		return nil, fmt.Errorf("invalid summary config: %w", err)
	}
	rcfg := reduce.Config{
		Workers:   s.concurrency,
		ChunkSize: 1,
	}
	return reduce.Reduce(ctx, paths, rcfg, s.newAccumulator, s.summarizeInput, mergeAccumulators)
}

func (s *summarizer) newAccumulator() summary.Accumulator {
	acc, err := summary.NewAccumulator(s.cfg)
	if err != nil {
		logger.Panicf("BUG: cannot create accumulator for the validated config: %s", err)
	}
	return acc
}

func mergeAccumulators(dst, src summary.Accumulator) error {
	return dst.MergeAccumulator(src)
}

func (s *summarizer) summarizeInput(acc summary.Accumulator, path string) error {
	startTime := time.Now()
	defer inputDuration.UpdateDuration(startTime)
	inputsTotal.Inc()

	r, err := openInput(path)
	if err != nil {
		inputErrors.Inc()
		return err
	}
	defer func() {
		_ = r.Close()
	}()

	h := &inputHandler{
		s:    s,
		acc:  acc,
		path: path,
	}
	if err := parseStream(r, s.pc, h); err != nil {
		inputErrors.Inc()
		return fmt.Errorf("cannot summarize %q: %w", path, err)
	}
	logger.Infof("summarized %d samples from %q in %.3f seconds; rejected %d samples", h.added, path, time.Since(startTime).Seconds(), h.rejected)
	return nil
}

// inputHandler registers samples from a single input.
type inputHandler struct {
	s    *summarizer
	acc  summary.Accumulator
	path string

	added    uint64
	rejected uint64
}

func (h *inputHandler) addSample(line int, x float64) error {
	samplesRead.Inc()
	err := h.acc.AddFloat64(x)
	if err == nil {
		h.added++
		return nil
	}
	if !errors.Is(err, numeric.ErrSampleOutOfRange) {
		return fmt.Errorf("unexpected error at line %d: %w", line, err)
	}
	samplesRejectedRange.Inc()
	return h.reject(line, err)
}

func (h *inputHandler) rejectSample(line int, err error) error {
	samplesRejectedParse.Inc()
	return h.reject(line, err)
}

func (h *inputHandler) reject(line int, err error) error {
	h.rejected++
	if h.s.strict {
		return fmt.Errorf("rejected sample at line %d: %w", line, err)
	}
	h.s.rejectedLogger.Warnf("skipping sample at %s:%d: %s", h.path, line, err)
	return nil
}
