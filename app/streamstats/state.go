package main

import (
	"context"
	"fmt"

	"github.com/VictoriaMetrics/streamstats/lib/logger"
	"github.com/VictoriaMetrics/streamstats/lib/reduce"
	"github.com/VictoriaMetrics/streamstats/lib/statefile"
	"github.com/VictoriaMetrics/streamstats/lib/summary"
)

// summaryState adapts summary.Accumulator to statefile.
//
// It is needed since the scalar type of the stored summary becomes known only after reading the state.
type summaryState struct {
	acc summary.Accumulator
}

func (ss *summaryState) MarshalProtobuf(dst []byte) []byte {
	return ss.acc.MarshalProtobuf(dst)
}

func (ss *summaryState) UnmarshalProtobuf(src []byte) error {
	acc, err := summary.Unmarshal(src)
	if err != nil {
		return err
	}
	ss.acc = acc
	return nil
}

func readState(path string) (summary.Accumulator, error) {
	var ss summaryState
	if err := statefile.ReadFile(path, statefile.KindSummary, &ss); err != nil {
		return nil, err
	}
	stateFilesRead.Inc()
	return ss.acc, nil
}

func writeState(path string, acc summary.Accumulator, compression string) error {
	if path == "" {
		return nil
	}
	c, err := statefile.ParseCompression(compression)
	if err != nil {
		return fmt.Errorf("invalid -%s: %w", globalStateCompression, err)
	}
	ss := &summaryState{
		acc: acc,
	}
	if err := statefile.WriteFile(path, statefile.KindSummary, ss, c); err != nil {
		return err
	}
	stateFilesWritten.Inc()
	logger.Infof("stored summary state with %d samples at %q", acc.Count(), path)
	return nil
}

// mergeStates reads and merges state files at paths.
//
// All the states must be built with the same config.
func mergeStates(ctx context.Context, paths []string, concurrency int) (summary.Accumulator, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("missing state files to merge")
	}
	rcfg := reduce.Config{
		Workers:   concurrency,
		ChunkSize: 1,
	}
	ms, err := reduce.Reduce(ctx, paths, rcfg, newMergedState, addState, mergeMergedStates)
	if err != nil {
		return nil, err
	}
	return ms.acc, nil
}

// mergedState holds the result of merging state files. acc is nil until the first state is read.
type mergedState struct {
	acc   summary.Accumulator
	paths []string
}

func newMergedState() *mergedState {
	return &mergedState{}
}

func addState(ms *mergedState, path string) error {
	acc, err := readState(path)
	if err != nil {
		return err
	}
	return ms.merge(&mergedState{
		acc:   acc,
		paths: []string{path},
	})
}

func mergeMergedStates(dst, src *mergedState) error {
	return dst.merge(src)
}

func (ms *mergedState) merge(src *mergedState) error {
	if src.acc == nil {
		return nil
	}
	if ms.acc == nil {
		ms.acc = src.acc
		ms.paths = append(ms.paths, src.paths...)
		return nil
	}
	if err := ms.acc.MergeAccumulator(src.acc); err != nil {
		return fmt.Errorf("cannot merge states from %q into states from %q: %w", src.paths, ms.paths, err)
	}
	ms.paths = append(ms.paths, src.paths...)
	return nil
}
