// Package reduce provides parallel reduction of item slices into mergeable accumulators.
package reduce

import (
	"context"
	"fmt"
	"sync"

	"github.com/VictoriaMetrics/streamstats/lib/cgroup"
)

// DefaultChunkSize is the default number of items processed between cancellation checks.
const DefaultChunkSize = 64 * 1024

// Config configures Reduce.
type Config struct {
	// Workers is the number of concurrent workers.
	//
	// cgroup.AvailableCPUs() workers are used if Workers <= 0.
	Workers int

	// ChunkSize is the number of items each worker processes between context cancellation checks.
	//
	// DefaultChunkSize is used if ChunkSize <= 0.
	ChunkSize int
}

func (cfg *Config) workers(items int) int {
	n := cfg.Workers
	if n <= 0 {
		n = cgroup.AvailableCPUs()
	}
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (cfg *Config) chunkSize() int {
	if cfg.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return cfg.ChunkSize
}

// Reduce splits items into contiguous shards, accumulates every shard in a dedicated goroutine
// and merges the per-shard accumulators in shard order.
//
// newAcc must return an empty accumulator, which is the identity element for merge.
// add must register the item in acc. merge must merge src into dst.
//
// The first error returned by add or merge stops the reduction and is returned to the caller.
// The reduction stops with ctx.Err() when ctx is canceled.
func Reduce[T, A any](ctx context.Context, items []T, cfg Config, newAcc func() A, add func(acc A, item T) error, merge func(dst, src A) error) (A, error) {
	workers := cfg.workers(len(items))
	chunkSize := cfg.chunkSize()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	accs := make([]A, workers)

	// The first error cancels the remaining workers, so their cancellation errors are ignored.
	var errOnce sync.Once
	var firstErr error
	setError := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		start := i * len(items) / workers
		end := (i + 1) * len(items) / workers
		wg.Add(1)
		go func(workerID int, shard []T, offset int) {
			defer wg.Done()
			acc := newAcc()
			if err := accumulate(ctx, acc, shard, offset, chunkSize, add); err != nil {
				setError(err)
				return
			}
			accs[workerID] = acc
		}(i, items[start:end], start)
	}
	wg.Wait()

	var zero A
	if firstErr != nil {
		return zero, firstErr
	}

	result := accs[0]
	for i, acc := range accs[1:] {
		if err := merge(result, acc); err != nil {
			return zero, fmt.Errorf("cannot merge shard #%d: %w", i+1, err)
		}
	}
	return result, nil
}

func accumulate[T, A any](ctx context.Context, acc A, shard []T, offset, chunkSize int, add func(acc A, item T) error) error {
	for len(shard) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := chunkSize
		if n > len(shard) {
			n = len(shard)
		}
		for i, item := range shard[:n] {
			if err := add(acc, item); err != nil {
				return fmt.Errorf("cannot add item #%d: %w", offset+i, err)
			}
		}
		shard = shard[n:]
		offset += n
	}
	return nil
}
