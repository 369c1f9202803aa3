package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/VictoriaMetrics/metrics"

	"github.com/VictoriaMetrics/streamstats/lib/cgroup"
)

var (
	samplesRead          = metrics.NewCounter(`streamstats_samples_read_total`)
	samplesRejectedParse = metrics.NewCounter(`streamstats_samples_rejected_total{reason="parse"}`)
	samplesRejectedRange = metrics.NewCounter(`streamstats_samples_rejected_total{reason="out_of_range"}`)
	inputsTotal          = metrics.NewCounter(`streamstats_inputs_total`)
	inputErrors          = metrics.NewCounter(`streamstats_input_errors_total`)
	stateFilesRead       = metrics.NewCounter(`streamstats_state_files_total{op="read"}`)
	stateFilesWritten    = metrics.NewCounter(`streamstats_state_files_total{op="write"}`)
	inputDuration        = metrics.NewHistogram(`streamstats_input_duration_seconds`)
)

func init() {
	metrics.NewGauge(`process_cpu_cores_available`, func() float64 {
		return float64(cgroup.AvailableCPUs())
	})
}

// writeMetrics writes all the registered metrics in Prometheus text exposition format to path.
//
// Metrics are written to stdout if path is "-".
func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if path == stdinPath {
		bw := bufio.NewWriter(os.Stdout)
		metrics.WritePrometheus(bw, false)
		return bw.Flush()
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create metrics file: %w", err)
	}
	bw := bufio.NewWriter(f)
	metrics.WritePrometheus(bw, false)
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("cannot write metrics to %q: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot close %q: %w", path, err)
	}
	return nil
}
