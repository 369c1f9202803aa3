package cgroup

import (
	"fmt"
	"math"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// AvailableCPUs returns the number of available CPU cores for the app.
//
// The number respects cgroup CPU quota and is rounded to the next integer value
// if fractional number of CPU cores are available. It never exceeds GOMAXPROCS.
func AvailableCPUs() int {
	availableCPUsOnce.Do(func() {
		availableCPUs = limitCPUs(runtime.GOMAXPROCS(-1), getCPUQuota(cgroupRoot))
	})
	return availableCPUs
}

var (
	availableCPUsOnce sync.Once
	availableCPUs     int
)

const cgroupRoot = "/sys/fs/cgroup"

func limitCPUs(n int, quota float64) int {
	if quota <= 0 {
		return n
	}
	m := int(math.Ceil(quota))
	if m < 1 {
		m = 1
	}
	if m < n {
		return m
	}
	return n
}

// getCPUQuota returns the CPU quota in cores for the cgroup mounted at root.
//
// Zero is returned if the quota isn't set.
func getCPUQuota(root string) float64 {
	data, err := readFile(root + "/cpu.max")
	if err == nil {
		quota, err := parseCPUMax(data)
		if err != nil {
			return 0
		}
		return quota
	}

	// cgroup v1
	quota, err := readInt64(root + "/cpu/cpu.cfs_quota_us")
	if err != nil || quota <= 0 {
		return 0
	}
	period, err := readInt64(root + "/cpu/cpu.cfs_period_us")
	if err != nil || period <= 0 {
		return 0
	}
	return float64(quota) / float64(period)
}

// parseCPUMax parses cgroup v2 cpu.max contents in the format "$MAX $PERIOD".
func parseCPUMax(data string) (float64, error) {
	fields := strings.Fields(data)
	if len(fields) != 2 {
		return 0, fmt.Errorf("unexpected number of fields in cpu.max; got %d; want 2", len(fields))
	}
	if fields[0] == "max" {
		return 0, nil
	}
	quota, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse quota: %w", err)
	}
	period, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse period: %w", err)
	}
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive; got %d", period)
	}
	return float64(quota) / float64(period), nil
}
