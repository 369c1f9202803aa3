package cgroup

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseCPUMax(t *testing.T) {
	f := func(data string, quotaExpected float64) {
		t.Helper()
		quota, err := parseCPUMax(data)
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if quota != quotaExpected {
			t.Fatalf("unexpected quota; got %v; want %v", quota, quotaExpected)
		}
	}
	f("max 100000", 0)
	f("50000 100000", 0.5)
	f("200000 100000", 2)

	for _, data := range []string{"", "max", "foo 100000", "100 bar", "100 0"} {
		if _, err := parseCPUMax(data); err == nil {
			t.Fatalf("expecting non-nil error for %q", data)
		}
	}
}

func TestLimitCPUs(t *testing.T) {
	f := func(n int, quota float64, resultExpected int) {
		t.Helper()
		if result := limitCPUs(n, quota); result != resultExpected {
			t.Fatalf("unexpected result for n=%d, quota=%v; got %d; want %d", n, quota, result, resultExpected)
		}
	}
	f(8, 0, 8)
	f(8, 2, 2)
	f(8, 2.5, 3)
	f(8, 0.1, 1)
	f(2, 16, 2)
}

func TestGetCPUQuota(t *testing.T) {
	writeFile := func(path, data string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("cannot create dir: %s", err)
		}
		if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
			t.Fatalf("cannot write %q: %s", path, err)
		}
	}

	// cgroup v2
	root := t.TempDir()
	writeFile(filepath.Join(root, "cpu.max"), "150000 100000\n")
	if q := getCPUQuota(root); q != 1.5 {
		t.Fatalf("unexpected quota; got %v; want 1.5", q)
	}

	// cgroup v1
	root = t.TempDir()
	writeFile(filepath.Join(root, "cpu", "cpu.cfs_quota_us"), "300000\n")
	writeFile(filepath.Join(root, "cpu", "cpu.cfs_period_us"), "100000\n")
	if q := getCPUQuota(root); q != 3 {
		t.Fatalf("unexpected quota; got %v; want 3", q)
	}

	// unlimited cgroup v1
	writeFile(filepath.Join(root, "cpu", "cpu.cfs_quota_us"), "-1\n")
	if q := getCPUQuota(root); q != 0 {
		t.Fatalf("unexpected quota; got %v; want 0", q)
	}

	// missing cgroup
	if q := getCPUQuota(t.TempDir()); q != 0 {
		t.Fatalf("unexpected quota; got %v; want 0", q)
	}

	if n := AvailableCPUs(); n < 1 {
		t.Fatalf("unexpected number of available CPUs: %d", n)
	}
}
