package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var bb bytes.Buffer
	SetOutput(&bb)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
	})
	return &bb
}

func TestLoggerDefaultFormat(t *testing.T) {
	bb := captureOutput(t)
	Infof("hello %s", "world")
	fields := strings.Split(strings.TrimSuffix(bb.String(), "\n"), "\t")
	if len(fields) != 4 {
		t.Fatalf("unexpected number of fields in %q; got %d; want 4", bb.String(), len(fields))
	}
	if fields[1] != "info" {
		t.Fatalf("unexpected level; got %q; want %q", fields[1], "info")
	}
	if !strings.Contains(fields[2], "logger_test.go:") {
		t.Fatalf("unexpected caller; got %q", fields[2])
	}
	if fields[3] != "hello world" {
		t.Fatalf("unexpected message; got %q; want %q", fields[3], "hello world")
	}
}

func TestLoggerJSONFormat(t *testing.T) {
	bb := captureOutput(t)
	formatter = formatterJSON
	defer func() {
		formatter = formatterDefault
	}()
	Warnf("value=%q", "x")
	s := bb.String()
	if !strings.HasPrefix(s, `{"ts":`) || !strings.Contains(s, `"level":"warn"`) || !strings.Contains(s, `"msg":"value=\"x\""`) {
		t.Fatalf("unexpected JSON log line: %s", s)
	}
}

func TestLoggerMinLevel(t *testing.T) {
	bb := captureOutput(t)
	minLogLevel = levelError
	defer func() {
		minLogLevel = levelInfo
	}()
	Infof("skipped")
	Warnf("skipped")
	if bb.Len() != 0 {
		t.Fatalf("unexpected output for messages below the minimum level: %q", bb.String())
	}
	Errorf("logged")
	if !strings.Contains(bb.String(), "logged") {
		t.Fatalf("missing error message in %q", bb.String())
	}
}

func TestLoggerPanicf(t *testing.T) {
	_ = captureOutput(t)
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expecting panic")
		}
	}()
	Panicf("BUG: unexpected state")
}

func TestLogThrottler(t *testing.T) {
	bb := captureOutput(t)
	lt := WithThrottler("test_throttler", time.Hour)
	if lt2 := WithThrottler("test_throttler", time.Second); lt2 != lt {
		t.Fatalf("expecting the same throttler for the same name")
	}
	for i := 0; i < 5; i++ {
		lt.Warnf("message %d", i)
	}
	if n := strings.Count(bb.String(), "\n"); n != 1 {
		t.Fatalf("unexpected number of logged messages; got %d; want 1; output:\n%s", n, bb.String())
	}
	if n := lt.Suppressed(); n != 4 {
		t.Fatalf("unexpected number of suppressed messages; got %d; want 4", n)
	}
}

func TestParseLogLevel(t *testing.T) {
	f := func(s string, lvlExpected logLevel, okExpected bool) {
		t.Helper()
		lvl, ok := parseLogLevel(s)
		if ok != okExpected {
			t.Fatalf("unexpected ok for %q; got %v; want %v", s, ok, okExpected)
		}
		if ok && lvl != lvlExpected {
			t.Fatalf("unexpected level for %q; got %s; want %s", s, lvl, lvlExpected)
		}
	}
	f("INFO", levelInfo, true)
	f("WARN", levelWarn, true)
	f("ERROR", levelError, true)
	f("FATAL", levelFatal, true)
	f("PANIC", levelPanic, true)
	f("info", 0, false)
	f("DEBUG", 0, false)
	f("", 0, false)
}
