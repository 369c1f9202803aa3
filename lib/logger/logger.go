package logger

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Init initializes the logger.
//
// Init must be called after the `-logger*` flags are parsed.
//
// There is no need in calling Init from tests.
func Init() {
	for _, f := range []func() error{setLoggerLevel, setLoggerFormat, setTimezone} {
		if err := f(); err != nil {
			// logger.Fatalf cannot be used here, since the logger isn't initialized yet.
			fmt.Fprintf(os.Stderr, "FATAL: %s\n", err)
			os.Exit(1)
		}
	}
	logNonDefaultFlags()
}

func logNonDefaultFlags() {
	flag.Visit(func(f *flag.Flag) {
		if strings.HasPrefix(f.Name, "logger") {
			Infof("flag %q=%q", f.Name, f.Value.String())
		}
	})
}

// SetOutput sets the destination for log messages.
//
// Logs are written to os.Stderr by default.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

// Infof logs info message.
func Infof(format string, args ...any) {
	logLevelSkipframes(1, levelInfo, format, args)
}

// Warnf logs warn message.
func Warnf(format string, args ...any) {
	logLevelSkipframes(1, levelWarn, format, args)
}

// Errorf logs error message.
func Errorf(format string, args ...any) {
	logLevelSkipframes(1, levelError, format, args)
}

// WarnfSkipframes logs warn message and skips the given number of frames for the caller.
func WarnfSkipframes(skipframes int, format string, args ...any) {
	logLevelSkipframes(1+skipframes, levelWarn, format, args)
}

// ErrorfSkipframes logs error message and skips the given number of frames for the caller.
func ErrorfSkipframes(skipframes int, format string, args ...any) {
	logLevelSkipframes(1+skipframes, levelError, format, args)
}

// Fatalf logs fatal message and terminates the app.
func Fatalf(format string, args ...any) {
	logLevelSkipframes(1, levelFatal, format, args)
}

// Panicf logs panic message and panics.
func Panicf(format string, args ...any) {
	logLevelSkipframes(1, levelPanic, format, args)
}

func logLevelSkipframes(skipframes int, level logLevel, format string, args []any) {
	if level < minLogLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)
	logMessage(level, msg, 2+skipframes)
}

var (
	mu     sync.Mutex
	output io.Writer = os.Stderr

	limitPeriodStart time.Time
	limitCounters    [levelCount]int
)

func logMessage(level logLevel, msg string, skipframes int) {
	now := time.Now().In(timezone)
	timestamp := now.Format("2006-01-02T15:04:05.000Z0700")
	_, file, line, ok := runtime.Caller(skipframes)
	if !ok {
		file = "???"
		line = 0
	}
	if n := strings.Index(file, "/streamstats/"); n >= 0 {
		file = file[n+len("/streamstats/"):]
	}
	msg = strings.TrimRight(msg, "\n")
	caller := file + ":" + strconv.Itoa(line)

	var logMsg string
	switch formatter {
	case formatterJSON:
		logMsg = fmt.Sprintf(`{"ts":%s,"level":%s,"caller":%s,"msg":%s}`+"\n",
			strconv.Quote(timestamp), strconv.Quote(level.String()), strconv.Quote(caller), strconv.Quote(msg))
	default:
		logMsg = fmt.Sprintf("%s\t%s\t%s\t%s\n", timestamp, level, caller, msg)
	}

	mu.Lock()
	if isLimited(level, now) {
		mu.Unlock()
		return
	}
	_, _ = io.WriteString(output, logMsg)
	mu.Unlock()

	switch level {
	case levelPanic:
		if formatter == formatterJSON {
			// Do not clutter JSON logs with the panic stack trace.
			os.Exit(-1)
		}
		panic(errors.New(msg))
	case levelFatal:
		os.Exit(-1)
	}
}

// isLimited must be called under mu.
func isLimited(level logLevel, now time.Time) bool {
	var limit int
	switch level {
	case levelWarn:
		limit = *warnsPerSecondLimit
	case levelError:
		limit = *errorsPerSecondLimit
	default:
		return false
	}
	if limit <= 0 {
		return false
	}
	if now.Sub(limitPeriodStart) >= time.Second {
		limitPeriodStart = now
		limitCounters = [levelCount]int{}
	}
	limitCounters[level]++
	return limitCounters[level] > limit
}
