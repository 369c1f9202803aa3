package logger

import (
	"sync"
	"time"
)

var (
	throttlersMu sync.Mutex
	throttlers   = make(map[string]*LogThrottler)
)

// WithThrottler returns a logger, which logs at most a single message per the given throttle duration.
//
// Each unique name gets its own throttler. The number of suppressed messages is reported together
// with the next logged message.
func WithThrottler(name string, throttle time.Duration) *LogThrottler {
	throttlersMu.Lock()
	defer throttlersMu.Unlock()

	lt := throttlers[name]
	if lt == nil {
		lt = &LogThrottler{
			name:     name,
			throttle: throttle,
		}
		throttlers[name] = lt
	}
	return lt
}

// LogThrottler throttles Warnf and Errorf calls.
type LogThrottler struct {
	name     string
	throttle time.Duration

	mu         sync.Mutex
	lastLogged time.Time
	suppressed int
}

// Warnf logs warn message if the throttle duration passed since the previously logged message.
func (lt *LogThrottler) Warnf(format string, args ...any) {
	if suppressed, ok := lt.allow(); ok {
		if suppressed > 0 {
			format += "; %d similar messages were suppressed"
			args = append(args, suppressed)
		}
		WarnfSkipframes(1, format, args...)
	}
}

// Errorf logs error message if the throttle duration passed since the previously logged message.
func (lt *LogThrottler) Errorf(format string, args ...any) {
	if suppressed, ok := lt.allow(); ok {
		if suppressed > 0 {
			format += "; %d similar messages were suppressed"
			args = append(args, suppressed)
		}
		ErrorfSkipframes(1, format, args...)
	}
}

// Suppressed returns the number of messages suppressed since the last logged message.
func (lt *LogThrottler) Suppressed() int {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	return lt.suppressed
}

func (lt *LogThrottler) allow() (int, bool) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	now := time.Now()
	if !lt.lastLogged.IsZero() && now.Sub(lt.lastLogged) < lt.throttle {
		lt.suppressed++
		return 0, false
	}
	suppressed := lt.suppressed
	lt.suppressed = 0
	lt.lastLogged = now
	return suppressed, true
}
