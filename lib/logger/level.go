package logger

import (
	"fmt"
	"strings"
)

type logLevel uint8

// Levels are ordered by severity.
const (
	levelInfo logLevel = iota
	levelWarn
	levelError
	levelFatal
	levelPanic

	levelCount
)

var minLogLevel = levelInfo

func setLoggerLevel() error {
	lvl, ok := parseLogLevel(*loggerLevel)
	if !ok {
		return fmt.Errorf("unsupported `-loggerLevel` value: %q; supported values are: INFO, WARN, ERROR, FATAL, PANIC", *loggerLevel)
	}
	minLogLevel = lvl
	return nil
}

// parseLogLevel parses the upper-case level name as accepted by -loggerLevel.
func parseLogLevel(s string) (logLevel, bool) {
	for lvl := levelInfo; lvl < levelCount; lvl++ {
		if s == strings.ToUpper(lvl.String()) {
			return lvl, true
		}
	}
	return 0, false
}

// String returns the lower-case level name, which is written to logs.
func (lvl logLevel) String() string {
	switch lvl {
	case levelInfo:
		return "info"
	case levelWarn:
		return "warn"
	case levelError:
		return "error"
	case levelFatal:
		return "fatal"
	case levelPanic:
		return "panic"
	default:
		return fmt.Sprintf("level_%d", uint8(lvl))
	}
}
