package logger

import (
	"flag"
	"fmt"
	"time"
)

var (
	loggerLevel    = flag.String("loggerLevel", "INFO", "Minimum level of messages to log. Possible values: INFO, WARN, ERROR, FATAL, PANIC")
	loggerFormat   = flag.String("loggerFormat", "default", "Format for logs. Possible values: default, json")
	loggerTimezone = flag.String("loggerTimezone", "UTC", "Timezone to use for timestamps in logs. Timezone must be a valid IANA Time Zone. "+
		"For example: America/New_York, Europe/Berlin, Etc/GMT+3 or Local")
	errorsPerSecondLimit = flag.Int("loggerErrorsPerSecondLimit", 0, "Per-second limit on the number of ERROR messages. "+
		"If more than the given number of errors are emitted per second, the remaining errors are suppressed. Zero values disable the rate limit")
	warnsPerSecondLimit = flag.Int("loggerWarnsPerSecondLimit", 0, "Per-second limit on the number of WARN messages. "+
		"If more than the given number of warns are emitted per second, then the remaining warns are suppressed. Zero values disable the rate limit")
)

func setLoggerFormat() error {
	switch *loggerFormat {
	case "default":
		formatter = formatterDefault
	case "json":
		formatter = formatterJSON
	default:
		return fmt.Errorf("unsupported `-loggerFormat` value: %q; supported values are: default, json", *loggerFormat)
	}
	return nil
}

func setTimezone() error {
	tz, err := time.LoadLocation(*loggerTimezone)
	if err != nil {
		return fmt.Errorf("cannot load timezone %q from `-loggerTimezone`: %w", *loggerTimezone, err)
	}
	timezone = tz
	return nil
}

var (
	formatter = formatterDefault
	timezone  = time.UTC
)

type logFormatter int

const (
	formatterDefault logFormatter = iota
	formatterJSON
)
