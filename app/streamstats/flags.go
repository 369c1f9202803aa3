package main

import (
	"flag"
	"fmt"

	"github.com/urfave/cli/v2"
)

const (
	globalLoggerLevel          = "loggerLevel"
	globalLoggerFormat         = "loggerFormat"
	globalLoggerTimezone       = "loggerTimezone"
	globalDisableProgressBar   = "disableProgressBar"
	globalMetricsOut           = "metricsOut"
	globalOutput               = "output"
	globalTemplate             = "template"
	globalStateOut             = "stateOut"
	globalStateCompression     = "stateCompression"
	globalWarnsThrottle        = "warnsThrottle"
	globalLoggerWarnsPerSecond = "loggerWarnsPerSecondLimit"
)

var (
	globalFlags = []cli.Flag{
		&cli.StringFlag{
			Name:  globalLoggerLevel,
			Value: "INFO",
			Usage: "Minimum level of messages to log. Possible values: INFO, WARN, ERROR, FATAL, PANIC",
		},
		&cli.StringFlag{
			Name:  globalLoggerFormat,
			Value: "default",
			Usage: "Format for logs. Possible values: default, json",
		},
		&cli.StringFlag{
			Name:  globalLoggerTimezone,
			Value: "UTC",
			Usage: "Timezone to use for timestamps in logs. Timezone must be a valid IANA Time Zone. " +
				"For example: America/New_York, Europe/Berlin, Etc/GMT+3 or Local",
		},
		&cli.IntFlag{
			Name:  globalLoggerWarnsPerSecond,
			Value: 0,
			Usage: "Per-second limit on the number of WARN messages. Zero value disables the rate limit",
		},
		&cli.DurationFlag{
			Name:  globalWarnsThrottle,
			Value: defaultWarnsThrottle,
			Usage: "Interval between warnings about rejected samples. Warnings inside the interval are suppressed and counted",
		},
		&cli.BoolFlag{
			Name:  globalDisableProgressBar,
			Value: false,
			Usage: "Whether to disable progress bars. Progress bars are shown only if stderr is a terminal",
		},
		&cli.StringFlag{
			Name:  globalMetricsOut,
			Usage: "Optional path to the file for writing metrics in Prometheus text exposition format. Use '-' for stdout",
		},
		&cli.StringFlag{
			Name:  globalOutput,
			Value: outputText,
			Usage: "Report format. Possible values: text, json, template",
		},
		&cli.StringFlag{
			Name: globalTemplate,
			Usage: "Template for the report if -output=template. Stats are referred by {{name}} tags, " +
				"for example: 'mean={{mean}} p99={{quantile_0.99}}'. Special tags: {{count}}, {{valueType}}, {{histogram}}",
		},
	}
	stateOutFlags = []cli.Flag{
		&cli.StringFlag{
			Name:  globalStateOut,
			Usage: "Optional path to the file for storing the resulting summary state. The state can be merged later with the 'merge' command",
		},
		&cli.StringFlag{
			Name:  globalStateCompression,
			Value: "zstd",
			Usage: "Compression for the state written to -stateOut. Possible values: none, zstd, snappy",
		},
	}
)

const (
	summarizeConfig      = "config"
	summarizeFormat      = "format"
	summarizeConcurrency = "concurrency"
	summarizeStrict      = "strict"
	summarizeCSVColumn   = "csvColumn"
	summarizeCSVDelim    = "csvDelimiter"
	summarizeCSVHeader   = "csvSkipHeader"
	summarizeJSONField   = "jsonField"
)

var (
	summarizeFlags = []cli.Flag{
		&cli.StringFlag{
			Name:  summarizeConfig,
			Usage: "Optional path to YAML file with summary config. See the README for the config format",
		},
		&cli.StringFlag{
			Name:  summarizeFormat,
			Value: formatLines,
			Usage: "Input format. Possible values: lines, csv, json",
		},
		&cli.IntFlag{
			Name:  summarizeConcurrency,
			Value: 0,
			Usage: "The number of inputs to read concurrently. By default the number of available CPUs is used",
		},
		&cli.BoolFlag{
			Name:  summarizeStrict,
			Value: false,
			Usage: "Whether to stop on the first rejected sample. By default rejected samples are logged and skipped",
		},
		&cli.IntFlag{
			Name:  summarizeCSVColumn,
			Value: 0,
			Usage: "Zero-based index of the column with samples for -format=csv",
		},
		&cli.StringFlag{
			Name:  summarizeCSVDelim,
			Value: ",",
			Usage: "Column delimiter for -format=csv. Must be a single character",
		},
		&cli.BoolFlag{
			Name:  summarizeCSVHeader,
			Value: false,
			Usage: "Whether to skip the first line of every input for -format=csv",
		},
		&cli.StringFlag{
			Name:  summarizeJSONField,
			Value: "value",
			Usage: "Name of the numeric field with samples for -format=json. Nested fields are separated by dots",
		},
	}
)

func mergeFlags(flags ...[]cli.Flag) []cli.Flag {
	var result []cli.Flag
	for _, f := range flags {
		result = append(result, f...)
	}
	return result
}

// initLogger forwards the logger flags to the flag-based logger.
func initLogger(c *cli.Context) error {
	for _, name := range []string{globalLoggerLevel, globalLoggerFormat, globalLoggerTimezone, globalLoggerWarnsPerSecond} {
		if err := flag.Set(name, c.String(name)); err != nil {
			return fmt.Errorf("cannot set -%s: %w", name, err)
		}
	}
	return nil
}
