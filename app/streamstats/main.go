package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/VictoriaMetrics/streamstats/app/streamstats/barpool"
	"github.com/VictoriaMetrics/streamstats/lib/logger"
	"github.com/VictoriaMetrics/streamstats/lib/summary"
)

// Version may be overridden during the build via -ldflags="-X main.Version=..."
var Version = "streamstats-dev"

func main() {
	ctx, cancelCtx := context.WithCancel(context.Background())
	start := time.Now()
	beforeFn := func(c *cli.Context) error {
		if err := initLogger(c); err != nil {
			return err
		}
		logger.Init()
		barpool.Disable(c.Bool(globalDisableProgressBar))
		return nil
	}
	afterFn := func(c *cli.Context) error {
		return writeMetrics(c.String(globalMetricsOut))
	}
	app := &cli.App{
		Name:    "streamstats",
		Usage:   "Single-pass statistics of numeric streams with mergeable state",
		Version: Version,
		Commands: []*cli.Command{
			{
				Name:      "summarize",
				Usage:     "Summarize samples from the given inputs",
				ArgsUsage: "[input ...]; inputs may contain glob patterns; '-' or no inputs means stdin",
				Flags:     mergeFlags(globalFlags, summarizeFlags, stateOutFlags),
				Before:    beforeFn,
				After:     afterFn,
				Action: func(c *cli.Context) error {
					return runSummarize(ctx, c)
				},
			},
			{
				Name:      "merge",
				Usage:     "Merge summary state files",
				ArgsUsage: "state_file ...; state files may contain glob patterns",
				Flags: mergeFlags(globalFlags, stateOutFlags, []cli.Flag{
					&cli.IntFlag{
						Name:  summarizeConcurrency,
						Value: 0,
						Usage: "The number of state files to read concurrently. By default the number of available CPUs is used",
					},
				}),
				Before: beforeFn,
				After:  afterFn,
				Action: func(c *cli.Context) error {
					return runMerge(ctx, c)
				},
			},
			{
				Name:      "inspect",
				Usage:     "Print report for the summary state file",
				ArgsUsage: "state_file",
				Flags:     globalFlags,
				Before:    beforeFn,
				After:     afterFn,
				Action:    runInspect,
			},
		},
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\r- Execution cancelled")
		cancelCtx()
	}()

	err := app.Run(os.Args)
	barpool.Stop()
	if err != nil {
		logger.Fatalf("%s", err)
	}
	logger.Infof("total time: %s", time.Since(start).Round(time.Millisecond))
}

func runSummarize(ctx context.Context, c *cli.Context) error {
	rw, err := newReportWriter(c.String(globalOutput), c.String(globalTemplate))
	if err != nil {
		return err
	}
	cfg := summary.DefaultConfig()
	if path := c.String(summarizeConfig); path != "" {
		cfg, err = summary.LoadConfigFromFile(path)
		if err != nil {
			return err
		}
	}
	pc, err := newParseConfig(c.String(summarizeFormat), c.Int(summarizeCSVColumn), c.String(summarizeCSVDelim),
		c.Bool(summarizeCSVHeader), c.String(summarizeJSONField))
	if err != nil {
		return err
	}

	patterns := c.Args().Slice()
	if len(patterns) == 0 {
		patterns = []string{stdinPath}
	}
	paths, err := expandInputs(patterns)
	if err != nil {
		return err
	}

	s := &summarizer{
		cfg:            cfg,
		pc:             pc,
		concurrency:    c.Int(summarizeConcurrency),
		strict:         c.Bool(summarizeStrict),
		rejectedLogger: logger.WithThrottler("rejected_samples", c.Duration(globalWarnsThrottle)),
	}
	if err := barpool.Start(); err != nil {
		return fmt.Errorf("cannot start progress bars: %w", err)
	}
	acc, err := s.run(ctx, paths)
	barpool.Stop()
	if err != nil {
		return err
	}
	if err := writeState(c.String(globalStateOut), acc, c.String(globalStateCompression)); err != nil {
		return err
	}
	return rw.write(os.Stdout, acc.Report())
}

func runMerge(ctx context.Context, c *cli.Context) error {
	rw, err := newReportWriter(c.String(globalOutput), c.String(globalTemplate))
	if err != nil {
		return err
	}
	paths, err := expandInputs(c.Args().Slice())
	if err != nil {
		return err
	}
	for _, path := range paths {
		if path == stdinPath {
			return fmt.Errorf("state files cannot be read from stdin")
		}
	}
	acc, err := mergeStates(ctx, paths, c.Int(summarizeConcurrency))
	if err != nil {
		return err
	}
	if err := writeState(c.String(globalStateOut), acc, c.String(globalStateCompression)); err != nil {
		return err
	}
	return rw.write(os.Stdout, acc.Report())
}

func runInspect(c *cli.Context) error {
	rw, err := newReportWriter(c.String(globalOutput), c.String(globalTemplate))
	if err != nil {
		return err
	}
	if c.NArg() != 1 {
		return fmt.Errorf("expecting a single state file; got %d args", c.NArg())
	}
	acc, err := readState(c.Args().First())
	if err != nil {
		return err
	}
	return rw.write(os.Stdout, acc.Report())
}
