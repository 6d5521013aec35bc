// Command loganalyzer analyzes one access log file and writes a text report
// and charts.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/access-log-analyzer/backend/internal/analyzer"
	"github.com/access-log-analyzer/backend/internal/artifacts"
	"github.com/access-log-analyzer/backend/internal/config"
	"github.com/access-log-analyzer/backend/internal/logging"
	"github.com/access-log-analyzer/backend/internal/pipeline"
	"github.com/access-log-analyzer/backend/internal/reader"
	"github.com/access-log-analyzer/backend/internal/report"
)

// Exit codes.
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitNoRecords   = 3
	exitInterrupted = 130
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	file      string
	config    string
	top       int
	workers   int
	out       string
	noCharts  bool
	logLevel  string
	logFormat string
	logFile   string
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("loganalyzer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.file, "file", "", "log file to analyze (default: storage.default_input_file)")
	fs.StringVar(&opts.config, "config", "", "XML or YAML config file")
	fs.IntVar(&opts.top, "top", 0, "number of top error IPs to report")
	fs.IntVar(&opts.workers, "workers", 0, "parallel parse workers")
	fs.StringVar(&opts.out, "out", "", "output directory for the report and charts")
	fs.BoolVar(&opts.noCharts, "no-charts", false, "skip chart rendering")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&opts.logFormat, "log-format", "", "text or json")
	fs.StringVar(&opts.logFile, "log-file", "", "execution log file, empty to disable")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return exitUsage
	}

	cfg, err := config.LoadOrDefault(opts.config)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	logFile := applyFlags(fs, &opts, cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid configuration:\n%v\n", err)
		return exitUsage
	}

	log, closer, err := logging.Setup(cfg.Logging.Format, cfg.Logging.Level, logFile)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	defer closer.Close()

	input := cfg.Storage.DefaultInputFile
	log.Info("analyzer_started", "file", input, "workers", cfg.Analysis.Workers, "top", cfg.Analysis.TopIPCount)
	start := time.Now()

	snap, err := pipeline.Run(ctx, input, pipeline.Options{
		Analysis:         analyzer.Config{TopN: cfg.Analysis.TopIPCount},
		Workers:          cfg.Analysis.Workers,
		ChunkSize:        cfg.Analysis.ChunkSize,
		ProgressInterval: cfg.Analysis.ProgressInterval,
		Logger:           log,
	})
	switch {
	case errors.Is(err, reader.ErrFileNotFound), errors.Is(err, reader.ErrEmptyFile):
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	case errors.Is(err, analyzer.ErrNoValidRecords):
		fmt.Fprintf(stderr, "error: %s: no valid log entries found (%d lines rejected)\n",
			input, snap.Parsing.FailedCount)
		return exitNoRecords
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stdout, report.Summary(snap))
		fmt.Fprintln(stderr, "interrupted: results above are partial")
		return exitInterrupted
	case err != nil:
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}

	w := &artifacts.Writer{
		Dir:    cfg.Storage.OutputDirectory,
		Charts: cfg.Analysis.GenerateCharts,
		Logger: log,
	}
	arts, text, err := w.Write(snap, "")
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}

	fmt.Fprintln(stdout, report.Summary(snap))
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, text)
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "Report: %s\n", arts.Report)
	if arts.ErrorDistribution != "" {
		fmt.Fprintf(stdout, "Chart:  %s\n", arts.ErrorDistribution)
	}
	if arts.TopIPs != "" {
		fmt.Fprintf(stdout, "Chart:  %s\n", arts.TopIPs)
	}
	fmt.Fprintf(stdout, "Output directory: %s\n", cfg.Storage.OutputDirectory)

	log.Info("analyzer_finished", "elapsed", time.Since(start).Round(time.Millisecond))
	return exitOK
}

// applyFlags copies explicitly set flags over cfg and returns the execution
// log path to use.
func applyFlags(fs *flag.FlagSet, opts *options, cfg *config.AppConfig) string {
	logFile := cfg.ExecutionLogPath()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "file":
			cfg.Storage.DefaultInputFile = opts.file
		case "top":
			cfg.Analysis.TopIPCount = opts.top
		case "workers":
			cfg.Analysis.Workers = opts.workers
		case "out":
			cfg.Storage.OutputDirectory = opts.out
		case "no-charts":
			cfg.Analysis.GenerateCharts = !opts.noCharts
		case "log-level":
			cfg.Logging.Level = opts.logLevel
		case "log-format":
			cfg.Logging.Format = opts.logFormat
		case "log-file":
			logFile = opts.logFile
		}
	})
	return logFile
}
