// Command genlogs writes a synthetic access log for load testing the analyzer.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/access-log-analyzer/backend/internal/logging"
	"github.com/access-log-analyzer/backend/internal/loggen"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("genlogs", flag.ContinueOnError)
	fs.SetOutput(stderr)

	out := fs.String("out", "data/large_server_logs.txt", "output file, - for stdout")
	lines := fs.Int("lines", loggen.DefaultLines, "number of lines")
	ips := fs.Int("ips", loggen.DefaultIPCount, "size of the client IP pool")
	malformed := fs.Float64("malformed", loggen.DefaultMalformedRate, "fraction of broken lines")
	seed := fs.Uint64("seed", 42, "random seed; equal seeds produce identical files")
	logLevel := fs.String("log-level", "info", "debug, info, warn or error")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *malformed < 0 || *malformed > 1 {
		fmt.Fprintln(stderr, "-malformed must be between 0 and 1")
		return 2
	}

	log := logging.NewLogger(stderr, "text", *logLevel)

	var dst io.Writer = stdout
	if *out != "-" {
		if err := os.MkdirAll(filepath.Dir(*out), 0755); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		f, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		defer f.Close()
		dst = f
	}

	bw := bufio.NewWriterSize(dst, 1<<16)
	start := time.Now()
	sum, err := loggen.Write(bw, loggen.Options{
		Lines:         *lines,
		IPCount:       *ips,
		MalformedRate: *malformed,
		Seed:          *seed,
		ProgressEvery: 10000,
		OnProgress: func(n int) {
			log.Debug("lines_written", "lines", n)
		},
	})
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	log.Info("log_generated",
		"path", *out,
		"lines", sum.Lines,
		"malformed", sum.Malformed,
		"bad_ip", sum.BadIP,
		"bytes", sum.BytesWritten,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return 0
}
