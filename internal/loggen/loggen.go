// Package loggen writes synthetic access logs for load and regression tests.
package loggen

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/access-log-analyzer/backend/internal/models"
)

// Defaults match the large test file shipped with the analyzer.
const (
	DefaultLines         = 50000
	DefaultIPCount       = 100
	DefaultMalformedRate = 0.02
)

var (
	methods = []string{
		models.MethodGet, models.MethodPost, models.MethodPut, models.MethodDelete,
		models.MethodHead, models.MethodOptions, models.MethodPatch,
	}
	statusCodes = []int{200, 201, 301, 302, 400, 401, 403, 404, 500, 502, 503}

	// DefaultStart is the timestamp of the first generated line.
	DefaultStart = time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
)

// Options controls generation. Zero Lines, IPCount and Start take the
// defaults; MalformedRate is used as given.
type Options struct {
	Lines         int
	IPCount       int
	MalformedRate float64
	Seed          uint64
	Start         time.Time

	// OnProgress, if set, is called every ProgressEvery lines.
	OnProgress    func(written int)
	ProgressEvery int
}

func (o *Options) applyDefaults() {
	if o.Lines <= 0 {
		o.Lines = DefaultLines
	}
	if o.IPCount <= 0 {
		o.IPCount = DefaultIPCount
	}
	if o.MalformedRate < 0 {
		o.MalformedRate = 0
	}
	if o.Start.IsZero() {
		o.Start = DefaultStart
	}
	if o.ProgressEvery <= 0 {
		o.ProgressEvery = 5000
	}
}

// Summary describes what was written.
type Summary struct {
	Lines        int
	Malformed    int
	BadIP        int
	BytesWritten int64
}

// Write generates opts.Lines lines into w. The same seed always produces the
// same bytes. One line per second starting at opts.Start; roughly
// MalformedRate of lines are broken, half with no structure at all and half
// with an invalid IP field.
func Write(w io.Writer, opts Options) (Summary, error) {
	opts.applyDefaults()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	ips := make([]string, opts.IPCount)
	for i := range ips {
		ips[i] = fmt.Sprintf("192.168.%d.%d", rng.IntN(255)+1, rng.IntN(255)+1)
	}

	cw := &countingWriter{w: w}
	bw := bufio.NewWriterSize(cw, 64*1024)
	var sum Summary

	for i := range opts.Lines {
		ts := opts.Start.Add(time.Duration(i) * time.Second).Format(models.TimestampLayout)
		ip := ips[rng.IntN(len(ips))]
		method := methods[rng.IntN(len(methods))]
		code := statusCodes[rng.IntN(len(statusCodes))]

		var err error
		if rng.Float64() < opts.MalformedRate {
			if rng.Float64() < 0.5 {
				_, err = fmt.Fprintf(bw, "MALFORMED_LINE_%d\n", i)
				sum.Malformed++
			} else {
				_, err = fmt.Fprintf(bw, "%s,INVALID_IP,%s,%d\n", ts, method, code)
				sum.BadIP++
			}
		} else {
			_, err = fmt.Fprintf(bw, "%s,%s,%s,%d\n", ts, ip, method, code)
		}
		if err != nil {
			return sum, fmt.Errorf("writing line %d: %w", i, err)
		}
		sum.Lines++

		if opts.OnProgress != nil && i > 0 && i%opts.ProgressEvery == 0 {
			opts.OnProgress(i)
		}
	}

	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("flushing output: %w", err)
	}
	sum.BytesWritten = cw.n
	return sum, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
