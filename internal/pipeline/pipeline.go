// Package pipeline runs the read, validate and aggregate stages over one log
// source and produces a Snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/access-log-analyzer/backend/internal/analyzer"
	"github.com/access-log-analyzer/backend/internal/logging"
	"github.com/access-log-analyzer/backend/internal/metrics"
	"github.com/access-log-analyzer/backend/internal/models"
	"github.com/access-log-analyzer/backend/internal/parser"
	"github.com/access-log-analyzer/backend/internal/reader"
)

// Defaults for Options fields left at zero.
const (
	DefaultChunkSize        = 5000
	DefaultProgressInterval = 10000
)

// Progress is reported every ProgressInterval non-blank lines.
type Progress struct {
	Lines      int
	BytesRead  int64
	TotalBytes int64 // -1 when the source size is unknown
}

// Percent estimates completion from bytes, or returns -1 when unknown.
// Compressed input reads more bytes than its on-disk size, so the value is
// capped at 99 until the run finishes.
func (p Progress) Percent() float64 {
	if p.TotalBytes <= 0 {
		return -1
	}
	pct := float64(p.BytesRead) / float64(p.TotalBytes) * 100
	if pct > 99 {
		pct = 99
	}
	return pct
}

// Options configures a run.
type Options struct {
	Analysis analyzer.Config

	// Workers > 1 validates and aggregates chunks of ChunkSize lines in
	// parallel. Results are merged in chunk order, so output is identical to
	// a sequential run.
	Workers   int
	ChunkSize int

	ProgressInterval int
	// OnProgress is called from the goroutine reading the source.
	OnProgress func(Progress)

	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = DefaultProgressInterval
	}
	if o.Logger == nil {
		o.Logger = logging.Discard()
	}
	return o
}

// Run analyzes the file at path. A missing or empty file fails before any
// line is read with reader.ErrFileNotFound or reader.ErrEmptyFile and a nil
// snapshot.
//
// Otherwise a snapshot is always returned. When no line was accepted the
// error is analyzer.ErrNoValidRecords. When ctx is canceled the snapshot is
// marked partial and the error wraps ctx.Err(). A read failure part way
// through also marks the snapshot partial but is not returned as an error.
func Run(ctx context.Context, path string, opts Options) (*models.Snapshot, error) {
	r, err := reader.Open(path)
	if err != nil {
		opts.Metrics.RunStarted()
		opts.Metrics.RunFinished(metrics.OutcomeFailed, nil, 0)
		return nil, err
	}
	return RunReader(ctx, r, opts)
}

// RunReader is Run over an already opened reader.
func RunReader(ctx context.Context, r *reader.Reader, opts Options) (*models.Snapshot, error) {
	opts = opts.withDefaults()
	log := opts.Logger.With("source", r.Name())

	start := time.Now()
	opts.Metrics.RunStarted()
	log.Info("analysis_started", "workers", opts.Workers, "bytes", r.Size())

	var (
		v   *parser.Validator
		agg *analyzer.Aggregator
		err error
	)
	if opts.Workers == 1 {
		v, agg, err = runSequential(ctx, r, opts)
	} else {
		v, agg, err = runParallel(ctx, r, opts)
	}

	snap := &models.Snapshot{
		Source:  r.Name(),
		Reading: r.Stats(),
		Parsing: v.Stats(),
	}
	if err != nil {
		snap.Reading.Partial = true
	}

	stats, resErr := agg.Result()
	snap.Analysis = stats
	elapsed := time.Since(start)
	snap.ElapsedMs = elapsed.Milliseconds()

	if readErr := r.Err(); readErr != nil {
		log.Warn("read_stopped_early", "error", readErr, "lines", snap.Reading.TotalLines)
	}

	switch {
	case err != nil:
		opts.Metrics.RunFinished(metrics.OutcomeCanceled, snap, elapsed)
		log.Warn("analysis_canceled", "error", err, "lines", snap.Reading.TotalLines)
		return snap, fmt.Errorf("analysis of %s interrupted: %w", r.Name(), err)
	case errors.Is(resErr, analyzer.ErrNoValidRecords):
		opts.Metrics.RunFinished(metrics.OutcomeNoRecords, snap, elapsed)
		log.Warn("no_valid_records",
			"total_lines", snap.Reading.TotalLines,
			"failed", snap.Parsing.FailedCount,
		)
		return snap, resErr
	}

	opts.Metrics.RunFinished(metrics.OutcomeOK, snap, elapsed)
	log.Info("analysis_complete",
		"total_lines", snap.Reading.TotalLines,
		"parsed", snap.Parsing.ParsedCount,
		"failed", snap.Parsing.FailedCount,
		"success_rate", snap.Parsing.SuccessRate,
		"elapsed_ms", snap.ElapsedMs,
		"lines_per_sec", int64(snap.LinesPerSecond()),
	)
	return snap, nil
}

// readLines drives r and hands every line to sink, reporting progress and
// stopping on cancellation or when sink returns an error.
func readLines(ctx context.Context, r *reader.Reader, opts Options, sink func(string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	lines := 0
	for line := range r.Lines() {
		if err := sink(line); err != nil {
			return err
		}
		lines++
		if lines%opts.ProgressInterval == 0 {
			p := Progress{Lines: lines, BytesRead: r.BytesRead(), TotalBytes: r.Size()}
			opts.Logger.Info("analysis_progress", "source", r.Name(), "lines", lines)
			if opts.OnProgress != nil {
				opts.OnProgress(p)
			}
		}
		if lines%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func runSequential(ctx context.Context, r *reader.Reader, opts Options) (*parser.Validator, *analyzer.Aggregator, error) {
	v := parser.NewValidator()
	agg := analyzer.New(opts.Analysis)

	err := readLines(ctx, r, opts, func(line string) error {
		if rec, ok := v.Parse(line); ok {
			agg.Add(rec)
		}
		return nil
	})
	return v, agg, err
}

type chunk struct {
	seq   int
	lines []string
}

type chunkResult struct {
	seq int
	v   *parser.Validator
	agg *analyzer.Aggregator
}

// runParallel cuts the line stream into numbered chunks, processes them on
// opts.Workers goroutines and folds the partial results back in sequence
// order. Folding out of order would change first-appearance order and with
// it the top-K tie-break.
func runParallel(ctx context.Context, r *reader.Reader, opts Options) (*parser.Validator, *analyzer.Aggregator, error) {
	g, gctx := errgroup.WithContext(ctx)
	chunks := make(chan chunk, opts.Workers)
	results := make(chan chunkResult, opts.Workers)
	pool := parser.NewStringIntern()

	g.Go(func() error {
		defer close(chunks)
		seq := 0
		buf := make([]string, 0, opts.ChunkSize)
		send := func() error {
			select {
			case chunks <- chunk{seq: seq, lines: buf}:
				seq++
				buf = make([]string, 0, opts.ChunkSize)
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}

		err := readLines(gctx, r, opts, func(line string) error {
			buf = append(buf, line)
			if len(buf) == opts.ChunkSize {
				return send()
			}
			return nil
		})
		if err != nil {
			return err
		}
		if len(buf) > 0 {
			return send()
		}
		return nil
	})

	workers, wctx := errgroup.WithContext(gctx)
	for range opts.Workers {
		workers.Go(func() error {
			for c := range chunks {
				res := chunkResult{
					seq: c.seq,
					v:   parser.NewValidatorWithIntern(pool),
					agg: analyzer.New(opts.Analysis),
				}
				for _, line := range c.lines {
					if rec, ok := res.v.Parse(line); ok {
						res.agg.Add(rec)
					}
				}
				select {
				case results <- res:
				case <-wctx.Done():
					return wctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	v := parser.NewValidatorWithIntern(pool)
	agg := analyzer.New(opts.Analysis)
	pending := make(map[int]chunkResult)
	next := 0
	for res := range results {
		pending[res.seq] = res
		for {
			p, ok := pending[next]
			if !ok {
				break
			}
			v.Merge(p.v)
			agg.Merge(p.agg)
			delete(pending, next)
			next++
		}
	}

	return v, agg, g.Wait()
}
