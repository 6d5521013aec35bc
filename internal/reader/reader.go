// Package reader streams trimmed, non-blank lines out of a log file and keeps
// count of what it saw.
package reader

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"

	"github.com/access-log-analyzer/backend/internal/models"
)

var (
	// ErrFileNotFound is returned by Open when the path does not name a regular file.
	ErrFileNotFound = errors.New("file not found")
	// ErrEmptyFile is returned by Open for a zero-byte file.
	ErrEmptyFile = errors.New("file is empty")

	errConsumed = errors.New("reader already consumed")
)

// MaxLineLength bounds a single line. A longer line ends the sequence early
// with bufio.ErrTooLong reported by Err.
const MaxLineLength = 1024 * 1024

// Reader produces the lines of one log source. Each call to Lines starts a
// fresh pass and resets the counters. A Reader must not be iterated from
// more than one goroutine at a time.
type Reader struct {
	name string
	size int64
	open func() (io.ReadCloser, error)

	total     int
	skipped   int
	bytesRead int64
	partial   bool
	err       error
}

// Open validates that path is a non-empty regular file. No bytes are read
// until Lines is ranged over.
func Open(path string) (*Reader, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", ErrFileNotFound, path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	return &Reader{
		name: path,
		size: info.Size(),
		open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

// NewReader wraps an already open stream. Unlike a Reader from Open it can be
// iterated only once; later passes end immediately with an error.
func NewReader(r io.Reader, name string) *Reader {
	used := false
	return &Reader{
		name: name,
		size: -1,
		open: func() (io.ReadCloser, error) {
			if used {
				return nil, errConsumed
			}
			used = true
			return io.NopCloser(r), nil
		},
	}
}

// Name returns the path or label of the source.
func (r *Reader) Name() string { return r.name }

// Size returns the on-disk size in bytes, or -1 when unknown.
func (r *Reader) Size() int64 { return r.size }

// BytesRead returns the number of (decompressed) bytes consumed so far in
// the current pass, line terminators included.
func (r *Reader) BytesRead() int64 { return r.bytesRead }

// Err returns the error that ended the last pass early, if any.
func (r *Reader) Err() error { return r.err }

// Stats returns the line counters. They are complete only once a pass over
// Lines has run to the end; otherwise Partial is set.
func (r *Reader) Stats() models.ReadingStats {
	return models.ReadingStats{
		TotalLines:   r.total,
		SkippedLines: r.skipped,
		ValidLines:   r.total - r.skipped,
		Partial:      r.partial,
	}
}

// Lines returns a lazy sequence of trimmed lines. Blank lines are counted as
// skipped and never yielded. A read error stops the sequence, keeps the counts
// gathered so far and is reported by Err.
func (r *Reader) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		r.total, r.skipped, r.bytesRead = 0, 0, 0
		r.partial, r.err = false, nil

		rc, err := r.open()
		if err != nil {
			r.fail(fmt.Errorf("opening %s: %w", r.name, err))
			return
		}
		defer rc.Close()

		src, err := decompress(rc)
		if err != nil {
			r.fail(fmt.Errorf("reading %s: %w", r.name, err))
			return
		}
		if c, ok := src.(io.Closer); ok {
			defer c.Close()
		}

		scanner := bufio.NewScanner(src)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineLength)

		for scanner.Scan() {
			raw := scanner.Bytes()
			r.total++
			r.bytesRead += int64(len(raw)) + 1

			trimmed := bytes.TrimSpace(raw)
			if len(trimmed) == 0 {
				r.skipped++
				continue
			}
			if !yield(string(trimmed)) {
				r.partial = true
				return
			}
		}
		if err := scanner.Err(); err != nil {
			r.fail(fmt.Errorf("reading %s: %w", r.name, err))
		}
	}
}

func (r *Reader) fail(err error) {
	r.err = err
	r.partial = true
}

// decompress transparently unwraps gzip input, detected by its magic bytes.
func decompress(rc io.Reader) (io.Reader, error) {
	br := bufio.NewReader(rc)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(br)
	}
	return br, nil
}
