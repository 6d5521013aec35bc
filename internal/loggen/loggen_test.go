package loggen

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/access-log-analyzer/backend/internal/parser"
)

func TestWrite_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	_, err := Write(&a, Options{Lines: 500, Seed: 7})
	require.NoError(t, err)
	_, err = Write(&b, Options{Lines: 500, Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, a.String(), b.String())
}

func TestWrite_SeedsDiffer(t *testing.T) {
	var a, b bytes.Buffer
	_, err := Write(&a, Options{Lines: 200, Seed: 1})
	require.NoError(t, err)
	_, err = Write(&b, Options{Lines: 200, Seed: 2})
	require.NoError(t, err)

	assert.NotEqual(t, a.String(), b.String())
}

func TestWrite_ValidatorAgreesWithSummary(t *testing.T) {
	var buf bytes.Buffer
	sum, err := Write(&buf, Options{Lines: 5000, Seed: 42, MalformedRate: 0.1})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5000)
	assert.Equal(t, 5000, sum.Lines)
	assert.Equal(t, int64(buf.Len()), sum.BytesWritten)
	assert.Positive(t, sum.Malformed)
	assert.Positive(t, sum.BadIP)

	v := parser.NewValidator()
	for _, line := range lines {
		v.Parse(line)
	}
	stats := v.Stats()
	assert.Equal(t, sum.Malformed+sum.BadIP, stats.FailedCount)
	assert.Equal(t, 5000-stats.FailedCount, stats.ParsedCount)
}

func TestWrite_NoMalformed(t *testing.T) {
	var buf bytes.Buffer
	sum, err := Write(&buf, Options{Lines: 100, MalformedRate: 0})
	require.NoError(t, err)

	assert.Zero(t, sum.Malformed+sum.BadIP)
	assert.True(t, strings.HasPrefix(buf.String(), "2025-01-15 00:00:00,192.168."))
}

func TestWrite_Progress(t *testing.T) {
	var calls []int
	_, err := Write(&bytes.Buffer{}, Options{
		Lines:         25,
		ProgressEvery: 10,
		OnProgress:    func(n int) { calls = append(calls, n) },
	})
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, calls)
}
