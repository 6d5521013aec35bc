package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/access-log-analyzer/backend/internal/models"
)

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Source:  "data/server_logs.txt",
		Reading: models.ReadingStats{TotalLines: 11, SkippedLines: 1, ValidLines: 10},
		Parsing: models.ParsingStats{ParsedCount: 8, FailedCount: 2, SuccessRate: 80},
		Analysis: models.AnalysisStats{
			TotalRequests:   8,
			ErrorRequests:   4,
			SuccessRequests: 4,
			ErrorPercentage: 50,
			ErrorCodeDistribution: []models.CodeCount{
				{Code: 404, Count: 2}, {Code: 503, Count: 1}, {Code: 500, Count: 1},
			},
			TopErrorIPs: []models.KeyCount{
				{Key: "192.168.1.2", Count: 3}, {Key: "192.168.1.1", Count: 1},
			},
			RequestTypeDistribution: []models.KeyCount{
				{Key: "GET", Count: 4}, {Key: "POST", Count: 4},
			},
			UniqueIPs:      4,
			UniqueErrorIPs: 2,
		},
		ElapsedMs: 20,
	}
}

var generatedAt = time.Date(2025, 1, 15, 12, 30, 0, 0, time.UTC)

func TestGenerate_Layout(t *testing.T) {
	want := strings.Join([]string{
		strings.Repeat("=", 60),
		"LOG FILE ANALYSIS REPORT",
		strings.Repeat("=", 60),
		"Generated: 2025-01-15 12:30:00",
		"",
		"FILE STATISTICS",
		strings.Repeat("-", 40),
		"Total Lines Read: 11",
		"Valid Lines: 10",
		"Skipped Lines: 1",
		"Successfully Parsed: 8",
		"Failed to Parse: 2",
		"Success Rate: 80.00%",
		"",
		"ANALYSIS SUMMARY",
		strings.Repeat("-", 40),
		"Total Requests: 8",
		"Error Requests: 4",
		"Success Requests: 4",
		"Error Rate: 50.00%",
		"Unique IP Addresses: 4",
		"Unique IPs with Errors: 2",
		"",
		"ERROR CODE DISTRIBUTION",
		strings.Repeat("-", 40),
		"HTTP 404: 2 errors",
		"HTTP 500: 1 errors",
		"HTTP 503: 1 errors",
		"",
		"TOP IP ADDRESSES WITH ERRORS",
		strings.Repeat("-", 40),
		"192.168.1.2: 3 errors",
		"192.168.1.1: 1 errors",
		"",
		"REQUEST TYPE DISTRIBUTION",
		strings.Repeat("-", 40),
		"GET: 4 requests",
		"POST: 4 requests",
		"",
		strings.Repeat("=", 60),
		"END OF REPORT",
		strings.Repeat("=", 60),
	}, "\n")

	assert.Equal(t, want, Generate(sampleSnapshot(), generatedAt))
}

func TestGenerate_EmptySectionsOmitted(t *testing.T) {
	snap := &models.Snapshot{Analysis: models.EmptyAnalysisStats()}

	out := Generate(snap, generatedAt)
	assert.Contains(t, out, "Total Requests: 0")
	assert.Contains(t, out, "Error Rate: 0.00%")
	assert.NotContains(t, out, "ERROR CODE DISTRIBUTION")
	assert.NotContains(t, out, "TOP IP ADDRESSES WITH ERRORS")
	assert.NotContains(t, out, "REQUEST TYPE DISTRIBUTION")
	assert.True(t, strings.HasSuffix(out, "END OF REPORT\n"+strings.Repeat("=", 60)))
}

func TestGenerate_Partial(t *testing.T) {
	snap := sampleSnapshot()
	snap.Reading.Partial = true

	assert.Contains(t, Generate(snap, generatedAt), "figures are partial")
}

func TestSortedByCode(t *testing.T) {
	in := []models.CodeCount{{Code: 503, Count: 9}, {Code: 400, Count: 1}}
	got := SortedByCode(in)

	assert.Equal(t, []models.CodeCount{{Code: 400, Count: 1}, {Code: 503, Count: 9}}, got)
	assert.Equal(t, 503, in[0].Code, "input must not be reordered")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "summary_report.txt")

	require.NoError(t, WriteFile(path, "hello"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestSummary(t *testing.T) {
	out := Summary(sampleSnapshot())

	assert.Contains(t, out, "Log Analysis Summary")
	assert.Contains(t, out, "192.168.1.2 (3)")
	assert.Contains(t, out, "8 / 10 (80.00%)")
}

func TestMsgpackRoundTrip(t *testing.T) {
	snap := sampleSnapshot()

	data, err := EncodeMsgpack(snap)
	require.NoError(t, err)

	got, err := DecodeMsgpack(data)
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestDecodeMsgpack_Garbage(t *testing.T) {
	_, err := DecodeMsgpack([]byte{0xc1})
	assert.Error(t, err)
}
