package analyzer

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/access-log-analyzer/backend/internal/models"
)

func record(ip, method string, code int) models.AccessRecord {
	return models.AccessRecord{
		IPAddress:   ip,
		RequestType: method,
		ErrorCode:   code,
		IsError:     models.IsErrorCode(code),
	}
}

func TestAnalyze_Empty(t *testing.T) {
	stats, err := Analyze(Config{}, slices.Values([]models.AccessRecord(nil)))

	assert.ErrorIs(t, err, ErrNoValidRecords)
	assert.Equal(t, models.EmptyAnalysisStats(), stats)
	assert.Zero(t, stats.ErrorPercentage)
	assert.NotNil(t, stats.TopErrorIPs)
}

func TestAnalyze_TopErrorIPs(t *testing.T) {
	var recs []models.AccessRecord
	for _, ip := range []string{"A", "A", "B", "C", "C", "C"} {
		recs = append(recs, record(ip, models.MethodGet, 500))
	}

	stats, err := Analyze(Config{TopN: 2}, slices.Values(recs))
	require.NoError(t, err)

	assert.Equal(t, []models.KeyCount{{Key: "C", Count: 3}, {Key: "A", Count: 2}}, stats.TopErrorIPs)
	assert.Equal(t, 3, stats.UniqueErrorIPs)
}

func TestAnalyze_DefaultTopN(t *testing.T) {
	agg := New(Config{})
	for _, ip := range []string{"1", "2", "3", "4", "5", "6", "7"} {
		agg.Add(record(ip, models.MethodGet, 404))
	}

	stats, err := agg.Result()
	require.NoError(t, err)
	assert.Len(t, stats.TopErrorIPs, DefaultTopN)
	assert.Equal(t, "1", stats.TopErrorIPs[0].Key)
}

func TestAnalyze_NegativeTopNDisablesTable(t *testing.T) {
	agg := New(Config{TopN: -1})
	agg.Add(record("1.1.1.1", models.MethodGet, 500))

	stats, err := agg.Result()
	require.NoError(t, err)
	assert.Empty(t, stats.TopErrorIPs)
}

func TestAnalyze_Tables(t *testing.T) {
	recs := []models.AccessRecord{
		record("10.0.0.1", models.MethodGet, 200),
		record("10.0.0.2", models.MethodPost, 404),
		record("10.0.0.1", models.MethodGet, 500),
		record("10.0.0.3", models.MethodGet, 200),
		record("10.0.0.2", models.MethodPost, 404),
		record("10.0.0.4", models.MethodDelete, 301),
		record("10.0.0.1", models.MethodGet, 600),
	}

	stats, err := Analyze(Config{}, slices.Values(recs))
	require.NoError(t, err)

	assert.Equal(t, 7, stats.TotalRequests)
	assert.Equal(t, 3, stats.ErrorRequests)
	assert.Equal(t, 4, stats.SuccessRequests)
	assert.InDelta(t, 42.857, stats.ErrorPercentage, 0.001)

	assert.Equal(t, []models.CodeCount{
		{Code: 200, Count: 2}, {Code: 404, Count: 2}, {Code: 500, Count: 1}, {Code: 301, Count: 1}, {Code: 600, Count: 1},
	}, stats.StatusCodeDistribution)
	assert.Equal(t, []models.CodeCount{{Code: 404, Count: 2}, {Code: 500, Count: 1}}, stats.ErrorCodeDistribution)

	assert.Equal(t, []models.KeyCount{
		{Key: models.MethodGet, Count: 4}, {Key: models.MethodPost, Count: 2}, {Key: models.MethodDelete, Count: 1},
	}, stats.RequestTypeDistribution)
	assert.Equal(t, []models.KeyCount{
		{Key: models.MethodPost, Count: 2}, {Key: models.MethodGet, Count: 1},
	}, stats.ErrorByRequest)
	assert.Equal(t, []models.KeyCount{
		{Key: "10.0.0.2", Count: 2}, {Key: "10.0.0.1", Count: 1},
	}, stats.TopErrorIPs)

	assert.Equal(t, 4, stats.UniqueIPs)
	assert.Equal(t, 2, stats.UniqueErrorIPs)
}

func TestAnalyze_AllSuccess(t *testing.T) {
	stats, err := Analyze(Config{}, slices.Values([]models.AccessRecord{
		record("1.1.1.1", models.MethodHead, 200),
	}))
	require.NoError(t, err)

	assert.Zero(t, stats.ErrorPercentage)
	assert.NotNil(t, stats.ErrorCodeDistribution)
	assert.Empty(t, stats.ErrorCodeDistribution)
	assert.Empty(t, stats.TopErrorIPs)
}

func TestAggregator_MergeMatchesSequential(t *testing.T) {
	ips := []string{"a", "b", "c", "d"}
	codes := []int{200, 404, 500, 302, 403}
	methods := []string{models.MethodGet, models.MethodPost, models.MethodPut}

	var recs []models.AccessRecord
	for i := 0; i < 97; i++ {
		recs = append(recs, record(ips[(i*7)%len(ips)], methods[i%len(methods)], codes[(i*3)%len(codes)]))
	}

	want, err := Analyze(Config{TopN: 3}, slices.Values(recs))
	require.NoError(t, err)

	merged := New(Config{TopN: 3})
	for chunk := range slices.Chunk(recs, 10) {
		part := New(Config{TopN: 3})
		for _, r := range chunk {
			part.Add(r)
		}
		merged.Merge(part)
	}
	got, err := merged.Result()
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestAnalyze_Deterministic(t *testing.T) {
	recs := []models.AccessRecord{
		record("9.9.9.9", models.MethodGet, 503),
		record("1.1.1.1", models.MethodGet, 503),
		record("5.5.5.5", models.MethodPatch, 401),
	}

	first, err := Analyze(Config{}, slices.Values(recs))
	require.NoError(t, err)
	for range 20 {
		again, err := Analyze(Config{}, slices.Values(recs))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
