package parser

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/access-log-analyzer/backend/internal/models"
)

func TestValidator_AcceptsWellFormedLines(t *testing.T) {
	tests := []struct {
		name      string
		line      string
		ip        string
		method    string
		code      int
		wantError bool
	}{
		{"success GET", "2025-01-15 00:00:00,192.168.1.1,GET,200", "192.168.1.1", "GET", 200, false},
		{"not found", "2025-01-15 00:00:05,192.168.1.1,GET,404", "192.168.1.1", "GET", 404, true},
		{"server error", "2025-01-15 00:00:06,10.0.0.1,POST,503", "10.0.0.1", "POST", 503, true},
		{"lower error bound", "2025-01-15 00:00:07,10.0.0.1,PUT,400", "10.0.0.1", "PUT", 400, true},
		{"upper error bound", "2025-01-15 00:00:08,10.0.0.1,DELETE,599", "10.0.0.1", "DELETE", 599, true},
		{"just below errors", "2025-01-15 00:00:09,10.0.0.1,HEAD,399", "10.0.0.1", "HEAD", 399, false},
		{"just above errors", "2025-01-15 00:00:10,10.0.0.1,OPTIONS,600", "10.0.0.1", "OPTIONS", 600, false},
		{"zero code", "2025-01-15 00:00:11,0.0.0.0,PATCH,0", "0.0.0.0", "PATCH", 0, false},
		{"long code", "2025-01-15 00:00:12,255.255.255.255,GET,0000404", "255.255.255.255", "GET", 404, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			rec, ok := v.Parse(tt.line)
			require.True(t, ok)

			assert.Equal(t, tt.ip, rec.IPAddress)
			assert.Equal(t, tt.method, rec.RequestType)
			assert.Equal(t, tt.code, rec.ErrorCode)
			assert.Equal(t, tt.wantError, rec.IsError)
			assert.Equal(t, tt.line, rec.RawLine)
			assert.True(t, rec.HasTimestamp)
			assert.Equal(t, models.ParsingStats{ParsedCount: 1, SuccessRate: 100}, v.Stats())
		})
	}
}

func TestValidator_IsErrorMatchesCodeRange(t *testing.T) {
	v := NewValidator()
	for code := 0; code < 1000; code++ {
		line := fmt.Sprintf("2025-01-15 00:00:00,1.2.3.4,GET,%d", code)
		rec, ok := v.Parse(line)
		require.True(t, ok, line)
		assert.Equal(t, code >= 400 && code < 600, rec.IsError, "code %d", code)
	}
	assert.Equal(t, 1000, v.Stats().ParsedCount)
}

func TestValidator_RejectsMalformedLines(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		reason RejectReason
	}{
		{"garbage", "MALFORMED_LINE_7", RejectShape},
		{"extra field", "2025-01-15 00:00:00,192.168.1.1,GET,200,extra", RejectShape},
		{"missing comma", "2025-01-15 00:00:00 192.168.1.1,GET,200", RejectShape},
		{"unknown method", "2025-01-15 00:00:00,192.168.1.1,FETCH,200", RejectShape},
		{"lowercase method", "2025-01-15 00:00:00,192.168.1.1,get,200", RejectShape},
		{"non-digit code", "2025-01-15 00:00:00,192.168.1.1,GET,2OO", RejectShape},
		{"negative code", "2025-01-15 00:00:00,192.168.1.1,GET,-200", RejectShape},
		{"invalid ip token", "2025-01-15 00:00:00,INVALID_IP,GET,200", RejectShape},
		{"three octets", "2025-01-15 00:00:00,192.168.1,GET,200", RejectShape},
		{"four digit octet", "2025-01-15 00:00:00,1921.168.1.1,GET,200", RejectShape},
		{"trailing space", "2025-01-15 00:00:00,192.168.1.1,GET,200 ", RejectShape},
		{"date only", "2025-01-15,192.168.1.1,GET,200", RejectShape},
		{"octet out of range", "2025-01-15 00:00:10,999.1.1.1,GET,200", RejectIPAddress},
		{"last octet out of range", "2025-01-15 00:00:10,1.1.1.256,GET,200", RejectIPAddress},
		{"code overflow", "2025-01-15 00:00:10,1.1.1.1,GET,99999999999999999999999", RejectStatusCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator()
			rec, reason := v.Classify(tt.line)

			assert.Equal(t, tt.reason, reason)
			assert.Equal(t, models.AccessRecord{}, rec)

			stats := v.Stats()
			assert.Equal(t, 0, stats.ParsedCount)
			assert.Equal(t, 1, stats.FailedCount)
			assert.Equal(t, 1, v.Rejections()[tt.reason])
		})
	}
}

func TestValidator_BadTimestampKeepsRecord(t *testing.T) {
	v := NewValidator()

	// Shape matches, calendar does not.
	rec, ok := v.Parse("2025-13-45 25:61:99,10.1.1.1,GET,500")
	require.True(t, ok)
	assert.False(t, rec.HasTimestamp)
	assert.True(t, rec.Timestamp.IsZero())
	assert.True(t, rec.IsError)

	rec, ok = v.Parse("2025-02-30 10:00:00,10.1.1.1,GET,200")
	require.True(t, ok)
	assert.False(t, rec.HasTimestamp)

	rec, ok = v.Parse("2024-02-29 10:00:00,10.1.1.1,GET,200")
	require.True(t, ok)
	assert.True(t, rec.HasTimestamp)
	assert.Equal(t, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC), rec.Timestamp)

	assert.Equal(t, 3, v.Stats().ParsedCount)
}

func TestValidator_Stats(t *testing.T) {
	t.Run("zero when nothing attempted", func(t *testing.T) {
		assert.Equal(t, models.ParsingStats{}, NewValidator().Stats())
	})

	t.Run("rounds success rate to two decimals", func(t *testing.T) {
		v := NewValidator()
		v.Parse("2025-01-15 00:00:00,1.1.1.1,GET,200")
		v.Parse("2025-01-15 00:00:00,1.1.1.1,GET,200")
		v.Parse("bad")

		stats := v.Stats()
		assert.Equal(t, 2, stats.ParsedCount)
		assert.Equal(t, 1, stats.FailedCount)
		assert.Equal(t, 3, stats.Attempted())
		assert.Equal(t, 66.67, stats.SuccessRate)
	})

	t.Run("merge sums counters", func(t *testing.T) {
		a, b := NewValidator(), NewValidator()
		a.Parse("2025-01-15 00:00:00,1.1.1.1,GET,200")
		b.Parse("nope")
		b.Parse("2025-01-15 00:00:00,999.1.1.1,GET,200")

		a.Merge(b)
		assert.Equal(t, 1, a.Stats().ParsedCount)
		assert.Equal(t, 2, a.Stats().FailedCount)
		assert.Equal(t, map[RejectReason]int{RejectShape: 1, RejectIPAddress: 1}, a.Rejections())
	})
}

func TestValidator_InternsAddresses(t *testing.T) {
	pool := NewStringIntern()
	v := NewValidatorWithIntern(pool)

	v.Parse("2025-01-15 00:00:00,10.0.0.1,GET,200")
	v.Parse("2025-01-15 00:00:01,10.0.0.1,GET,404")
	v.Parse("2025-01-15 00:00:02,10.0.0.2,GET,404")

	assert.Equal(t, 2, pool.Len())
}

func TestValidIPv4(t *testing.T) {
	valid := []string{"0.0.0.0", "255.255.255.255", "192.168.1.1", "10.0.0.01"}
	for _, ip := range valid {
		assert.True(t, ValidIPv4(ip), ip)
	}

	invalid := []string{"", "1.2.3", "1.2.3.4.5", "256.1.1.1", "1.1.1.999", "a.b.c.d", "1..1.1", "1.1.1.-1"}
	for _, ip := range invalid {
		assert.False(t, ValidIPv4(ip), ip)
	}
}

func TestNewParsingStats(t *testing.T) {
	assert.Equal(t, 0.0, NewParsingStats(0, 0).SuccessRate)
	assert.Equal(t, 100.0, NewParsingStats(5, 0).SuccessRate)
	assert.Equal(t, 0.0, NewParsingStats(0, 5).SuccessRate)
	assert.Equal(t, 98.0, NewParsingStats(49, 1).SuccessRate)
	assert.Equal(t, 33.33, NewParsingStats(1, 2).SuccessRate)
}

func BenchmarkValidator_Parse(b *testing.B) {
	v := NewValidator()
	lines := []string{
		"2025-01-15 00:00:00,192.168.1.1,GET,200",
		"2025-01-15 00:00:05,192.168.1.1,GET,404",
		"MALFORMED_LINE_7",
		"2025-01-15 00:00:10,999.1.1.1,GET,200",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.Parse(lines[i%len(lines)])
	}
}
