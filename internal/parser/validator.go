package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/access-log-analyzer/backend/internal/models"
)

// RejectReason explains why a line produced no record. The empty reason means
// the line was accepted.
type RejectReason string

const (
	RejectNone       RejectReason = ""
	RejectShape      RejectReason = "line does not match access log format"
	RejectIPAddress  RejectReason = "invalid ip address"
	RejectStatusCode RejectReason = "status code out of range"
)

// lineRegex is the structural gate. Only the seven accepted methods match, so
// an unrecognized method is a shape rejection, never an UNKNOWN record.
var lineRegex = regexp.MustCompile(
	`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}),` +
		`(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}),` +
		`(GET|POST|PUT|DELETE|HEAD|OPTIONS|PATCH),` +
		`(\d+)$`)

// rawGroups holds the submatches of a line that passed the structural gate.
type rawGroups struct {
	timestamp string
	ip        string
	method    string
	code      string
}

// matchShape is the structural gate.
func matchShape(line string) (rawGroups, bool) {
	m := lineRegex.FindStringSubmatch(line)
	if m == nil {
		return rawGroups{}, false
	}
	return rawGroups{timestamp: m[1], ip: m[2], method: m[3], code: m[4]}, true
}

// validateSemantics is the semantic gate: octet ranges and the status code.
// A bad timestamp does not reject the record; it is kept without one.
func validateSemantics(g rawGroups, line string) (models.AccessRecord, RejectReason) {
	if !ValidIPv4(g.ip) {
		return models.AccessRecord{}, RejectIPAddress
	}

	code, err := strconv.Atoi(g.code)
	if err != nil || code < 0 {
		// Only reachable on overflow; the pattern guarantees digits.
		return models.AccessRecord{}, RejectStatusCode
	}

	rec := models.AccessRecord{
		IPAddress:   g.ip,
		RequestType: canonicalMethod(g.method),
		ErrorCode:   code,
		IsError:     models.IsErrorCode(code),
		RawLine:     line,
	}
	if ts, err := ParseTimestamp(g.timestamp); err == nil {
		rec.Timestamp = ts
		rec.HasTimestamp = true
	}
	return rec, RejectNone
}

// ValidIPv4 reports whether s is a dotted quad with every octet in 0-255.
func ValidIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, part := range parts {
		if part == "" {
			return false
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// canonicalMethod maps a matched method onto its package constant so the
// table key does not reference the line.
func canonicalMethod(m string) string {
	switch m {
	case models.MethodGet:
		return models.MethodGet
	case models.MethodPost:
		return models.MethodPost
	case models.MethodPut:
		return models.MethodPut
	case models.MethodDelete:
		return models.MethodDelete
	case models.MethodHead:
		return models.MethodHead
	case models.MethodOptions:
		return models.MethodOptions
	case models.MethodPatch:
		return models.MethodPatch
	}
	return m
}

// Validator turns raw lines into AccessRecords and counts the outcomes.
// It is not safe for concurrent use; give each goroutine its own Validator
// and combine them with Merge.
type Validator struct {
	intern  *StringIntern
	parsed  int
	failed  int
	rejects map[RejectReason]int
}

// NewValidator creates a validator with a private intern pool.
func NewValidator() *Validator {
	return NewValidatorWithIntern(NewStringIntern())
}

// NewValidatorWithIntern creates a validator sharing the given intern pool.
// The pool is safe to share between validators running in parallel.
func NewValidatorWithIntern(pool *StringIntern) *Validator {
	if pool == nil {
		pool = NewStringIntern()
	}
	return &Validator{
		intern:  pool,
		rejects: make(map[RejectReason]int, 3),
	}
}

// Classify validates one trimmed, non-empty line. On success the reason is
// RejectNone; otherwise the returned record is the zero value.
func (v *Validator) Classify(line string) (models.AccessRecord, RejectReason) {
	g, ok := matchShape(line)
	if !ok {
		v.reject(RejectShape)
		return models.AccessRecord{}, RejectShape
	}

	rec, reason := validateSemantics(g, line)
	if reason != RejectNone {
		v.reject(reason)
		return models.AccessRecord{}, reason
	}

	rec.IPAddress = v.intern.Intern(rec.IPAddress)
	v.parsed++
	return rec, RejectNone
}

// Parse validates one line and reports whether it produced a record.
func (v *Validator) Parse(line string) (models.AccessRecord, bool) {
	rec, reason := v.Classify(line)
	return rec, reason == RejectNone
}

func (v *Validator) reject(reason RejectReason) {
	v.failed++
	v.rejects[reason]++
}

// Stats returns a snapshot of the parse counters.
func (v *Validator) Stats() models.ParsingStats {
	return NewParsingStats(v.parsed, v.failed)
}

// Rejections returns a copy of the per-reason rejection counts.
func (v *Validator) Rejections() map[RejectReason]int {
	out := make(map[RejectReason]int, len(v.rejects))
	for r, n := range v.rejects {
		out[r] = n
	}
	return out
}

// Merge adds the counters of other into v.
func (v *Validator) Merge(other *Validator) {
	v.parsed += other.parsed
	v.failed += other.failed
	for r, n := range other.rejects {
		v.rejects[r] += n
	}
}

// NewParsingStats builds ParsingStats with the success rate rounded to two
// decimals; the rate is 0 when nothing was attempted.
func NewParsingStats(parsed, failed int) models.ParsingStats {
	var rate float64
	if total := parsed + failed; total > 0 {
		rate = math.Round(float64(parsed)/float64(total)*100*100) / 100
	}
	return models.ParsingStats{
		ParsedCount: parsed,
		FailedCount: failed,
		SuccessRate: rate,
	}
}
