// Package models contains domain types for the access log analyzer.
package models

import "time"

// Request methods accepted by the log format.
const (
	MethodGet     = "GET"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodDelete  = "DELETE"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
	MethodPatch   = "PATCH"
)

// TimestampLayout is the fixed timestamp format of every log line.
const TimestampLayout = "2006-01-02 15:04:05"

// AccessRecord is one validated access log line.
// Format: "YYYY-MM-DD HH:MM:SS,A.B.C.D,METHOD,CODE"
type AccessRecord struct {
	Timestamp    time.Time `json:"timestamp" msgpack:"timestamp"`
	HasTimestamp bool      `json:"hasTimestamp" msgpack:"hasTimestamp"` // false when the timestamp did not parse
	IPAddress    string    `json:"ipAddress" msgpack:"ipAddress"`
	RequestType  string    `json:"requestType" msgpack:"requestType"`
	ErrorCode    int       `json:"errorCode" msgpack:"errorCode"`
	IsError      bool      `json:"isError" msgpack:"isError"`
	RawLine      string    `json:"rawLine" msgpack:"rawLine"`
}

// IsErrorCode reports whether a status code counts as an error (4xx or 5xx).
func IsErrorCode(code int) bool {
	return code >= 400 && code < 600
}
