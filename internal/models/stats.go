package models

// ParsingStats counts validator outcomes.
type ParsingStats struct {
	ParsedCount int     `json:"parsedCount" msgpack:"parsedCount"`
	FailedCount int     `json:"failedCount" msgpack:"failedCount"`
	SuccessRate float64 `json:"successRate" msgpack:"successRate"` // percent, 2 decimals
}

// Attempted returns the number of lines handed to the validator.
func (s ParsingStats) Attempted() int {
	return s.ParsedCount + s.FailedCount
}

// ReadingStats counts lines seen by the stream reader.
type ReadingStats struct {
	TotalLines   int `json:"totalLines" msgpack:"totalLines"`
	SkippedLines int `json:"skippedLines" msgpack:"skippedLines"`
	ValidLines   int `json:"validLines" msgpack:"validLines"`
	// Partial is set when reading stopped before end of input.
	Partial bool `json:"partial,omitempty" msgpack:"partial,omitempty"`
}

// KeyCount is one row of a string-keyed frequency table.
type KeyCount struct {
	Key   string `json:"key" msgpack:"key"`
	Count int    `json:"count" msgpack:"count"`
}

// CodeCount is one row of a status-code frequency table.
type CodeCount struct {
	Code  int `json:"code" msgpack:"code"`
	Count int `json:"count" msgpack:"count"`
}

// AnalysisStats is the aggregate over all accepted records.
// Every table is ordered by descending count, ties by first appearance in the input.
type AnalysisStats struct {
	TotalRequests   int     `json:"totalRequests" msgpack:"totalRequests"`
	ErrorRequests   int     `json:"errorRequests" msgpack:"errorRequests"`
	SuccessRequests int     `json:"successRequests" msgpack:"successRequests"`
	ErrorPercentage float64 `json:"errorPercentage" msgpack:"errorPercentage"`

	// StatusCodeDistribution covers every record.
	StatusCodeDistribution []CodeCount `json:"statusCodeDistribution" msgpack:"statusCodeDistribution"`
	// ErrorCodeDistribution covers error records only.
	ErrorCodeDistribution []CodeCount `json:"errorCodeDistribution" msgpack:"errorCodeDistribution"`

	TopErrorIPs             []KeyCount `json:"topErrorIps" msgpack:"topErrorIps"`
	RequestTypeDistribution []KeyCount `json:"requestTypeDistribution" msgpack:"requestTypeDistribution"`
	ErrorByRequest          []KeyCount `json:"errorByRequest" msgpack:"errorByRequest"`

	UniqueIPs      int `json:"uniqueIps" msgpack:"uniqueIps"`
	UniqueErrorIPs int `json:"uniqueErrorIps" msgpack:"uniqueErrorIps"`
}

// EmptyAnalysisStats returns all-zero stats with non-nil empty tables.
func EmptyAnalysisStats() AnalysisStats {
	return AnalysisStats{
		StatusCodeDistribution:  []CodeCount{},
		ErrorCodeDistribution:   []CodeCount{},
		TopErrorIPs:             []KeyCount{},
		RequestTypeDistribution: []KeyCount{},
		ErrorByRequest:          []KeyCount{},
	}
}
