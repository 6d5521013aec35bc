package models

// Snapshot is the immutable result of one analysis run, handed to the
// report and chart writers.
type Snapshot struct {
	Source   string        `json:"source" msgpack:"source"`
	Reading  ReadingStats  `json:"reading" msgpack:"reading"`
	Parsing  ParsingStats  `json:"parsing" msgpack:"parsing"`
	Analysis AnalysisStats `json:"analysis" msgpack:"analysis"`

	// ElapsedMs is wall-clock time; kept out of AnalysisStats so repeated runs
	// over the same input produce identical analysis output.
	ElapsedMs int64 `json:"elapsedMs" msgpack:"elapsedMs"`
}

// HasRecords reports whether any line was accepted.
func (s *Snapshot) HasRecords() bool {
	return s != nil && s.Analysis.TotalRequests > 0
}

// LinesPerSecond returns read throughput, or 0 when no time elapsed.
func (s *Snapshot) LinesPerSecond() float64 {
	if s == nil || s.ElapsedMs <= 0 {
		return 0
	}
	return float64(s.Reading.TotalLines) / (float64(s.ElapsedMs) / 1000)
}
