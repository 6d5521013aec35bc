package models

// SessionStatus represents the status of an analysis session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusAnalyzing SessionStatus = "analyzing"
	SessionStatusComplete  SessionStatus = "complete"
	SessionStatusError     SessionStatus = "error"
)

// Artifacts lists the files generated for a completed analysis, by basename.
type Artifacts struct {
	Report            string `json:"report,omitempty"`
	ErrorDistribution string `json:"errorDistribution,omitempty"`
	TopIPs            string `json:"topIps,omitempty"`
}

// AnalysisSession tracks one asynchronous analysis of an uploaded file.
type AnalysisSession struct {
	ID               string        `json:"id"`
	FileID           string        `json:"fileId"`
	FileName         string        `json:"fileName"`
	Status           SessionStatus `json:"status"`
	Progress         float64       `json:"progress"` // 0-100
	LinesProcessed   int           `json:"linesProcessed"`
	ProcessingTimeMs int64         `json:"processingTimeMs,omitempty"`
	StartTime        int64         `json:"startTime,omitempty"` // Unix ms
	EndTime          int64         `json:"endTime,omitempty"`   // Unix ms
	Error            string        `json:"error,omitempty"`
	Snapshot         *Snapshot     `json:"snapshot,omitempty"`
	Artifacts        *Artifacts    `json:"artifacts,omitempty"`
}

// NewAnalysisSession creates a new session in pending status.
func NewAnalysisSession(id, fileID, fileName string) *AnalysisSession {
	return &AnalysisSession{
		ID:       id,
		FileID:   fileID,
		FileName: fileName,
		Status:   SessionStatusPending,
	}
}

// Done reports whether the session reached a terminal state.
func (s *AnalysisSession) Done() bool {
	return s.Status == SessionStatusComplete || s.Status == SessionStatusError
}
