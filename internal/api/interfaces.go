// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/access-log-analyzer/backend/internal/models"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
	HandleStatus(c echo.Context) error
}

// UploadHandler handles file upload operations
type UploadHandler interface {
	HandleUpload(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
}

// AnalysisHandler handles analysis sessions and their artifacts
type AnalysisHandler interface {
	HandleAnalyzeDefault(c echo.Context) error
	HandleStartAnalysis(c echo.Context) error
	HandleGetAnalysis(c echo.Context) error
	HandleGetAnalysisMsgpack(c echo.Context) error
	HandleDownload(c echo.Context) error
}

// SessionManager defines the interface for session management
// This allows mocking in tests
type SessionManager interface {
	StartSession(fileID, fileName, filePath string) (*models.AnalysisSession, error)
	AnalyzeNow(ctx context.Context, fileID, fileName, filePath string) (*models.AnalysisSession, error)
	GetSession(id string) (*models.AnalysisSession, bool)
	TouchSession(id string) bool
}
