// handlers_upload.go - File upload operation handlers
package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/access-log-analyzer/backend/internal/metrics"
	"github.com/access-log-analyzer/backend/internal/models"
	"github.com/access-log-analyzer/backend/internal/storage"
)

// UploadFormField is the multipart field carrying the log file.
const UploadFormField = "log_file"

// recentFilesLimit caps the recent files listing.
const recentFilesLimit = 20

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store        storage.Store
	sessions     SessionManager
	metrics      *metrics.Recorder
	maxBytes     int64
	allowedTypes []string
}

// NewUploadHandler creates a new upload handler instance. maxBytes <= 0
// disables the size check; an empty allowedTypes accepts any extension.
func NewUploadHandler(store storage.Store, sessions SessionManager, rec *metrics.Recorder, maxBytes int64, allowedTypes []string) UploadHandler {
	return &UploadHandlerImpl{
		store:        store,
		sessions:     sessions,
		metrics:      rec,
		maxBytes:     maxBytes,
		allowedTypes: allowedTypes,
	}
}

// HandleUpload accepts a multipart log file, stores it and analyzes it
// before responding.
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	file, err := c.FormFile(UploadFormField)
	if err != nil {
		return NewBadRequestError("no file uploaded", err)
	}
	if file.Filename == "" {
		return NewBadRequestError("no file selected", nil)
	}
	if !h.allowed(file.Filename) {
		return NewBadRequestError("unsupported file type: "+filepath.Ext(file.Filename), nil)
	}
	if h.maxBytes > 0 && file.Size > h.maxBytes {
		return NewPayloadTooLargeError(h.maxBytes)
	}

	src, err := file.Open()
	if err != nil {
		return NewInternalError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(file.Filename, src)
	if err != nil {
		return NewInternalError("failed to save file", err)
	}
	h.metrics.UploadReceived(info.Size)

	path, err := h.store.GetFilePath(info.ID)
	if err != nil {
		return analysisError(err)
	}

	sess, err := h.sessions.AnalyzeNow(c.Request().Context(), info.ID, info.Name, path)
	if err != nil {
		return analysisError(err)
	}

	return c.JSON(http.StatusOK, newAnalysisResult(sess, info.Size))
}

// HandleGetRecentFiles returns a list of recently uploaded log files
func (h *UploadHandlerImpl) HandleGetRecentFiles(c echo.Context) error {
	files, err := h.store.List(recentFilesLimit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.FileInfo{}
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a specific file
func (h *UploadHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}

	return c.JSON(http.StatusOK, info)
}

func (h *UploadHandlerImpl) allowed(name string) bool {
	if len(h.allowedTypes) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range h.allowedTypes {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// ParseFileTypes splits a comma-separated extension list such as
// ".txt,.log,.gz" into lower-case entries with a leading dot.
func ParseFileTypes(list string) []string {
	var out []string
	for _, ext := range strings.Split(list, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}
