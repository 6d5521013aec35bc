// handlers_analysis.go - Analysis session and artifact handlers
package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/access-log-analyzer/backend/internal/models"
	"github.com/access-log-analyzer/backend/internal/report"
	"github.com/access-log-analyzer/backend/internal/storage"
)

// DownloadPrefix is the route prefix of generated artifacts.
const DownloadPrefix = "/api/download/"

// MIMEMsgpack is the content type of msgpack snapshots.
const MIMEMsgpack = "application/x-msgpack"

// AnalysisHandlerImpl implements the AnalysisHandler interface
type AnalysisHandlerImpl struct {
	store        storage.Store
	sessions     SessionManager
	outputDir    string
	defaultInput string
}

// NewAnalysisHandler creates a new analysis handler. outputDir is where the
// session manager writes artifacts; defaultInput is the file analyzed by
// HandleAnalyzeDefault.
func NewAnalysisHandler(store storage.Store, sessions SessionManager, outputDir, defaultInput string) AnalysisHandler {
	return &AnalysisHandlerImpl{
		store:        store,
		sessions:     sessions,
		outputDir:    outputDir,
		defaultInput: defaultInput,
	}
}

// HandleAnalyzeDefault analyzes the configured default log file
func (h *AnalysisHandlerImpl) HandleAnalyzeDefault(c echo.Context) error {
	name := filepath.Base(h.defaultInput)
	st, err := os.Stat(h.defaultInput)
	if h.defaultInput == "" || err != nil || st.IsDir() {
		return NewNotFoundError("default log file", name)
	}

	sess, err := h.sessions.AnalyzeNow(c.Request().Context(), "", name, h.defaultInput)
	if err != nil {
		return analysisError(err)
	}

	return c.JSON(http.StatusOK, newAnalysisResult(sess, st.Size()))
}

// HandleStartAnalysis starts a background analysis of an uploaded file
func (h *AnalysisHandlerImpl) HandleStartAnalysis(c echo.Context) error {
	var req startAnalysisRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	info, err := h.store.Get(req.FileID)
	if err != nil {
		return NewNotFoundError("file", req.FileID)
	}
	path, err := h.store.GetFilePath(req.FileID)
	if err != nil {
		return NewNotFoundError("file", req.FileID)
	}

	sess, err := h.sessions.StartSession(info.ID, info.Name, path)
	if err != nil {
		return analysisError(err)
	}

	return c.JSON(http.StatusAccepted, sess)
}

// HandleGetAnalysis returns the current state of an analysis session
func (h *AnalysisHandlerImpl) HandleGetAnalysis(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sess)
}

// HandleGetAnalysisMsgpack returns the snapshot of a finished session
// encoded as msgpack
func (h *AnalysisHandlerImpl) HandleGetAnalysisMsgpack(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return err
	}
	if !sess.Done() {
		return NewConflictError("analysis still running")
	}
	if sess.Snapshot == nil {
		return NewUnprocessableError("NO_SNAPSHOT", sess.Error)
	}

	data, err := report.EncodeMsgpack(sess.Snapshot)
	if err != nil {
		return NewInternalError("failed to encode snapshot", err)
	}
	return c.Blob(http.StatusOK, MIMEMsgpack, data)
}

// HandleDownload serves a generated report or chart from the output
// directory. Only bare file names are accepted.
func (h *AnalysisHandlerImpl) HandleDownload(c echo.Context) error {
	name := c.Param("filename")
	if !safeFileName(name) {
		return NewBadRequestError("invalid file name", nil)
	}

	path := filepath.Join(h.outputDir, name)
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return NewInternalError("failed to read file", err)
		}
		return NewNotFoundError("file", name)
	}

	return c.Attachment(path, name)
}

func (h *AnalysisHandlerImpl) session(c echo.Context) (*models.AnalysisSession, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	sess, ok := h.sessions.GetSession(id)
	if !ok {
		return nil, NewNotFoundError("analysis", id)
	}
	h.sessions.TouchSession(id)
	return sess, nil
}

// safeFileName reports whether name is a plain file name with no path
// components.
func safeFileName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(name) == name
}

// Request/Response types

type startAnalysisRequest struct {
	FileID string `json:"fileId"`
}

func (r *startAnalysisRequest) validate() error {
	if r.FileID == "" {
		return NewValidationError("fileId")
	}
	return nil
}

// analysisResult is the response of a synchronous analysis.
type analysisResult struct {
	Status           string           `json:"status"`
	SessionID        string           `json:"sessionId"`
	FileID           string           `json:"fileId,omitempty"`
	FileName         string           `json:"fileName"`
	FileSize         int64            `json:"fileSize"`
	ProcessingTimeMs int64            `json:"processingTimeMs"`
	Snapshot         *models.Snapshot `json:"snapshot"`
	Charts           chartLinks       `json:"charts"`
	Report           string           `json:"report,omitempty"`
}

type chartLinks struct {
	ErrorDistribution string `json:"errorDistribution,omitempty"`
	TopIPs            string `json:"topIps,omitempty"`
}

func newAnalysisResult(sess *models.AnalysisSession, size int64) analysisResult {
	res := analysisResult{
		Status:           "success",
		SessionID:        sess.ID,
		FileID:           sess.FileID,
		FileName:         sess.FileName,
		FileSize:         size,
		ProcessingTimeMs: sess.ProcessingTimeMs,
		Snapshot:         sess.Snapshot,
	}
	if a := sess.Artifacts; a != nil {
		res.Report = downloadURL(a.Report)
		res.Charts = chartLinks{
			ErrorDistribution: downloadURL(a.ErrorDistribution),
			TopIPs:            downloadURL(a.TopIPs),
		}
	}
	return res
}

func downloadURL(name string) string {
	if name == "" {
		return ""
	}
	return DownloadPrefix + name
}
