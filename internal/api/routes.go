// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/access-log-analyzer/backend/internal/metrics"
	"github.com/access-log-analyzer/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store        storage.Store
	Sessions     SessionManager
	Metrics      *metrics.Recorder
	OutputDir    string
	DefaultInput string
	MaxUpload    int64
	AllowedTypes []string
	Version      string
	// MetricsPath mounts the Prometheus handler when non-empty and Metrics is set.
	MetricsPath string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Upload   UploadHandler
	Analysis AnalysisHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.MaxUpload),
		Upload:   NewUploadHandler(deps.Store, deps.Sessions, deps.Metrics, deps.MaxUpload, deps.AllowedTypes),
		Analysis: NewAnalysisHandler(deps.Store, deps.Sessions, deps.OutputDir, deps.DefaultInput),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, deps *Dependencies) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/status", handlers.Health.HandleStatus)

	// Upload and synchronous analysis
	apiGroup.POST("/upload", handlers.Upload.HandleUpload)
	apiGroup.GET("/analyze/default", handlers.Analysis.HandleAnalyzeDefault)

	// File metadata
	apiGroup.GET("/files/recent", handlers.Upload.HandleGetRecentFiles)
	apiGroup.GET("/files/:id", handlers.Upload.HandleGetFile)

	// Background analysis sessions
	apiGroup.POST("/analyses", handlers.Analysis.HandleStartAnalysis)
	apiGroup.GET("/analyses/:id", handlers.Analysis.HandleGetAnalysis)
	apiGroup.GET("/analyses/:id/msgpack", handlers.Analysis.HandleGetAnalysisMsgpack)

	// Generated artifacts
	apiGroup.GET("/download/:filename", handlers.Analysis.HandleDownload)

	if deps != nil && deps.Metrics != nil && deps.MetricsPath != "" {
		e.GET(deps.MetricsPath, echo.WrapHandler(deps.Metrics.Handler()))
	}
}

// MiddlewareConfig selects the optional middleware
type MiddlewareConfig struct {
	Logger         *slog.Logger
	RequestLogging bool
	EnableCORS     bool
	AllowOrigins   []string
	// BodyLimit is an echo size string such as "100M"; empty disables it.
	BodyLimit   string
	ShowDetails bool
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler(cfg.ShowDetails, cfg.Logger)

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10,
	}))

	if cfg.Logger != nil {
		log := cfg.Logger.With("component", "http")
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			Skipper: func(c echo.Context) bool {
				if !cfg.RequestLogging {
					return true
				}
				path := c.Request().URL.Path
				return path == "/api/health" || path == "/api/status" ||
					strings.HasPrefix(path, "/metrics")
			},
			LogMethod:   true,
			LogURI:      true,
			LogStatus:   true,
			LogLatency:  true,
			LogError:    true,
			HandleError: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				level := slog.LevelInfo
				if v.Error != nil || v.Status >= http.StatusInternalServerError {
					level = slog.LevelWarn
				}
				log.LogAttrs(context.Background(), level, "request",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
				)
				return nil
			},
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := cfg.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

// BodyLimitFor renders a byte count as an echo body limit. The limit is one
// megabyte above maxUpload so that multipart framing does not trip it.
func BodyLimitFor(maxUpload int64) string {
	if maxUpload <= 0 {
		return ""
	}
	return strconv.FormatInt((maxUpload>>20)+1, 10) + "M"
}

// SplitOrigins parses a comma-separated CORS origin list.
func SplitOrigins(list string) []string {
	var out []string
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
