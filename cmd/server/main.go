package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/access-log-analyzer/backend/internal/analyzer"
	"github.com/access-log-analyzer/backend/internal/api"
	"github.com/access-log-analyzer/backend/internal/config"
	"github.com/access-log-analyzer/backend/internal/logging"
	"github.com/access-log-analyzer/backend/internal/metrics"
	"github.com/access-log-analyzer/backend/internal/models"
	"github.com/access-log-analyzer/backend/internal/pipeline"
	"github.com/access-log-analyzer/backend/internal/session"
	"github.com/access-log-analyzer/backend/internal/storage"
	"github.com/access-log-analyzer/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to the XML or YAML config file (default: next to the executable)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("access-log-analyzer server %s (built %s)\n", Version, BuildTime)
		return nil
	}

	if *configPath == "" {
		exePath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locating executable: %w", err)
		}
		*configPath = filepath.Join(filepath.Dir(exePath), "AccessLogAnalyzer.config")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration:\n%w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	log, closer, err := logging.Setup(cfg.Logging.Format, cfg.Logging.Level, cfg.ExecutionLogPath())
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(log)

	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadsDirectory)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.NewRecorder()
	}

	sessionMgr := session.NewManager(session.Config{
		Pipeline: pipeline.Options{
			Analysis:         analyzer.Config{TopN: cfg.Analysis.TopIPCount},
			Workers:          cfg.Analysis.Workers,
			ChunkSize:        cfg.Analysis.ChunkSize,
			ProgressInterval: cfg.Analysis.ProgressInterval,
			Metrics:          rec,
		},
		OutputDir:     cfg.Storage.OutputDirectory,
		Charts:        cfg.Analysis.GenerateCharts,
		MaxConcurrent: cfg.Analysis.MaxConcurrentAnalyses,
		OnDone:        fileStatusUpdater(fileStore, log),
		Logger:        log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionMgr.StartCleanupRoutine(ctx,
		time.Duration(cfg.Analysis.CleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.Analysis.SessionTimeoutMinutes)*time.Minute)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareConfig{
		Logger:         log,
		RequestLogging: cfg.Logging.EnableRequestLogging,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   api.SplitOrigins(cfg.Server.AllowOrigins),
		BodyLimit:      api.BodyLimitFor(cfg.MaxUploadBytes()),
		ShowDetails:    Version == "dev",
	})

	deps := &api.Dependencies{
		Store:        fileStore,
		Sessions:     sessionMgr,
		Metrics:      rec,
		OutputDir:    cfg.Storage.OutputDirectory,
		DefaultInput: cfg.Storage.DefaultInputFile,
		MaxUpload:    cfg.MaxUploadBytes(),
		AllowedTypes: api.ParseFileTypes(cfg.Storage.AllowedFileTypes),
		Version:      Version,
		MetricsPath:  cfg.Metrics.Path,
	}
	api.RegisterRoutes(e, api.NewHandlers(deps), deps)

	// Register embedded upload page if available
	embeddedMode := web.HasEmbeddedFiles()
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.Warn("static_routes_failed", "error", err)
			embeddedMode = false
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(*configPath, cfg, embeddedMode)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()
	log.Info("server_started", "addr", s.Addr, "version", Version)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_failed", "error", err)
	}
	if err := sessionMgr.Shutdown(shutdownCtx); err != nil {
		log.Warn("session_shutdown_failed", "error", err)
	}
	log.Info("server_stopped")
	return nil
}

// fileStatusUpdater mirrors the outcome of an analysis onto the uploaded
// file's status.
func fileStatusUpdater(store storage.Store, log *slog.Logger) func(models.AnalysisSession) {
	return func(s models.AnalysisSession) {
		if s.FileID == "" {
			return
		}
		status := storage.StatusAnalyzed
		if s.Status == models.SessionStatusError {
			status = storage.StatusError
		}
		if err := store.SetStatus(s.FileID, status); err != nil {
			log.Warn("file_status_update_failed", "file", s.FileID, "error", err)
		}
	}
}

func printBanner(configPath string, cfg *config.AppConfig, embedded bool) {
	mode := "API only"
	if embedded {
		mode = "Embedded upload page"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Access Log Analyzer Server                      ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Uploads:   %-46s║\n", cfg.Storage.UploadsDirectory)
	fmt.Printf("║  Output:    %-46s║\n", cfg.Storage.OutputDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embedded {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}
}
