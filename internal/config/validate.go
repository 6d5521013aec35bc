package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or every problem found joined together.
func (c *AppConfig) Validate() error {
	var errs []error
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535")
	}

	if c.Analysis.TopIPCount < 1 {
		add("analysis.top_ip_count", "must be at least 1")
	}
	if c.Analysis.Workers < 1 {
		add("analysis.workers", "must be at least 1")
	}
	if c.Analysis.ChunkSize < 1 {
		add("analysis.chunk_size", "must be at least 1")
	}
	if c.Analysis.ProgressInterval < 1 {
		add("analysis.progress_interval", "must be at least 1")
	}
	if c.Analysis.MaxConcurrentAnalyses < 1 {
		add("analysis.max_concurrent_analyses", "must be at least 1")
	}
	if c.Analysis.SessionTimeoutMinutes < 1 {
		add("analysis.session_timeout_minutes", "must be at least 1")
	}
	if c.Analysis.CleanupIntervalMinutes < 1 {
		add("analysis.cleanup_interval_minutes", "must be at least 1")
	}

	if _, err := ParseSize(c.Storage.MaxUploadSize); err != nil {
		add("storage.max_upload_size", err.Error())
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		add("logging.format", fmt.Sprintf("must be text or json (got %q)", c.Logging.Format))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		add("metrics.path", "must start with /")
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
