// Package config provides file-based configuration for the analyzer CLI and
// server. XML is the default format; files ending in .yaml or .yml are read
// as YAML.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"AccessLogAnalyzer" yaml:"-"`

	// Server configuration
	Server ServerConfig `xml:"Server" yaml:"server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage" yaml:"storage"`

	// Analysis configuration
	Analysis AnalysisConfig `xml:"Analysis" yaml:"analysis"`

	// Logging configuration
	Logging LoggingConfig `xml:"Logging" yaml:"logging"`

	// Metrics configuration
	Metrics MetricsConfig `xml:"Metrics" yaml:"metrics"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port" yaml:"port"`
	BindAddress  string `xml:"BindAddress" yaml:"bind_address"`
	EnableCORS   bool   `xml:"EnableCORS" yaml:"enable_cors"`
	AllowOrigins string `xml:"AllowOrigins" yaml:"allow_origins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds" yaml:"read_timeout_seconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds" yaml:"write_timeout_seconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds" yaml:"idle_timeout_seconds"`
}

// StorageConfig contains file locations
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory" yaml:"data_directory"`
	UploadsDirectory string `xml:"UploadsDirectory" yaml:"uploads_directory"`
	OutputDirectory  string `xml:"OutputDirectory" yaml:"output_directory"`
	LogsDirectory    string `xml:"LogsDirectory" yaml:"logs_directory"`
	DefaultInputFile string `xml:"DefaultInputFile" yaml:"default_input_file"`
	MaxUploadSize    string `xml:"MaxUploadSize" yaml:"max_upload_size"`
	AllowedFileTypes string `xml:"AllowedFileTypes" yaml:"allowed_file_types"`
}

// AnalysisConfig contains parsing and aggregation settings
type AnalysisConfig struct {
	TopIPCount             int  `xml:"TopIPCount" yaml:"top_ip_count"`
	Workers                int  `xml:"Workers" yaml:"workers"`
	ChunkSize              int  `xml:"ChunkSize" yaml:"chunk_size"`
	ProgressInterval       int  `xml:"ProgressInterval" yaml:"progress_interval"`
	GenerateCharts         bool `xml:"GenerateCharts" yaml:"generate_charts"`
	MaxConcurrentAnalyses  int  `xml:"MaxConcurrentAnalyses" yaml:"max_concurrent_analyses"`
	SessionTimeoutMinutes  int  `xml:"SessionTimeoutMinutes" yaml:"session_timeout_minutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes" yaml:"cleanup_interval_minutes"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level                string `xml:"Level" yaml:"level"`
	Format               string `xml:"Format" yaml:"format"`
	ExecutionLogFile     string `xml:"ExecutionLogFile" yaml:"execution_log_file"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging" yaml:"enable_request_logging"`
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `xml:"Enabled" yaml:"enabled"`
	Path    string `xml:"Path" yaml:"path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         5000,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			OutputDirectory:  "./output",
			LogsDirectory:    "./logs",
			DefaultInputFile: "./data/large_server_logs.txt",
			MaxUploadSize:    "100M",
			AllowedFileTypes: ".txt,.log,.gz",
		},
		Analysis: AnalysisConfig{
			TopIPCount:             5,
			Workers:                1,
			ChunkSize:              5000,
			ProgressInterval:       10000,
			GenerateCharts:         true,
			MaxConcurrentAnalyses:  3,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
		},
		Logging: LoggingConfig{
			Level:                "info",
			Format:               "text",
			ExecutionLogFile:     "execution.log",
			EnableRequestLogging: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfig loads configuration from file. A missing file is created with
// the defaults.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if isYAML(configPath) {
			err = yaml.Unmarshal(data, config)
		} else {
			err = xml.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// LoadOrDefault loads configPath, or returns the defaults with environment
// overrides applied when configPath is empty. Unlike LoadConfig it never
// writes a file for the empty path.
func LoadOrDefault(configPath string) (*AppConfig, error) {
	if configPath != "" {
		return LoadConfig(configPath)
	}
	config := DefaultConfig()
	config.applyEnvironmentOverrides()
	return config, nil
}

// Save saves the configuration in the format implied by the file extension
func (c *AppConfig) Save(configPath string) error {
	var content []byte
	if isYAML(configPath) {
		output, err := yaml.Marshal(c)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		content = append([]byte("# Access Log Analyzer configuration\n# This file is auto-generated on first run\n\n"), output...)
	} else {
		output, err := xml.MarshalIndent(c, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		header := []byte(xml.Header + "\n<!-- Access Log Analyzer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
		content = append(header, output...)
	}

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if top := os.Getenv("TOP_IP_COUNT"); top != "" {
		if n, err := strconv.Atoi(top); err == nil {
			c.Analysis.TopIPCount = n
		}
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.OutputDirectory,
		&c.Storage.LogsDirectory,
		&c.Storage.DefaultInputFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// ExecutionLogPath returns the execution log file path, or "" when file
// logging is disabled.
func (c *AppConfig) ExecutionLogPath() string {
	f := c.Logging.ExecutionLogFile
	if f == "" || filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(c.Storage.LogsDirectory, f)
}

// MaxUploadBytes returns MaxUploadSize in bytes.
func (c *AppConfig) MaxUploadBytes() int64 {
	n, err := ParseSize(c.Storage.MaxUploadSize)
	if err != nil {
		return 0
	}
	return n
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		c.Storage.OutputDirectory,
		c.Storage.LogsDirectory,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// ParseSize parses a byte size such as "512", "64K", "100M" or "2G"
// (binary multiples, optional trailing "B").
func ParseSize(s string) (int64, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "B")

	mult := int64(1)
	if n := len(v); n > 0 {
		switch v[n-1] {
		case 'K':
			mult = 1 << 10
		case 'M':
			mult = 1 << 20
		case 'G':
			mult = 1 << 30
		}
		if mult > 1 {
			v = v[:n-1]
		}
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
