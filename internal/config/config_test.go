package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err, "default config file should be written")

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Analysis.TopIPCount)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.Storage.DataDirectory)
	assert.Equal(t, filepath.Join(dir, "output"), cfg.Storage.OutputDirectory)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_XMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.xml")
	cfg := DefaultConfig()
	cfg.Analysis.TopIPCount = 10
	cfg.Analysis.Workers = 4
	cfg.Storage.OutputDirectory = "/abs/output"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 10, loaded.Analysis.TopIPCount)
	assert.Equal(t, 4, loaded.Analysis.Workers)
	assert.Equal(t, "/abs/output", loaded.Storage.OutputDirectory)
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
analysis:
  top_ip_count: 3
  workers: 2
logging:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Analysis.TopIPCount)
	assert.Equal(t, 2, cfg.Analysis.Workers)
	assert.Equal(t, "json", cfg.Logging.Format)
	// Unset fields keep defaults
	assert.Equal(t, 5000, cfg.Analysis.ChunkSize)
	assert.Equal(t, "100M", cfg.Storage.MaxUploadSize)
}

func TestLoadConfig_YAMLDefaultCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	_, err := LoadConfig(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "top_ip_count: 5")
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.xml")
	require.NoError(t, os.WriteFile(path, []byte("<AccessLogAnalyzer><Server>"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DATA_DIR", "/srv/data")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOP_IP_COUNT", "8")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.xml"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/srv/data", cfg.Storage.DataDirectory)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 8, cfg.Analysis.TopIPCount)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "config.xml"))
	require.NoError(t, err)

	require.NoError(t, cfg.EnsureDirectories())
	for _, d := range []string{"data", "data/uploads", "output", "logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, d)
		assert.True(t, info.IsDir())
	}
	assert.Equal(t, filepath.Join(dir, "logs", "execution.log"), cfg.ExecutionLogPath())
}

func TestGetServerAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "0.0.0.0:5000", cfg.GetServerAddr())
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"512", 512, true},
		{"64K", 64 << 10, true},
		{"100M", 100 << 20, true},
		{"100MB", 100 << 20, true},
		{"2g", 2 << 30, true},
		{"", 0, false},
		{"lots", 0, false},
		{"-1M", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSize(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, int64(100<<20), DefaultConfig().MaxUploadBytes())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.Port = 0
	cfg.Analysis.TopIPCount = 0
	cfg.Analysis.Workers = -2
	cfg.Logging.Format = "xml"
	cfg.Storage.MaxUploadSize = "huge"

	err := cfg.Validate()
	require.Error(t, err)

	var ve ValidationError
	require.True(t, errors.As(err, &ve))

	for _, field := range []string{"server.port", "analysis.top_ip_count", "analysis.workers", "logging.format", "storage.max_upload_size"} {
		assert.Contains(t, err.Error(), field)
	}
	assert.NotContains(t, err.Error(), "analysis.chunk_size")
}

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{Field: "server.port", Message: "must be between 1 and 65535"}
	assert.Equal(t, "server.port: must be between 1 and 65535", err.Error())
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv("TOP_IP_COUNT", "9")

	cfg, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Analysis.TopIPCount)
	assert.Equal(t, "./output", cfg.Storage.OutputDirectory)

	path := filepath.Join(t.TempDir(), "config.yml")
	cfg, err = LoadOrDefault(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, 9, cfg.Analysis.TopIPCount)
}
