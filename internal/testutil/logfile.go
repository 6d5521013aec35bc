package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteLogFile writes lines, newline terminated, to a file in a fresh temp
// directory and returns its path.
func WriteLogFile(t testing.TB, lines ...string) string {
	t.Helper()
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return WriteFile(t, "server_logs.txt", []byte(b.String()))
}

// WriteFile writes data to name inside a fresh temp directory.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

// SampleLines is a small mixed log: 8 records, 2 rejected lines and a blank.
var SampleLines = []string{
	"2025-01-15 00:00:00,192.168.1.1,GET,200",
	"2025-01-15 00:00:01,192.168.1.2,POST,404",
	"",
	"2025-01-15 00:00:02,192.168.1.1,GET,500",
	"MALFORMED_LINE_3",
	"2025-01-15 00:00:04,192.168.1.3,PUT,201",
	"2025-01-15 00:00:05,192.168.1.2,DELETE,404",
	"2025-01-15 00:00:06,999.1.1.1,GET,200",
	"2025-01-15 00:00:07,192.168.1.4,GET,302",
	"2025-01-15 00:00:08,192.168.1.2,GET,503",
	"2025-01-15 00:00:09,192.168.1.1,PATCH,200",
}
