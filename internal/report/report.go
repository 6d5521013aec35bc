// Package report renders analysis snapshots as text.
package report

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/access-log-analyzer/backend/internal/models"
)

const (
	ruleWide   = 60
	ruleNarrow = 40
)

// Generate renders the plain-text report. Sections with no rows are left
// out. generatedAt is the only input that is not part of the snapshot.
func Generate(snap *models.Snapshot, generatedAt time.Time) string {
	var b strings.Builder
	wide := strings.Repeat("=", ruleWide)

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	section := func(title string) {
		line("%s", title)
		line("%s", strings.Repeat("-", ruleNarrow))
	}

	line("%s", wide)
	line("LOG FILE ANALYSIS REPORT")
	line("%s", wide)
	line("Generated: %s", generatedAt.Format(models.TimestampLayout))
	line("")

	section("FILE STATISTICS")
	line("Total Lines Read: %d", snap.Reading.TotalLines)
	line("Valid Lines: %d", snap.Reading.ValidLines)
	line("Skipped Lines: %d", snap.Reading.SkippedLines)
	line("Successfully Parsed: %d", snap.Parsing.ParsedCount)
	line("Failed to Parse: %d", snap.Parsing.FailedCount)
	line("Success Rate: %.2f%%", snap.Parsing.SuccessRate)
	if snap.Reading.Partial {
		line("Note: input was not read to the end; figures are partial")
	}
	line("")

	a := snap.Analysis
	section("ANALYSIS SUMMARY")
	line("Total Requests: %d", a.TotalRequests)
	line("Error Requests: %d", a.ErrorRequests)
	line("Success Requests: %d", a.SuccessRequests)
	line("Error Rate: %.2f%%", a.ErrorPercentage)
	line("Unique IP Addresses: %d", a.UniqueIPs)
	line("Unique IPs with Errors: %d", a.UniqueErrorIPs)
	line("")

	if len(a.ErrorCodeDistribution) > 0 {
		section("ERROR CODE DISTRIBUTION")
		for _, c := range SortedByCode(a.ErrorCodeDistribution) {
			line("HTTP %d: %d errors", c.Code, c.Count)
		}
		line("")
	}

	if len(a.TopErrorIPs) > 0 {
		section("TOP IP ADDRESSES WITH ERRORS")
		for _, ip := range a.TopErrorIPs {
			line("%s: %d errors", ip.Key, ip.Count)
		}
		line("")
	}

	if len(a.RequestTypeDistribution) > 0 {
		section("REQUEST TYPE DISTRIBUTION")
		for _, m := range a.RequestTypeDistribution {
			line("%s: %d requests", m.Key, m.Count)
		}
	}

	line("")
	line("%s", wide)
	line("END OF REPORT")
	b.WriteString(wide)
	return b.String()
}

// SortedByCode returns a copy of codes ordered by ascending status code.
func SortedByCode(codes []models.CodeCount) []models.CodeCount {
	out := slices.Clone(codes)
	slices.SortFunc(out, func(a, b models.CodeCount) int {
		return cmp.Compare(a.Code, b.Code)
	})
	return out
}

// WriteFile writes text to path, creating the parent directory.
func WriteFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
