// Package artifacts writes the report and chart files for a finished analysis.
package artifacts

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/access-log-analyzer/backend/internal/chart"
	"github.com/access-log-analyzer/backend/internal/logging"
	"github.com/access-log-analyzer/backend/internal/models"
	"github.com/access-log-analyzer/backend/internal/report"
)

// Base file names; a non-empty suffix is inserted before the extension.
const (
	ReportBase            = "summary_report"
	ErrorDistributionBase = "error_distribution"
	TopIPsBase            = "top_ips"
)

// Names returns the artifact file names for suffix.
func Names(suffix string) models.Artifacts {
	name := func(base, ext string) string {
		if suffix == "" {
			return base + ext
		}
		return base + "_" + suffix + ext
	}
	return models.Artifacts{
		Report:            name(ReportBase, ".txt"),
		ErrorDistribution: name(ErrorDistributionBase, ".png"),
		TopIPs:            name(TopIPsBase, ".png"),
	}
}

// Writer renders artifacts into Dir.
type Writer struct {
	Dir    string
	Charts bool
	Logger *slog.Logger
	// Now stamps the report; time.Now when nil.
	Now func() time.Time
}

// Write renders the report and, if enabled, both charts. A chart with no
// data is skipped and left out of the returned Artifacts. The report text is
// returned alongside.
func (w *Writer) Write(snap *models.Snapshot, suffix string) (*models.Artifacts, string, error) {
	log := w.Logger
	if log == nil {
		log = logging.Discard()
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}

	names := Names(suffix)
	out := &models.Artifacts{}

	text := report.Generate(snap, now())
	if err := report.WriteFile(filepath.Join(w.Dir, names.Report), text); err != nil {
		return nil, "", err
	}
	out.Report = names.Report
	log.Info("report_saved", "path", filepath.Join(w.Dir, names.Report))

	if !w.Charts {
		return out, text, nil
	}

	charts := []struct {
		name string
		set  *string
		draw func(string) error
	}{
		{names.ErrorDistribution, &out.ErrorDistribution, func(p string) error {
			return chart.ErrorDistribution(snap.Analysis.ErrorCodeDistribution, p)
		}},
		{names.TopIPs, &out.TopIPs, func(p string) error {
			return chart.TopIPs(snap.Analysis.TopErrorIPs, p)
		}},
	}
	for _, c := range charts {
		path := filepath.Join(w.Dir, c.name)
		err := c.draw(path)
		switch {
		case errors.Is(err, chart.ErrNoData):
			log.Warn("chart_skipped", "chart", c.name, "reason", err)
		case err != nil:
			return out, text, fmt.Errorf("rendering %s: %w", c.name, err)
		default:
			*c.set = c.name
			log.Info("chart_saved", "path", path)
		}
	}
	return out, text, nil
}
