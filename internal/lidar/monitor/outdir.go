package monitor

import (
	"path/filepath"
	"time"

	"github.com/banshee-data/pandarscan/internal/security"
)

// FormatTimestamp formats t for use in directory names.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakePlotOutputDir returns a timestamped output directory for plots.
// For capture files: <baseDir>/<capture_basename>/<timestamp>
// For live data: <baseDir>/live_<timestamp>
func MakePlotOutputDir(baseDir, captureFile string) string {
	ts := FormatTimestamp(time.Now())
	if captureFile != "" {
		base := filepath.Base(captureFile)
		name := base[:len(base)-len(filepath.Ext(base))]
		return filepath.Join(baseDir, security.SanitizeFilename(name), ts)
	}
	return filepath.Join(baseDir, "live_"+ts)
}
