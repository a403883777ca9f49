package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/gwaln/internal/model"
	"github.com/ppiankov/gwaln/internal/pipeline"
)

// encodeReport writes a report as JSON, indented when pretty is set
func encodeReport(w io.Writer, report *model.StructuredAnalysisReport, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}

// writeReportFile writes a report to path, creating parent directories
func writeReportFile(path string, report *model.StructuredAnalysisReport, pretty bool) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close report file: %w", closeErr)
		}
	}()

	return encodeReport(f, report, pretty)
}

// reportPath is where a topic's report lands inside dir
func reportPath(dir, topicID string) string {
	return filepath.Join(dir, sanitizeFilename(topicID)+".json")
}

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")
	if s == "" {
		s = "topic"
	}

	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// describeResult is the one-line progress summary for a comparison
func describeResult(result *pipeline.Result) string {
	origin := "computed"
	if result.Reused {
		origin = "cached"
	}
	line := fmt.Sprintf("%s [%s", result.Report.Summary.Headline, origin)
	if result.CacheStatus != "" {
		line += fmt.Sprintf(", cache was %s", result.CacheStatus)
	}
	line += fmt.Sprintf(", confidence %.2f %s]",
		result.Report.Summary.Confidence.Score, result.Report.Summary.Confidence.Label)
	return line
}
