package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/montanaflynn/stats"
)

// DurationStats describes the distribution of module durations
// in milliseconds.
type DurationStats struct {
	Mean   float64 `json:"mean_ms"`
	Median float64 `json:"median_ms"`
	P95    float64 `json:"p95_ms"`
	Max    float64 `json:"max_ms"`
	StdDev float64 `json:"stddev_ms"`
}

// SummaryFile is the persisted form of a run summary.
type SummaryFile struct {
	*RunSummary

	GeneratedAt       time.Time     `json:"generated_at"`
	AssertionsTotal   int           `json:"assertions_total"`
	AssertionsFailed  int           `json:"assertions_failed"`
	AssertionsSkipped int           `json:"assertions_skipped"`
	PassRate          float64       `json:"pass_rate"`
	Durations         DurationStats `json:"durations"`
}

// BuildSummaryFile derives totals, pass rate, and duration
// statistics from a run summary.
func BuildSummaryFile(summary *RunSummary) *SummaryFile {
	f := &SummaryFile{
		RunSummary:  summary,
		GeneratedAt: time.Now(),
	}
	f.AssertionsTotal, f.AssertionsFailed, f.AssertionsSkipped =
		summary.AssertionTotals()
	if summary.ModulesRun > 0 {
		f.PassRate = float64(summary.ModulesPassed()) /
			float64(summary.ModulesRun)
	}
	f.Durations = durationStats(summary.Modules)
	return f
}

func durationStats(modules []ModuleResult) DurationStats {
	if len(modules) == 0 {
		return DurationStats{}
	}
	data := make(stats.Float64Data, len(modules))
	for i, m := range modules {
		data[i] = elapsedMs(m.Duration)
	}

	var ds DurationStats
	ds.Mean, _ = stats.Mean(data)
	ds.Median, _ = stats.Median(data)
	ds.P95, _ = stats.Percentile(data, 95)
	ds.Max, _ = stats.Max(data)
	ds.StdDev, _ = stats.StandardDeviation(data)
	return ds
}

// SaveRunSummary writes the summary as JSON and Markdown into
// outputDir and points latest_summary.{json,md} at them.
// It returns the JSON path.
func SaveRunSummary(
	summary *RunSummary,
	outputDir string,
) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf(
			"failed to create output directory: %w", err,
		)
	}

	file := BuildSummaryFile(summary)
	ts := file.GeneratedAt.Format("20060102_150405")

	jsonPath := filepath.Join(
		outputDir, fmt.Sprintf("run_summary_%s.json", ts),
	)
	jsonData, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return "", fmt.Errorf(
			"failed to marshal summary: %w", err,
		)
	}
	if err := os.WriteFile(jsonPath, jsonData, 0644); err != nil {
		return "", fmt.Errorf(
			"failed to write JSON summary: %w", err,
		)
	}

	mdPath := filepath.Join(
		outputDir, fmt.Sprintf("run_summary_%s.md", ts),
	)
	if err := os.WriteFile(
		mdPath, []byte(summaryMarkdown(file)), 0644,
	); err != nil {
		return "", fmt.Errorf(
			"failed to write Markdown summary: %w", err,
		)
	}

	latestJSON := filepath.Join(outputDir, "latest_summary.json")
	latestMD := filepath.Join(outputDir, "latest_summary.md")

	_ = os.Remove(latestJSON)
	_ = os.Remove(latestMD)
	_ = os.Symlink(filepath.Base(jsonPath), latestJSON)
	_ = os.Symlink(filepath.Base(mdPath), latestMD)

	return jsonPath, nil
}

func summaryMarkdown(f *SummaryFile) string {
	var sb strings.Builder

	sb.WriteString("# Test Run Summary\n\n")
	fmt.Fprintf(&sb, "**Run ID:** %s\n\n", f.RunID)
	fmt.Fprintf(
		&sb, "**Generated:** %s\n\n",
		f.GeneratedAt.Format(time.RFC3339),
	)
	if f.DryRun {
		sb.WriteString("_Dry run: no assertions executed._\n\n")
	}

	sb.WriteString("## Modules\n\n")
	sb.WriteString("| Module | Status | Duration | Passed/Total | Skipped |\n")
	sb.WriteString("|--------|--------|----------|--------------|---------|\n")
	for _, m := range f.Modules {
		status := "PASS"
		if m.IsFailed() {
			status = "FAIL"
		}
		fmt.Fprintf(
			&sb, "| %s | %s | %v | %d/%d | %d |\n",
			m.ID, status, m.Duration.Round(time.Microsecond),
			m.Passed(), m.Total, m.Skipped,
		)
	}

	sb.WriteString("\n## Statistics\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	fmt.Fprintf(&sb, "| Modules | %d |\n", f.ModulesRun)
	fmt.Fprintf(&sb, "| Failed modules | %d |\n", f.ModulesFailed)
	fmt.Fprintf(&sb, "| Pass rate | %.0f%% |\n", f.PassRate*100)
	fmt.Fprintf(&sb, "| Assertions | %d |\n", f.AssertionsTotal)
	fmt.Fprintf(&sb, "| Failed assertions | %d |\n", f.AssertionsFailed)
	fmt.Fprintf(&sb, "| Skipped assertions | %d |\n", f.AssertionsSkipped)
	fmt.Fprintf(&sb, "| Elapsed | %.1f ms |\n", f.ElapsedMs())
	fmt.Fprintf(&sb, "| Median module | %.1f ms |\n", f.Durations.Median)
	fmt.Fprintf(&sb, "| p95 module | %.1f ms |\n", f.Durations.P95)

	return sb.String()
}
