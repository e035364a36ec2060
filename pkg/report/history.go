package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// HistoricalEntry represents a single run in the history log.
type HistoricalEntry struct {
	Timestamp     time.Time `json:"timestamp"`
	RunID         string    `json:"run_id"`
	ElapsedMs     float64   `json:"elapsed_ms"`
	ModulesRun    int       `json:"modules_run"`
	ModulesFailed int       `json:"modules_failed"`
	DryRun        bool      `json:"dry_run,omitempty"`
	FailedIDs     []string  `json:"failed_ids,omitempty"`
}

// AppendToHistory adds one JSON line describing summary to the
// history file at historyPath.
func AppendToHistory(historyPath string, summary *RunSummary) error {
	entry := HistoricalEntry{
		Timestamp:     summary.StartedAt.Add(summary.Elapsed),
		RunID:         summary.RunID,
		ElapsedMs:     summary.ElapsedMs(),
		ModulesRun:    summary.ModulesRun,
		ModulesFailed: summary.ModulesFailed,
		DryRun:        summary.DryRun,
	}
	for _, m := range summary.Modules {
		if m.IsFailed() {
			entry.FailedIDs = append(entry.FailedIDs, m.ID)
		}
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf(
			"failed to marshal history entry: %w", err,
		)
	}

	file, err := os.OpenFile(
		historyPath,
		os.O_CREATE|os.O_APPEND|os.O_WRONLY,
		0644,
	)
	if err != nil {
		return fmt.Errorf(
			"failed to open history file: %w", err,
		)
	}
	defer func() { _ = file.Close() }()

	_, err = fmt.Fprintln(file, string(data))
	return err
}

// ReadHistory loads every entry of a history file in order.
func ReadHistory(historyPath string) ([]HistoricalEntry, error) {
	file, err := os.Open(historyPath)
	if err != nil {
		return nil, fmt.Errorf(
			"failed to open history file: %w", err,
		)
	}
	defer func() { _ = file.Close() }()

	var entries []HistoricalEntry
	scanner := bufio.NewScanner(file)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var e HistoricalEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf(
				"history line %d: %w", line, err,
			)
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}
