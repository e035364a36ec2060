// Package coverage collects code coverage of the running
// binary between the start and the end of a test run.
package coverage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime/coverage"
	"time"
)

// Profile is one run's coverage snapshot. Meta and Counters
// hold the runtime's binary payloads, base64-encoded in JSON.
type Profile struct {
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Meta      []byte    `json:"meta"`
	Counters  []byte    `json:"counters"`
}

// Collector is the coverage collaborator of the runner.
type Collector interface {
	// Start begins a collection window.
	Start() error
	// Collect snapshots coverage since Start.
	Collect() (*Profile, error)
	// Write stores p under dir and returns the file path.
	Write(p *Profile, dir string) (string, error)
}

// RuntimeCollector reads coverage from a binary built with
// -cover through runtime/coverage.
type RuntimeCollector struct {
	clear bool
	now   func() time.Time
}

// NewRuntimeCollector creates a collector. With clear set,
// Start resets the counters so the profile covers only the
// run; that requires -covermode=atomic.
func NewRuntimeCollector(clear bool) *RuntimeCollector {
	return &RuntimeCollector{clear: clear, now: time.Now}
}

// Start resets counters when configured to.
func (c *RuntimeCollector) Start() error {
	if !c.clear {
		return nil
	}
	if err := coverage.ClearCounters(); err != nil {
		return fmt.Errorf("clear coverage counters: %w", err)
	}
	return nil
}

// Collect snapshots meta-data and counters.
func (c *RuntimeCollector) Collect() (*Profile, error) {
	var meta, counters bytes.Buffer
	if err := coverage.WriteMeta(&meta); err != nil {
		return nil, fmt.Errorf("collect coverage meta-data: %w", err)
	}
	if err := coverage.WriteCounters(&counters); err != nil {
		return nil, fmt.Errorf("collect coverage counters: %w", err)
	}
	return &Profile{
		Timestamp: c.now(),
		Meta:      meta.Bytes(),
		Counters:  counters.Bytes(),
	}, nil
}

// Write stores p as coverage-<timestamp>.json in dir.
func (c *RuntimeCollector) Write(p *Profile, dir string) (string, error) {
	return WriteProfile(p, dir)
}

// WriteProfile stores p as coverage-<timestamp>.json in dir.
// The directory must already exist.
func WriteProfile(p *Profile, dir string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("no coverage profile")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("coverage directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("coverage directory %s: not a directory", dir)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal coverage: %w", err)
	}

	ts := p.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	path := filepath.Join(dir, fmt.Sprintf(
		"coverage-%s.json", ts.UTC().Format("20060102T150405.000Z"),
	))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write coverage: %w", err)
	}
	return path, nil
}

// ReadProfile loads a profile written by WriteProfile.
func ReadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read coverage: %w", err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse coverage: %w", err)
	}
	return &p, nil
}
