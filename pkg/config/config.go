// Package config holds jester's runtime configuration: the
// defaults, an optional YAML, TOML, or JSON file, and the
// validation run before anything executes.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/report"
)

// Duration is a time.Duration written as "30s" or "2m" in
// config files.
type Duration struct {
	time.Duration
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds runtime configuration for one invocation.
type Config struct {
	// TestDirs are the discovery roots.
	TestDirs []string `json:"test_dirs" yaml:"test_dirs" toml:"test_dirs"`

	// Excludes are directories pruned from discovery.
	Excludes []string `json:"excludes" yaml:"excludes" toml:"excludes"`

	DryRun bool   `json:"dry_run" yaml:"dry_run" toml:"dry_run"`
	Format string `json:"format" yaml:"format" toml:"format"`

	// Channels and Levels are binary masks such as "0111" or
	// comma separated names.
	Channels string `json:"channels" yaml:"channels" toml:"channels"`
	Levels   string `json:"levels" yaml:"levels" toml:"levels"`

	Coverage      bool   `json:"coverage" yaml:"coverage" toml:"coverage"`
	CoverageDir   string `json:"coverage_dir" yaml:"coverage_dir" toml:"coverage_dir"`
	ClearCoverage bool   `json:"clear_coverage" yaml:"clear_coverage" toml:"clear_coverage"`

	// Timeout bounds each declarative assertion.
	Timeout        Duration `json:"timeout" yaml:"timeout" toml:"timeout"`
	ModuleTimeout  Duration `json:"module_timeout" yaml:"module_timeout" toml:"module_timeout"`
	StaleThreshold Duration `json:"stale_threshold" yaml:"stale_threshold" toml:"stale_threshold"`

	// Concurrency caps parallel modules; zero is unbounded.
	Concurrency int  `json:"concurrency" yaml:"concurrency" toml:"concurrency"`
	Stream      bool `json:"stream" yaml:"stream" toml:"stream"`

	Shell    string   `json:"shell" yaml:"shell" toml:"shell"`
	EnvFiles []string `json:"env_files" yaml:"env_files" toml:"env_files"`

	// Procedures are Go plugins whose Procedures symbol names
	// the targets of run fields.
	Procedures []string `json:"procedures" yaml:"procedures" toml:"procedures"`

	ReportDir   string `json:"report_dir" yaml:"report_dir" toml:"report_dir"`
	History     string `json:"history" yaml:"history" toml:"history"`
	MetricsFile string `json:"metrics_file" yaml:"metrics_file" toml:"metrics_file"`
	MonitorAddr string `json:"monitor_addr" yaml:"monitor_addr" toml:"monitor_addr"`

	NoColor bool `json:"no_color" yaml:"no_color" toml:"no_color"`
	Table   bool `json:"table" yaml:"table" toml:"table"`

	Watch    bool   `json:"watch" yaml:"watch" toml:"watch"`
	Schedule string `json:"schedule" yaml:"schedule" toml:"schedule"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		TestDirs:    []string{"tests"},
		Format:      string(report.FormatText),
		Channels:    "0111",
		Levels:      "1111",
		CoverageDir: "coverage",
		Shell:       "bash",
	}
}

// LoadFile reads path over the defaults. The extension picks
// the format; unknown keys are errors.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf(
				"parse config %s: unknown field %q", path, undecoded[0].String(),
			)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return cfg, nil
}

// Gate builds the reporter gate from the channel and level
// masks.
func (c *Config) Gate() (logging.Gate, error) {
	ch, err := logging.ParseChannels(c.Channels)
	if err != nil {
		return logging.Gate{}, fmt.Errorf("channels: %w", err)
	}
	lvl, err := logging.ParseLevels(c.Levels)
	if err != nil {
		return logging.Gate{}, fmt.Errorf("levels: %w", err)
	}
	return logging.Gate{Channels: ch, Levels: lvl}, nil
}

// Validate reports every problem at once. Any error is fatal
// for the run.
func (c *Config) Validate() error {
	var errs []error

	if len(c.TestDirs) == 0 {
		errs = append(errs, errors.New("at least one test directory is required"))
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Gate(); err != nil {
		errs = append(errs, err)
	}
	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}
	for name, d := range map[string]Duration{
		"timeout":         c.Timeout,
		"module_timeout":  c.ModuleTimeout,
		"stale_threshold": c.StaleThreshold,
	} {
		if d.Duration < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if c.Shell == "" {
		errs = append(errs, errors.New("shell is required"))
	}
	if c.Coverage {
		if info, err := os.Stat(c.CoverageDir); err != nil || !info.IsDir() {
			errs = append(errs, fmt.Errorf("coverage directory %s does not exist", c.CoverageDir))
		}
	}
	if c.Schedule != "" {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("schedule: %w", err))
		}
		if c.Watch {
			errs = append(errs, errors.New("watch and schedule are mutually exclusive"))
		}
	}
	return errors.Join(errs...)
}
