package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.jester/pkg/logging"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, []string{"tests"}, cfg.TestDirs)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, "coverage", cfg.CoverageDir)
	require.NoError(t, cfg.Validate())

	gate, err := cfg.Gate()
	require.NoError(t, err)
	assert.Equal(t, logging.DefaultGate(), gate)
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeConfig(t, "jester.yaml", `
test_dirs: [e2e, smoke]
excludes: [e2e/slow]
format: md
timeout: 30s
stale_threshold: 2m
concurrency: 4
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"e2e", "smoke"}, cfg.TestDirs)
	assert.Equal(t, []string{"e2e/slow"}, cfg.Excludes)
	assert.Equal(t, "md", cfg.Format)
	assert.Equal(t, 30*time.Second, cfg.Timeout.Duration)
	assert.Equal(t, 2*time.Minute, cfg.StaleThreshold.Duration)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, "0111", cfg.Channels, "unset keys keep their defaults")
}

func TestLoadFile_YAMLEmpty(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, "jester.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeConfig(t, "jester.toml", `
test_dirs = ["suite"]
channels = "1111"
module_timeout = "5m"
schedule = "*/5 * * * *"
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"suite"}, cfg.TestDirs)
	assert.Equal(t, "1111", cfg.Channels)
	assert.Equal(t, 5*time.Minute, cfg.ModuleTimeout.Duration)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeConfig(t, "jester.json", `{"format":"json","timeout":"1s","dry_run":true}`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, time.Second, cfg.Timeout.Duration)
	assert.True(t, cfg.DryRun)
}

func TestLoadFile_UnknownField(t *testing.T) {
	for name, content := range map[string]string{
		"a.yaml": "tst_dirs: [x]\n",
		"a.toml": "tst_dirs = [\"x\"]\n",
		"a.json": `{"tst_dirs":["x"]}`,
	} {
		_, err := LoadFile(writeConfig(t, name, content))
		assert.Error(t, err, name)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config")

	_, err = LoadFile(writeConfig(t, "jester.ini", "x=1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = LoadFile(writeConfig(t, "bad.yaml", "timeout: soon\n"))
	assert.ErrorContains(t, err, "parse config")
}

func TestConfig_Validate(t *testing.T) {
	cfg := Default()
	cfg.TestDirs = nil
	cfg.Format = "pdf"
	cfg.Channels = "2"
	cfg.Concurrency = -1
	cfg.Timeout = Duration{-time.Second}
	cfg.Shell = ""
	cfg.Coverage = true
	cfg.CoverageDir = filepath.Join(t.TempDir(), "nope")
	cfg.Schedule = "not a cron"

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"test directory", "unknown format", "channels", "concurrency",
		"timeout must not be negative", "shell", "coverage directory", "schedule",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestConfig_Validate_WatchAndSchedule(t *testing.T) {
	cfg := Default()
	cfg.Watch = true
	cfg.Schedule = "@hourly"
	assert.ErrorContains(t, cfg.Validate(), "mutually exclusive")
}

func TestConfig_Validate_CoverageDirExists(t *testing.T) {
	cfg := Default()
	cfg.Coverage = true
	cfg.CoverageDir = t.TempDir()
	assert.NoError(t, cfg.Validate())
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Duration)

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("later")))
}
