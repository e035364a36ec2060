package main

import "github.com/urfave/cli/v2"

// EnvVarPrefix prefixes the environment variable of every flag.
const EnvVarPrefix = "JESTER"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		EnvVars: prefixEnvVar("CONFIG"),
		Usage:   "YAML, TOML, or JSON config file; flags override its values",
	}
	TestDirFlag = &cli.StringSliceFlag{
		Name:    "test-dir",
		Aliases: []string{"d"},
		EnvVars: prefixEnvVar("TEST_DIR"),
		Usage:   "Directory to discover test modules in (repeatable, default 'tests')",
	}
	ExcludeFlag = &cli.StringSliceFlag{
		Name:    "exclude",
		Aliases: []string{"x"},
		EnvVars: prefixEnvVar("EXCLUDE"),
		Usage:   "Directory excluded from discovery (repeatable)",
	}
	ChannelsFlag = &cli.StringFlag{
		Name:    "channels",
		Aliases: []string{"c"},
		EnvVars: prefixEnvVar("CHANNELS"),
		Usage:   "Enabled channels as a mask (DEBUG INFO WARN ERROR, e.g. '0111') or names",
	}
	LevelsFlag = &cli.StringFlag{
		Name:    "levels",
		Aliases: []string{"l"},
		EnvVars: prefixEnvVar("LEVELS"),
		Usage:   "Enabled levels as a mask (GENERAL ASSERTION MODULE OVERALL, e.g. '1111') or names",
	}
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		EnvVars: prefixEnvVar("FORMAT"),
		Usage:   "Output format: text, md, json, or html",
	}
	NoColorFlag = &cli.BoolFlag{
		Name:    "no-color",
		EnvVars: prefixEnvVar("NO_COLOR"),
		Usage:   "Disable ANSI colors",
	}
	ShellFlag = &cli.StringFlag{
		Name:    "shell",
		EnvVars: prefixEnvVar("SHELL"),
		Usage:   "Shell running command probes and TAP scripts",
	}
	EnvFileFlag = &cli.StringSliceFlag{
		Name:    "env-file",
		EnvVars: prefixEnvVar("ENV_FILE"),
		Usage:   ".env file exposed to command probes and scripts (repeatable)",
	}
	ProceduresFlag = &cli.StringSliceFlag{
		Name:    "procedures",
		Aliases: []string{"p"},
		EnvVars: prefixEnvVar("PROCEDURES"),
		Usage:   "Go plugin (.so) exporting Procedures for documents with a run field (repeatable)",
	}
	DryRunFlag = &cli.BoolFlag{
		Name:    "dry-run",
		Aliases: []string{"n"},
		EnvVars: prefixEnvVar("DRY_RUN"),
		Usage:   "Report every module without executing it",
	}
	CoverageFlag = &cli.BoolFlag{
		Name:    "coverage",
		EnvVars: prefixEnvVar("COVERAGE"),
		Usage:   "Collect coverage (binary must be built with -cover)",
	}
	CoverageDirFlag = &cli.StringFlag{
		Name:    "coverage-dir",
		Aliases: []string{"o"},
		EnvVars: prefixEnvVar("COVERAGE_DIR"),
		Usage:   "Existing directory receiving coverage profiles",
	}
	ClearCoverageFlag = &cli.BoolFlag{
		Name:    "clear-coverage",
		EnvVars: prefixEnvVar("CLEAR_COVERAGE"),
		Usage:   "Reset coverage counters before the run",
	}
	TimeoutFlag = &cli.DurationFlag{
		Name:    "timeout",
		EnvVars: prefixEnvVar("TIMEOUT"),
		Usage:   "Per-assertion timeout for declarative modules (0 disables)",
	}
	ModuleTimeoutFlag = &cli.DurationFlag{
		Name:    "module-timeout",
		EnvVars: prefixEnvVar("MODULE_TIMEOUT"),
		Usage:   "Timeout for a whole module (0 disables)",
	}
	StaleThresholdFlag = &cli.DurationFlag{
		Name:    "stale-threshold",
		EnvVars: prefixEnvVar("STALE_THRESHOLD"),
		Usage:   "Cancel a module recording no assertion for this long (0 disables)",
	}
	ConcurrencyFlag = &cli.IntFlag{
		Name:    "concurrency",
		EnvVars: prefixEnvVar("CONCURRENCY"),
		Usage:   "Maximum modules running at once (0 is unbounded)",
	}
	StreamFlag = &cli.BoolFlag{
		Name:    "stream",
		EnvVars: prefixEnvVar("STREAM"),
		Usage:   "Write module output as it happens instead of per-module blocks",
	}
	TableFlag = &cli.BoolFlag{
		Name:    "table",
		EnvVars: prefixEnvVar("TABLE"),
		Usage:   "Append a module table to the text summary",
	}
	ReportDirFlag = &cli.StringFlag{
		Name:    "report-dir",
		EnvVars: prefixEnvVar("REPORT_DIR"),
		Usage:   "Directory receiving JSON and Markdown run summaries",
	}
	HistoryFlag = &cli.StringFlag{
		Name:    "history",
		EnvVars: prefixEnvVar("HISTORY"),
		Usage:   "JSONL file each run is appended to",
	}
	MetricsFileFlag = &cli.StringFlag{
		Name:    "metrics-file",
		EnvVars: prefixEnvVar("METRICS_FILE"),
		Usage:   "Prometheus textfile written after each run",
	}
	MonitorAddrFlag = &cli.StringFlag{
		Name:    "monitor-addr",
		EnvVars: prefixEnvVar("MONITOR_ADDR"),
		Usage:   "Serve the live dashboard on this address (e.g. ':8088')",
	}
	WatchFlag = &cli.BoolFlag{
		Name:    "watch",
		Aliases: []string{"w"},
		EnvVars: prefixEnvVar("WATCH"),
		Usage:   "Re-run whenever a file under the test directories changes",
	}
	ScheduleFlag = &cli.StringFlag{
		Name:    "schedule",
		EnvVars: prefixEnvVar("SCHEDULE"),
		Usage:   "Run on a cron schedule (e.g. '*/15 * * * *')",
	}
)

var commonFlags = []cli.Flag{
	ConfigFlag,
	TestDirFlag,
	ExcludeFlag,
	ChannelsFlag,
	LevelsFlag,
	FormatFlag,
	NoColorFlag,
	ShellFlag,
	EnvFileFlag,
	ProceduresFlag,
}

var runFlags = []cli.Flag{
	DryRunFlag,
	CoverageFlag,
	CoverageDirFlag,
	ClearCoverageFlag,
	TimeoutFlag,
	ModuleTimeoutFlag,
	StaleThresholdFlag,
	ConcurrencyFlag,
	StreamFlag,
	TableFlag,
	ReportDirFlag,
	HistoryFlag,
	MetricsFileFlag,
	MonitorAddrFlag,
	WatchFlag,
	ScheduleFlag,
}

// Flags is every flag of the run command.
var Flags = append(append([]cli.Flag{}, commonFlags...), runFlags...)
