package main

import (
	"github.com/urfave/cli/v2"

	"digital.vasic.jester/pkg/config"
)

// loadConfig layers the config file and then any flag or
// JESTER_ variable that is set over the defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(ConfigFlag.Name); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	setStrings := func(name string, dst *[]string) {
		if c.IsSet(name) {
			*dst = c.StringSlice(name)
		}
	}
	setString := func(name string, dst *string) {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if c.IsSet(name) {
			*dst = c.Bool(name)
		}
	}
	setDuration := func(name string, dst *config.Duration) {
		if c.IsSet(name) {
			dst.Duration = c.Duration(name)
		}
	}

	setStrings(TestDirFlag.Name, &cfg.TestDirs)
	setStrings(ExcludeFlag.Name, &cfg.Excludes)
	setString(ChannelsFlag.Name, &cfg.Channels)
	setString(LevelsFlag.Name, &cfg.Levels)
	setString(FormatFlag.Name, &cfg.Format)
	setBool(NoColorFlag.Name, &cfg.NoColor)
	setString(ShellFlag.Name, &cfg.Shell)
	setStrings(EnvFileFlag.Name, &cfg.EnvFiles)
	setStrings(ProceduresFlag.Name, &cfg.Procedures)

	setBool(DryRunFlag.Name, &cfg.DryRun)
	setBool(CoverageFlag.Name, &cfg.Coverage)
	setString(CoverageDirFlag.Name, &cfg.CoverageDir)
	setBool(ClearCoverageFlag.Name, &cfg.ClearCoverage)
	setDuration(TimeoutFlag.Name, &cfg.Timeout)
	setDuration(ModuleTimeoutFlag.Name, &cfg.ModuleTimeout)
	setDuration(StaleThresholdFlag.Name, &cfg.StaleThreshold)
	if c.IsSet(ConcurrencyFlag.Name) {
		cfg.Concurrency = c.Int(ConcurrencyFlag.Name)
	}
	setBool(StreamFlag.Name, &cfg.Stream)
	setBool(TableFlag.Name, &cfg.Table)
	setString(ReportDirFlag.Name, &cfg.ReportDir)
	setString(HistoryFlag.Name, &cfg.History)
	setString(MetricsFileFlag.Name, &cfg.MetricsFile)
	setString(MonitorAddrFlag.Name, &cfg.MonitorAddr)
	setBool(WatchFlag.Name, &cfg.Watch)
	setString(ScheduleFlag.Name, &cfg.Schedule)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
