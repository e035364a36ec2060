package discovery

import (
	"context"
	"path/filepath"
	"strings"

	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/plugin"
	"digital.vasic.jester/pkg/suite"
)

// PluginLoader imports Go plugins built with
// -buildmode=plugin that export Run or Assertions.
type PluginLoader struct {
	loader *plugin.Loader
	logger logging.Logger
}

// NewPluginLoader creates a plugin loader. A nil loader opens
// files with the Go plugin runtime.
func NewPluginLoader(
	loader *plugin.Loader,
	logger logging.Logger,
) *PluginLoader {
	if loader == nil {
		loader = plugin.NewLoader(nil, nil)
	}
	if logger == nil {
		logger = logging.NullLogger{}
	}
	return &PluginLoader{loader: loader, logger: logger}
}

// Match accepts .so files.
func (l *PluginLoader) Match(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".so")
}

// Load opens path and builds a module from its exports. Run
// wins over Assertions when both are exported.
func (l *PluginLoader) Load(_ context.Context, path string) (*suite.Module, error) {
	e, err := l.loader.Load(path)
	if err != nil {
		return nil, err
	}

	switch {
	case e.HasRun():
		if e.HasAssertions() {
			l.logger.Warn("run takes precedence, assertions ignored",
				logging.PathField(path),
				logging.IntField("ignored", len(e.Assertions)))
		}
		return suite.NewProcedural(e.ID, e.Run), nil
	case e.HasAssertions():
		return suite.NewDeclarative(e.ID, e.Assertions...), nil
	default:
		return nil, ErrNotModule
	}
}
