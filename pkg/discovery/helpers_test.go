package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"digital.vasic.jester/pkg/logging"
	"digital.vasic.jester/pkg/suite"
)

type logEntry struct {
	channel string
	msg     string
	fields  map[string]any
}

// recordLogger keeps every call for inspection.
type recordLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (r *recordLogger) add(ch, msg string, fields []logging.Field) {
	m := make(map[string]any, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, logEntry{channel: ch, msg: msg, fields: m})
}

func (r *recordLogger) Error(msg string, f ...logging.Field) { r.add("ERROR", msg, f) }
func (r *recordLogger) Warn(msg string, f ...logging.Field)  { r.add("WARN", msg, f) }
func (r *recordLogger) Info(msg string, f ...logging.Field)  { r.add("INFO", msg, f) }
func (r *recordLogger) Debug(msg string, f ...logging.Field) { r.add("DEBUG", msg, f) }
func (r *recordLogger) WithFields(...logging.Field) logging.Logger { return r }
func (r *recordLogger) Close() error                              { return nil }

func (r *recordLogger) count(channel, msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.channel == channel && e.msg == msg {
			n++
		}
	}
	return n
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func moduleIDs(modules []*suite.Module) []string {
	ids := make([]string, len(modules))
	for i, m := range modules {
		ids[i] = m.ID
	}
	sort.Strings(ids)
	return ids
}
