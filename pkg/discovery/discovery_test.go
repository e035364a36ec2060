package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.jester/pkg/registry"
	"digital.vasic.jester/pkg/suite"
)

const literalDoc = `
assertions:
  - description: one equals one
    expect: equals:1
    source: {literal: 1}
`

func newTestDiscoverer(log *recordLogger) *Discoverer {
	reg := registry.NewRegistry()
	return New(
		WithLogger(log),
		WithLoaders(
			NewDocumentLoader(reg, nil, nil, log),
			NewScriptLoader("", nil, log),
			NewPluginLoader(nil, log),
		),
	)
}

func TestDiscoverer_Discover_Recursive(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.yaml"), literalDoc)
	writeFile(t, filepath.Join(root, "nested", "b.yml"), literalDoc)
	writeFile(t, filepath.Join(root, "nested", "deeper", "c.json"),
		`{"assertions":[{"description":"x","expect":"not_empty","source":{"literal":"v"}}]}`)
	writeFile(t, filepath.Join(root, "nested", "d_test.sh"), "echo ok 1\n")
	writeFile(t, filepath.Join(root, "README.md"), "# not a module\n")

	log := &recordLogger{}
	modules, err := newTestDiscoverer(log).Discover(
		context.Background(), []string{root}, nil,
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d_test"}, moduleIDs(modules))
	assert.Equal(t, 1, log.count("DEBUG", "ignoring file"))

	for _, m := range modules {
		assert.Contains(t, m.Path, "/")
		assert.NotContains(t, m.Path, `\`)
	}
}

func TestDiscoverer_Discover_Idempotent(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.yaml", "x/b.yaml", "x/y/c.yaml", "z/d.yaml"} {
		writeFile(t, filepath.Join(root, name), literalDoc)
	}
	d := newTestDiscoverer(&recordLogger{})

	first, err := d.Discover(context.Background(), []string{root}, nil)
	require.NoError(t, err)
	second, err := d.Discover(context.Background(), []string{root}, nil)
	require.NoError(t, err)

	assert.Equal(t, moduleIDs(first), moduleIDs(second))
	assert.Len(t, first, 4)
}

func TestDiscoverer_Discover_ExcludePrunesSubtree(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.yaml"), literalDoc)
	writeFile(t, filepath.Join(root, "vendor", "skip.yaml"), literalDoc)
	writeFile(t, filepath.Join(root, "vendor", "deep", "skip2.yaml"), literalDoc)
	writeFile(t, filepath.Join(root, "vendorish", "kept.yaml"), literalDoc)

	log := &recordLogger{}
	modules, err := newTestDiscoverer(log).Discover(
		context.Background(), []string{root},
		[]string{filepath.Join(root, "vendor")},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"keep", "kept"}, moduleIDs(modules))
	assert.Equal(t, 1, log.count("DEBUG", "excluded directory"))
}

func TestDiscoverer_Discover_ExcludeThroughSymlink(t *testing.T) {
	target := t.TempDir()
	writeFile(t, filepath.Join(target, "keep.yaml"), literalDoc)
	writeFile(t, filepath.Join(target, "vendor", "skip.yaml"), literalDoc)
	link := filepath.Join(t.TempDir(), "linked")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tests := []struct {
		name    string
		root    string
		exclude string
	}{
		{"linked root, target exclude", link, filepath.Join(target, "vendor")},
		{"target root, linked exclude", target, filepath.Join(link, "vendor")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := &recordLogger{}
			modules, err := newTestDiscoverer(log).Discover(
				context.Background(), []string{tt.root}, []string{tt.exclude},
			)
			require.NoError(t, err)
			assert.Equal(t, []string{"keep"}, moduleIDs(modules))
			assert.Equal(t, 1, log.count("DEBUG", "excluded directory"))
		})
	}
}

func TestDiscoverer_Discover_MissingRootIsFatal(t *testing.T) {
	_, err := newTestDiscoverer(&recordLogger{}).Discover(
		context.Background(),
		[]string{filepath.Join(t.TempDir(), "nope")}, nil,
	)
	assert.ErrorContains(t, err, "test directory")
}

func TestDiscoverer_Discover_RootIsFile(t *testing.T) {
	f := writeFile(t, filepath.Join(t.TempDir(), "a.yaml"), literalDoc)
	_, err := newTestDiscoverer(&recordLogger{}).Discover(
		context.Background(), []string{f}, nil,
	)
	assert.ErrorContains(t, err, "not a directory")
}

func TestDiscoverer_Discover_ImportFailureSkipsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good.yaml"), literalDoc)
	writeFile(t, filepath.Join(root, "bad.yaml"), "assertions: [unterminated\n")
	writeFile(t, filepath.Join(root, "unknown_run.yaml"), "run: not-registered\n")

	log := &recordLogger{}
	modules, err := newTestDiscoverer(log).Discover(
		context.Background(), []string{root}, nil,
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"good"}, moduleIDs(modules))
	assert.Equal(t, 2, log.count("ERROR", "failed to import test module"))
}

func TestDiscoverer_Discover_NotAModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config.yaml"), "id: only-an-id\n")
	writeFile(t, filepath.Join(root, "empty.yaml"), "")

	log := &recordLogger{}
	modules, err := newTestDiscoverer(log).Discover(
		context.Background(), []string{root}, nil,
	)
	require.NoError(t, err)
	assert.Empty(t, modules)
	assert.Equal(t, 2, log.count("DEBUG", "not a test module"))
}

func TestDiscoverer_Discover_UnreadableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read any directory")
	}
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "ok.yaml"), literalDoc)
	locked := filepath.Join(root, "locked")
	writeFile(t, filepath.Join(locked, "hidden.yaml"), literalDoc)
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	log := &recordLogger{}
	modules, err := newTestDiscoverer(log).Discover(
		context.Background(), []string{root}, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, moduleIDs(modules))
	assert.Equal(t, 1, log.count("ERROR", "cannot read directory"))
}

func TestDiscoverer_Discover_OverlappingRootsDuplicate(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "sub", "a.yaml"), literalDoc)

	modules, err := newTestDiscoverer(&recordLogger{}).Discover(
		context.Background(),
		[]string{root, filepath.Join(root, "sub")}, nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a"}, moduleIDs(modules))
}

func TestDiscoverer_Discover_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.yaml"), literalDoc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestDiscoverer(&recordLogger{}).Discover(ctx, []string{root}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverer_Discover_NoLoaders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.yaml"), literalDoc)

	modules, err := New().Discover(context.Background(), []string{root}, nil)
	require.NoError(t, err)
	assert.Empty(t, modules)
}

func TestDiscoverer_Discover_ModuleKinds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "decl.yaml"), literalDoc)
	writeFile(t, filepath.Join(root, "proc.tap.sh"), "echo 'ok 1 - fine'\n")

	modules, err := newTestDiscoverer(&recordLogger{}).Discover(
		context.Background(), []string{root}, nil,
	)
	require.NoError(t, err)
	require.Len(t, modules, 2)

	kinds := map[string]suite.Kind{}
	for _, m := range modules {
		kinds[m.ID] = m.Kind
	}
	assert.Equal(t, suite.KindDeclarative, kinds["decl"])
	assert.Equal(t, suite.KindProcedural, kinds["proc"])
}
