package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.jester/pkg/report"
	"digital.vasic.jester/pkg/suite"
)

func noop(
	_ context.Context, _ *suite.Status, _ report.Reporter,
) error {
	return nil
}

func TestDefaultRegistry_Register(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("smoke", noop))
	assert.Equal(t, 1, r.Count())

	// Duplicate
	assert.ErrorContains(t, r.Register("smoke", noop), "already registered")

	// Empty name
	assert.Error(t, r.Register("", noop))

	// Nil procedure
	assert.Error(t, r.Register("nil", nil))
}

func TestDefaultRegistry_Get(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("smoke", noop)

	p, err := r.Get("smoke")
	require.NoError(t, err)
	assert.NoError(t, p(context.Background(), suite.NewStatus(), nil))

	_, err = r.Get("missing")
	assert.ErrorContains(t, err, "not found")
	assert.True(t, r.Has("smoke"))
	assert.False(t, r.Has("missing"))
}

func TestDefaultRegistry_MustRegister_Panics(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("a", noop)
	assert.Panics(t, func() { r.MustRegister("a", noop) })
}

func TestDefaultRegistry_ListAndClear(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("b", noop)
	r.MustRegister("a", noop)
	r.MustRegister("c", noop)

	assert.Equal(t, []string{"a", "b", "c"}, r.List())

	r.Clear()
	assert.Equal(t, 0, r.Count())
	assert.Empty(t, r.List())
}

func TestDefaultRegistry_Clone(t *testing.T) {
	r := NewRegistry()
	r.MustRegister("base", noop)

	c := r.Clone()
	require.NoError(t, c.Register("extra", noop))

	assert.Equal(t, []string{"base", "extra"}, c.List())
	assert.Equal(t, []string{"base"}, r.List())
	assert.Error(t, c.Register("base", noop))
}

func TestDefaultRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.Register(string(rune('A'+i%26))+"x", noop)
		}(i)
		go func() {
			defer wg.Done()
			_ = r.List()
		}()
	}
	wg.Wait()
	assert.Equal(t, 26, r.Count())
}
