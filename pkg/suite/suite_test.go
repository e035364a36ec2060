package suite

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital.vasic.jester/pkg/report"
)

func TestKind_String(t *testing.T) {
	assert.Equal(t, "procedural", KindProcedural.String())
	assert.Equal(t, "declarative", KindDeclarative.String())
	assert.Equal(t, "unknown", Kind(0).String())
}

func TestNewDeclarative_LastWriteWins(t *testing.T) {
	errB := errors.New("second")
	m := NewDeclarative("m",
		Assertion{Description: "a", Check: func(context.Context) error { return nil }},
		Assertion{Description: "b"},
		Assertion{Description: "a", Check: func(context.Context) error { return errB }},
	)

	require.Len(t, m.Assertions, 2)
	assert.Equal(t, "a", m.Assertions[0].Description)
	assert.Equal(t, "b", m.Assertions[1].Description)
	assert.ErrorIs(t, m.Assertions[0].Check(context.Background()), errB)
	assert.Equal(t, KindDeclarative, m.Kind)
}

func TestNewProcedural(t *testing.T) {
	m := NewProcedural("p", func(context.Context, *Status, report.Reporter) error {
		return nil
	})
	assert.Equal(t, KindProcedural, m.Kind)
	assert.NotNil(t, m.Run)
}

func TestModule_WithPath_DefaultsID(t *testing.T) {
	m := NewDeclarative("").WithPath("tests/api/users.yaml")
	assert.Equal(t, "users", m.ID)
	assert.Equal(t, "tests/api/users.yaml", m.Path)

	m = NewDeclarative("custom").WithPath("tests/x.yaml")
	assert.Equal(t, "custom", m.ID)
}

func TestDefaultID(t *testing.T) {
	assert.Equal(t, "smoke", DefaultID("dir/smoke.tap.sh"))
	assert.Equal(t, "plug", DefaultID("plug.so"))
	assert.Equal(t, "README", DefaultID("README"))
	assert.Equal(t, ".yaml", DefaultID(".yaml"))
}

func TestStatus_CountsStayBounded(t *testing.T) {
	s := NewStatus()
	s.Record(true)
	s.Record(false)
	s.RecordSkip()

	total, failed, skipped := s.Counts()
	assert.Equal(t, 2, total)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 2, s.Total())
	assert.Equal(t, 1, s.Failed())
}

func TestStatus_SkipLeavesTotal(t *testing.T) {
	s := NewStatus()
	s.RecordSkip()
	s.RecordSkip()
	assert.Zero(t, s.Total())
	assert.Zero(t, s.Failed())
}

func TestStatus_Concurrent(t *testing.T) {
	s := NewStatus()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Record(i%4 != 0)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 100, s.Total())
	assert.Equal(t, 25, s.Failed())
	assert.LessOrEqual(t, s.Failed(), s.Total())
}

func TestStatus_ProgressSignals(t *testing.T) {
	s := NewStatus()
	s.Record(true)
	s.Record(true)

	select {
	case <-s.Progress():
	default:
		t.Fatal("expected a progress signal")
	}
}

func TestStatus_ZeroValueUsable(t *testing.T) {
	var s Status
	s.Record(false)
	assert.Equal(t, 1, s.Failed())
	assert.Nil(t, s.Progress())
}
