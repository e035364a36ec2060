package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPool_Unbounded(t *testing.T) {
	p := newPool(0)
	var n atomic.Int32
	for i := 0; i < 10; i++ {
		p.Go(context.Background(), func() { n.Add(1) }, func(error) {
			t.Error("unbounded pool denied a task")
		})
	}
	p.Wait()
	assert.Equal(t, int32(10), n.Load())
}

func TestPool_Limit(t *testing.T) {
	p := newPool(3)
	var running, peak atomic.Int32
	for i := 0; i < 12; i++ {
		p.Go(context.Background(), func() {
			cur := running.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
		}, func(error) {})
	}
	p.Wait()
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Positive(t, peak.Load())
}

func TestPool_DeniedOnCancel(t *testing.T) {
	p := newPool(1)
	ctx, cancel := context.WithCancel(context.Background())

	release := make(chan struct{})
	started := make(chan struct{})
	p.Go(ctx, func() {
		close(started)
		<-release
	}, func(error) { t.Error("first task denied") })
	<-started

	var deniedErr atomic.Value
	p.Go(ctx, func() { t.Error("second task ran") }, func(err error) {
		deniedErr.Store(err)
	})

	cancel()
	time.Sleep(20 * time.Millisecond)
	close(release)
	p.Wait()

	assert.Equal(t, context.Canceled, deniedErr.Load())
}
