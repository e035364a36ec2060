package runner

import (
	"context"
	"sync"
)

// pool runs tasks on their own goroutines, at most limit at a
// time when limit is positive.
type pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

func newPool(limit int) *pool {
	p := &pool{}
	if limit > 0 {
		p.sem = make(chan struct{}, limit)
	}
	return p
}

// Go starts task. When the pool is full it waits for a slot or
// for ctx to end; in the latter case denied runs instead.
func (p *pool) Go(ctx context.Context, task func(), denied func(error)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		if p.sem != nil {
			select {
			case p.sem <- struct{}{}:
				defer func() { <-p.sem }()
			case <-ctx.Done():
				denied(ctx.Err())
				return
			}
		}
		task()
	}()
}

// Wait blocks until every started task has returned.
func (p *pool) Wait() {
	p.wg.Wait()
}
