package callclient

import (
	"context"
	"sync"
	"time"
)

// Task is a handle to a repeating background job. Stop cancels the job
// and waits for an in-flight run to finish; it is safe to call more
// than once.
type Task struct {
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// Every runs fn at the given interval until Stop is called or ctx is
// cancelled. Runs never overlap: the tick fires only after the previous
// run returned, and intermediate ticks are dropped rather than queued.
func Every(ctx context.Context, interval time.Duration, fn func(ctx context.Context)) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{cancel: cancel}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
	return t
}

// Stop cancels the task and blocks until the current run, if any,
// completes.
func (t *Task) Stop() {
	t.stopOnce.Do(func() {
		t.cancel()
		t.wg.Wait()
	})
}
