package callclient_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"teleclinic/consult-api/internal/callclient"
)

func TestTask_RunsAndStops(t *testing.T) {
	var runs atomic.Int32
	task := callclient.Every(context.Background(), 10*time.Millisecond, func(ctx context.Context) {
		runs.Add(1)
	})

	time.Sleep(60 * time.Millisecond)
	task.Stop()
	after := runs.Load()
	if after == 0 {
		t.Fatal("expected the task to run at least once")
	}

	time.Sleep(40 * time.Millisecond)
	if runs.Load() != after {
		t.Error("task kept running after Stop")
	}

	// Stop is idempotent.
	task.Stop()
}

// Runs never overlap: a slow run holds the loop and intermediate ticks
// are dropped.
func TestTask_SkipsOverlappingTicks(t *testing.T) {
	var concurrent atomic.Int32
	var maxSeen atomic.Int32

	task := callclient.Every(context.Background(), 5*time.Millisecond, func(ctx context.Context) {
		n := concurrent.Add(1)
		if n > maxSeen.Load() {
			maxSeen.Store(n)
		}
		time.Sleep(20 * time.Millisecond)
		concurrent.Add(-1)
	})

	time.Sleep(100 * time.Millisecond)
	task.Stop()

	if maxSeen.Load() > 1 {
		t.Errorf("runs overlapped: max concurrency %d", maxSeen.Load())
	}
}

func TestTask_StopCancelsContext(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})
	var once atomic.Bool

	task := callclient.Every(context.Background(), 5*time.Millisecond, func(ctx context.Context) {
		if once.CompareAndSwap(false, true) {
			close(started)
			<-ctx.Done()
			close(cancelled)
		}
	})

	<-started
	task.Stop()

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("Stop did not cancel the run context")
	}
}
