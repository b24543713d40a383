package debounce

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestCoalescesBursts(t *testing.T) {
	d := New(20 * time.Millisecond)
	defer d.Stop()

	var runs int32
	var last int32
	done := make(chan struct{}, 10)
	for i := 1; i <= 10; i++ {
		v := int32(i)
		d.Schedule(func(ctx context.Context) {
			atomic.AddInt32(&runs, 1)
			atomic.StoreInt32(&last, v)
			done <- struct{}{}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
	time.Sleep(50 * time.Millisecond)
	if r, l := atomic.LoadInt32(&runs), atomic.LoadInt32(&last); r != 1 || l != 10 {
		t.Errorf("runs=%d last=%d", r, l)
	}
}

func TestSupersededRunningTaskIsCancelled(t *testing.T) {
	d := New(time.Hour)
	defer d.Stop()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	d.Schedule(func(ctx context.Context) {
		close(started)
		select {
		case <-ctx.Done():
			close(cancelled)
		case <-time.After(2 * time.Second):
		}
	})
	go d.Flush()
	<-started

	d.Schedule(func(context.Context) {})
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("running task was not cancelled by a newer schedule")
	}
}

func TestFlushRunsPendingNow(t *testing.T) {
	d := New(time.Hour)
	defer d.Stop()
	ran := false
	d.Schedule(func(context.Context) { ran = true })
	if !d.Pending() {
		t.Fatal("expected pending task")
	}
	if !d.Flush() || !ran {
		t.Fatal("flush should run the task")
	}
	if d.Flush() {
		t.Error("second flush has nothing to run")
	}
}

func TestStopDropsPending(t *testing.T) {
	d := New(10 * time.Millisecond)
	var runs int32
	d.Schedule(func(context.Context) { atomic.AddInt32(&runs, 1) })
	d.Stop()
	d.Schedule(func(context.Context) { atomic.AddInt32(&runs, 1) })
	time.Sleep(40 * time.Millisecond)
	if r := atomic.LoadInt32(&runs); r != 0 {
		t.Errorf("stopped debouncer ran %d tasks", r)
	}
}
