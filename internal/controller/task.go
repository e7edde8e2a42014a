package controller

import (
	"context"
	"time"

	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	"k8s.io/utils/clock"
)

// Task is a cancellable background loop.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func newTask(parent context.Context) (*Task, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &Task{cancel: cancel, done: make(chan struct{})}, ctx
}

// Stop cancels the task. It does not wait for a running callback.
func (t *Task) Stop() {
	if t != nil {
		t.cancel()
	}
}

// Done is closed once the loop goroutine exits.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Every calls fn once per interval until the task is stopped. The first call
// happens one interval after Every returns.
func Every(parent context.Context, clk clock.WithTicker, interval time.Duration, fn func(ctx context.Context)) *Task {
	t, ctx := newTask(parent)
	// registered before returning so the first tick is relative to now
	ticker := clk.NewTicker(interval)

	go func() {
		defer utilruntime.HandleCrash()
		defer close(t.done)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				if ctx.Err() != nil {
					return
				}
				fn(ctx)
			}
		}
	}()

	return t
}

// Until calls fn right away and again delay after each call returns, as long
// as fn returns true and the task is not stopped.
func Until(parent context.Context, clk clock.Clock, delay time.Duration, fn func(ctx context.Context) bool) *Task {
	t, ctx := newTask(parent)

	go func() {
		defer utilruntime.HandleCrash()
		defer close(t.done)

		for {
			if ctx.Err() != nil || !fn(ctx) {
				return
			}

			timer := clk.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C():
			}
		}
	}()

	return t
}
