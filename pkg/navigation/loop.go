package navigation

import (
	"context"
	"errors"
)

// Scheduler runs continuations on the event loop that owns the store.
type Scheduler interface {
	Post(fn func())
}

// ErrLoopStopped is returned by Do once the loop has exited.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop is a single-goroutine event loop. Everything posted to it runs in order on
// the goroutine that called Run.
type Loop struct {
	queue chan func()
	done  chan struct{}
}

func NewLoop() *Loop {
	return &Loop{queue: make(chan func(), 64), done: make(chan struct{})}
}

// Post enqueues fn. Continuations posted after the loop stopped are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case l.queue <- fn:
	case <-l.done:
	}
}

// Run executes posted continuations until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case l.queue <- func() { fn(); close(finished) }:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
