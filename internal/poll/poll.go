// Package poll runs the read → decode → present cadence shared by
// watch mode and the HTTP stream. One goroutine drives the loop; it
// blocks on the next wake-up or on cancellation, whichever comes first.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/hartyporpoise/smusensors/internal/clock"
)

// Step performs one iteration. It is never interrupted mid-call;
// cancellation takes effect at the next iteration boundary.
type Step func(ctx context.Context) error

// ErrorHandler decides what a failed step means. Returning nil keeps
// the loop going; returning an error stops Run with that error.
type ErrorHandler func(err error) error

// Continue is an ErrorHandler that keeps polling after every failure.
func Continue(error) error { return nil }

// Loop is a configured polling loop.
type Loop struct {
	Clock    clock.Clock
	Interval time.Duration
	Step     Step

	// OnError handles step failures. Nil stops at the first failure.
	OnError ErrorHandler

	// Observe, when set, is told how long each step took and how it
	// ended.
	Observe func(elapsed time.Duration, err error)
}

// Run is shorthand for a Loop built from its arguments.
func Run(ctx context.Context, clk clock.Clock, interval time.Duration, step Step, onErr ErrorHandler) error {
	l := &Loop{Clock: clk, Interval: interval, Step: step, OnError: onErr}
	return l.Run(ctx)
}

// Run executes Step immediately and then once per Interval until ctx
// is cancelled or the error handler aborts. Cancellation is a normal
// stop and returns nil.
func (l *Loop) Run(ctx context.Context) error {
	if l.Interval <= 0 {
		return fmt.Errorf("poll: interval must be positive, got %v", l.Interval)
	}
	if l.Step == nil {
		return fmt.Errorf("poll: no step")
	}
	clk := l.Clock
	if clk == nil {
		clk = clock.Real()
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		start := clk.Now()
		err := l.Step(ctx)
		if l.Observe != nil {
			l.Observe(clk.Now().Sub(start), err)
		}
		if err != nil {
			if l.OnError == nil {
				return err
			}
			if abort := l.OnError(err); abort != nil {
				return abort
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-clk.After(l.Interval):
		}
	}
}
