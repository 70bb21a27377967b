// Package tasks holds the periodic reconciliation loops: each one
// scans durable or in-memory state on its own timer and turns due
// items into outbound deliveries. Loops share nothing with each other;
// a failed cycle is logged and retried on the next tick.
package tasks

import (
	"context"
	"sync"
	"time"

	"remindbot/internal/logging"
)

// Loop is one periodic task. NextRun lets interval loops and
// fixed-time-of-day loops coexist under the same runner.
type Loop interface {
	Name() string
	NextRun(now time.Time) time.Time
	Tick(ctx context.Context) error
}

// Runner drives a set of loops, one goroutine each.
type Runner struct {
	loops []Loop
	stop  chan struct{}
	wg    sync.WaitGroup
}

// NewRunner creates an empty runner.
func NewRunner() *Runner {
	return &Runner{stop: make(chan struct{})}
}

// Add registers a loop. Must be called before Start.
func (r *Runner) Add(loop Loop) {
	r.loops = append(r.loops, loop)
}

// Start launches every loop.
func (r *Runner) Start(ctx context.Context) {
	for _, loop := range r.loops {
		r.wg.Add(1)
		go r.run(ctx, loop)
		logging.Info("tasks", "Started %s loop", loop.Name())
	}
}

// Stop signals all loops and waits for them to exit.
func (r *Runner) Stop() {
	close(r.stop)
	r.wg.Wait()
}

func (r *Runner) run(ctx context.Context, loop Loop) {
	defer r.wg.Done()

	for {
		wait := time.Until(loop.NextRun(time.Now()))
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-r.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := loop.Tick(ctx); err != nil {
			logging.Info("tasks", "%s loop tick failed: %v", loop.Name(), err)
		}
	}
}
