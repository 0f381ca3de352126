// Package besteffort runs side effects that must never block or fail the
// request that triggered them: affiliate usage increments, analytics saves,
// rate-limit persistence and single-use cleanup.
package besteffort

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every task started by a Runner.
const DefaultTimeout = 10 * time.Second

// Task is a unit of best-effort work.
type Task func(ctx context.Context) error

// Runner dispatches tasks on their own goroutines. Failures and panics are
// logged and otherwise dropped.
type Runner struct {
	logger  zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a Runner. A zero timeout selects DefaultTimeout.
func NewRunner(logger zerolog.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{logger: logger, timeout: timeout}
}

// Go starts fn in the background and returns immediately. The task gets a
// fresh context: the request context is usually canceled before it finishes.
func (r *Runner) Go(name string, fn Task) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.run(fn); err != nil {
			r.logger.Warn().Err(err).Str("task", name).Msg("best-effort task failed")
		}
	}()
}

func (r *Runner) run(fn Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return fn(ctx)
}

// Wait blocks until every started task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}
