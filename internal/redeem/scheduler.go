package redeem

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler submits fire-and-forget background tasks. There is no result
// channel back to the request: failures are observable only through logging.
type Scheduler interface {
	Schedule(name string, fn func(context.Context))
}

// GoScheduler runs each task on its own goroutine with a bounded lifetime.
type GoScheduler struct {
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

func NewGoScheduler(timeout time.Duration, logger *slog.Logger) *GoScheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GoScheduler{timeout: timeout, logger: logger}
}

func (s *GoScheduler) Schedule(name string, fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("background task panicked", "task", name, "panic", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until all scheduled tasks have finished. Called on shutdown.
func (s *GoScheduler) Wait() {
	s.wg.Wait()
}
