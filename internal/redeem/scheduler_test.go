package redeem

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoSchedulerRunsTasks(t *testing.T) {
	t.Parallel()

	s := NewGoScheduler(time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	var ran atomic.Int32
	s.Schedule("first", func(context.Context) { ran.Add(1) })
	s.Schedule("second", func(context.Context) { ran.Add(1) })
	s.Wait()

	if got := ran.Load(); got != 2 {
		t.Fatalf("ran = %d, want 2", got)
	}
}

func TestGoSchedulerRecoversPanics(t *testing.T) {
	t.Parallel()

	s := NewGoScheduler(time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Schedule("panics", func(context.Context) { panic("boom") })
	s.Wait()
}

func TestGoSchedulerBoundsTaskLifetime(t *testing.T) {
	t.Parallel()

	s := NewGoScheduler(10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	done := make(chan struct{})
	s.Schedule("waits", func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("task context was never cancelled")
	}
}
