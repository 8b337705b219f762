package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/recap/internal/model"
	"github.com/crimson-sun/recap/internal/output"
)

const (
	defaultBufferSize   = 64
	defaultDrainTimeout = 5 * time.Second
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("async output: closed")

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 64.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithDrainTimeout bounds how long Close waits for buffered summaries.
// Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write return immediately (dropping the summary) when
// the buffer is full, instead of blocking.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// Async decouples summary production from delivery via a buffered channel.
// A background goroutine drains the channel into the wrapped output; errors
// from the inner output go to errFunc rather than back to the caller.
type Async struct {
	inner        output.Output
	ch           chan model.Summary
	done         chan struct{}
	errFunc      func(error)
	bufSize      int
	drainTimeout time.Duration
	dropOnFull   bool
	dropped      atomic.Int64

	mu        sync.RWMutex // guards closed against sends on a closed channel
	closed    bool
	closeOnce sync.Once
}

// New wraps an output.Output in an async channel-based writer.
// The background drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		errFunc:      func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.Summary, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write queues the summary. By default it blocks while the buffer is full,
// until ctx is done. With WithDropOnFull it returns nil at once and the
// summary is lost.
func (a *Async) Write(ctx context.Context, summary model.Summary) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	if a.dropOnFull {
		select {
		case a.ch <- summary:
		default:
			a.dropped.Add(1)
			slog.Warn("async output buffer full, dropping summary",
				"id", summary.ID, "source", summary.Source)
		}
		return nil
	}

	select {
	case a.ch <- summary:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped reports how many summaries were discarded in drop-on-full mode.
func (a *Async) Dropped() int64 {
	return a.dropped.Load()
}

// Close stops accepting writes, waits for the drain goroutine (bounded by
// the drain timeout), then closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()

		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			slog.Warn("async output drain timed out", "pending", len(a.ch))
		}
		err = a.inner.Close()
	})
	return err
}

func (a *Async) drain() {
	defer close(a.done)
	for s := range a.ch {
		if err := a.inner.Write(context.Background(), s); err != nil {
			a.errFunc(err)
		}
	}
}
