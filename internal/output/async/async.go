package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/cronica/internal/model"
	"github.com/crimson-sun/cronica/internal/output"
)

const (
	defaultBufferSize   = 64
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 64.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithDrainTimeout bounds how long Close waits for buffered reports.
// Default: 5s.
func WithDrainTimeout(d time.Duration) Option {
	return func(a *Async) { a.drainTimeout = d }
}

// WithLogger sets the logger for drop and drain warnings.
func WithLogger(l *slog.Logger) Option {
	return func(a *Async) { a.logger = l }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write return immediately, dropping the report, when
// the buffer is full instead of blocking.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// Async decouples report production from delivery via a buffered channel.
// A background goroutine drains the channel into the wrapped output; inner
// errors go to errFunc rather than the caller. Write must not be called
// after Close.
type Async struct {
	inner        output.Output
	ch           chan model.Report
	done         chan struct{}
	logger       *slog.Logger
	errFunc      func(error)
	bufSize      int
	drainTimeout time.Duration
	dropOnFull   bool
	closeOnce    sync.Once
}

// New wraps an output.Output. The drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:        inner,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.errFunc == nil {
		a.errFunc = func(err error) { a.logger.Warn("async output write error", "error", err) }
	}
	a.ch = make(chan model.Report, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write queues the report. By default it blocks while the buffer is full,
// until space frees up or ctx is done. With WithDropOnFull the report is
// dropped instead and Write returns nil.
func (a *Async) Write(ctx context.Context, report model.Report) error {
	if a.dropOnFull {
		select {
		case a.ch <- report:
		default:
			a.logger.Warn("async output buffer full, dropping report",
				"session_id", report.SessionID, "events", report.Counts.Total)
		}
		return nil
	}
	select {
	case a.ch <- report:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting reports, waits for the drain goroutine (bounded by
// the drain timeout), then closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.ch)
		select {
		case <-a.done:
		case <-time.After(a.drainTimeout):
			a.logger.Warn("async output drain timed out")
		}
		err = a.inner.Close()
	})
	return err
}

func (a *Async) drain() {
	defer close(a.done)
	for report := range a.ch {
		if err := a.inner.Write(context.Background(), report); err != nil {
			a.errFunc(err)
		}
	}
}
