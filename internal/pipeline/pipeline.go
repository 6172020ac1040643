// Package pipeline connects a session source, the engine and an output.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/crimson-sun/cronica/internal/engine"
	"github.com/crimson-sun/cronica/internal/model"
	"github.com/crimson-sun/cronica/internal/output"
	"github.com/crimson-sun/cronica/internal/source"
)

// ErrNotWatchable is returned by Watch when the source cannot report changes.
var ErrNotWatchable = errors.New("pipeline: source does not support watching")

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithCoalesceWindow collapses watch updates arriving within d into the
// newest one per session. 0 (default) handles every update.
func WithCoalesceWindow(d time.Duration) Option {
	return func(p *Pipeline) { p.window = d }
}

// Pipeline turns source sessions into reports and hands them to an output.
type Pipeline struct {
	source source.Source
	engine *engine.Engine
	output output.Output
	logger *slog.Logger
	window time.Duration
}

// New creates a Pipeline from the given components.
func New(src source.Source, eng *engine.Engine, out output.Output, opts ...Option) *Pipeline {
	p := &Pipeline{
		source: src,
		engine: eng,
		output: out,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run loads the session once, builds its report under fs and writes it.
func (p *Pipeline) Run(ctx context.Context, fs model.FilterState) error {
	session, err := p.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("pipeline load: %w", err)
	}
	if err := p.emit(ctx, session, fs); err != nil {
		return fmt.Errorf("pipeline output: %w", err)
	}
	return nil
}

// Watch writes a report for the current session and again after every
// change the source reports. Output errors are logged and do not stop the
// watch. Blocks until ctx is cancelled or the source closes its channel.
func (p *Pipeline) Watch(ctx context.Context, fs model.FilterState) error {
	w, ok := p.source.(source.Watcher)
	if !ok {
		return ErrNotWatchable
	}
	ch, err := w.Watch(ctx)
	if err != nil {
		return fmt.Errorf("pipeline watch: %w", err)
	}

	if p.window <= 0 {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case s, ok := <-ch:
				if !ok {
					return nil
				}
				p.emitLogged(ctx, s, fs)
			}
		}
	}

	buf := newSessionBuffer(p.window)
	flush := func(ctx context.Context) {
		for _, s := range buf.take() {
			p.emitLogged(ctx, s, fs)
		}
	}
	for {
		select {
		case <-ctx.Done():
			// Reports still pending are written with a fresh context.
			flush(context.Background())
			return ctx.Err()
		case s, ok := <-ch:
			if !ok {
				flush(ctx)
				return nil
			}
			buf.add(s)
		case <-buf.flushCh():
			flush(ctx)
		}
	}
}

// Close shuts down the output.
func (p *Pipeline) Close() error {
	return p.output.Close()
}

func (p *Pipeline) emit(ctx context.Context, s model.Session, fs model.FilterState) error {
	clean := source.Sanitize(s, p.logger)
	report := p.engine.Build(clean, fs)
	p.logger.Info("timeline report",
		"session", report.SessionID,
		"events", report.Counts.Total,
		"visible", len(report.Events),
		"groups", len(report.Groups),
	)
	return p.output.Write(ctx, report)
}

func (p *Pipeline) emitLogged(ctx context.Context, s model.Session, fs model.FilterState) {
	if err := p.emit(ctx, s, fs); err != nil {
		p.logger.Error("report output failed", "session", s.ID, "error", err)
	}
}
