// Package source loads consultation sessions from where they are kept.
// Implementations register themselves by provider name from init.
package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/crimson-sun/cronica/internal/model"
)

// Source loads one session's event log.
type Source interface {
	Load(ctx context.Context) (model.Session, error)
}

// Watcher is implemented by sources that can report changes. Watch sends
// the current session first and again after every change, and closes the
// channel when ctx ends.
type Watcher interface {
	Watch(ctx context.Context) (<-chan model.Session, error)
}

// SessionLoader is implemented by sources that can load any session by id.
type SessionLoader interface {
	LoadSession(ctx context.Context, id string) (model.Session, error)
}

// Config holds provider-specific settings.
type Config struct {
	Provider  string
	Path      string
	Endpoint  string
	APIKey    string
	SessionID string
	Timeout   time.Duration
	// PollInterval paces Watch for sources that poll. 0 uses the source default.
	PollInterval time.Duration
	Logger       *slog.Logger
}

// LoggerOrDefault returns the configured logger or slog.Default().
func (c Config) LoggerOrDefault() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
