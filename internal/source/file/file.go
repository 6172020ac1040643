// Package file loads a session from a JSON or YAML document on disk and
// watches it for changes.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/crimson-sun/cronica/internal/model"
	"github.com/crimson-sun/cronica/internal/source"
)

func init() {
	source.Register("file", func(cfg source.Config) (source.Source, error) {
		return New(cfg)
	})
}

// debounce coalesces the burst of events editors emit for one save.
const debounce = 100 * time.Millisecond

// Source reads a session document. A document is either a session object
// or a bare list of events; for the latter the session id is the file name
// without its extension.
type Source struct {
	path   string
	logger *slog.Logger
}

// New creates a file Source.
func New(cfg source.Config) (*Source, error) {
	if cfg.Path == "" {
		return nil, errors.New("file source: path is required")
	}
	return &Source{path: cfg.Path, logger: cfg.LoggerOrDefault()}, nil
}

// Load reads and decodes the document.
func (s *Source) Load(_ context.Context) (model.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.Session{}, fmt.Errorf("file source: %w", err)
	}
	sess, err := Decode(data, filepath.Ext(s.path))
	if err != nil {
		return model.Session{}, fmt.Errorf("file source: %s: %w", s.path, err)
	}
	if sess.ID == "" {
		sess.ID = strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	}
	return sess, nil
}

// Decode parses a session document. ext selects YAML for ".yaml" and
// ".yml"; anything else is JSON.
func Decode(data []byte, ext string) (model.Session, error) {
	unmarshal := json.Unmarshal
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		unmarshal = yaml.Unmarshal
	}

	var sess model.Session
	errSession := unmarshal(data, &sess)
	if errSession == nil {
		return sess, nil
	}
	var events []model.RawEvent
	if err := unmarshal(data, &events); err != nil {
		return model.Session{}, errSession
	}
	return model.Session{Events: events}, nil
}

// Watch emits the session now and after every write to the file. Reload
// failures are logged and skipped; the last good session stays current.
func (s *Source) Watch(ctx context.Context) (<-chan model.Session, error) {
	initial, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("file source: %w", err)
	}
	// Watch the directory so atomic saves (write + rename) are seen.
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("file source: watch %s: %w", s.path, err)
	}

	ch := make(chan model.Session, 1)
	ch <- initial
	go s.watchLoop(ctx, w, ch)
	return ch, nil
}

func (s *Source) watchLoop(ctx context.Context, w *fsnotify.Watcher, ch chan<- model.Session) {
	defer close(ch)
	defer w.Close()

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	name := filepath.Base(s.path)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounce)
			reload = timer.C

		case <-reload:
			reload = nil
			sess, err := s.Load(ctx)
			if err != nil {
				s.logger.Warn("session reload failed", "path", s.path, "error", err)
				continue
			}
			s.logger.Debug("session reloaded", "path", s.path, "events", len(sess.Events))
			select {
			case ch <- sess:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			s.logger.Error("file watcher error", "path", s.path, "error", err)
		}
	}
}
