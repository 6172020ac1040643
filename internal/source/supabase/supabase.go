// Package supabase loads sessions from a Supabase project through its
// PostgREST API: one row per session in clinical_sessions and one row per
// event in clinical_events.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/crimson-sun/cronica/internal/model"
	"github.com/crimson-sun/cronica/internal/source"
	"github.com/crimson-sun/cronica/internal/source/httpclient"
)

const (
	defaultPollInterval = 10 * time.Second
	sessionsPath        = "/rest/v1/clinical_sessions"
	eventsPath          = "/rest/v1/clinical_events"
	pageSize            = 1000
)

func init() {
	source.Register("supabase", func(cfg source.Config) (source.Source, error) {
		return New(cfg)
	})
}

// eventRow is a clinical_events row. CreatedAt is the insertion time and
// drives incremental polling.
type eventRow struct {
	model.RawEvent
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
}

// Source reads sessions from Supabase.
type Source struct {
	client       *httpclient.Client
	sessionID    string
	pollInterval time.Duration
	logger       *slog.Logger
}

// New creates a Supabase source. cfg.Endpoint is the project URL and
// cfg.APIKey the project API key.
func New(cfg source.Config, opts ...httpclient.Option) (*Source, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("supabase source: endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("supabase source: api key is required")
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	base := []httpclient.Option{
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithLogger(cfg.LoggerOrDefault()),
		httpclient.WithHeader("apikey", cfg.APIKey),
	}
	return &Source{
		client:       httpclient.New(cfg.Endpoint, cfg.APIKey, append(base, opts...)...),
		sessionID:    cfg.SessionID,
		pollInterval: poll,
		logger:       cfg.LoggerOrDefault(),
	}, nil
}

// Load fetches the configured session with all its events.
func (s *Source) Load(ctx context.Context) (model.Session, error) {
	if s.sessionID == "" {
		return model.Session{}, errors.New("supabase source: session id is required")
	}
	return s.LoadSession(ctx, s.sessionID)
}

// LoadSession fetches a session and its events, oldest first.
func (s *Source) LoadSession(ctx context.Context, id string) (model.Session, error) {
	sess, err := s.fetchSession(ctx, id)
	if err != nil {
		return model.Session{}, err
	}
	rows, err := s.fetchEvents(ctx, id, "")
	if err != nil {
		return model.Session{}, err
	}
	sess.Events = make([]model.RawEvent, len(rows))
	for i, r := range rows {
		sess.Events[i] = r.RawEvent
	}
	return sess, nil
}

// Watch sends the session, then polls for events inserted since the last
// poll and re-sends the grown session whenever any arrive. Poll failures
// are logged and retried on the next tick.
func (s *Source) Watch(ctx context.Context) (<-chan model.Session, error) {
	if s.sessionID == "" {
		return nil, errors.New("supabase source: session id is required")
	}
	sess, err := s.fetchSession(ctx, s.sessionID)
	if err != nil {
		return nil, err
	}

	ch := make(chan model.Session, 1)
	go func() {
		defer close(ch)

		var cursor string
		sess.Events = nil
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		first := true
		for {
			grown, err := s.poll(ctx, &sess, &cursor)
			if err != nil && ctx.Err() == nil {
				s.logger.Warn("supabase source: poll error", "session", s.sessionID, "error", err)
			}
			if grown || first {
				first = false
				snapshot := sess
				snapshot.Events = append([]model.RawEvent(nil), sess.Events...)
				select {
				case ch <- snapshot:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return ch, nil
}

// poll appends events created after *cursor and advances it.
func (s *Source) poll(ctx context.Context, sess *model.Session, cursor *string) (bool, error) {
	rows, err := s.fetchEvents(ctx, sess.ID, *cursor)
	if err != nil {
		return false, err
	}
	for _, r := range rows {
		sess.Events = append(sess.Events, r.RawEvent)
		if r.CreatedAt > *cursor {
			*cursor = r.CreatedAt
		}
	}
	return len(rows) > 0, nil
}

func (s *Source) fetchSession(ctx context.Context, id string) (model.Session, error) {
	q := url.Values{}
	q.Set("id", "eq."+id)
	q.Set("select", "id,patient_id,title,status,started_at")
	q.Set("limit", "1")

	var rows []model.Session
	if err := s.client.GetJSON(ctx, sessionsPath, q, &rows); err != nil {
		return model.Session{}, fmt.Errorf("supabase source: session %s: %w", id, err)
	}
	if len(rows) == 0 {
		return model.Session{}, fmt.Errorf("supabase source: session %s not found", id)
	}
	return rows[0], nil
}

// fetchEvents pages through the session's events created after since
// (all events when since is empty).
func (s *Source) fetchEvents(ctx context.Context, sessionID, since string) ([]eventRow, error) {
	var out []eventRow
	for offset := 0; ; offset += pageSize {
		q := url.Values{}
		q.Set("session_id", "eq."+sessionID)
		q.Set("select", "id,event_type,description,timestamp,confidence,details,metadata,session_id,created_at")
		q.Set("order", "created_at.asc,id.asc")
		q.Set("limit", fmt.Sprint(pageSize))
		q.Set("offset", fmt.Sprint(offset))
		if since != "" {
			q.Set("created_at", "gt."+since)
		}

		var page []eventRow
		if err := s.client.GetJSON(ctx, eventsPath, q, &page); err != nil {
			return nil, fmt.Errorf("supabase source: events of %s: %w", sessionID, err)
		}
		out = append(out, page...)
		if len(page) < pageSize {
			return out, nil
		}
	}
}
