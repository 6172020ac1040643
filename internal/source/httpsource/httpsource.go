// Package httpsource loads sessions from a REST backend:
// GET {endpoint}/sessions/{id}.
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/crimson-sun/cronica/internal/model"
	"github.com/crimson-sun/cronica/internal/source"
	"github.com/crimson-sun/cronica/internal/source/httpclient"
)

func init() {
	source.Register("http", func(cfg source.Config) (source.Source, error) {
		return New(cfg)
	})
}

// Source fetches sessions over HTTP.
type Source struct {
	client    *httpclient.Client
	sessionID string
}

// New creates an HTTP Source. cfg.SessionID is the session Load fetches;
// LoadSession accepts any id.
func New(cfg source.Config, opts ...httpclient.Option) (*Source, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("http source: endpoint is required")
	}
	base := []httpclient.Option{
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithLogger(cfg.LoggerOrDefault()),
	}
	return &Source{
		client:    httpclient.New(cfg.Endpoint, cfg.APIKey, append(base, opts...)...),
		sessionID: cfg.SessionID,
	}, nil
}

// Load fetches the configured session.
func (s *Source) Load(ctx context.Context) (model.Session, error) {
	if s.sessionID == "" {
		return model.Session{}, errors.New("http source: session id is required")
	}
	return s.LoadSession(ctx, s.sessionID)
}

// LoadSession fetches the session with the given id.
func (s *Source) LoadSession(ctx context.Context, id string) (model.Session, error) {
	var sess model.Session
	if err := s.client.GetJSON(ctx, "/sessions/"+url.PathEscape(id), nil, &sess); err != nil {
		return model.Session{}, fmt.Errorf("http source: session %s: %w", id, err)
	}
	if sess.ID == "" {
		sess.ID = id
	}
	return sess, nil
}
