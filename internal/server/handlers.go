package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/crimson-sun/cronica/internal/config"
	"github.com/crimson-sun/cronica/internal/model"
	"github.com/crimson-sun/cronica/internal/source"
)

var validate = validator.New()

// TimelineRequest is the body of POST /v1/timeline. Exactly one of
// Session and Events is set.
type TimelineRequest struct {
	Session *model.Session   `json:"session" validate:"required_without=Events,excluded_with=Events"`
	Events  []model.RawEvent `json:"events" validate:"required_without=Session"`
	Filters FilterRequest    `json:"filters"`
}

// FilterRequest mirrors model.FilterState with request limits.
type FilterRequest struct {
	EventTypes          []string        `json:"eventTypes" validate:"max=32,dive,required"`
	ConfidenceThreshold float64         `json:"confidenceThreshold" validate:"gte=0,lte=1"`
	DateRange           model.DateRange `json:"dateRange"`
	SearchText          string          `json:"searchText" validate:"max=256"`
}

// State converts the request into a filter state.
func (f FilterRequest) State() model.FilterState {
	return model.FilterState{
		EventTypes:          f.EventTypes,
		ConfidenceThreshold: f.ConfidenceThreshold,
		DateRange:           f.DateRange,
		SearchText:          f.SearchText,
	}
}

// GroupsRequest is the body of POST /v1/timeline/groups.
type GroupsRequest struct {
	Sessions []model.Session `json:"sessions" validate:"required"`
}

// GroupsResponse lists sessions grouped by local start day.
type GroupsResponse struct {
	Groups []model.SessionGroup `json:"groups"`
}

// TaxonomyResponse is the category tree.
type TaxonomyResponse struct {
	Categories []*model.TaxonomyNode `json:"categories"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) taxonomy(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, TaxonomyResponse{Categories: s.engine.Taxonomy().Roots()})
}

func (s *Server) timeline(w http.ResponseWriter, r *http.Request) {
	var req TimelineRequest
	if !s.decode(w, r, &req) {
		return
	}

	session := model.Session{Events: req.Events}
	if req.Session != nil {
		session = *req.Session
	}
	session = source.Sanitize(session, s.logger)
	s.respondJSON(w, http.StatusOK, s.engine.Build(session, req.Filters.State()))
}

func (s *Server) sessionGroups(w http.ResponseWriter, r *http.Request) {
	var req GroupsRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.respondJSON(w, http.StatusOK, GroupsResponse{Groups: s.engine.GroupSessions(req.Sessions)})
}

// sessionTimeline loads a session through the configured loader. Filters
// come from the query: types (comma-separated), confidence, start and end
// (YYYY-MM-DD) and q.
func (s *Server) sessionTimeline(w http.ResponseWriter, r *http.Request) {
	fs, err := filterFromQuery(r, s.engine.Location())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "sessionID")
	session, err := s.loader.LoadSession(r.Context(), id)
	if err != nil {
		s.logger.Error("session load failed", "session", id, "error", err)
		s.respondError(w, http.StatusBadGateway, "failed to load session")
		return
	}
	session = source.Sanitize(session, s.logger)
	s.respondJSON(w, http.StatusOK, s.engine.Build(session, fs))
}

func filterFromQuery(r *http.Request, loc *time.Location) (model.FilterState, error) {
	q := r.URL.Query()
	fc := config.FilterConfig{
		Start:      q.Get("start"),
		End:        q.Get("end"),
		SearchText: q.Get("q"),
	}
	if types := q.Get("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			if t = strings.TrimSpace(t); t != "" {
				fc.EventTypes = append(fc.EventTypes, t)
			}
		}
	}
	if c := q.Get("confidence"); c != "" {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil || v < 0 || v > 1 {
			return model.FilterState{}, errors.New("confidence: must be a number in [0,1]")
		}
		fc.ConfidenceThreshold = v
	}
	return fc.State(loc)
}

// decode reads a JSON body into dst and validates it, answering 400 on
// failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		s.respondError(w, http.StatusBadRequest, "validation error: "+validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s", strings.ToLower(fe.Namespace()), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
