package engine

import (
	"log/slog"
	"time"

	"github.com/crimson-sun/cronica/internal/engine/dedup"
	"github.com/crimson-sun/cronica/internal/engine/filter"
	"github.com/crimson-sun/cronica/internal/engine/grouping"
	"github.com/crimson-sun/cronica/internal/engine/normalizer"
	"github.com/crimson-sun/cronica/internal/engine/relate"
	"github.com/crimson-sun/cronica/internal/engine/taxonomy"
	"github.com/crimson-sun/cronica/internal/metrics"
	"github.com/crimson-sun/cronica/internal/model"
)

// Snapshot is a session's processed collection: normalized, deduplicated
// and linked, with counts over the whole collection.
type Snapshot struct {
	Events []model.Event
	Counts model.Counts
}

// Engine orchestrates the normalize → dedup → relate pipeline and builds
// filtered, grouped reports from its output. It is safe for concurrent use.
type Engine struct {
	normalizer *normalizer.Normalizer
	dedup      *dedup.Deduplicator
	filter     *filter.Filter
	metrics    *metrics.Collector
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics records pipeline metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// New creates an Engine around norm. Date bounds and grouping use the
// normalizer's location.
func New(norm *normalizer.Normalizer, dd *dedup.Deduplicator, opts ...Option) *Engine {
	e := &Engine{
		normalizer: norm,
		dedup:      dd,
		filter:     filter.New(norm.Location()),
		logger:     norm.Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Taxonomy returns the category taxonomy in use.
func (e *Engine) Taxonomy() *taxonomy.Taxonomy {
	return e.normalizer.Taxonomy()
}

// Process runs raws through normalization, deduplication and relationship
// resolution. Bad records degrade in place; Process never fails.
func (e *Engine) Process(raws []model.RawEvent) Snapshot {
	normalized := e.normalizer.Normalize(raws)
	for _, ev := range normalized {
		e.metrics.EventNormalized(ev.EventType, ev.HasTime())
	}

	deduped := e.dedup.DeduplicateBatch(normalized)
	e.metrics.SymptomsMerged(len(normalized) - len(deduped))

	linked := relate.Resolve(deduped)
	e.metrics.RelationshipsLinked(relate.Links(linked))

	return Snapshot{Events: linked, Counts: e.count(linked)}
}

// Location returns the viewer's time zone.
func (e *Engine) Location() *time.Location {
	return e.normalizer.Location()
}

// Filter narrows a processed collection.
func (e *Engine) Filter(events []model.Event, fs model.FilterState) []model.Event {
	return e.filter.Apply(events, fs)
}

// Build processes a session and narrows it by fs into a report.
func (e *Engine) Build(session model.Session, fs model.FilterState) model.Report {
	return e.Report(session.ID, e.Process(session.Events), fs)
}

// Report narrows an already processed snapshot by fs. Counts stay those of
// the whole snapshot.
func (e *Engine) Report(sessionID string, snap Snapshot, fs model.FilterState) model.Report {
	start := time.Now()

	filtered := e.filter.Apply(snap.Events, fs)
	report := model.Report{
		SessionID:   sessionID,
		GeneratedAt: e.normalizer.Now(),
		Filters:     fs,
		Counts:      snap.Counts,
		Events:      filtered,
		Groups:      e.GroupByDate(filtered),
		Context:     e.filter.Context(snap.Events, filtered),
	}

	elapsed := time.Since(start)
	e.metrics.ReportBuilt(elapsed)
	e.logger.Debug("report built",
		"session", sessionID,
		"total", snap.Counts.Total,
		"visible", len(filtered),
		"context", len(report.Context),
		"elapsed", elapsed,
	)
	return report
}

// GroupByDate groups events by the viewer's local day with display labels.
func (e *Engine) GroupByDate(events []model.Event) []model.DateGroup {
	groups := grouping.GroupByLocalDate(events, e.normalizer.Location())
	grouping.LabelDates(groups, e.normalizer.Locale(), e.normalizer.Location())
	return groups
}

// GroupSessions groups sessions by the viewer's local start day with
// display labels.
func (e *Engine) GroupSessions(sessions []model.Session) []model.SessionGroup {
	groups := grouping.GroupSessionsByDate(sessions, e.normalizer.Location())
	grouping.LabelSessions(groups, e.normalizer.Locale(), e.normalizer.Location())
	return groups
}

// FormatDate renders a "YYYY-MM-DD" key as a long localized date.
func (e *Engine) FormatDate(key string) string {
	return grouping.FormatDateForDisplay(key, e.normalizer.Locale(), e.normalizer.Location())
}

// Index maps event ids to events.
func Index(events []model.Event) map[string]model.Event {
	m := make(map[string]model.Event, len(events))
	for _, ev := range events {
		m[ev.ID] = ev
	}
	return m
}

func (e *Engine) count(events []model.Event) model.Counts {
	c := model.Counts{
		Total:      len(events),
		ByType:     make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, ev := range events {
		c.ByType[ev.EventType]++
		c.ByCategory[ev.Category]++
	}
	return c
}
