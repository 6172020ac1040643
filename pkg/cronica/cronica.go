package cronica

import (
	"fmt"

	"github.com/crimson-sun/cronica/internal/engine"
	"github.com/crimson-sun/cronica/internal/engine/dedup"
	"github.com/crimson-sun/cronica/internal/engine/normalizer"
	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

// Cronica is a clinical timeline engine. Safe for concurrent use.
type Cronica struct {
	engine *engine.Engine
}

// New creates a Cronica instance. It fails only on an unknown locale.
func New(opts ...Option) (*Cronica, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	l, err := locale.Lookup(o.locale)
	if err != nil {
		return nil, fmt.Errorf("cronica: %w", err)
	}
	ids := normalizer.PositionalIDs
	if o.contentIDs {
		ids = normalizer.ContentIDs
	}
	norm := normalizer.New(
		normalizer.WithLocale(l),
		normalizer.WithLocation(o.location),
		normalizer.WithClock(o.now),
		normalizer.WithLogger(o.logger),
		normalizer.WithIDStrategy(ids),
	)
	return &Cronica{engine: engine.New(norm, dedup.New())}, nil
}

// Process normalizes raw events, merges repeated symptom mentions and
// links diagnoses to the symptoms their evidence cites. Merged symptoms
// come first, then every other event in input order.
func (c *Cronica) Process(raws []RawEvent) []Event {
	snap := c.engine.Process(rawsToModel(raws))
	return eventsFromModel(snap.Events)
}

// Filter narrows processed events. Links between events are preserved;
// filtering the result again with the same Filter changes nothing.
func (c *Cronica) Filter(events []Event, f Filter) []Event {
	return eventsFromModel(c.engine.Filter(eventsToModel(events, c.engine.Location()), f.state()))
}

// Build processes a session and narrows it by f. Counts cover the whole
// session; Context lists linked events the filter hid.
func (c *Cronica) Build(s Session, f Filter) Report {
	return reportFromModel(c.engine.Build(sessionToModel(s), f.state()))
}

// GroupByDate groups events by the viewer's local day, newest first, with
// events lacking a usable timestamp in a final group with an empty key.
func (c *Cronica) GroupByDate(events []Event) []DateGroup {
	return dateGroupsFromModel(c.engine.GroupByDate(eventsToModel(events, c.engine.Location())))
}

// GroupSessions groups sessions by the viewer's local start day, newest first.
func (c *Cronica) GroupSessions(sessions []Session) []SessionGroup {
	ms := make([]model.Session, len(sessions))
	for i, s := range sessions {
		ms[i] = sessionToModel(s)
	}
	groups := c.engine.GroupSessions(ms)
	out := make([]SessionGroup, len(groups))
	for i, g := range groups {
		ss := make([]Session, len(g.Sessions))
		for j, s := range g.Sessions {
			ss[j] = sessionFromModel(s)
		}
		out[i] = SessionGroup{Key: g.Key, Label: g.Label, Sessions: ss}
	}
	return out
}

// FormatDate renders a "YYYY-MM-DD" key as a long localized date, e.g.
// "lunes, 3 de junio de 2024". Keys that do not parse are returned as is.
func (c *Cronica) FormatDate(key string) string {
	return c.engine.FormatDate(key)
}
