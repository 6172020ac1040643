// Package filter narrows an annotated event collection by a FilterState.
package filter

import (
	"strings"
	"time"

	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

// Filter applies FilterStates with date bounds interpreted in a viewer
// location. It holds no mutable state and is safe for concurrent use.
type Filter struct {
	loc *time.Location
}

// New creates a Filter whose date range bounds are whole days in loc.
// A nil loc means time.Local.
func New(loc *time.Location) *Filter {
	if loc == nil {
		loc = time.Local
	}
	return &Filter{loc: loc}
}

// Bounds returns the inclusive instants covered by r: 00:00 local on the
// start day and the last nanosecond of the end day. A zero time means the
// bound is open.
func (f *Filter) Bounds(r model.DateRange) (start, end time.Time) {
	if r.Start != nil {
		y, m, d := r.Start.Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, f.loc)
	}
	if r.End != nil {
		y, m, d := r.End.Date()
		end = time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), f.loc)
	}
	return start, end
}

// Apply returns the events passing every constraint in fs, in input order.
// It never modifies Related: a surviving event may link to events that were
// filtered out. Applying the same state to its own output is a no-op.
func (f *Filter) Apply(events []model.Event, fs model.FilterState) []model.Event {
	var types map[string]struct{}
	if len(fs.EventTypes) > 0 {
		types = make(map[string]struct{}, len(fs.EventTypes))
		for _, t := range fs.EventTypes {
			types[t] = struct{}{}
		}
	}
	start, end := f.Bounds(fs.DateRange)
	search := locale.Fold(fs.SearchText)

	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if types != nil {
			if _, ok := types[strings.ToLower(e.EventType)]; !ok {
				continue
			}
		}
		if e.Confidence < fs.ConfidenceThreshold {
			continue
		}
		if !start.IsZero() && (!e.HasTime() || e.Time.Before(start)) {
			continue
		}
		if !end.IsZero() && (!e.HasTime() || e.Time.After(end)) {
			continue
		}
		if search != "" && !matches(e, search) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matches(e model.Event, folded string) bool {
	if strings.Contains(locale.Fold(e.Description), folded) {
		return true
	}
	return e.Details != "" && strings.Contains(locale.Fold(e.Details), folded)
}

// Context returns the events of all that are linked from filtered but are
// not part of it, in the order they appear in all.
func (f *Filter) Context(all, filtered []model.Event) []model.Event {
	visible := make(map[string]struct{}, len(filtered))
	for _, e := range filtered {
		visible[e.ID] = struct{}{}
	}
	wanted := make(map[string]struct{})
	for _, e := range filtered {
		for _, id := range e.Related {
			if _, ok := visible[id]; !ok {
				wanted[id] = struct{}{}
			}
		}
	}
	if len(wanted) == 0 {
		return nil
	}
	var out []model.Event
	for _, e := range all {
		if _, ok := wanted[e.ID]; ok {
			out = append(out, e)
		}
	}
	return out
}
