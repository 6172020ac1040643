package cronica

import (
	"time"

	"github.com/crimson-sun/cronica/internal/model"
)

func (f Filter) state() model.FilterState {
	return model.FilterState{
		EventTypes:          f.EventTypes,
		ConfidenceThreshold: f.MinConfidence,
		DateRange:           model.DateRange{Start: f.Start, End: f.End},
		SearchText:          f.Search,
	}
}

func rawToModel(r RawEvent) model.RawEvent {
	return model.RawEvent(r)
}

func rawsToModel(raws []RawEvent) []model.RawEvent {
	out := make([]model.RawEvent, len(raws))
	for i, r := range raws {
		out[i] = rawToModel(r)
	}
	return out
}

func sessionToModel(s Session) model.Session {
	return model.Session{
		ID:        s.ID,
		PatientID: s.PatientID,
		Title:     s.Title,
		Status:    s.Status,
		StartedAt: s.StartedAt,
		Events:    rawsToModel(s.Events),
	}
}

func sessionFromModel(s model.Session) Session {
	events := make([]RawEvent, len(s.Events))
	for i, r := range s.Events {
		events[i] = RawEvent(r)
	}
	return Session{
		ID:        s.ID,
		PatientID: s.PatientID,
		Title:     s.Title,
		Status:    s.Status,
		StartedAt: s.StartedAt,
		Events:    events,
	}
}

func eventFromModel(e model.Event) Event {
	return Event{
		RawEvent:              RawEvent(e.RawEvent),
		FormattedDate:         e.FormattedDate,
		FormattedTime:         e.FormattedTime,
		RelativeTime:          e.RelativeTime,
		Category:              e.Category,
		Icon:                  e.Icon,
		TranslatedDescription: e.TranslatedDescription,
		Related:               e.Related,
		Occurrences:           e.Occurrences(),
		Time:                  e.Time,
	}
}

// eventToModel derives the parsed time from Timestamp; Time is not serialized.
func eventToModel(e Event, loc *time.Location) model.Event {
	m := model.Event{
		RawEvent:              rawToModel(e.RawEvent),
		FormattedDate:         e.FormattedDate,
		FormattedTime:         e.FormattedTime,
		RelativeTime:          e.RelativeTime,
		Category:              e.Category,
		Icon:                  e.Icon,
		TranslatedDescription: e.TranslatedDescription,
		Related:               e.Related,
	}
	if ts, err := model.ParseTimestamp(e.Timestamp, loc); err == nil {
		m.SetTime(ts)
	}
	return m
}

func eventsFromModel(events []model.Event) []Event {
	if events == nil {
		return nil
	}
	out := make([]Event, len(events))
	for i, e := range events {
		out[i] = eventFromModel(e)
	}
	return out
}

func eventsToModel(events []Event, loc *time.Location) []model.Event {
	out := make([]model.Event, len(events))
	for i, e := range events {
		out[i] = eventToModel(e, loc)
	}
	return out
}

func dateGroupsFromModel(groups []model.DateGroup) []DateGroup {
	out := make([]DateGroup, len(groups))
	for i, g := range groups {
		out[i] = DateGroup{Key: g.Key, Label: g.Label, Events: eventsFromModel(g.Events)}
	}
	return out
}

func reportFromModel(r model.Report) Report {
	return Report{
		SessionID:   r.SessionID,
		GeneratedAt: r.GeneratedAt,
		Counts:      Counts(r.Counts),
		Events:      eventsFromModel(r.Events),
		Groups:      dateGroupsFromModel(r.Groups),
		Context:     eventsFromModel(r.Context),
	}
}
