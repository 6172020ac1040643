// Package grouping buckets events and sessions by local calendar day.
//
// Day keys come from the wall-clock date in the viewer's location, never
// from the UTC timestamp string, so an evening event west of UTC lands on
// the day the viewer experienced it.
package grouping

import (
	"slices"
	"strings"
	"time"

	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

// KeyLayout is the layout of day keys.
const KeyLayout = time.DateOnly

// Key returns the local day key for t.
func Key(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(KeyLayout)
}

// GroupByLocalDate groups events by local day, newest day first. Events
// keep their input order inside a group. Events without a usable timestamp
// go in a final group with an empty key.
func GroupByLocalDate(events []model.Event, loc *time.Location) []model.DateGroup {
	return group(events, func(e model.Event) string {
		if !e.HasTime() {
			return ""
		}
		return Key(e.Time, loc)
	}, func(key string, items []model.Event) model.DateGroup {
		return model.DateGroup{Key: key, Events: items}
	})
}

// GroupSessionsByDate groups sessions by the local day of StartedAt with
// the same ordering rules as GroupByLocalDate.
func GroupSessionsByDate(sessions []model.Session, loc *time.Location) []model.SessionGroup {
	return group(sessions, func(s model.Session) string {
		t, err := model.ParseTimestamp(s.StartedAt, loc)
		if err != nil {
			return ""
		}
		return Key(t, loc)
	}, func(key string, items []model.Session) model.SessionGroup {
		return model.SessionGroup{Key: key, Sessions: items}
	})
}

func group[T, G any](items []T, keyOf func(T) string, build func(string, []T) G) []G {
	buckets := make(map[string][]T)
	var keys []string
	for _, item := range items {
		k := keyOf(item)
		if _, ok := buckets[k]; !ok {
			keys = append(keys, k)
		}
		buckets[k] = append(buckets[k], item)
	}

	// Descending; the empty key sorts last.
	slices.SortFunc(keys, func(a, b string) int {
		switch {
		case a == "":
			return 1
		case b == "":
			return -1
		}
		return strings.Compare(b, a)
	})

	out := make([]G, 0, len(keys))
	for _, k := range keys {
		out = append(out, build(k, buckets[k]))
	}
	return out
}

// FormatDateForDisplay renders a day key as a long localized date. The date
// is built at local noon so the weekday is unaffected by DST transitions.
// A key that does not parse is returned unchanged.
func FormatDateForDisplay(key string, l *locale.Locale, loc *time.Location) string {
	d, err := time.ParseInLocation(KeyLayout, key, loc)
	if err != nil {
		return key
	}
	y, m, day := d.Date()
	return l.LongDate(time.Date(y, m, day, 12, 0, 0, 0, loc))
}

// LabelDates fills in each group's display label.
func LabelDates(groups []model.DateGroup, l *locale.Locale, loc *time.Location) {
	for i := range groups {
		groups[i].Label = label(groups[i].Key, l, loc)
	}
}

// LabelSessions fills in each session group's display label.
func LabelSessions(groups []model.SessionGroup, l *locale.Locale, loc *time.Location) {
	for i := range groups {
		groups[i].Label = label(groups[i].Key, l, loc)
	}
}

func label(key string, l *locale.Locale, loc *time.Location) string {
	if key == "" {
		return l.InvalidDate
	}
	return FormatDateForDisplay(key, l, loc)
}
