package model

import (
	"errors"
	"time"
)

var errEmptyTimestamp = errors.New("empty timestamp")

// Timestamp layouts in the order they are tried. Zoned layouts carry their
// own offset; floating ones are read as wall-clock time in the viewer's
// location. A bare date is UTC midnight.
var timestampLayouts = []struct {
	layout   string
	floating bool
}{
	{time.RFC3339, false},
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04:05", true},
	{time.DateOnly, false},
}

// ParseTimestamp parses an event or session timestamp. loc is used for
// timestamps without a zone offset.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, errEmptyTimestamp
	}
	var firstErr error
	for _, l := range timestampLayouts {
		var (
			t   time.Time
			err error
		)
		if l.floating {
			t, err = time.ParseInLocation(l.layout, s, loc)
		} else {
			t, err = time.Parse(l.layout, s)
		}
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
