package cronica

import (
	"log/slog"
	"time"
)

type options struct {
	locale     string
	location   *time.Location
	now        func() time.Time
	logger     *slog.Logger
	contentIDs bool
}

// Option configures a Cronica instance.
type Option func(*options)

// WithLocale sets the display locale by name ("es", "en"). Default: "es".
func WithLocale(name string) Option {
	return func(o *options) {
		o.locale = name
	}
}

// WithLocation sets the viewer's time zone used for display and grouping.
// Default: time.Local. A nil location keeps the default.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithClock sets the source of "now" for relative times and report
// timestamps. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger sets the logger receiving warnings about bad records.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithContentIDs derives ids for events without one from their type and
// timestamp instead of their position, so ids survive reordering.
func WithContentIDs() Option {
	return func(o *options) {
		o.contentIDs = true
	}
}

func defaultOptions() options {
	return options{
		locale:   "es",
		location: time.Local,
		now:      time.Now,
		logger:   slog.Default(),
	}
}
