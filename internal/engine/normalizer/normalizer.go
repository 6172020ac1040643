// Package normalizer turns raw clinical events into annotated events:
// stable ids, locale-rendered date/time fields, relative time, category,
// icon and display description.
package normalizer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crimson-sun/cronica/internal/engine/taxonomy"
	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

// IDStrategy selects how ids are generated for events that arrive without one.
type IDStrategy int

const (
	// PositionalIDs uses "event-{index}". Not stable across re-fetches
	// that reorder the log.
	PositionalIDs IDStrategy = iota
	// ContentIDs derives a UUIDv5 from event_type and timestamp.
	ContentIDs
)

// contentNamespace scopes content-derived ids.
var contentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://cronica.dev/events"))

// ParseIDStrategy maps "positional" or "content" to an IDStrategy.
func ParseIDStrategy(s string) (IDStrategy, error) {
	switch s {
	case "", "positional":
		return PositionalIDs, nil
	case "content":
		return ContentIDs, nil
	default:
		return PositionalIDs, fmt.Errorf("unknown id strategy %q", s)
	}
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithClock sets the source of "now" used for relative times. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) { n.now = now }
}

// WithLocale sets the display locale. Default: locale.Spanish.
func WithLocale(l *locale.Locale) Option {
	return func(n *Normalizer) { n.locale = l }
}

// WithLocation sets the viewer's time zone. Default: time.Local. A nil
// location keeps the default.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// WithLogger sets the logger receiving invalid-timestamp warnings.
// Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// WithIDStrategy sets how missing ids are generated. Default: PositionalIDs.
func WithIDStrategy(s IDStrategy) Option {
	return func(n *Normalizer) { n.ids = s }
}

// WithTaxonomy replaces the default category taxonomy.
func WithTaxonomy(t *taxonomy.Taxonomy) Option {
	return func(n *Normalizer) { n.taxonomy = t }
}

// Normalizer annotates raw events. It is immutable after New and safe for
// concurrent use.
type Normalizer struct {
	now      func() time.Time
	locale   *locale.Locale
	loc      *time.Location
	logger   *slog.Logger
	ids      IDStrategy
	taxonomy *taxonomy.Taxonomy
}

// New creates a Normalizer.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		now:      time.Now,
		locale:   locale.Spanish,
		loc:      time.Local,
		logger:   slog.Default(),
		ids:      PositionalIDs,
		taxonomy: taxonomy.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Location returns the viewer's time zone.
func (n *Normalizer) Location() *time.Location { return n.loc }

// Locale returns the display locale.
func (n *Normalizer) Locale() *locale.Locale { return n.locale }

// Taxonomy returns the taxonomy used for categories and phrases.
func (n *Normalizer) Taxonomy() *taxonomy.Taxonomy { return n.taxonomy }

// Now reads the injected clock.
func (n *Normalizer) Now() time.Time { return n.now() }

// Logger returns the logger receiving warnings.
func (n *Normalizer) Logger() *slog.Logger { return n.logger }

// Normalize annotates events in input order. A timestamp that cannot be
// parsed degrades that event's date fields to the locale's invalid
// markers and logs a warning; the rest of the batch is unaffected.
func (n *Normalizer) Normalize(raws []model.RawEvent) []model.Event {
	out := make([]model.Event, 0, len(raws))
	ids := make(model.IDSet, len(raws))
	now := n.now()

	for i, raw := range raws {
		ev := model.Event{RawEvent: raw}

		id := raw.ID
		if id == "" {
			id = n.generateID(raw, i)
		}
		ev.ID = ids.Claim(id, i)

		ts, err := model.ParseTimestamp(raw.Timestamp, n.loc)
		if err != nil {
			n.logger.Warn("invalid event timestamp",
				"id", ev.ID, "index", i, "timestamp", raw.Timestamp, "error", err)
			ev.FormattedDate = n.locale.InvalidDate
			ev.FormattedTime = n.locale.InvalidTime
		} else {
			local := ts.In(n.loc)
			ev.SetTime(ts)
			ev.FormattedDate = n.locale.ShortDate(local)
			ev.FormattedTime = n.locale.Clock(local)
			ev.RelativeTime = n.locale.Relative(now, ts)
		}

		entry, _ := n.taxonomy.Lookup(raw.EventType)
		ev.Category = entry.Category
		ev.Icon = entry.Icon
		ev.TranslatedDescription = n.taxonomy.Translate(raw.EventType, raw.Description)

		out = append(out, ev)
	}
	return out
}

func (n *Normalizer) generateID(raw model.RawEvent, index int) string {
	if n.ids == ContentIDs {
		return uuid.NewSHA1(contentNamespace, []byte(raw.EventType+"|"+raw.Timestamp)).String()
	}
	return fmt.Sprintf("event-%d", index)
}
