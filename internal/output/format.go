package output

import (
	"fmt"

	"github.com/crimson-sun/cronica/internal/model"
)

// Verbosity controls how much of a report is written.
type Verbosity int

const (
	// Minimal drops event details, metadata and the context events.
	Minimal Verbosity = iota
	// Standard keeps events intact but drops the context events.
	Standard
	// Full writes the report as built.
	Full
)

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Full:
		return "full"
	default:
		return "standard"
	}
}

// ParseVerbosity maps "minimal", "standard" or "full" to a Verbosity.
func ParseVerbosity(s string) (Verbosity, error) {
	switch s {
	case "minimal":
		return Minimal, nil
	case "", "standard":
		return Standard, nil
	case "full":
		return Full, nil
	default:
		return Standard, fmt.Errorf("unknown verbosity %q", s)
	}
}

// FormatReport returns a copy of the report trimmed to verbosity. The
// input report and its events are not modified.
func FormatReport(r model.Report, verbosity Verbosity) model.Report {
	if verbosity == Full {
		return r
	}
	r.Context = nil
	if verbosity == Standard {
		return r
	}

	r.Events = stripEvents(r.Events)
	groups := make([]model.DateGroup, len(r.Groups))
	for i, g := range r.Groups {
		g.Events = stripEvents(g.Events)
		groups[i] = g
	}
	r.Groups = groups
	return r
}

func stripEvents(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	for i, e := range events {
		e.Details = ""
		e.Metadata = nil
		out[i] = e
	}
	return out
}
