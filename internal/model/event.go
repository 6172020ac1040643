package model

import (
	"encoding/json"
	"maps"
	"time"
)

// Known event types. The set is open: any other value is carried through
// untouched and lands in the "other" category.
const (
	TypeSymptom    = "symptom"
	TypeDiagnosis  = "diagnosis"
	TypeRecording  = "recording"
	TypeVitalSign  = "vital_sign"
	TypeMedication = "medication"
	TypeProcedure  = "procedure"
	TypeLabResult  = "lab_result"
)

// Metadata keys read or written by the engine.
const (
	MetaOccurrences        = "occurrences"
	MetaSupportingEvidence = "supporting_evidence"
)

// RawEvent is a clinical event as captured during a consultation.
// It is treated as read-only by every engine stage.
type RawEvent struct {
	ID          string         `json:"id,omitempty" yaml:"id,omitempty"`
	EventType   string         `json:"event_type" yaml:"event_type" validate:"required"`
	Description string         `json:"description" yaml:"description"`
	Timestamp   string         `json:"timestamp" yaml:"timestamp"`
	Confidence  float64        `json:"confidence" yaml:"confidence" validate:"gte=0,lte=1"`
	Details     string         `json:"details,omitempty" yaml:"details,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Event is a RawEvent annotated for display and correlation.
type Event struct {
	RawEvent

	FormattedDate         string `json:"formattedDate"`
	FormattedTime         string `json:"formattedTime"`
	RelativeTime          string `json:"relativeTime"`
	Category              string `json:"category"`
	Icon                  string `json:"icon"`
	TranslatedDescription string `json:"translatedDescription"`

	// Related holds the ids of linked events. Links are symmetric, so they
	// are kept as ids rather than nested events.
	Related []string `json:"relatedEvents"`

	// Time is the parsed Timestamp. Only meaningful when HasTime is true.
	Time time.Time `json:"-"`

	timed bool
}

// SetTime records t as the parsed timestamp.
func (e *Event) SetTime(t time.Time) {
	e.Time = t
	e.timed = true
}

// HasTime reports whether the event's timestamp was parsed successfully.
// A parsed timestamp may still be the zero instant.
func (e Event) HasTime() bool {
	return e.timed
}

// Occurrences returns metadata.occurrences, or 1 when it is unset.
func (e Event) Occurrences() int {
	switch v := e.Metadata[MetaOccurrences].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	}
	return 1
}

// WithMeta returns a copy of e with key set in a freshly allocated
// Metadata map, leaving the original map untouched.
func (e Event) WithMeta(key string, value any) Event {
	m := make(map[string]any, len(e.Metadata)+1)
	maps.Copy(m, e.Metadata)
	m[key] = value
	e.Metadata = m
	return e
}

// Evidence returns the supporting_evidence strings attached to the event.
// Non-string entries are ignored.
func (e Event) Evidence() []string {
	switch v := e.Metadata[MetaSupportingEvidence].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
