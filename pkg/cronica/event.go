package cronica

import "time"

// RawEvent is a clinical event as captured during a consultation.
type RawEvent struct {
	ID          string         `json:"id,omitempty"`
	EventType   string         `json:"event_type"`  // symptom, diagnosis, medication, ...
	Description string         `json:"description"` // free text
	Timestamp   string         `json:"timestamp"`   // ISO-8601
	Confidence  float64        `json:"confidence"`  // 0..1
	Details     string         `json:"details,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Session is one consultation's event log.
type Session struct {
	ID        string     `json:"id"`
	PatientID string     `json:"patient_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Status    string     `json:"status,omitempty"`
	StartedAt string     `json:"started_at"`
	Events    []RawEvent `json:"events"`
}

// Event is a processed event ready for display.
// This is the stable public type; internal representations may evolve
// independently without breaking consumers.
type Event struct {
	RawEvent

	FormattedDate         string    `json:"formattedDate"`         // short local date, or the invalid-date marker
	FormattedTime         string    `json:"formattedTime"`         // HH:MM local
	RelativeTime          string    `json:"relativeTime"`          // "hace 2 horas"
	Category              string    `json:"category"`              // display category
	Icon                  string    `json:"icon"`                  // icon key
	TranslatedDescription string    `json:"translatedDescription"` // display description
	Related               []string  `json:"relatedEvents"`         // ids of linked events
	Occurrences           int       `json:"occurrences"`           // >1 when symptom mentions were merged
	Time                  time.Time `json:"-"`                     // parsed timestamp; rebuilt from Timestamp on input
}

// Filter narrows the displayed events. The zero value lets everything
// through. Start and End bound whole local days.
type Filter struct {
	EventTypes    []string   `json:"eventTypes"`
	MinConfidence float64    `json:"confidenceThreshold"`
	Start         *time.Time `json:"start,omitempty"`
	End           *time.Time `json:"end,omitempty"`
	Search        string     `json:"searchText"`
}

// Counts tallies events per type and per category before filtering.
type Counts struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"byType"`
	ByCategory map[string]int `json:"byCategory"`
}

// DateGroup holds the events of one local day. Key is "YYYY-MM-DD", empty
// for events without a usable timestamp.
type DateGroup struct {
	Key    string  `json:"date"`
	Label  string  `json:"label"`
	Events []Event `json:"events"`
}

// SessionGroup holds the sessions started on one local day.
type SessionGroup struct {
	Key      string    `json:"date"`
	Label    string    `json:"label"`
	Sessions []Session `json:"sessions"`
}

// Report is a session processed and narrowed by a Filter.
type Report struct {
	SessionID   string      `json:"sessionId,omitempty"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Counts      Counts      `json:"counts"`
	Events      []Event     `json:"events"`
	Groups      []DateGroup `json:"groups,omitempty"`
	Context     []Event     `json:"context,omitempty"` // linked events hidden by the filter
}
