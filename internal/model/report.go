package model

import "time"

// Counts tallies a processed collection per event type and per category.
// It is always computed before filtering, so it reflects totals.
type Counts struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"byType"`
	ByCategory map[string]int `json:"byCategory"`
}

// DateGroup is the set of events falling on one local calendar day.
// Key is "YYYY-MM-DD", or empty for events without a usable timestamp.
type DateGroup struct {
	Key    string  `json:"date"`
	Label  string  `json:"label"`
	Events []Event `json:"events"`
}

// SessionGroup is the set of sessions started on one local calendar day.
type SessionGroup struct {
	Key      string    `json:"date"`
	Label    string    `json:"label"`
	Sessions []Session `json:"sessions"`
}

// Report is a processed session narrowed by a FilterState.
type Report struct {
	SessionID   string      `json:"sessionId,omitempty"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Filters     FilterState `json:"filters"`
	Counts      Counts      `json:"counts"`
	Events      []Event     `json:"events"`
	Groups      []DateGroup `json:"groups,omitempty"`

	// Context holds events linked from Events that did not pass the filter
	// themselves.
	Context []Event `json:"context,omitempty"`
}
