package model

import "time"

// DateRange bounds events by calendar day. Only the year, month and day of
// Start and End matter; both bounds are inclusive of the whole day.
type DateRange struct {
	Start *time.Time `json:"start"`
	End   *time.Time `json:"end"`
}

// FilterState is the set of user-selected constraints narrowing the
// displayed events. The zero value lets everything through.
type FilterState struct {
	EventTypes          []string  `json:"eventTypes"`
	ConfidenceThreshold float64   `json:"confidenceThreshold"`
	DateRange           DateRange `json:"dateRange"`
	SearchText          string    `json:"searchText"`
}
