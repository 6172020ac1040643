package model

// Session is one consultation's event log as delivered by a source.
type Session struct {
	ID        string     `json:"id" yaml:"id"`
	PatientID string     `json:"patient_id,omitempty" yaml:"patient_id,omitempty"`
	Title     string     `json:"title,omitempty" yaml:"title,omitempty"`
	Status    string     `json:"status,omitempty" yaml:"status,omitempty"`
	StartedAt string     `json:"started_at" yaml:"started_at"`
	Events    []RawEvent `json:"events" yaml:"events"`
}
