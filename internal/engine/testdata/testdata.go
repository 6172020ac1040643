// Package testdata embeds a sample consultation used across tests.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/crimson-sun/cronica/internal/model"
)

//go:embed consultation.json
var consultationJSON []byte

// ConsultationJSON returns the raw fixture document.
func ConsultationJSON() []byte {
	return consultationJSON
}

// LoadConsultation parses the embedded consultation.json.
func LoadConsultation() (model.Session, error) {
	var s model.Session
	if err := json.Unmarshal(consultationJSON, &s); err != nil {
		return model.Session{}, fmt.Errorf("parse consultation.json: %w", err)
	}
	return s, nil
}
