// Package relate infers symptom↔diagnosis links from the free-text
// supporting evidence attached to diagnoses.
//
// A symptom is linked to a diagnosis when the symptom's details, cut at the
// first "(" and case folded, occur literally inside one of the diagnosis's
// evidence strings. Links are symmetric and stored as event ids.
package relate

import (
	"slices"
	"strings"

	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

// Prefix returns the part of a symptom's details used for matching.
func Prefix(details string) string {
	if i := strings.IndexByte(details, '('); i >= 0 {
		details = details[:i]
	}
	return strings.TrimSpace(locale.Fold(details))
}

// Resolve returns a copy of events with Related populated. Every returned
// event has a non-nil Related; an empty slice means no link was found.
// Only diagnosis↔symptom pairs are considered.
func Resolve(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	copy(out, events)

	type candidate struct {
		index  int
		prefix string
	}
	var symptoms []candidate
	for i := range out {
		out[i].Related = []string{}
		if out[i].EventType != model.TypeSymptom {
			continue
		}
		if p := Prefix(out[i].Details); p != "" {
			symptoms = append(symptoms, candidate{index: i, prefix: p})
		}
	}
	if len(symptoms) == 0 {
		return out
	}

	for i := range out {
		if out[i].EventType != model.TypeDiagnosis {
			continue
		}
		evidence := out[i].Evidence()
		if len(evidence) == 0 {
			continue
		}
		folded := make([]string, len(evidence))
		for j, e := range evidence {
			folded[j] = locale.Fold(e)
		}

		for _, s := range symptoms {
			if !matches(folded, s.prefix) {
				continue
			}
			out[i].Related = append(out[i].Related, out[s.index].ID)
			if !slices.Contains(out[s.index].Related, out[i].ID) {
				out[s.index].Related = append(out[s.index].Related, out[i].ID)
			}
		}
	}
	return out
}

func matches(evidence []string, prefix string) bool {
	for _, e := range evidence {
		if strings.Contains(e, prefix) {
			return true
		}
	}
	return false
}

// Links counts the distinct diagnosis↔symptom pairs in a resolved
// collection.
func Links(events []model.Event) int {
	var n int
	for _, e := range events {
		if e.EventType == model.TypeDiagnosis {
			n += len(e.Related)
		}
	}
	return n
}
