// Package dedup merges repeated symptom mentions into one representative
// event per merge key.
package dedup

import (
	"regexp"
	"strings"

	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

var parenthetical = regexp.MustCompile(`\([^)]*(\)|$)`)

// Key returns the merge key for a symptom's details: parenthesized groups
// removed, case folded and trimmed. An unclosed "(" runs to the end.
func Key(details string) string {
	return strings.TrimSpace(locale.Fold(parenthetical.ReplaceAllString(details, "")))
}

// Deduplicator collapses symptom events that share a merge key.
type Deduplicator struct{}

// New creates a Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{}
}

// group accumulates symptom events with the same merge key.
type group struct {
	event model.Event
	count int
}

// DeduplicateBatch merges symptom events with non-empty details by merge
// key. The first occurrence is the representative: it keeps its id, takes
// the highest confidence seen and records the number of merged events in
// metadata.occurrences. Representatives come first in first-occurrence
// order, followed by every other event in input order. Ids are re-checked
// for uniqueness across the output.
func (d *Deduplicator) DeduplicateBatch(events []model.Event) []model.Event {
	if len(events) == 0 {
		return []model.Event{}
	}

	// Ordered map: preserve first-occurrence order.
	var order []*group
	groups := make(map[string]*group)
	var rest []model.Event

	for _, e := range events {
		if !mergeable(e) {
			rest = append(rest, e)
			continue
		}
		key := Key(e.Details)
		if key == "" {
			rest = append(rest, e)
			continue
		}

		g, exists := groups[key]
		if !exists {
			g = &group{event: e, count: 1}
			groups[key] = g
			order = append(order, g)
			continue
		}
		g.count++
		if e.Confidence > g.event.Confidence {
			g.event.Confidence = e.Confidence
		}
	}

	result := make([]model.Event, 0, len(order)+len(rest))
	for _, g := range order {
		result = append(result, g.event.WithMeta(model.MetaOccurrences, g.count))
	}
	result = append(result, rest...)

	ids := make(model.IDSet, len(result))
	for i := range result {
		result[i].ID = ids.Claim(result[i].ID, i)
	}
	return result
}

func mergeable(e model.Event) bool {
	return e.EventType == model.TypeSymptom && strings.TrimSpace(e.Details) != ""
}
