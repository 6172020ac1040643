package taxonomy

import (
	"strings"

	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

// Entry is the resolved classification of one event type.
type Entry struct {
	EventType string
	Category  string
	Phrase    string
	Icon      string
}

// Taxonomy maps event types onto display categories, phrases and icons.
// It is read-only after New and safe for concurrent use.
type Taxonomy struct {
	roots   []*model.TaxonomyNode
	entries map[string]Entry
	markers []string
}

// New indexes the leaves of roots. A later leaf with an already indexed
// event type is ignored.
func New(roots []*model.TaxonomyNode) *Taxonomy {
	t := &Taxonomy{
		roots:   roots,
		entries: make(map[string]Entry),
	}
	for _, root := range roots {
		for _, leaf := range root.Children {
			if _, dup := t.entries[leaf.Name]; dup {
				continue
			}
			t.entries[leaf.Name] = Entry{
				EventType: leaf.Name,
				Category:  root.Name,
				Phrase:    leaf.Desc,
				Icon:      leaf.Icon,
			}
			t.markers = append(t.markers, locale.Fold(leaf.Desc))
			for _, m := range leaf.Markers {
				t.markers = append(t.markers, locale.Fold(m))
			}
		}
	}
	return t
}

// Default returns a Taxonomy over DefaultRoots.
func Default() *Taxonomy {
	return New(DefaultRoots())
}

// Roots returns the top-level category nodes.
func (t *Taxonomy) Roots() []*model.TaxonomyNode {
	return t.roots
}

// Lookup resolves an event type. Unknown types get the "other" category
// and the default icon; ok is false for them.
func (t *Taxonomy) Lookup(eventType string) (e Entry, ok bool) {
	e, ok = t.entries[eventType]
	if !ok {
		return Entry{EventType: eventType, Category: OtherCategory, Icon: OtherIcon}, false
	}
	return e, true
}

// Category returns the display category of an event type.
func (t *Taxonomy) Category(eventType string) string {
	e, _ := t.Lookup(eventType)
	return e.Category
}

// Categories lists every category name, "other" last.
func (t *Taxonomy) Categories() []string {
	names := make([]string, 0, len(t.roots)+1)
	for _, root := range t.roots {
		names = append(names, root.Name)
	}
	return append(names, OtherCategory)
}

// IsTranslated reports whether description already carries one of the
// display phrases or markers.
func (t *Taxonomy) IsTranslated(description string) bool {
	folded := locale.Fold(description)
	for _, m := range t.markers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}

// Translate returns the display description for an event: the
// description itself when already translated, otherwise the event type's
// phrase, falling back to the description for unknown types.
func (t *Taxonomy) Translate(eventType, description string) string {
	if t.IsTranslated(description) {
		return description
	}
	if e, ok := t.Lookup(eventType); ok {
		return e.Phrase
	}
	return description
}
