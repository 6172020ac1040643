package cronica

// Category is a display category with the event types it holds.
type Category struct {
	Name  string      // e.g. "clinical_findings"
	Desc  string      // display name, e.g. "Hallazgos clínicos"
	Types []EventType // event types under this category
}

// EventType is a single known event type.
type EventType struct {
	Name   string // e.g. "symptom"
	Phrase string // display description, e.g. "Síntoma detectado"
	Icon   string // icon key, e.g. "thermometer"
}

// Taxonomy returns the category tree. This is read-only; event types not
// listed land in the "other" category.
func (c *Cronica) Taxonomy() []Category {
	roots := c.engine.Taxonomy().Roots()
	categories := make([]Category, len(roots))
	for i, root := range roots {
		types := make([]EventType, len(root.Children))
		for j, child := range root.Children {
			types[j] = EventType{
				Name:   child.Name,
				Phrase: child.Desc,
				Icon:   child.Icon,
			}
		}
		categories[i] = Category{
			Name:  root.Name,
			Desc:  root.Desc,
			Types: types,
		}
	}
	return categories
}
