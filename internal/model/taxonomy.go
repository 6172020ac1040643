package model

// TaxonomyNode is a node in the category tree. Roots are display
// categories; leaves are event types.
type TaxonomyNode struct {
	Name     string          `json:"name"`
	Desc     string          `json:"desc"`           // display name (root) or display phrase (leaf)
	Icon     string          `json:"icon,omitempty"` // leaves only
	Markers  []string        `json:"-"`              // phrases marking an already translated description
	Children []*TaxonomyNode `json:"children,omitempty"`
}
