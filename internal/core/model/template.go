package model

// Template is a built-in blueprint for an entity type.
type Template struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Dimensions  []Dimension `json:"dimensions" yaml:"dimensions"`
}

// EntityType returns an unsaved entity type carrying a copy of the template's
// dimensions.
func (t Template) EntityType() EntityType {
	dims := make([]Dimension, len(t.Dimensions))
	for i, d := range t.Dimensions {
		d.Options = append([]string(nil), d.Options...)
		dims[i] = d
	}
	return EntityType{
		Name:        t.Name,
		Description: t.Description,
		Dimensions:  dims,
	}
}
