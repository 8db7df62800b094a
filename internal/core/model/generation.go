package model

// GeneratedEntity is the JSON shape the entity prompt asks the LLM for.
type GeneratedEntity struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Attributes  map[string]any `json:"attributes"`
}
