package model

import (
	"fmt"
	"strings"
	"time"
)

type EntityType struct {
	ID          string      `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
	Dimensions  []Dimension `json:"dimensions" yaml:"dimensions"`
	CreatedAt   time.Time   `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" yaml:"updated_at"`
}

// Validate checks the type name and every dimension. Dimension names must be
// unique ignoring case.
func (t *EntityType) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: entity type name is required", ErrInvalid)
	}
	seen := make(map[string]bool, len(t.Dimensions))
	for i := range t.Dimensions {
		d := &t.Dimensions[i]
		if err := d.Validate(); err != nil {
			return err
		}
		key := strings.ToLower(d.Name)
		if seen[key] {
			return fmt.Errorf("%w: duplicate dimension %q", ErrInvalid, d.Name)
		}
		seen[key] = true
	}
	return nil
}

// Dimension returns the dimension with the given name, ignoring case.
func (t *EntityType) Dimension(name string) (*Dimension, bool) {
	for i := range t.Dimensions {
		if strings.EqualFold(t.Dimensions[i].Name, name) {
			return &t.Dimensions[i], true
		}
	}
	return nil, false
}

// CoerceAttributes converts raw values to the types declared by the
// dimensions. Keys that match no dimension are dropped when strict is false
// and rejected when it is true.
func (t *EntityType) CoerceAttributes(raw map[string]any, strict bool) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		dim, ok := t.Dimension(key)
		if !ok {
			if strict {
				return nil, fmt.Errorf("%w: unknown attribute %q for type %q", ErrInvalid, key, t.Name)
			}
			continue
		}
		v, err := dim.Coerce(value)
		if err != nil {
			return nil, err
		}
		out[dim.Name] = v
	}
	return out, nil
}

type Entity struct {
	ID           string         `json:"id" yaml:"id"`
	EntityTypeID string         `json:"entity_type_id" yaml:"entity_type_id"`
	Name         string         `json:"name" yaml:"name"`
	Attributes   map[string]any `json:"attributes" yaml:"attributes"`
	Description  string         `json:"description" yaml:"description"`
	CreatedAt    time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" yaml:"updated_at"`
}

func (e *Entity) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: entity name is required", ErrInvalid)
	}
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
	return nil
}
