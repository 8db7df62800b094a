package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type DimensionType string

const (
	DimensionBoolean     DimensionType = "boolean"
	DimensionCategorical DimensionType = "categorical"
	DimensionNumerical   DimensionType = "numerical"
	DimensionText        DimensionType = "text"
)

var distributions = map[string]bool{
	"":        true,
	"uniform": true,
	"normal":  true,
	"skewed":  true,
}

// Dimension is one typed attribute of an entity type. Options apply to
// categorical dimensions; Min, Max and Distribution to numerical ones.
type Dimension struct {
	Name         string        `json:"name" yaml:"name"`
	Description  string        `json:"description" yaml:"description"`
	Type         DimensionType `json:"type" yaml:"type"`
	Options      []string      `json:"options,omitempty" yaml:"options,omitempty"`
	Spread       string        `json:"spread,omitempty" yaml:"spread,omitempty"`
	Min          *float64      `json:"min,omitempty" yaml:"min,omitempty"`
	Max          *float64      `json:"max,omitempty" yaml:"max,omitempty"`
	Distribution string        `json:"distribution,omitempty" yaml:"distribution,omitempty"`
}

func (d *Dimension) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: dimension name is required", ErrInvalid)
	}
	d.Type = DimensionType(strings.ToLower(string(d.Type)))
	switch d.Type {
	case DimensionBoolean, DimensionText:
	case DimensionCategorical:
		if len(d.Options) == 0 {
			return fmt.Errorf("%w: categorical dimension %q needs options", ErrInvalid, d.Name)
		}
	case DimensionNumerical:
		if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
			return fmt.Errorf("%w: dimension %q has min %v > max %v", ErrInvalid, d.Name, *d.Min, *d.Max)
		}
		d.Distribution = strings.ToLower(d.Distribution)
		if !distributions[d.Distribution] {
			return fmt.Errorf("%w: dimension %q has unknown distribution %q", ErrInvalid, d.Name, d.Distribution)
		}
	default:
		return fmt.Errorf("%w: dimension %q has unknown type %q", ErrInvalid, d.Name, d.Type)
	}
	return nil
}

// Coerce converts v to the representation stored for this dimension: bool,
// float64, one of Options, or string.
func (d *Dimension) Coerce(v any) (any, error) {
	switch d.Type {
	case DimensionBoolean:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true", "yes", "y", "1":
				return true, nil
			case "false", "no", "n", "0":
				return false, nil
			}
		}
		return nil, d.invalid(v)

	case DimensionNumerical:
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, d.invalid(v)
		}
		if d.Min != nil && f < *d.Min {
			f = *d.Min
		}
		if d.Max != nil && f > *d.Max {
			f = *d.Max
		}
		return f, nil

	case DimensionCategorical:
		s, ok := v.(string)
		if !ok {
			return nil, d.invalid(v)
		}
		s = strings.TrimSpace(s)
		for _, opt := range d.Options {
			if strings.EqualFold(opt, s) {
				return opt, nil
			}
		}
		return nil, d.invalid(v)

	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case nil:
			return "", nil
		default:
			return fmt.Sprint(s), nil
		}
	}
}

func (d *Dimension) invalid(v any) error {
	return fmt.Errorf("%w: value %v is not valid for %s dimension %q", ErrInvalid, v, d.Type, d.Name)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// Describe renders the dimension as a single prompt line.
func (d *Dimension) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "- %s (%s)", d.Name, d.Type)
	if d.Description != "" {
		fmt.Fprintf(&b, ": %s", d.Description)
	}
	switch d.Type {
	case DimensionCategorical:
		fmt.Fprintf(&b, " [options: %s]", strings.Join(d.Options, ", "))
		if d.Spread != "" {
			fmt.Fprintf(&b, " [spread: %s]", d.Spread)
		}
	case DimensionNumerical:
		if d.Min != nil {
			fmt.Fprintf(&b, " [min: %g]", *d.Min)
		}
		if d.Max != nil {
			fmt.Fprintf(&b, " [max: %g]", *d.Max)
		}
		if d.Distribution != "" {
			fmt.Fprintf(&b, " [distribution: %s]", d.Distribution)
		}
	}
	return b.String()
}
