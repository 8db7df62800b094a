package model

import (
	"fmt"
	"strings"
	"time"
)

// Context is the scenario a simulation takes place in.
type Context struct {
	ID          string         `json:"id" yaml:"id"`
	Description string         `json:"description" yaml:"description"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" yaml:"updated_at"`
}

func (c *Context) Validate() error {
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("%w: context description is required", ErrInvalid)
	}
	return nil
}
