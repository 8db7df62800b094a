package model

import (
	"fmt"
	"strings"
	"time"
)

type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchInProgress BatchStatus = "in_progress"
	BatchCompleted  BatchStatus = "completed"
	BatchPartial    BatchStatus = "partial"
	BatchFailed     BatchStatus = "failed"
)

// BatchSimulation runs one simulation per k-sized combination drawn from
// EntityIDs. Its children are the simulations whose BatchID is ID.
type BatchSimulation struct {
	ID              string         `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	Description     string         `json:"description,omitempty" yaml:"description,omitempty"`
	ContextID       string         `json:"context_id" yaml:"context_id"`
	EntityIDs       []string       `json:"entity_ids" yaml:"entity_ids"`
	InteractionSize int            `json:"interaction_size" yaml:"interaction_size"`
	NumSimulations  int            `json:"num_simulations" yaml:"num_simulations"`
	NTurns          int            `json:"n_turns" yaml:"n_turns"`
	Status          BatchStatus    `json:"status" yaml:"status"`
	Metadata        map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" yaml:"updated_at"`
}

func (b *BatchSimulation) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: batch name is required", ErrInvalid)
	}
	if b.ContextID == "" {
		return fmt.Errorf("%w: batch context_id is required", ErrInvalid)
	}
	if b.InteractionSize < 1 || b.InteractionSize > len(b.EntityIDs) {
		return fmt.Errorf("%w: interaction_size must be between 1 and %d, got %d",
			ErrInvalid, len(b.EntityIDs), b.InteractionSize)
	}
	if b.NumSimulations < 1 {
		return fmt.Errorf("%w: num_simulations must be at least 1", ErrInvalid)
	}
	if b.NTurns < 1 {
		return fmt.Errorf("%w: n_turns must be at least 1", ErrInvalid)
	}
	return nil
}

// Terminal reports whether the batch has finished running.
func (s BatchStatus) Terminal() bool {
	return s == BatchCompleted || s == BatchPartial || s == BatchFailed
}
