package model

import (
	"fmt"
	"time"
)

type SimulationStatus string

const (
	SimulationCompleted SimulationStatus = "completed"
	SimulationFailed    SimulationStatus = "failed"
)

type Simulation struct {
	ID              string           `json:"id" yaml:"id"`
	ContextID       string           `json:"context_id" yaml:"context_id"`
	EntityIDs       []string         `json:"entity_ids" yaml:"entity_ids"`
	Content         string           `json:"content" yaml:"content"`
	FinalTurnNumber int              `json:"final_turn_number" yaml:"final_turn_number"`
	Status          SimulationStatus `json:"status" yaml:"status"`
	Error           string           `json:"error,omitempty" yaml:"error,omitempty"`
	BatchID         string           `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
	Metadata        map[string]any   `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	CreatedAt       time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" yaml:"updated_at"`
}

func (s *Simulation) Validate() error {
	if len(s.EntityIDs) == 0 {
		return fmt.Errorf("%w: a simulation needs at least one entity", ErrInvalid)
	}
	if s.FinalTurnNumber < 0 {
		return fmt.Errorf("%w: final turn number cannot be negative", ErrInvalid)
	}
	return nil
}

func (s *Simulation) Succeeded() bool {
	return s.Status == SimulationCompleted
}

// Participant is the prompt-facing view of an entity.
type Participant struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

func ParticipantFrom(e Entity) Participant {
	return Participant{
		Name:        e.Name,
		Description: e.Description,
		Attributes:  e.Attributes,
	}
}
