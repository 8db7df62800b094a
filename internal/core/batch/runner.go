package batch

import (
	"context"

	"go.uber.org/zap"

	"github.com/agenthands/personapanel/internal/core/model"
)

// SimulateFunc runs one combination. A returned error marks only that
// combination as failed.
type SimulateFunc func(ctx context.Context, entityIDs []string) (*model.Simulation, error)

type Outcome struct {
	EntityIDs  []string
	Simulation *model.Simulation
	Err        error
}

type Result struct {
	Outcomes []Outcome
	Status   model.BatchStatus
}

// Runner submits combinations one after another.
type Runner struct {
	Logger *zap.Logger
}

func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{Logger: logger}
}

// Run calls fn for every combination. Once ctx is cancelled the remaining
// combinations are recorded as failed with ctx.Err() without calling fn.
func (r *Runner) Run(ctx context.Context, combos [][]string, fn SimulateFunc) Result {
	res := Result{Outcomes: make([]Outcome, 0, len(combos))}
	var ok, bad int

	for i, combo := range combos {
		out := Outcome{EntityIDs: combo}
		if err := ctx.Err(); err != nil {
			out.Err = err
		} else {
			out.Simulation, out.Err = fn(ctx, combo)
		}

		if out.Err != nil {
			bad++
			r.Logger.Warn("Batch combination failed",
				zap.Int("index", i),
				zap.Strings("entity_ids", combo),
				zap.Error(out.Err))
		} else {
			ok++
			r.Logger.Debug("Batch combination completed",
				zap.Int("index", i),
				zap.Strings("entity_ids", combo))
		}
		res.Outcomes = append(res.Outcomes, out)
	}

	res.Status = Aggregate(ok, bad)
	return res
}
