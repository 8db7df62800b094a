package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/personapanel/internal/core/model"
)

func TestAggregate(t *testing.T) {
	assert.Equal(t, model.BatchCompleted, Aggregate(3, 0))
	assert.Equal(t, model.BatchFailed, Aggregate(0, 3))
	assert.Equal(t, model.BatchPartial, Aggregate(2, 1))
	assert.Equal(t, model.BatchFailed, Aggregate(0, 0))
}

func TestAggregateSimulations(t *testing.T) {
	ok := model.Simulation{Status: model.SimulationCompleted}
	bad := model.Simulation{Status: model.SimulationFailed}

	assert.Equal(t, model.BatchCompleted, AggregateSimulations([]model.Simulation{ok, ok}))
	assert.Equal(t, model.BatchFailed, AggregateSimulations([]model.Simulation{bad}))
	assert.Equal(t, model.BatchPartial, AggregateSimulations([]model.Simulation{ok, bad}))
}

func TestRunner_IsolatesFailures(t *testing.T) {
	combos := [][]string{{"a", "b"}, {"a", "c"}, {"b", "c"}}
	var calls [][]string

	r := NewRunner(nil)
	res := r.Run(context.Background(), combos, func(ctx context.Context, ids []string) (*model.Simulation, error) {
		calls = append(calls, ids)
		if ids[1] == "c" && ids[0] == "a" {
			return nil, errors.New("llm timeout")
		}
		return &model.Simulation{EntityIDs: ids, Status: model.SimulationCompleted}, nil
	})

	assert.Equal(t, combos, calls)
	require.Len(t, res.Outcomes, 3)
	assert.NoError(t, res.Outcomes[0].Err)
	assert.EqualError(t, res.Outcomes[1].Err, "llm timeout")
	assert.NoError(t, res.Outcomes[2].Err)
	assert.Equal(t, model.BatchPartial, res.Status)
}

func TestRunner_AllFailed(t *testing.T) {
	r := NewRunner(nil)
	res := r.Run(context.Background(), [][]string{{"a"}, {"b"}}, func(ctx context.Context, ids []string) (*model.Simulation, error) {
		return nil, errors.New("boom")
	})
	assert.Equal(t, model.BatchFailed, res.Status)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	r := NewRunner(nil)
	res := r.Run(ctx, [][]string{{"a"}, {"b"}, {"c"}}, func(ctx context.Context, ids []string) (*model.Simulation, error) {
		calls++
		cancel()
		return &model.Simulation{Status: model.SimulationCompleted}, nil
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, res.Outcomes[1].Err, context.Canceled)
	assert.ErrorIs(t, res.Outcomes[2].Err, context.Canceled)
	assert.Equal(t, model.BatchPartial, res.Status)
}
