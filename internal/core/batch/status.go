package batch

import "github.com/agenthands/personapanel/internal/core/model"

// Aggregate derives a finished batch's status from its children: completed
// iff every child succeeded, failed iff every child failed (or there are no
// children), partial otherwise.
func Aggregate(succeeded, failed int) model.BatchStatus {
	switch {
	case failed == 0 && succeeded > 0:
		return model.BatchCompleted
	case succeeded == 0:
		return model.BatchFailed
	default:
		return model.BatchPartial
	}
}

// AggregateSimulations applies Aggregate to stored child simulations.
func AggregateSimulations(children []model.Simulation) model.BatchStatus {
	var ok, bad int
	for _, s := range children {
		if s.Succeeded() {
			ok++
		} else {
			bad++
		}
	}
	return Aggregate(ok, bad)
}
