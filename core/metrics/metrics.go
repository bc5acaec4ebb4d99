package metrics

import (
	"context"
	"time"

	"github.com/kilianp07/energyplan/core/model"
	"github.com/kilianp07/energyplan/core/solver"
)

// SolveEvent describes one planning run.
type SolveEvent struct {
	RunID         string
	Model         string
	Status        solver.Status
	Objective     float64
	ExpectedCost  float64
	RiskCost      float64
	Variables     int
	Constraints   int
	Duration      time.Duration
	ScenarioCosts map[model.ScenarioID]float64
	Time          time.Time
}

// Optimal reports whether the run produced an optimal plan.
func (e SolveEvent) Optimal() bool { return e.Status == solver.StatusOptimal }

// MetricsSink records planning runs for observability purposes.
type MetricsSink interface {
	RecordSolve(ev SolveEvent) error
}

// Flusher is implemented by sinks that buffer or push their data and need a
// final call before the process exits.
type Flusher interface {
	Flush(ctx context.Context) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) error { return nil }

func (NopSink) Flush(context.Context) error { return nil }
