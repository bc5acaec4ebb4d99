// Package solver defines the contract between the planning model and the
// engine that solves it. Backends register themselves by name and are
// created from configuration.
package solver

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/energyplan/core/factory"
	"github.com/kilianp07/energyplan/core/planning"
)

// Status is the outcome of a solve.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "OPTIMAL"
	case StatusInfeasible:
		return "INFEASIBLE"
	case StatusUnbounded:
		return "UNBOUNDED"
	default:
		return "ERROR"
	}
}

// ParseStatus converts the output of Status.String back to a Status.
func ParseStatus(s string) (Status, bool) {
	switch s {
	case "OPTIMAL":
		return StatusOptimal, true
	case "INFEASIBLE":
		return StatusInfeasible, true
	case "UNBOUNDED":
		return StatusUnbounded, true
	case "ERROR":
		return StatusError, true
	default:
		return StatusError, false
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	st, ok := ParseStatus(string(b))
	if !ok {
		return errors.New("unknown solver status " + string(b))
	}
	*s = st
	return nil
}

// Result carries the outcome of a single solve. Values and Objective are only
// meaningful when Status is StatusOptimal.
type Result struct {
	Status    Status
	Objective float64
	Values    map[planning.VarID]float64
	// Message describes non-optimal outcomes.
	Message  string
	Duration time.Duration
}

// Optimal reports whether the result holds an optimal solution.
func (r Result) Optimal() bool { return r.Status == StatusOptimal }

// Value returns the solved value of id, or 0 when absent.
func (r Result) Value(id planning.VarID) float64 { return r.Values[id] }

// ErrNilModel is returned when Solve is called without a model.
var ErrNilModel = errors.New("model is nil")

// Solver solves a planning model. Infeasible, unbounded and internal
// failures are reported through Result.Status; the error return is reserved
// for calls that could not be attempted at all.
type Solver interface {
	Solve(ctx context.Context, m *planning.Model) (Result, error)
}

// Config selects a solver backend.
type Config = factory.ModuleConfig

var registry = factory.NewRegistry[Solver]()

// Register adds a solver backend identified by name.
func Register(name string, f factory.Factory[Solver]) error {
	return registry.Register(name, f)
}

// New creates the configured solver backend.
func New(cfg Config) (Solver, error) {
	return registry.Create(cfg)
}

// Backends lists the registered backend names.
func Backends() []string { return registry.Names() }
