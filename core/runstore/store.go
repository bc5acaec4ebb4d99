// Package runstore keeps a history of planning runs. Each run is stored with
// its headline figures and the full report so past plans can be listed and
// inspected without solving again.
package runstore

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/energyplan/core/report"
	"github.com/kilianp07/energyplan/core/solver"
)

// RunRecord captures one solve and its report.
type RunRecord struct {
	ID           string        `json:"id"`
	Timestamp    time.Time     `json:"timestamp"`
	Status       solver.Status `json:"status"`
	Objective    float64       `json:"objective"`
	ExpectedCost float64       `json:"expected_cost"`
	Beta         float64       `json:"beta"`
	Kappa        float64       `json:"kappa"`
	Report       report.Report `json:"report"`
}

// FromReport derives a record from rep.
func FromReport(rep report.Report) RunRecord {
	return RunRecord{
		ID:           rep.RunID,
		Timestamp:    rep.SolvedAt,
		Status:       rep.Status,
		Objective:    rep.Objective,
		ExpectedCost: rep.ExpectedCost,
		Beta:         rep.Beta,
		Kappa:        rep.Kappa,
		Report:       rep,
	}
}

// Query defines filters for retrieving records. Zero values disable a
// filter. Results are ordered oldest first; Limit keeps the newest entries.
type Query struct {
	Start  time.Time
	End    time.Time
	Status *solver.Status
	Limit  int
}

func (q Query) match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Status != nil && r.Status != *q.Status {
		return false
	}
	return true
}

func (q Query) trim(recs []RunRecord) []RunRecord {
	if q.Limit > 0 && len(recs) > q.Limit {
		return recs[len(recs)-q.Limit:]
	}
	return recs
}

// Store persists RunRecords and supports querying.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// Config selects the history backend.
type Config struct {
	// Backend selects the store type: "jsonl", "sqlite" or "" to disable history.
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
}

// SetDefaults fills the path for the selected backend.
func (c *Config) SetDefaults() {
	if c.Path != "" {
		return
	}
	switch c.Backend {
	case "jsonl":
		c.Path = "runs.jsonl"
	case "sqlite":
		c.Path = "runs.db"
	}
}

// Validate checks the backend name.
func (c Config) Validate() error {
	switch c.Backend {
	case "", "jsonl", "sqlite":
		return nil
	default:
		return fmt.Errorf("unknown store backend %s", c.Backend)
	}
}

// Open returns the configured store, or nil when history is disabled.
func Open(cfg Config) (Store, error) {
	cfg.SetDefaults()
	switch cfg.Backend {
	case "":
		return nil, nil
	case "jsonl":
		s, err := NewJSONLStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, cfg.Validate()
	}
}
