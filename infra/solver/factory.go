package solver

import (
	"github.com/kilianp07/energyplan/core/factory"
	coresolver "github.com/kilianp07/energyplan/core/solver"
	"github.com/kilianp07/energyplan/infra/logger"
)

// init registers built-in solver backends.
func init() {
	_ = coresolver.Register("simplex", func(conf map[string]any) (coresolver.Solver, error) {
		var c struct {
			Tolerance float64 `json:"tolerance"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSimplex(c.Tolerance, logger.New("simplex")), nil
	})
}
