package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	coremetrics "github.com/kilianp07/energyplan/core/metrics"
)

// DefaultPushJob is the Pushgateway job name used when none is configured.
const DefaultPushJob = "energyplan"

// PromConfig configures the Prometheus sink. An empty PushgatewayURL leaves
// the metrics on the registry for scraping only.
type PromConfig struct {
	PushgatewayURL string `json:"pushgateway_url"`
	Job            string `json:"job"`
}

// PromSink records planning runs in Prometheus metrics.
type PromSink struct {
	solves       *prometheus.CounterVec
	duration     prometheus.Histogram
	objective    prometheus.Gauge
	expectedCost prometheus.Gauge
	scenarioCost *prometheus.GaugeVec
	modelSize    *prometheus.GaugeVec

	gatherer prometheus.Gatherer
	cfg      PromConfig
}

// NewPromSink registers planning metrics on the default Prometheus registerer.
func NewPromSink(cfg PromConfig) (*PromSink, error) {
	return NewPromSinkWithRegistry(cfg, nil)
}

// NewPromSinkWithRegistry registers metrics on the provided registry.
// A nil registry defaults to the global Prometheus registerer and gatherer.
func NewPromSinkWithRegistry(cfg PromConfig, reg *prometheus.Registry) (*PromSink, error) {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}
	if cfg.Job == "" {
		cfg.Job = DefaultPushJob
	}

	s := &PromSink{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "energyplan_solves_total",
			Help: "Total number of planning runs by solver status",
		}, []string{"status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "energyplan_solve_duration_seconds",
			Help:    "Wall-clock time spent in the LP solver",
			Buckets: prometheus.DefBuckets,
		}),
		objective: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "energyplan_objective",
			Help: "Objective value of the last optimal plan",
		}),
		expectedCost: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "energyplan_expected_cost",
			Help: "Probability-weighted operating cost of the last optimal plan",
		}),
		scenarioCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "energyplan_scenario_cost",
			Help: "Operating cost per scenario of the last optimal plan",
		}, []string{"scenario"}),
		modelSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "energyplan_model_size",
			Help: "Number of LP variables and constraints in the last model",
		}, []string{"kind"}),
		gatherer: gatherer,
		cfg:      cfg,
	}

	var err error
	if s.solves, err = register(registerer, s.solves); err != nil {
		return nil, err
	}
	if s.duration, err = register(registerer, s.duration); err != nil {
		return nil, err
	}
	if s.objective, err = register(registerer, s.objective); err != nil {
		return nil, err
	}
	if s.expectedCost, err = register(registerer, s.expectedCost); err != nil {
		return nil, err
	}
	if s.scenarioCost, err = register(registerer, s.scenarioCost); err != nil {
		return nil, err
	}
	if s.modelSize, err = register(registerer, s.modelSize); err != nil {
		return nil, err
	}
	return s, nil
}

// register adds c to reg, reusing the collector already registered under the
// same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordSolve updates the counters and, for optimal runs, the cost gauges.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solves.WithLabelValues(ev.Status.String()).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	s.modelSize.WithLabelValues("variables").Set(float64(ev.Variables))
	s.modelSize.WithLabelValues("constraints").Set(float64(ev.Constraints))
	if !ev.Optimal() {
		return nil
	}
	s.objective.Set(ev.Objective)
	s.expectedCost.Set(ev.ExpectedCost)
	for sc, cost := range ev.ScenarioCosts {
		s.scenarioCost.WithLabelValues(string(sc)).Set(cost)
	}
	return nil
}

// Flush pushes the gathered metrics to the configured Pushgateway.
func (s *PromSink) Flush(ctx context.Context) error {
	if s.cfg.PushgatewayURL == "" {
		return nil
	}
	if err := push.New(s.cfg.PushgatewayURL, s.cfg.Job).Gatherer(s.gatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("pushgateway: %w", err)
	}
	return nil
}
