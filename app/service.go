// Package app wires configuration, solver, sinks, history and publication
// into a single planning run.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/energyplan/config"
	coremetrics "github.com/kilianp07/energyplan/core/metrics"
	"github.com/kilianp07/energyplan/core/model"
	coremqtt "github.com/kilianp07/energyplan/core/mqtt"
	"github.com/kilianp07/energyplan/core/planning"
	"github.com/kilianp07/energyplan/core/report"
	"github.com/kilianp07/energyplan/core/runstore"
	"github.com/kilianp07/energyplan/core/solver"
	"github.com/kilianp07/energyplan/infra/logger"
	_ "github.com/kilianp07/energyplan/infra/metrics"
	"github.com/kilianp07/energyplan/infra/mqtt"
	_ "github.com/kilianp07/energyplan/infra/solver"
	"github.com/kilianp07/energyplan/pkg/export"
)

var (
	// ErrNoOptimalSolution is returned by Run when the solver did not reach
	// an optimum. The report is still returned and written.
	ErrNoOptimalSolution = errors.New("no optimal solution")
	// ErrNoPlanningData is returned by New when the configuration has no data set.
	ErrNoPlanningData = errors.New("no planning data configured")
)

// Service runs the planning pipeline.
type Service struct {
	cfg    *config.Config
	params planning.Params
	data   *model.ScenarioData

	log    logger.Logger
	solver solver.Solver
	sink   coremetrics.MetricsSink
	store  runstore.Store
	pub    coremqtt.Publisher
	out    io.Writer

	now     func() time.Time
	newID   func() string
	closers []func() error
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

// WithSolver replaces the configured solver backend.
func WithSolver(sv solver.Solver) Option { return func(s *Service) { s.solver = sv } }

// WithMetricsSink replaces the configured metrics sinks.
func WithMetricsSink(m coremetrics.MetricsSink) Option { return func(s *Service) { s.sink = m } }

// WithStore replaces the configured run history.
func WithStore(st runstore.Store) Option { return func(s *Service) { s.store = st } }

// WithPublisher replaces the configured plan publisher.
func WithPublisher(p coremqtt.Publisher) Option { return func(s *Service) { s.pub = p } }

// WithOutput writes the report to w instead of the configured destination.
func WithOutput(w io.Writer) Option { return func(s *Service) { s.out = w } }

// WithClock overrides the time source used for report timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithRunID overrides the run identifier generator.
func WithRunID(f func() string) Option { return func(s *Service) { s.newID = f } }

// New validates the planning data and creates the components that were not
// supplied through options.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if cfg.Planning.Empty() {
		return nil, ErrNoPlanningData
	}
	data, err := model.NewScenarioData(cfg.Planning.Input())
	if err != nil {
		return nil, fmt.Errorf("planning data: %w", err)
	}
	params := cfg.Planning.Params()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("planning params: %w", err)
	}

	s := &Service{
		cfg:    cfg,
		params: params,
		data:   data,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = logger.New("service")
	}
	if err := s.initComponents(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Service) initComponents() error {
	if s.solver == nil {
		sv, err := solver.New(s.cfg.Solver)
		if err != nil {
			return fmt.Errorf("solver: %w", err)
		}
		s.solver = sv
	}
	if s.sink == nil {
		sink, err := coremetrics.NewMetricsSink(s.cfg.Metrics.Sinks)
		if err != nil {
			return fmt.Errorf("metrics sink: %w", err)
		}
		s.sink = sink
		if c, ok := sink.(io.Closer); ok {
			s.closers = append(s.closers, c.Close)
		}
	}
	if s.store == nil {
		st, err := runstore.Open(s.cfg.Store)
		if err != nil {
			return fmt.Errorf("run store: %w", err)
		}
		if st != nil {
			s.store = st
			s.closers = append(s.closers, st.Close)
		}
	}
	if s.pub == nil {
		if !s.cfg.MQTT.Enabled() {
			s.pub = coremqtt.NopPublisher{}
		} else {
			p, err := mqtt.NewPahoPublisher(s.cfg.MQTT)
			if err != nil {
				return fmt.Errorf("mqtt publisher: %w", err)
			}
			s.pub = p
			s.closers = append(s.closers, func() error { p.Disconnect(); return nil })
		}
	}
	return nil
}

// Data returns the validated scenario data.
func (s *Service) Data() *model.ScenarioData { return s.data }

// BuildModel assembles the LP without solving it.
func (s *Service) BuildModel(ctx context.Context) (*planning.Model, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, err := planning.Build(s.data, s.params)
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	st := m.Stats()
	s.log.Debugw("model built", map[string]any{
		"model":       m.Name(),
		"variables":   st.Variables,
		"constraints": st.Constraints,
	})
	return m, nil
}

// Run builds and solves the model, then writes, records, persists and
// publishes the report. Failures of the side outputs are logged and do not
// change the result.
func (s *Service) Run(ctx context.Context) (report.Report, error) {
	m, err := s.BuildModel(ctx)
	if err != nil {
		return report.Report{}, err
	}
	if err := ctx.Err(); err != nil {
		return report.Report{}, err
	}

	runID := s.newID()
	s.log.Infof("solving %s (run %s)", m.Name(), runID)
	res, err := s.solver.Solve(ctx, m)
	if err != nil {
		return report.Report{}, fmt.Errorf("solve: %w", err)
	}

	rep := report.New(s.data, m, res, report.Meta{
		RunID:    runID,
		Currency: s.cfg.Report.Currency,
		Unit:     s.cfg.Report.Unit,
		SolvedAt: s.now(),
	})
	if err := s.writeReport(rep); err != nil {
		return rep, err
	}

	s.record(ctx, m, rep)
	s.persist(ctx, rep)
	if err := s.pub.PublishPlan(ctx, rep); err != nil {
		s.log.Warnf("publish plan: %v", err)
	}

	if !rep.Optimal() {
		s.log.Warnf("run %s finished with status %s", runID, rep.Status)
		return rep, fmt.Errorf("%w: %s", ErrNoOptimalSolution, rep.Status)
	}
	s.log.Infof("run %s optimal, objective %.2f", runID, rep.Objective)
	return rep, nil
}

func (s *Service) writeReport(rep report.Report) error {
	w := s.out
	if w == nil {
		if s.cfg.Report.Output == "" {
			w = os.Stdout
		} else {
			f, err := os.Create(s.cfg.Report.Output)
			if err != nil {
				return fmt.Errorf("report output: %w", err)
			}
			defer f.Close()
			w = f
		}
	}
	if err := export.Write(w, s.cfg.Report.Format, rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (s *Service) record(ctx context.Context, m *planning.Model, rep report.Report) {
	st := m.Stats()
	ev := coremetrics.SolveEvent{
		RunID:         rep.RunID,
		Model:         rep.Model,
		Status:        rep.Status,
		Objective:     rep.Objective,
		ExpectedCost:  rep.ExpectedCost,
		RiskCost:      rep.RiskCost,
		Variables:     st.Variables,
		Constraints:   st.Constraints,
		Duration:      rep.Duration,
		ScenarioCosts: rep.ScenarioCosts(),
		Time:          rep.SolvedAt,
	}
	if err := s.sink.RecordSolve(ev); err != nil {
		s.log.Warnf("record metrics: %v", err)
	}
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		if err := f.Flush(ctx); err != nil {
			s.log.Warnf("flush metrics: %v", err)
		}
	}
}

func (s *Service) persist(ctx context.Context, rep report.Report) {
	if s.store == nil {
		return
	}
	if err := s.store.Append(ctx, runstore.FromReport(rep)); err != nil {
		s.log.Warnf("persist run: %v", err)
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
