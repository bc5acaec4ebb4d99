package metrics

import (
	"context"
	"math"
	"net/http"
	"slices"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/energyplan/core/metrics"
	"github.com/kilianp07/energyplan/core/model"
	"github.com/kilianp07/energyplan/infra/logger"
)

// InfluxConfig holds the InfluxDB connection settings.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes planning runs to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSolve writes one plan_solve point and one plan_scenario_cost point
// per scenario. Scenario costs are only written for optimal runs.
func (s *InfluxSink) RecordSolve(ev coremetrics.SolveEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ts := ev.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	points := []*write.Point{solvePoint(ev, ts)}
	if ev.Optimal() {
		for _, sc := range sortedScenarios(ev.ScenarioCosts) {
			points = append(points, write.NewPointWithMeasurement("plan_scenario_cost").
				AddTag("run_id", ev.RunID).
				AddTag("scenario", string(sc)).
				AddField("cost", round3(ev.ScenarioCosts[sc])).
				SetTime(ts))
		}
	}
	return s.writeAPI.WritePoint(ctx, points...)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func solvePoint(ev coremetrics.SolveEvent, ts time.Time) *write.Point {
	p := write.NewPointWithMeasurement("plan_solve").
		AddTag("run_id", ev.RunID).
		AddTag("status", ev.Status.String())
	if ev.Model != "" {
		p = p.AddTag("model", ev.Model)
	}
	p = p.AddField("duration_ms", round3(float64(ev.Duration)/float64(time.Millisecond))).
		AddField("variables", ev.Variables).
		AddField("constraints", ev.Constraints)
	if ev.Optimal() {
		p = p.AddField("objective", round3(ev.Objective)).
			AddField("expected_cost", round3(ev.ExpectedCost)).
			AddField("risk_cost", round3(ev.RiskCost))
	}
	return p.SetTime(ts)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func sortedScenarios(costs map[model.ScenarioID]float64) []model.ScenarioID {
	out := make([]model.ScenarioID, 0, len(costs))
	for sc := range costs {
		out = append(out, sc)
	}
	slices.Sort(out)
	return out
}
