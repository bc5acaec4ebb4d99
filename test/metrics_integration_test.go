package test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/energyplan/app"
	"github.com/kilianp07/energyplan/config"
	"github.com/kilianp07/energyplan/infra/logger"
	"github.com/kilianp07/energyplan/infra/metrics"
)

func TestMetricsHTTPExposure(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(metrics.PromConfig{}, reg)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := &config.Config{Planning: config.ReferencePlanning()}
	cfg.SetDefaults()
	svc, err := app.New(cfg, app.WithLogger(logger.NopLogger{}), app.WithOutput(&bytes.Buffer{}), app.WithMetricsSink(sink))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	out := string(body)
	for _, want := range []string{
		`energyplan_solves_total{status="OPTIMAL"} 1`,
		`energyplan_scenario_cost{scenario="High"}`,
		`energyplan_model_size{kind="variables"} 22`,
		"energyplan_solve_duration_seconds_count 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %q: %s", want, out)
		}
	}
}
