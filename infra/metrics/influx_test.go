package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/energyplan/core/metrics"
	"github.com/kilianp07/energyplan/core/solver"
)

func TestInfluxSink_RecordSolve(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()
	ev := optimalEvent()
	require.NoError(t, sink.RecordSolve(ev))

	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 4)

	expected := write.NewPointWithMeasurement("plan_solve").
		AddTag("run_id", "run-1").
		AddTag("status", "OPTIMAL").
		AddTag("model", "StochasticCVaREnergyPlanning").
		AddField("duration_ms", 20.0).
		AddField("variables", 22).
		AddField("constraints", 21).
		AddField("objective", 195930.0).
		AddField("expected_cost", 9330.0).
		AddField("risk_cost", 0.0).
		SetTime(ev.Time)
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(expected, time.Nanosecond)), lines[0])

	high := write.NewPointWithMeasurement("plan_scenario_cost").
		AddTag("run_id", "run-1").
		AddTag("scenario", "High").
		AddField("cost", 13900.0).
		SetTime(ev.Time)
	assert.Equal(t, strings.TrimSpace(write.PointToLineProtocol(high, time.Nanosecond)), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "plan_scenario_cost,run_id=run-1,scenario=Low "))
	assert.True(t, strings.HasPrefix(lines[3], "plan_scenario_cost,run_id=run-1,scenario=Medium "))
}

func TestInfluxSink_NonOptimalWritesOnlySolvePoint(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "t", Org: "o", Bucket: "b"})
	defer sink.Close()
	require.NoError(t, sink.RecordSolve(coremetrics.SolveEvent{
		RunID:  "run-2",
		Status: solver.StatusInfeasible,
		Time:   time.Unix(1700000000, 0),
	}))

	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "plan_solve,run_id=run-2,status=INFEASIBLE "))
	assert.NotContains(t, lines[0], "objective")
}

func TestInfluxSink_WriteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "bad", Org: "o", Bucket: "b"})
	defer sink.Close()
	assert.Error(t, sink.RecordSolve(optimalEvent()))
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}

func TestNewInfluxSinkWithFallback_Healthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name":"influxdb","message":"ready for queries and writes","status":"pass","checks":[]}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL, Token: "tok", Org: "org", Bucket: "bucket"})
	is, ok := sink.(*InfluxSink)
	require.True(t, ok, "expected InfluxSink, got %T", sink)
	is.Close()
}
