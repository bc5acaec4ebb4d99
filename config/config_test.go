package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/energyplan/core/model"
	"github.com/kilianp07/energyplan/core/planning"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

//nolint:gocyclo
func TestLoad(t *testing.T) {
	path := writeFile(t, "config.yaml", `planning:
  regions: [North, South]
  technologies:
    - name: Wind
      cost: 10
    - name: Gas
      cost: 80
  scenarios:
    - name: Calm
      probability: 0.4
      demand: {North: 50, South: 40}
      capacity:
        North: {Wind: 10, Gas: 100}
        South: {Wind: 5, Gas: 100}
    - name: Storm
      probability: 0.6
      demand: {North: 50, South: 40}
      capacity:
        North: {Wind: 80, Gas: 100}
        South: {Wind: 60, Gas: 100}
  trade_cost: 5
  beta: 0.9
  workers: 2
solver:
  type: simplex
  conf:
    tolerance: 1.0e-9
report:
  format: json
  output: plan.json
store:
  backend: sqlite
metrics:
  sinks:
    - type: "nop"
mqtt:
  broker: "tcp://localhost:1883"
  topic_prefix: "grid/plan"
  qos: 1
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"regions", len(cfg.Planning.Regions), 2},
		{"technology", cfg.Planning.Technologies[1].Name, model.Technology("Gas")},
		{"tech cost", cfg.Planning.Technologies[1].Cost, 80.0},
		{"scenario", cfg.Planning.Scenarios[1].Name, model.ScenarioID("Storm")},
		{"demand", cfg.Planning.Scenarios[0].Demand["South"], 40.0},
		{"capacity", cfg.Planning.Scenarios[1].Capacity["North"]["Wind"], 80.0},
		{"trade_cost", cfg.Planning.TradeCost, 5.0},
		{"beta", *cfg.Planning.Beta, 0.9},
		{"workers", cfg.Planning.Workers, 2},
		{"name", cfg.Planning.Name, planning.DefaultModelName},
		{"solver", cfg.Solver.Type, "simplex"},
		{"tolerance", cfg.Solver.Conf["tolerance"], 1e-9},
		{"format", cfg.Report.Format, "json"},
		{"output", cfg.Report.Output, "plan.json"},
		{"currency", cfg.Report.Currency, "EUR"},
		{"store", cfg.Store.Backend, "sqlite"},
		{"store path", cfg.Store.Path, "runs.db"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "grid/plan"},
		{"qos", cfg.MQTT.QoS, byte(1)},
		{"level", cfg.Logging.Level, "debug"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}

	data, err := model.NewScenarioData(cfg.Planning.Input())
	require.NoError(t, err)
	assert.Len(t, data.Scenarios(), 2)
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "config.json", `{"planning":{"trade_cost":3,"beta":0},"report":{"format":"csv"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3.0, cfg.Planning.TradeCost)
	require.NotNil(t, cfg.Planning.Beta)
	assert.Equal(t, 0.0, *cfg.Planning.Beta, "explicit zero beta must not be replaced by the default")
	assert.Equal(t, "csv", cfg.Report.Format)
	assert.True(t, cfg.Planning.Empty())
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBeta, *cfg.Planning.Beta)
	assert.Equal(t, "simplex", cfg.Solver.Type)
	assert.Equal(t, "text", cfg.Report.Format)
	assert.Equal(t, "MW", cfg.Report.Unit)
	assert.Equal(t, "", cfg.Store.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.MQTT.Enabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", "planning:\n  beta: 0.5\n  trade_cost: 1\n")
	t.Setenv("EP_PLANNING__BETA", "0.8")
	t.Setenv("EP_REPORT__FORMAT", "yaml")
	t.Setenv("EP_MQTT__BROKER", "tcp://broker:1883")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.8, *cfg.Planning.Beta)
	assert.Equal(t, 1.0, cfg.Planning.TradeCost)
	assert.Equal(t, "yaml", cfg.Report.Format)
	assert.Equal(t, "tcp://broker:1883", cfg.MQTT.Broker)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name string
		file string
		data string
		want string
	}{
		{"format", "c.toml", "", "unsupported config format"},
		{"beta", "c.yaml", "planning:\n  beta: 1\n", "beta"},
		{"kappa", "c.yaml", "planning:\n  trade_cost: -1\n", "kappa"},
		{"workers", "c.yaml", "planning:\n  workers: -2\n", "workers"},
		{"report", "c.yaml", "report:\n  format: pdf\n", "report format"},
		{"store", "c.yaml", "store:\n  backend: redis\n", "store backend"},
		{"level", "c.yaml", "logging:\n  level: loud\n", "logging.level"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, tc.file, tc.data)
			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadReportsAllSections(t *testing.T) {
	path := writeFile(t, "c.yaml", "report:\n  format: pdf\nlogging:\n  level: loud\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report format")
	assert.Contains(t, err.Error(), "logging.level")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReferencePlanning(t *testing.T) {
	p := ReferencePlanning()
	p.SetDefaults()
	require.NoError(t, p.Validate())
	assert.False(t, p.Empty())
	params := p.Params()
	assert.Equal(t, model.ReferenceBeta, params.Beta)
	assert.Equal(t, model.ReferenceKappa, params.Kappa)
	assert.Equal(t, planning.DefaultModelName, params.Name)

	_, err := model.NewScenarioData(p.Input())
	assert.NoError(t, err)
}

func TestLoadShippedReferenceConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "reference.yaml"))
	require.NoError(t, err)
	ref := ReferencePlanning()
	assert.Equal(t, ref.Input(), cfg.Planning.Input())
	assert.Equal(t, ref.Params().Beta, cfg.Planning.Params().Beta)
	assert.Equal(t, ref.Params().Kappa, cfg.Planning.Params().Kappa)
	assert.False(t, cfg.MQTT.Enabled())
}
