package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/energyplan/core/factory"
	"github.com/kilianp07/energyplan/core/metrics"
	"github.com/kilianp07/energyplan/core/runstore"
	"github.com/kilianp07/energyplan/infra/mqtt"
)

// EnvPrefix is the prefix of environment overrides. Nested keys are
// separated by a double underscore, e.g. EP_PLANNING__BETA=0.9.
const EnvPrefix = "EP_"

// Config is the root configuration of a planning run. Every section may be
// overridden from the environment with EnvPrefix.
type Config struct {
	Planning PlanningConfig       `json:"planning"`
	Solver   factory.ModuleConfig `json:"solver"`
	Report   ReportConfig         `json:"report"`
	Store    runstore.Config      `json:"store"`
	Metrics  metrics.Config       `json:"metrics"`
	MQTT     mqtt.Config          `json:"mqtt"`
	Logging  LoggingConfig        `json:"logging"`
}

// Load reads the configuration file at path and applies environment
// overrides. An empty path loads the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies the defaults of every section.
func (c *Config) SetDefaults() {
	c.Planning.SetDefaults()
	if c.Solver.Type == "" {
		c.Solver.Type = "simplex"
	}
	c.Report.SetDefaults()
	c.Store.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section and reports all failures together.
func (c Config) Validate() error {
	return errors.Join(
		c.Planning.Validate(),
		c.Report.Validate(),
		c.Store.Validate(),
		c.Logging.Validate(),
	)
}
