package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/benchpsu/api"
	"github.com/kilianp07/benchpsu/core/dispatch"
	"github.com/kilianp07/benchpsu/core/metrics"
	"github.com/kilianp07/benchpsu/infra/logger"
	"github.com/kilianp07/benchpsu/infra/mqtt"
	"github.com/kilianp07/benchpsu/infra/simulator"
)

type Config struct {
	Instrument InstrumentConfig `json:"instrument"`
	Dispatch   dispatch.Config  `json:"dispatch"`
	MQTT       mqtt.Config      `json:"mqtt"`
	Metrics    metrics.Config   `json:"metrics"`
	EventLog   EventLogConfig   `json:"eventlog"`
	Sentry     SentryConfig     `json:"sentry"`
	Simulator  simulator.Config `json:"simulator"`
	Log        logger.Options   `json:"log"`
	API        api.Config       `json:"api"`
	Telemetry  TelemetryConfig  `json:"telemetry"`
}

// Load reads a yaml or json file and applies K_ prefixed environment
// overrides, K_DISPATCH__QUEUE_SIZE setting dispatch.queue_size.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
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
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
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

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

func (c *Config) SetDefaults() {
	c.Instrument.SetDefaults()
	c.Dispatch.SetDefaults()
	if c.MQTT.Enabled() {
		c.MQTT.SetDefaults()
	}
	c.Metrics.SetDefaults()
	c.EventLog.SetDefaults()
	c.Sentry.SetDefaults()
	c.Simulator.SetDefaults()
}

func (c Config) Validate() error {
	if err := c.Instrument.Validate(); err != nil {
		return err
	}
	if err := c.Dispatch.Validate(); err != nil {
		return err
	}
	if c.MQTT.Enabled() {
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	}
	if err := c.Telemetry.validate(c.MQTT.Enabled()); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.EventLog.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	if err := c.Simulator.Validate(); err != nil {
		return err
	}
	return c.Log.Validate()
}
