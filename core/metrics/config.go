package metrics

import (
	"fmt"
	"time"

	"github.com/kilianp07/benchpsu/core/factory"
)

const defaultSampleIntervalMS = 1000

// Config defines the telemetry sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint. Empty
	// disables the endpoint.
	PrometheusAddr   string `json:"prometheus_addr" yaml:"prometheus_addr"`
	SampleIntervalMS int    `json:"sample_interval_ms" yaml:"sample_interval_ms"`
}

func (c *Config) SetDefaults() {
	if c.SampleIntervalMS == 0 {
		c.SampleIntervalMS = defaultSampleIntervalMS
	}
}

func (c Config) Validate() error {
	if c.SampleIntervalMS < 0 {
		return fmt.Errorf("metrics: sample_interval_ms must not be negative")
	}
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	return nil
}

// SampleInterval is the period of channel snapshots.
func (c Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMS) * time.Millisecond
}
