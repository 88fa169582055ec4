package simulator

import (
	"fmt"
	"time"
)

const defaultIntervalMS = 200

// Config describes the simulated bench.
type Config struct {
	Enabled bool `json:"enabled"`
	// LoadOhms is the resistive load on each channel. Zero or negative is an
	// open circuit.
	LoadOhms   []float64 `json:"load_ohms"`
	IntervalMS int       `json:"interval_ms"`
	// NoisePct is the relative ADC noise, 0.1 for 0.1 %.
	NoisePct float64 `json:"noise_pct"`
	Seed     int64   `json:"seed"`
}

func (c *Config) SetDefaults() {
	if c.IntervalMS == 0 {
		c.IntervalMS = defaultIntervalMS
	}
}

func (c Config) Validate() error {
	if c.IntervalMS < 0 {
		return fmt.Errorf("simulator: interval_ms must not be negative")
	}
	if c.NoisePct < 0 || c.NoisePct > 10 {
		return fmt.Errorf("simulator: noise_pct must be within [0, 10], got %g", c.NoisePct)
	}
	return nil
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// Load returns the load of channel ch.
func (c Config) Load(ch int) *Load {
	if ch < len(c.LoadOhms) {
		return &Load{Ohms: c.LoadOhms[ch]}
	}
	return &Load{}
}
