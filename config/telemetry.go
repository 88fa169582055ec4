package config

import "fmt"

// TelemetryConfig enables acquisitions pushed by external boards on the
// MQTT monitor topics.
type TelemetryConfig struct {
	Enabled bool `json:"enabled"`
}

func (c TelemetryConfig) validate(mqttEnabled bool) error {
	if c.Enabled && !mqttEnabled {
		return fmt.Errorf("telemetry: requires mqtt.broker")
	}
	return nil
}
