package dispatch

import (
	"fmt"
	"time"
)

const (
	defaultQueueSize  = 64
	defaultDebounceMS = 100
)

// Config defines owner task settings.
type Config struct {
	// QueueSize bounds the number of messages waiting for the owner task.
	QueueSize int `json:"queue_size"`
	// DebounceMS is the relay settle delay after a coupling change.
	DebounceMS int `json:"debounce_ms"`
}

func (c *Config) SetDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.DebounceMS == 0 {
		c.DebounceMS = defaultDebounceMS
	}
}

func (c Config) Validate() error {
	if c.QueueSize < 1 {
		return fmt.Errorf("dispatch: queue_size must be positive, got %d", c.QueueSize)
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("dispatch: debounce_ms must not be negative, got %d", c.DebounceMS)
	}
	return nil
}

// Debounce returns the relay settle delay.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
