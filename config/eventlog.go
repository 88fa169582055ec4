package config

import (
	"fmt"

	"github.com/kilianp07/benchpsu/core/factory"
)

// EventLogConfig defines event log storage and rotation.
type EventLogConfig struct {
	// Backend selects the store: "jsonl", "sqlite" or "none".
	Backend string `json:"backend"`
	Path    string `json:"path"`
	// MaxSizeMB triggers rotation of the jsonl file.
	MaxSizeMB  int `json:"max_size_mb"`
	MaxBackups int `json:"max_backups"`
	MaxAgeDays int `json:"max_age_days"`
}

func (c *EventLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		switch c.Backend {
		case "sqlite":
			c.Path = "events.db"
		default:
			c.Path = "events.jsonl"
		}
	}
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
}

func (c EventLogConfig) Validate() error {
	switch c.Backend {
	case "jsonl", "sqlite", "none":
	default:
		return fmt.Errorf("eventlog: unknown backend %s", c.Backend)
	}
	if c.Backend != "none" && c.Path == "" {
		return fmt.Errorf("eventlog: path is required")
	}
	return nil
}

// Enabled reports whether events are persisted.
func (c EventLogConfig) Enabled() bool { return c.Backend != "none" }

// Module describes the store for eventlog.New.
func (c EventLogConfig) Module() factory.ModuleConfig {
	conf := map[string]any{"path": c.Path}
	if c.Backend == "jsonl" {
		conf["max_size_mb"] = c.MaxSizeMB
		conf["max_backups"] = c.MaxBackups
		conf["max_age_days"] = c.MaxAgeDays
	}
	return factory.ModuleConfig{Type: c.Backend, Conf: conf}
}
