// Package eventlog persists the topology events of the instrument. Stores
// are built from configuration through New and fed from the event bus by
// Recorder.
package eventlog

import (
	"context"
	"time"

	"github.com/kilianp07/benchpsu/core/events"
	"github.com/kilianp07/benchpsu/core/factory"
)

// Query filters stored events. Zero fields match everything.
type Query struct {
	Start time.Time
	End   time.Time
	Kinds []events.Kind
	Limit int
}

func (q Query) match(ev events.Event) bool {
	if !q.Start.IsZero() && ev.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && ev.Time.After(q.End) {
		return false
	}
	if len(q.Kinds) == 0 {
		return true
	}
	for _, k := range q.Kinds {
		if k == ev.Kind {
			return true
		}
	}
	return false
}

// Store persists events in arrival order.
type Store interface {
	Append(ctx context.Context, ev events.Event) error
	Query(ctx context.Context, q Query) ([]events.Event, error)
	Close() error
}

var registry = factory.NewRegistry[Store]()

func init() {
	_ = registry.Register("jsonl", func(conf map[string]any) (Store, error) {
		var c JSONLConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewRotatingJSONLStore(c)
	})
	_ = registry.Register("sqlite", func(conf map[string]any) (Store, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteStore(c.Path)
	})
}

// New builds the store described by cfg.
func New(cfg factory.ModuleConfig) (Store, error) {
	return registry.Create(cfg)
}
