package metrics

import (
	"time"

	"github.com/kilianp07/benchpsu/core/dispatch"
)

// ChannelSample is one channel snapshot taken at Time.
type ChannelSample struct {
	dispatch.ChannelStatus
	Time time.Time `json:"time"`
}

// MetricsSink records channel snapshots.
type MetricsSink interface {
	RecordChannelStatus(samples []ChannelSample) error
}

// TopologyEvent is a coupling or tracking change observed on the event log.
type TopologyEvent struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	Coupling string    `json:"coupling"`
	Time     time.Time `json:"time"`
}

// TopologyRecorder is implemented by sinks that persist topology events.
type TopologyRecorder interface {
	RecordTopologyEvent(ev TopologyEvent) error
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) RecordChannelStatus([]ChannelSample) error { return nil }
func (NopSink) RecordTopologyEvent(TopologyEvent) error   { return nil }

// Snapshot stamps a status table with t.
func Snapshot(status []dispatch.ChannelStatus, t time.Time) []ChannelSample {
	out := make([]ChannelSample, len(status))
	for i, s := range status {
		out[i] = ChannelSample{ChannelStatus: s, Time: t}
	}
	return out
}
