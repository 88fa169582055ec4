// Package metrics defines the telemetry sink contract of the instrument.
// Sinks receive periodic channel snapshots and, when they implement
// TopologyRecorder, the coupling and tracking events of the event log.
// NewMetricsSink builds sinks from configuration through the factory
// registry and wraps several of them in a MultiSink.
package metrics
