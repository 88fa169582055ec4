package metrics

import "errors"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordChannelStatus forwards to every sink. A failing sink does not stop
// the others; the errors are joined.
func (m *MultiSink) RecordChannelStatus(samples []ChannelSample) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordChannelStatus(samples); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordTopologyEvent forwards to the sinks that record topology events.
func (m *MultiSink) RecordTopologyEvent(ev TopologyEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if rec, ok := s.(TopologyRecorder); ok {
			if err := rec.RecordTopologyEvent(ev); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
