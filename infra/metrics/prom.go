package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/benchpsu/core/metrics"
)

// PromSink exports the last channel snapshot as Prometheus gauges.
type PromSink struct {
	voltage  *prometheus.GaugeVec
	current  *prometheus.GaugeVec
	power    *prometheus.GaugeVec
	output   *prometheus.GaugeVec
	tripped  *prometheus.GaugeVec
	topology *prometheus.CounterVec
}

// NewPromSink registers the channel gauges on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the gauges on reg. Collectors already
// registered by an earlier sink are reused. A nil reg selects the default
// registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		voltage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "benchpsu_channel_voltage_volts",
			Help: "Channel voltage by reading (set, mon, limit)",
		}, []string{"channel", "reading"}),
		current: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "benchpsu_channel_current_amperes",
			Help: "Channel current by reading (set, mon, limit)",
		}, []string{"channel", "reading"}),
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "benchpsu_channel_power_limit_watts",
			Help: "Channel power limit",
		}, []string{"channel"}),
		output: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "benchpsu_channel_output_enabled",
			Help: "1 when the channel output is on",
		}, []string{"channel", "mode"}),
		tripped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "benchpsu_channel_protection_tripped",
			Help: "1 when any protection of the channel is tripped",
		}, []string{"channel"}),
		topology: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "benchpsu_topology_events_total",
			Help: "Coupling and tracking changes by event kind",
		}, []string{"kind"}),
	}
	var err error
	if s.voltage, err = register(reg, s.voltage); err != nil {
		return nil, err
	}
	if s.current, err = register(reg, s.current); err != nil {
		return nil, err
	}
	if s.power, err = register(reg, s.power); err != nil {
		return nil, err
	}
	if s.output, err = register(reg, s.output); err != nil {
		return nil, err
	}
	if s.tripped, err = register(reg, s.tripped); err != nil {
		return nil, err
	}
	if s.topology, err = register(reg, s.topology); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordChannelStatus overwrites the gauges with the snapshot.
func (s *PromSink) RecordChannelStatus(samples []coremetrics.ChannelSample) error {
	for _, r := range samples {
		ch := strconv.Itoa(r.Index)
		s.voltage.WithLabelValues(ch, "set").Set(r.USet)
		s.voltage.WithLabelValues(ch, "mon").Set(r.UMon)
		s.voltage.WithLabelValues(ch, "limit").Set(r.ULimit)
		s.current.WithLabelValues(ch, "set").Set(r.ISet)
		s.current.WithLabelValues(ch, "mon").Set(r.IMon)
		s.current.WithLabelValues(ch, "limit").Set(r.ILimit)
		s.power.WithLabelValues(ch).Set(r.PowerLimit)
		s.output.DeletePartialMatch(prometheus.Labels{"channel": ch})
		s.output.WithLabelValues(ch, r.Mode).Set(boolGauge(r.OutputEnabled))
		s.tripped.WithLabelValues(ch).Set(boolGauge(r.Tripped))
	}
	return nil
}

// RecordTopologyEvent counts the event by kind.
func (s *PromSink) RecordTopologyEvent(ev coremetrics.TopologyEvent) error {
	s.topology.WithLabelValues(ev.Kind).Inc()
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
