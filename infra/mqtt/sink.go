package mqtt

import (
	"github.com/kilianp07/benchpsu/core/factory"
	coremetrics "github.com/kilianp07/benchpsu/core/metrics"
)

// init registers the publisher as a telemetry sink.
func init() {
	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.Commands = false
		return NewPahoClient(c)
	})
}
