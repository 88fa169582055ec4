package metrics

import (
	"github.com/kilianp07/benchpsu/core/factory"
	coremetrics "github.com/kilianp07/benchpsu/core/metrics"
)

// init registers the built-in sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink(coremetrics.NopType, func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	// The /metrics endpoint is started separately from Config.PrometheusAddr.
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSink()
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c InfluxConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c), nil
	})
}
