package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/core/dispatch"
	"github.com/kilianp07/benchpsu/core/factory"
	metrics "github.com/kilianp07/benchpsu/core/metrics"
	_ "github.com/kilianp07/benchpsu/infra/metrics"
)

func TestMetricsFactory_Builtins(t *testing.T) {
	s, err := metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.NotNil(t, s)

	_, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "missing"}})
	assert.ErrorContains(t, err, "metrics sink #1")
}

func TestNewMetricsSink_Multi(t *testing.T) {
	s, err := metrics.NewMetricsSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "nop"}, {Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)

	s, err = metrics.NewMetricsSink([]factory.ModuleConfig{{Type: "prometheus"}, {Type: "nop"}, {Type: "prometheus"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "got %T", s)
	assert.Len(t, m.Sinks, 2)
}

func TestSnapshot(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	out := metrics.Snapshot([]dispatch.ChannelStatus{{Index: 0, USet: 12}, {Index: 1}}, now)
	require.Len(t, out, 2)
	assert.Equal(t, 12.0, out[0].USet)
	assert.Equal(t, now, out[1].Time)
}
