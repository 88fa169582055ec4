package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/core/channel"
)

func TestResolve_Modes(t *testing.T) {
	f := newFixture()
	topo := f.engine.Topology()
	ch0, ch1, ch2 := f.channels[0], f.channels[1], f.channels[2]

	p := topo.Resolve(ch0, QuantityVoltage)
	assert.Equal(t, ModeSingle, p.Mode)
	assert.Equal(t, []*channel.Channel{ch0}, p.Members)

	topo.coupling = CouplingSeries
	p = topo.Resolve(ch1, QuantityVoltage)
	assert.Equal(t, ModeCoupled, p.Mode)
	assert.True(t, p.Summed)
	assert.Same(t, ch0, p.Lead())
	assert.False(t, topo.Resolve(ch1, QuantityCurrent).Summed)
	assert.True(t, topo.Resolve(ch1, QuantityPower).Summed)
	assert.Equal(t, ModeSingle, topo.Resolve(ch2, QuantityVoltage).Mode)

	topo.coupling = CouplingParallel
	assert.False(t, topo.Resolve(ch0, QuantityVoltage).Summed)
	assert.True(t, topo.Resolve(ch0, QuantityCurrent).Summed)

	// common ground keeps the channels independent
	topo.coupling = CouplingCommonGnd
	assert.Equal(t, ModeSingle, topo.Resolve(ch0, QuantityVoltage).Mode)

	topo.coupling = CouplingNone
	ch1.Flags.TrackingEnabled = true
	ch2.Flags.TrackingEnabled = true
	p = topo.Resolve(ch2, QuantityVoltage)
	require.Equal(t, ModeTracking, p.Mode)
	assert.Equal(t, []*channel.Channel{ch1, ch2}, p.Members)
	assert.Equal(t, uint32(0b110), topo.TrackingMask())
}

func TestPlan_Combinators(t *testing.T) {
	a := channel.New(0, testParams(), nil)
	b := channel.New(1, testParams(), nil)
	a.U.Limit, b.U.Limit = 36, 30
	a.U.Min, b.U.Min = 0.5, 1

	tests := []struct {
		name  string
		plan  Plan
		upper float64
		lower float64
	}{
		{"single", Plan{Self: a, Members: []*channel.Channel{a}}, 36, 0.5},
		{"summed pair", Plan{Self: a, Members: []*channel.Channel{a, b}, Mode: ModeCoupled, Summed: true}, 60, 2},
		{"shared pair", Plan{Self: a, Members: []*channel.Channel{a, b}, Mode: ModeCoupled}, 30, 1},
		{"tracking", Plan{Self: b, Members: []*channel.Channel{a, b}, Mode: ModeTracking}, 30, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.upper, tt.plan.Upper(uLimit), 1e-9)
			assert.InDelta(t, tt.lower, tt.plan.Lower(uMin), 1e-9)
		})
	}
}

func TestPlan_TrackingPrecisionUsesCoarsestMember(t *testing.T) {
	a := channel.New(0, testParams(), nil)
	p := testParams()
	p.VoltageResolution = 0.05
	b := channel.New(1, p, nil)
	plan := Plan{Self: a, Members: []*channel.Channel{a, b}, Mode: ModeTracking}

	assert.Equal(t, 0.05, plan.Precision(channel.UnitVolt, 12))
	assert.InDelta(t, 12.35, plan.Round(channel.UnitVolt, 12.34), 1e-9)
	assert.InDelta(t, 12.35, plan.Split(channel.UnitVolt, 12.34), 1e-9)
}

func TestCouplingType_Parse(t *testing.T) {
	for ct, name := range couplingNames {
		got, err := ParseCouplingType(name)
		require.NoError(t, err)
		assert.Equal(t, ct, got)
	}
	got, err := ParseCouplingType(" Series ")
	require.NoError(t, err)
	assert.Equal(t, CouplingSeries, got)

	_, err = ParseCouplingType("delta")
	assert.Error(t, err)
	assert.Equal(t, "coupling(9)", CouplingType(9).String())
}
