package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/core/channel"
)

// wideSource gives channel 2 a larger voltage range than the others.
func wideSource(i int, p *channel.Params) {
	if i == 2 {
		p.UMax = 60
	}
}

func TestPrepareClone_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
		kind  OverflowKind
		msg   string
	}{
		{"voltage", func(f *fixture) { f.channels[2].SetVoltage(50) }, OverflowVoltage, "Voltage overflow."},
		{"current", func(f *fixture) {
			f.channels[2].SetCurrentLimit(5)
			f.channels[2].SetCurrent(5)
			f.channels[0].I.Max = 3
		}, OverflowCurrent, "Current overflow."},
		{"power", func(f *fixture) {
			f.channels[2].SetPowerLimit(100)
			f.channels[2].SetVoltage(30)
			f.channels[2].SetCurrent(5)
		}, OverflowPower, "Power overflow."},
		{"remote programming", func(f *fixture) {
			f.channels[2].RemoteProgrammingEnable(true)
			f.engine.applyCouplingType(CouplingParallel)
		}, OverflowRemoteProgramming, "Can not enable remote programming."},
		{"voltage list", func(f *fixture) {
			f.lists.SetVoltageList(2, []float64{1, 50})
		}, OverflowVoltageList, "Voltage list value overflow."},
		{"current list", func(f *fixture) {
			f.lists.SetCurrentList(2, []float64{6})
		}, OverflowCurrentList, "Current list value overflow."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(wideSource)
			tt.setup(f)
			dst := f.channels[0]
			before := *dst

			err := f.engine.CopyChannelToChannel(f.channels[2], dst)

			require.Error(t, err)
			assert.EqualError(t, err, tt.msg)
			assert.True(t, IsOverflow(err, tt.kind))
			assert.Equal(t, before.U, dst.U)
			assert.Equal(t, before.I, dst.I)
			assert.Equal(t, before.ProtConf, dst.ProtConf)
			assert.Empty(t, f.lists.VoltageList(0))
		})
	}
}

func TestCopyChannelToChannel(t *testing.T) {
	f := newFixture(wideSource)
	src, dst := f.channels[2], f.channels[1]
	src.SetVoltage(12)
	src.SetVoltageLimit(50)
	src.SetCurrent(1.5)
	src.U.Step = 0.1
	f.engine.SetOvpParameters(src, OvpParameters{State: true, Level: 20, Delay: 0.01})
	f.engine.SetOppParameters(src, OppParameters{State: true, Level: 60, Delay: 0.5})
	src.SetVoltageTriggerMode(channel.TriggerModeList)
	src.YTViewRate = 0
	f.lists.SetVoltageList(2, []float64{1, 2, 3})
	f.lists.SetDwellList(2, []float64{0.1, 0.1, 0.1})
	f.lists.SetListCount(2, 5)
	f.engine.OutputEnable(dst, true)

	require.NoError(t, f.engine.CopyChannelToChannel(src, dst))

	assert.False(t, dst.IsOutputEnabled())
	assert.InDelta(t, 12, dst.U.Set, 1e-9)
	assert.InDelta(t, 1.5, dst.I.Set, 1e-9)
	assert.InDelta(t, 40, dst.GetVoltageLimit(), 1e-9)
	assert.InDelta(t, 0.1, dst.U.Step, 1e-9)
	assert.True(t, dst.ProtConf.UState)
	assert.InDelta(t, 20, dst.ProtConf.ULevel, 1e-9)
	assert.InDelta(t, 60, dst.ProtConf.PLevel, 1e-9)
	assert.Equal(t, channel.TriggerModeList, dst.GetVoltageTriggerMode())
	assert.Equal(t, channel.DefaultYTViewRate, dst.YTViewRate)
	assert.Equal(t, []float64{1, 2, 3}, f.lists.VoltageList(1))
	assert.Equal(t, []float64{0.1, 0.1, 0.1}, f.lists.DwellList(1))
	assert.Equal(t, 5, f.lists.ListCount(1))
}

func TestCopyChannelToChannel_FollowsDestinationGroup(t *testing.T) {
	f := newFixture()
	f.engine.applyCouplingType(CouplingSeries)
	src := f.channels[2]
	src.SetVoltage(20)

	require.NoError(t, f.engine.CopyChannelToChannel(src, f.channels[0]))

	assert.InDelta(t, 10, f.channels[0].U.Set, 1e-9)
	assert.InDelta(t, 10, f.channels[1].U.Set, 1e-9)
	assert.InDelta(t, 20, f.engine.USet(f.channels[1]), 1e-9)
}

func TestPrepareClone_CoupledDestinationUsesGroupLimits(t *testing.T) {
	f := newFixture(func(i int, p *channel.Params) {
		if i < 2 {
			p.UMax = 20
		}
	})
	f.engine.applyCouplingType(CouplingSeries)
	src := f.channels[2]
	src.SetVoltage(30)
	f.lists.SetVoltageList(2, []float64{30})

	require.InDelta(t, 40, f.engine.UMaxLimit(f.channels[0]), 1e-9)
	require.NoError(t, f.engine.CopyChannelToChannel(src, f.channels[0]))

	assert.InDelta(t, 15, f.channels[0].U.Set, 1e-9)
	assert.InDelta(t, 15, f.channels[1].U.Set, 1e-9)
	assert.InDelta(t, 30, f.engine.USet(f.channels[0]), 1e-9)
}

func TestPrepareClone_RemoteProgrammingByCoupling(t *testing.T) {
	tests := []struct {
		coupling CouplingType
		blocked  bool
	}{
		{CouplingNone, false},
		{CouplingCommonGnd, false},
		{CouplingSplitRails, false},
		{CouplingSeries, true},
		{CouplingParallel, true},
	}
	for _, tt := range tests {
		t.Run(tt.coupling.String(), func(t *testing.T) {
			f := newFixture()
			f.channels[2].RemoteProgrammingEnable(true)
			f.engine.applyCouplingType(tt.coupling)

			_, err := f.engine.prepareClone(f.channels[2], f.channels[0])
			if tt.blocked {
				assert.True(t, IsOverflow(err, OverflowRemoteProgramming))
				return
			}
			assert.NoError(t, err)
			// the direct command stays stricter
			if tt.coupling != CouplingNone {
				assert.ErrorIs(t, f.engine.remoteProgrammingBlocked(f.channels[0]), ErrChannelsCoupled)
			}
		})
	}
}
