package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/core/channel"
	"github.com/kilianp07/benchpsu/core/events"
)

func TestIsCouplingTypeAllowed(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *fixture)
		target CouplingType
		want   error
	}{
		{"none always allowed", func(f *fixture) { f.channels[0].SetOk(false) }, CouplingNone, nil},
		{"series healthy", nil, CouplingSeries, nil},
		{"series unhealthy", func(f *fixture) { f.channels[1].SetOk(false) }, CouplingSeries, ErrHardwareError},
		{"parallel without coupling feature", func(f *fixture) {
			f.channels[0].Params.Features &^= channel.FeatureCoupling
		}, CouplingParallel, ErrHardwareError},
		{"common gnd with two healthy channels", func(f *fixture) { f.channels[0].SetOk(false) }, CouplingCommonGnd, nil},
		{"common gnd with one healthy channel", func(f *fixture) {
			f.channels[0].SetOk(false)
			f.channels[1].SetOk(false)
		}, CouplingCommonGnd, ErrHardwareError},
		{"common gnd ignores sub channels", func(f *fixture) {
			f.channels[1].SubchannelIndex = 1
			f.channels[2].SubchannelIndex = 1
		}, CouplingCommonGnd, ErrHardwareError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}
			err := f.engine.IsCouplingTypeAllowed(tt.target)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestIsCouplingTypeAllowed_SingleChannel(t *testing.T) {
	ch := channel.New(0, testParams(), nil)
	e := NewEngine([]*channel.Channel{ch}, nil, Deps{})
	assert.ErrorIs(t, e.IsCouplingTypeAllowed(CouplingSeries), ErrHardwareMissing)
	assert.ErrorIs(t, e.IsTrackingAllowed(ch), ErrHardwareMissing)
}

func TestApplyCouplingType_Transition(t *testing.T) {
	f := newFixture()
	ch0, ch1 := f.channels[0], f.channels[1]
	f.settings.SetMaxChannelIndex(1)
	ch0.SetVoltage(12)
	ch1.SetVoltage(5)
	ch0.SetVoltageLimit(30)
	ch1.SetCurrentLimit(3)
	ch0.SetVoltageTriggerMode(channel.TriggerModeList)
	ch0.YTViewRate = 0.2
	ch0.U.RampDuration = 0.05
	ch0.RemoteSensingEnable(true)
	ch1.Flags.TrackingEnabled = true
	f.lists.SetVoltageList(0, []float64{1, 2})
	f.engine.OutputEnable(ch0, true)
	ch1.RecordSample(channel.Sample{U: 1})

	changed := f.engine.applyCouplingType(CouplingSeries)

	require.True(t, changed)
	assert.Equal(t, CouplingSeries, f.engine.CouplingType())
	assert.Equal(t, 1, f.trigger.Aborts())
	assert.False(t, ch0.IsOutputEnabled())
	for _, ch := range []*channel.Channel{ch0, ch1} {
		assert.Equal(t, channel.TriggerModeFixed, ch.GetVoltageTriggerMode())
		assert.True(t, ch.GetTriggerOutputState())
		assert.Zero(t, ch.U.Set)
		assert.InDelta(t, 30, ch.GetVoltageLimit(), 1e-9)
		assert.InDelta(t, 3, ch.GetCurrentLimit(), 1e-9)
		assert.False(t, ch.IsRemoteSensingEnabled())
		assert.False(t, ch.Flags.TrackingEnabled)
		assert.Empty(t, ch.History())
	}
	assert.Empty(t, f.lists.VoltageList(0))
	assert.Equal(t, 0.2, ch1.YTViewRate)
	assert.Equal(t, 0.05, ch1.U.RampDuration)
	assert.Equal(t, 0, f.settings.MaxChannelIndex())
	assert.Equal(t, []CouplingType{CouplingSeries}, f.io.switches)
	assert.Equal(t, []events.Kind{events.KindCoupledInSeries}, f.events.Kinds())
	assert.True(t, f.status.bits[OperGroupSerial])
	assert.False(t, f.status.bits[OperGroupParallel])

	require.True(t, f.engine.applyCouplingType(CouplingNone))
	assert.Equal(t, events.KindChannelsUncoupled, f.events.Kinds()[1])
	assert.False(t, f.status.bits[OperGroupSerial])
}

func TestApplyCouplingType_Idempotent(t *testing.T) {
	f := newFixture()
	require.True(t, f.engine.applyCouplingType(CouplingParallel))
	f.channels[0].RecordSample(channel.Sample{U: 3})

	assert.False(t, f.engine.applyCouplingType(CouplingParallel))

	assert.Len(t, f.io.switches, 1)
	assert.Len(t, f.events.Kinds(), 1)
	assert.Len(t, f.channels[0].History(), 1)
}

func TestApplyCouplingType_CommonGndKeepsChannelCount(t *testing.T) {
	f := newFixture()
	f.settings.SetMaxChannelIndex(1)
	f.engine.applyCouplingType(CouplingCommonGnd)
	assert.Equal(t, 1, f.settings.MaxChannelIndex())
	assert.True(t, f.status.bits[OperGroupCommonGnd])
}

func TestCoupling_ProtectionDelayMinimum(t *testing.T) {
	f := newFixture()
	ch0, ch1 := f.channels[0], f.channels[1]
	f.engine.SetOcpParameters(ch0, true, 0.2)
	f.engine.SetOcpParameters(ch1, false, 0.05)
	f.engine.SetOvpParameters(ch0, OvpParameters{State: false, Level: 30, Delay: 0.01})
	f.engine.SetOvpParameters(ch1, OvpParameters{State: true, Level: 25, Delay: 0.02})

	f.engine.applyCouplingType(CouplingParallel)

	for _, ch := range []*channel.Channel{ch0, ch1} {
		assert.True(t, ch.ProtConf.IState)
		assert.InDelta(t, 0.05, ch.ProtConf.IDelay, 1e-9)
		assert.True(t, ch.ProtConf.UState)
		assert.InDelta(t, 25, ch.ProtConf.ULevel, 1e-9)
		assert.InDelta(t, 0.01, ch.ProtConf.UDelay, 1e-9)
	}
}

func TestCoupling_HarmonizesOtp(t *testing.T) {
	f := newFixture()
	f.engine.SetOtpParameters(f.channels[0], false, 60, 5)
	f.engine.SetOtpParameters(f.channels[1], true, 80, 2)

	f.engine.applyCouplingType(CouplingSeries)

	for _, s := range f.sensors[1:3] {
		assert.True(t, s.ProtConf.State)
		assert.Equal(t, 60.0, s.ProtConf.Level)
		assert.Equal(t, 2.0, s.ProtConf.Delay)
	}
	assert.Equal(t, 70.0, f.sensors[0].ProtConf.Level)
}

func TestIsTrackingAllowed(t *testing.T) {
	f := newFixture()
	assert.NoError(t, f.engine.IsTrackingAllowed(f.channels[0]))

	f.engine.applyCouplingType(CouplingSeries)
	assert.ErrorIs(t, f.engine.IsTrackingAllowed(f.channels[1]), ErrChannelsCoupled)
	assert.NoError(t, f.engine.IsTrackingAllowed(f.channels[2]))

	f.channels[2].SetOk(false)
	err := f.engine.IsTrackingAllowed(f.channels[2])
	assert.True(t, errors.Is(err, ErrHardwareError))
}

func TestApplyTrackingChannels_Harmonizes(t *testing.T) {
	f := newFixture(func(i int, p *channel.Params) {
		if i == 2 {
			p.UMin = 1
		}
	})
	ch1, ch2 := f.channels[1], f.channels[2]
	ch1.SetVoltageLimit(20)
	f.engine.SetOvpParameters(ch2, OvpParameters{State: true, Level: 15, Delay: 0.003})
	ch1.U.RampDuration = 0.5
	f.engine.OutputEnable(ch2, true)
	ch2.SetCurrentTriggerMode(channel.TriggerModeStep)

	f.engine.applyTrackingChannels(0b110)

	assert.Equal(t, []events.Kind{events.KindChannelsTracked}, f.events.Kinds())
	assert.Equal(t, 1, f.trigger.Aborts())
	assert.False(t, ch2.IsOutputEnabled())
	for _, ch := range []*channel.Channel{ch1, ch2} {
		assert.True(t, ch.Flags.TrackingEnabled)
		assert.InDelta(t, 1, ch.U.Set, 1e-9)
		assert.InDelta(t, 20, ch.GetVoltageLimit(), 1e-9)
		assert.True(t, ch.ProtConf.UState)
		assert.InDelta(t, 15, ch.ProtConf.ULevel, 1e-9)
		assert.Equal(t, channel.TriggerModeFixed, ch.GetCurrentTriggerMode())
		assert.Zero(t, ch.U.RampDuration)
	}
	assert.False(t, f.channels[0].Flags.TrackingEnabled)

	// leaving the group does not harmonize again
	f.engine.applyTrackingChannels(0b010)
	assert.Len(t, f.events.Kinds(), 1)
	assert.False(t, ch2.Flags.TrackingEnabled)
}

func TestApplyTrackingChannels_ResetsMembersToGroupMinimum(t *testing.T) {
	f := newFixture(func(i int, p *channel.Params) {
		if i == 1 {
			p.IMin = 0.2
		}
	})
	ch1, ch2 := f.channels[1], f.channels[2]
	ch1.SetVoltage(5)
	ch2.SetVoltage(10)
	ch2.SetCurrent(2)
	ch1.SetTriggerOutputState(false)
	ch2.SetTriggerOnListStop(channel.TriggerOnListStopSetToLastStep)

	f.engine.applyTrackingChannels(0b110)

	for _, ch := range []*channel.Channel{ch1, ch2} {
		assert.InDelta(t, 0, ch.U.Set, 1e-9)
		assert.InDelta(t, 0.2, ch.I.Set, 1e-9)
		assert.True(t, ch.GetTriggerOutputState())
		assert.Equal(t, channel.TriggerOnListStopOutputOff, ch.GetTriggerOnListStop())
	}
	assert.InDelta(t, ch1.U.Set, f.engine.USet(ch2), 1e-9)
	assert.InDelta(t, ch2.U.Set, f.engine.USet(ch1), 1e-9)
}
