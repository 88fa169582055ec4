package simulator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/core/channel"
	"github.com/kilianp07/benchpsu/core/dispatch"
)

type recordTarget struct {
	mu       sync.Mutex
	readings map[int]dispatch.MonitorReading
	calls    int
}

func (r *recordTarget) UpdateMonitor(_ context.Context, ch int, m dispatch.MonitorReading) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readings == nil {
		r.readings = map[int]dispatch.MonitorReading{}
	}
	r.readings[ch] = m
	r.calls++
	return nil
}

func (r *recordTarget) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestHardwareRecordsWrites(t *testing.T) {
	hw := NewHardware(2)
	var drv channel.Driver = hw
	drv.ApplySetpoints(1, 5, 0.5)
	drv.ApplyOutput(1, true)
	drv.ApplyRemoteSensing(1, true)
	drv.ApplySetpoints(7, 1, 1)

	out := hw.Output(1)
	assert.Equal(t, Output{USet: 5, ISet: 0.5, Enabled: true, RemoteSense: true, SetpointWrites: 1}, out)
	assert.Equal(t, Output{}, hw.Output(7))

	hw.SwitchChannelCoupling(dispatch.CouplingSeries)
	hw.SetOperBits(dispatch.OperGroupSerial, true)
	assert.Equal(t, dispatch.CouplingSeries, hw.Relay())
	assert.True(t, hw.OperBit(dispatch.OperGroupSerial))
	assert.False(t, hw.OperBit(dispatch.OperGroupParallel))

	hw.SetMainPageActive(true)
	hw.SetCalibrating(true)
	assert.True(t, hw.IsMainPageActive())
	assert.True(t, hw.IsEnabled())
}

func TestSimulatorStep(t *testing.T) {
	hw := NewHardware(2)
	hw.ApplySetpoints(0, 10, 1)
	hw.ApplyOutput(0, true)
	sim := New(Config{LoadOhms: []float64{20}}, hw)

	target := &recordTarget{}
	require.NoError(t, sim.Step(context.Background(), target))

	assert.Equal(t, dispatch.MonitorReading{U: 10, I: 0.5, UDac: 10, IDac: 1}, target.readings[0])
	assert.Equal(t, dispatch.MonitorReading{}, target.readings[1])
}

func TestSimulatorNoiseBounded(t *testing.T) {
	hw := NewHardware(1)
	hw.ApplySetpoints(0, 10, 5)
	hw.ApplyOutput(0, true)
	sim := New(Config{LoadOhms: []float64{10}, NoisePct: 1, Seed: 42}, hw)

	for n := 0; n < 50; n++ {
		r := sim.Reading(0)
		assert.InDelta(t, 10, r.U, 0.1+1e-9)
		assert.InDelta(t, 1, r.I, 0.01+1e-9)
	}
}

func TestSimulatorRunFeedsDispatcher(t *testing.T) {
	hw := NewHardware(1)
	params := channel.Params{UMax: 40, IMax: 5, PTotal: 155, VoltageResolution: 0.01, CurrentResolution: 0.001, PowerResolution: 0.01}
	ch := channel.New(0, params, hw)
	d, err := dispatch.New(dispatch.Config{}, []*channel.Channel{ch}, nil, dispatch.Deps{IOExpander: hw, Status: hw, Pages: hw, Calibration: hw})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	require.NoError(t, d.SetVoltage(ctx, 0, 12))
	require.NoError(t, d.SetCurrent(ctx, 0, 1))
	require.NoError(t, d.OutputEnable(ctx, 0, true))
	require.NoError(t, d.Wait(ctx))

	sim := New(Config{LoadOhms: []float64{24}}, hw)
	go sim.Run(ctx, d, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return d.UMon(0) > 11.9 && d.IMon(0) > 0.49
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 200*time.Millisecond, cfg.Interval())
	assert.Error(t, Config{NoisePct: 50}.Validate())
	assert.Equal(t, 0.0, cfg.Load(3).Ohms)
}
