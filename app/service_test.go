package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/config"
	"github.com/kilianp07/benchpsu/core/dispatch"
	"github.com/kilianp07/benchpsu/core/events"
	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
	"github.com/kilianp07/benchpsu/infra/eventlog"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.EventLog.Path = filepath.Join(t.TempDir(), "events.jsonl")
	cfg.Simulator.Enabled = true
	cfg.Simulator.LoadOhms = []float64{10, 10}
	cfg.Simulator.IntervalMS = 10
	cfg.Simulator.Seed = 1
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestService_RunRecordsCouplingEvents(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- svc.Run(ctx) }()

	h := svc.Handler()
	cmdCtx, cmdCancel := context.WithTimeout(ctx, 2*time.Second)
	defer cmdCancel()
	require.NoError(t, h.HandleCommand(cmdCtx, coremqtt.Command{ID: "c1", Op: coremqtt.OpCouple, Coupling: "series"}))

	assert.Equal(t, dispatch.CouplingSeries, svc.Hardware.Relay())
	assert.True(t, svc.Hardware.OperBit(dispatch.OperGroupSerial))

	assert.Eventually(t, func() bool {
		evs, err := svc.Store.Query(context.Background(), eventlog.Query{Kinds: []events.Kind{events.KindCoupledInSeries}})
		return err == nil && len(evs) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-runErr)
	require.NoError(t, svc.Close())
}

func TestService_SimulatorFeedsMonitor(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = svc.Run(ctx) }()
	defer func() {
		cancel()
		_ = svc.Close()
	}()

	h := svc.Handler()
	require.NoError(t, h.HandleCommand(ctx, coremqtt.Command{ID: "v", Op: coremqtt.OpSetVoltage, Channel: 0, Value: 5}))
	require.NoError(t, h.HandleCommand(ctx, coremqtt.Command{ID: "i", Op: coremqtt.OpSetCurrent, Channel: 0, Value: 1}))
	require.NoError(t, h.HandleCommand(ctx, coremqtt.Command{ID: "o", Op: coremqtt.OpOutput, Channel: 0, Enable: true}))

	assert.Eventually(t, func() bool {
		return svc.Dispatcher.UMon(0) > 4.9 && svc.Dispatcher.IMon(0) > 0.49
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, svc.Hardware.Output(0).Enabled)
}

func TestService_EventLogDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.EventLog.Backend = "none"
	svc, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, svc.Store)
	require.NoError(t, svc.Close())
}
