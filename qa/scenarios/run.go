package scenarios

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/benchpsu/app"
	"github.com/kilianp07/benchpsu/config"
	"github.com/kilianp07/benchpsu/core/dispatch"
	"github.com/kilianp07/benchpsu/core/events"
	"github.com/kilianp07/benchpsu/core/trigger"
	"github.com/kilianp07/benchpsu/infra/logger"
	"github.com/kilianp07/benchpsu/internal/eventbus"
)

const stepTimeout = 2 * time.Second

// RunScenario replays sc against a fresh dispatcher and checks the settled
// state and the events it pushed.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	inst := config.Default().Instrument
	if sc.Channels > 0 {
		inst.Channels = make([]config.ChannelConfig, sc.Channels)
		for i := range inst.Channels {
			inst.Channels[i] = config.DefaultChannel()
		}
	}
	channels, sensors, err := inst.Build(nil)
	require.NoError(t, err)

	bus := eventbus.New[events.Event](64)
	defer bus.Close()
	sub := bus.Subscribe()

	d, err := dispatch.New(dispatch.Config{QueueSize: 16}, channels, sensors, dispatch.Deps{
		Trigger: &trigger.Machine{},
		Events:  events.NewBusLog(bus),
		Logger:  logger.NopLogger{},
	})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	h := app.NewCommandHandler(d)
	for i, step := range sc.Steps {
		sctx, scancel := context.WithTimeout(ctx, stepTimeout)
		err := h.HandleCommand(sctx, step.ToCommand(fmt.Sprintf("%s-%d", sc.Name, i)))
		scancel()
		if step.ExpectError != "" {
			assert.ErrorContains(t, err, step.ExpectError, "step %d (%s)", i, step.Op)
		} else {
			assert.NoError(t, err, "step %d (%s)", i, step.Op)
		}
	}

	var got []string
	for drained := false; !drained; {
		select {
		case ev := <-sub:
			got = append(got, ev.Name)
		default:
			drained = true
		}
	}
	assert.Equal(t, sc.Expected.Events, got, "events")

	want := sc.Expected.Coupling
	if want == "" {
		want = dispatch.CouplingNone.String()
	}
	assert.Equal(t, want, d.CouplingType().String(), "coupling")
	assert.Equal(t, sc.Expected.TrackingMask, d.TrackingMask(), "tracking mask")

	status := d.Status()
	for _, ce := range sc.Expected.Channels {
		require.Less(t, ce.Channel, len(status))
		st := status[ce.Channel]
		if ce.USet != nil {
			assert.InDelta(t, *ce.USet, st.USet, 1e-9, "channel %d u_set", ce.Channel)
		}
		if ce.ISet != nil {
			assert.InDelta(t, *ce.ISet, st.ISet, 1e-9, "channel %d i_set", ce.Channel)
		}
		if ce.OutputEnabled != nil {
			assert.Equal(t, *ce.OutputEnabled, st.OutputEnabled, "channel %d output", ce.Channel)
		}
		if ce.Mode != "" {
			assert.Equal(t, ce.Mode, st.Mode, "channel %d mode", ce.Channel)
		}
	}
}
