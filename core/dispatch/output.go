package dispatch

import (
	"fmt"

	"github.com/kilianp07/benchpsu/core/channel"
)

// OutputEnableOnNextSync stages the request on every group member. Nothing
// reaches the hardware before SyncOutputEnable.
func (e *Engine) OutputEnableOnNextSync(ch *channel.Channel, enable bool) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { c.StageOutputEnable(enable) })
}

// SyncOutputEnable applies every staged request in one sweep and returns the
// number of relays that changed state.
func (e *Engine) SyncOutputEnable() int {
	changed := 0
	for _, ch := range e.topo.channels {
		if ch.SyncOutput() {
			changed++
		}
	}
	return changed
}

func (e *Engine) OutputEnable(ch *channel.Channel, enable bool) {
	e.OutputEnableOnNextSync(ch, enable)
	e.SyncOutputEnable()
}

func (e *Engine) DisableOutputForAllChannels() {
	for _, ch := range e.topo.channels {
		if ch.IsOutputEnabled() {
			ch.StageOutputEnable(false)
		}
	}
	e.SyncOutputEnable()
}

func (e *Engine) DisableOutputForAllTrackingChannels() {
	for _, ch := range e.topo.channels {
		if ch.Flags.TrackingEnabled && ch.IsOutputEnabled() {
			ch.StageOutputEnable(false)
		}
	}
	e.SyncOutputEnable()
}

// TestOutputEnable validates an output change of ch. It reports whether the
// trigger sequence has to be aborted instead of applying the change.
func (e *Engine) TestOutputEnable(ch *channel.Channel, enable bool) (abort bool, err error) {
	if enable == ch.IsOutputEnabled() {
		return false, nil
	}
	triggered := e.VoltageTriggerMode(ch) != channel.TriggerModeFixed ||
		e.CurrentTriggerMode(ch) != channel.TriggerModeFixed
	trg := e.deps.Trigger

	if !enable {
		if e.deps.Calibration.IsEnabled() {
			return false, fmt.Errorf("channel %d: %w", ch.Index, ErrCalibrationOutputDisabled)
		}
		return triggered && !trg.IsIdle(), nil
	}

	if e.IsTripped(ch) {
		return false, fmt.Errorf("channel %d: %w", ch.Index, ErrProtectionTripped)
	}
	if triggered && !trg.IsIdle() {
		if trg.IsInitiated() {
			return true, nil
		}
		return false, fmt.Errorf("channel %d: %w", ch.Index, ErrTransientTriggerActive)
	}
	return false, nil
}

// TestOutputEnableMask validates every channel of mask. The first error wins.
func (e *Engine) TestOutputEnableMask(mask uint32, enable bool) (abort bool, err error) {
	for _, ch := range e.topo.channels {
		if mask&(1<<uint(ch.Index)) == 0 {
			continue
		}
		a, err := e.TestOutputEnable(ch, enable)
		if err != nil {
			return false, err
		}
		abort = abort || a
	}
	return abort, nil
}

// OutputEnableMask stages mask and syncs. Callers validate with
// TestOutputEnableMask first.
func (e *Engine) OutputEnableMask(mask uint32, enable bool) {
	for _, ch := range e.topo.channels {
		if mask&(1<<uint(ch.Index)) != 0 {
			e.OutputEnableOnNextSync(ch, enable)
		}
	}
	e.SyncOutputEnable()
}
