package dispatch

import (
	"context"
	"fmt"

	"github.com/kilianp07/benchpsu/core/channel"
)

// Getters take the read lock. They must not be called from a Do callback,
// which should use the Engine it receives instead.

func (d *Dispatcher) USet(ch int) float64           { return read(d, ch, (*Engine).USet) }
func (d *Dispatcher) USetUnbalanced(ch int) float64 { return read(d, ch, (*Engine).USetUnbalanced) }
func (d *Dispatcher) UMon(ch int) float64           { return read(d, ch, (*Engine).UMon) }
func (d *Dispatcher) UMonLast(ch int) float64       { return read(d, ch, (*Engine).UMonLast) }
func (d *Dispatcher) UMonDac(ch int) float64        { return read(d, ch, (*Engine).UMonDac) }
func (d *Dispatcher) UMonDacLast(ch int) float64    { return read(d, ch, (*Engine).UMonDacLast) }
func (d *Dispatcher) ULimit(ch int) float64         { return read(d, ch, (*Engine).ULimit) }
func (d *Dispatcher) UMaxLimit(ch int) float64      { return read(d, ch, (*Engine).UMaxLimit) }
func (d *Dispatcher) UMin(ch int) float64           { return read(d, ch, (*Engine).UMin) }
func (d *Dispatcher) UDef(ch int) float64           { return read(d, ch, (*Engine).UDef) }
func (d *Dispatcher) UMax(ch int) float64           { return read(d, ch, (*Engine).UMax) }
func (d *Dispatcher) UMaxOvpLimit(ch int) float64   { return read(d, ch, (*Engine).UMaxOvpLimit) }
func (d *Dispatcher) UMaxOvpLevel(ch int) float64   { return read(d, ch, (*Engine).UMaxOvpLevel) }
func (d *Dispatcher) UProtectionLevel(ch int) float64 {
	return read(d, ch, (*Engine).UProtectionLevel)
}

func (d *Dispatcher) ISet(ch int) float64           { return read(d, ch, (*Engine).ISet) }
func (d *Dispatcher) ISetUnbalanced(ch int) float64 { return read(d, ch, (*Engine).ISetUnbalanced) }
func (d *Dispatcher) IMon(ch int) float64           { return read(d, ch, (*Engine).IMon) }
func (d *Dispatcher) IMonLast(ch int) float64       { return read(d, ch, (*Engine).IMonLast) }
func (d *Dispatcher) IMonDac(ch int) float64        { return read(d, ch, (*Engine).IMonDac) }
func (d *Dispatcher) IMonDacLast(ch int) float64    { return read(d, ch, (*Engine).IMonDacLast) }
func (d *Dispatcher) ILimit(ch int) float64         { return read(d, ch, (*Engine).ILimit) }
func (d *Dispatcher) IMaxLimit(ch int) float64      { return read(d, ch, (*Engine).IMaxLimit) }
func (d *Dispatcher) IMin(ch int) float64           { return read(d, ch, (*Engine).IMin) }
func (d *Dispatcher) IDef(ch int) float64           { return read(d, ch, (*Engine).IDef) }
func (d *Dispatcher) IMax(ch int) float64           { return read(d, ch, (*Engine).IMax) }

func (d *Dispatcher) PowerLimit(ch int) float64    { return read(d, ch, (*Engine).PowerLimit) }
func (d *Dispatcher) PowerMinLimit(ch int) float64 { return read(d, ch, (*Engine).PowerMinLimit) }
func (d *Dispatcher) PowerMaxLimit(ch int) float64 { return read(d, ch, (*Engine).PowerMaxLimit) }
func (d *Dispatcher) PowerDefaultLimit(ch int) float64 {
	return read(d, ch, (*Engine).PowerDefaultLimit)
}
func (d *Dispatcher) PowerProtectionLevel(ch int) float64 {
	return read(d, ch, (*Engine).PowerProtectionLevel)
}
func (d *Dispatcher) OppLevel(ch int) float64        { return read(d, ch, (*Engine).OppLevel) }
func (d *Dispatcher) OppMinLevel(ch int) float64     { return read(d, ch, (*Engine).OppMinLevel) }
func (d *Dispatcher) OppMaxLevel(ch int) float64     { return read(d, ch, (*Engine).OppMaxLevel) }
func (d *Dispatcher) OppDefaultLevel(ch int) float64 { return read(d, ch, (*Engine).OppDefaultLevel) }

func (d *Dispatcher) TriggerVoltage(ch int) float64 { return read(d, ch, (*Engine).TriggerVoltage) }
func (d *Dispatcher) TriggerCurrent(ch int) float64 { return read(d, ch, (*Engine).TriggerCurrent) }
func (d *Dispatcher) VoltageTriggerMode(ch int) channel.TriggerMode {
	return read(d, ch, (*Engine).VoltageTriggerMode)
}
func (d *Dispatcher) CurrentTriggerMode(ch int) channel.TriggerMode {
	return read(d, ch, (*Engine).CurrentTriggerMode)
}
func (d *Dispatcher) TriggerOutputState(ch int) bool {
	return read(d, ch, (*Engine).TriggerOutputState)
}
func (d *Dispatcher) TriggerOnListStop(ch int) channel.TriggerOnListStop {
	return read(d, ch, (*Engine).TriggerOnListStop)
}
func (d *Dispatcher) VoltageRampDuration(ch int) float64 {
	return read(d, ch, (*Engine).VoltageRampDuration)
}
func (d *Dispatcher) CurrentRampDuration(ch int) float64 {
	return read(d, ch, (*Engine).CurrentRampDuration)
}
func (d *Dispatcher) OutputDelayDuration(ch int) float64 {
	return read(d, ch, (*Engine).OutputDelayDuration)
}
func (d *Dispatcher) DwellList(ch int) []float64   { return read(d, ch, (*Engine).DwellList) }
func (d *Dispatcher) VoltageList(ch int) []float64 { return read(d, ch, (*Engine).VoltageList) }
func (d *Dispatcher) CurrentList(ch int) []float64 { return read(d, ch, (*Engine).CurrentList) }
func (d *Dispatcher) ListCount(ch int) int         { return read(d, ch, (*Engine).ListCount) }

func (d *Dispatcher) IsTripped(ch int) bool    { return read(d, ch, (*Engine).IsTripped) }
func (d *Dispatcher) IsOvpTripped(ch int) bool { return read(d, ch, (*Engine).IsOvpTripped) }
func (d *Dispatcher) IsOcpTripped(ch int) bool { return read(d, ch, (*Engine).IsOcpTripped) }
func (d *Dispatcher) IsOppTripped(ch int) bool { return read(d, ch, (*Engine).IsOppTripped) }
func (d *Dispatcher) IsOtpTripped(ch int) bool { return read(d, ch, (*Engine).IsOtpTripped) }
func (d *Dispatcher) IsEditEnabled(ch int) bool {
	return read(d, ch, (*Engine).IsEditEnabled)
}

func (d *Dispatcher) IsOutputEnabled(ch int) bool {
	return read(d, ch, func(_ *Engine, c *channel.Channel) bool { return c.IsOutputEnabled() })
}

func (d *Dispatcher) CouplingType() CouplingType {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine.CouplingType()
}

// TrackingMask returns the tracked channels as a bit mask.
func (d *Dispatcher) TrackingMask() uint32 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine.topo.TrackingMask()
}

// Setters. Each one validates its guard against settled state, then hands
// the operation to the owner task.

func (d *Dispatcher) SetVoltage(ctx context.Context, ch int, v float64) error {
	return d.set(ctx, opSetVoltage, ch, v)
}

func (d *Dispatcher) SetVoltageStep(ctx context.Context, ch int, step float64) error {
	return d.set(ctx, opSetVoltageStep, ch, step)
}

func (d *Dispatcher) SetVoltageLimit(ctx context.Context, ch int, limit float64) error {
	return d.set(ctx, opSetVoltageLimit, ch, limit)
}

func (d *Dispatcher) SetCurrent(ctx context.Context, ch int, i float64) error {
	return d.set(ctx, opSetCurrent, ch, i)
}

func (d *Dispatcher) SetCurrentStep(ctx context.Context, ch int, step float64) error {
	return d.set(ctx, opSetCurrentStep, ch, step)
}

func (d *Dispatcher) SetCurrentLimit(ctx context.Context, ch int, limit float64) error {
	return d.set(ctx, opSetCurrentLimit, ch, limit)
}

func (d *Dispatcher) SetPowerLimit(ctx context.Context, ch int, limit float64) error {
	return d.set(ctx, opSetPowerLimit, ch, limit)
}

func (d *Dispatcher) SetVoltageRampDuration(ctx context.Context, ch int, seconds float64) error {
	return d.set(ctx, opSetVoltageRampDuration, ch, seconds)
}

func (d *Dispatcher) SetCurrentRampDuration(ctx context.Context, ch int, seconds float64) error {
	return d.set(ctx, opSetCurrentRampDuration, ch, seconds)
}

func (d *Dispatcher) SetOutputDelayDuration(ctx context.Context, ch int, seconds float64) error {
	return d.set(ctx, opSetOutputDelayDuration, ch, seconds)
}

func (d *Dispatcher) SetTriggerVoltage(ctx context.Context, ch int, v float64) error {
	return d.set(ctx, opSetTriggerVoltage, ch, v)
}

func (d *Dispatcher) SetTriggerCurrent(ctx context.Context, ch int, i float64) error {
	return d.set(ctx, opSetTriggerCurrent, ch, i)
}

func (d *Dispatcher) SetVoltageTriggerMode(ctx context.Context, ch int, m channel.TriggerMode) error {
	return d.set(ctx, opSetVoltageTriggerMode, ch, m)
}

func (d *Dispatcher) SetCurrentTriggerMode(ctx context.Context, ch int, m channel.TriggerMode) error {
	return d.set(ctx, opSetCurrentTriggerMode, ch, m)
}

func (d *Dispatcher) SetTriggerOutputState(ctx context.Context, ch int, on bool) error {
	return d.set(ctx, opSetTriggerOutputState, ch, on)
}

func (d *Dispatcher) SetTriggerOnListStop(ctx context.Context, ch int, v channel.TriggerOnListStop) error {
	return d.set(ctx, opSetTriggerOnListStop, ch, v)
}

func (d *Dispatcher) SetDwellList(ctx context.Context, ch int, values []float64) error {
	return d.set(ctx, opSetDwellList, ch, append([]float64(nil), values...))
}

func (d *Dispatcher) SetVoltageList(ctx context.Context, ch int, values []float64) error {
	return d.set(ctx, opSetVoltageList, ch, append([]float64(nil), values...))
}

func (d *Dispatcher) SetCurrentList(ctx context.Context, ch int, values []float64) error {
	return d.set(ctx, opSetCurrentList, ch, append([]float64(nil), values...))
}

func (d *Dispatcher) SetListCount(ctx context.Context, ch int, count int) error {
	return d.set(ctx, opSetListCount, ch, count)
}

func (d *Dispatcher) SetCurrentRangeSelectionMode(ctx context.Context, ch int, m channel.CurrentRangeSelectionMode) error {
	return d.set(ctx, opSetCurrentRangeSelectionMode, ch, m)
}

func (d *Dispatcher) EnableAutoSelectCurrentRange(ctx context.Context, ch int, enable bool) error {
	return d.set(ctx, opEnableAutoSelectCurrentRange, ch, enable)
}

func (d *Dispatcher) SetDprogState(ctx context.Context, ch int, s channel.DprogState) error {
	return d.set(ctx, opSetDprogState, ch, s)
}

// RemoteSensingEnable is rejected on the series pair, whose sense lines are
// wired internally.
func (d *Dispatcher) RemoteSensingEnable(ctx context.Context, ch int, enable bool) error {
	if err := d.checkChannel(ch); err != nil {
		return err
	}
	err := d.view(ctx, func(e *Engine) error {
		c := e.topo.channels[ch]
		if ch < 2 && e.CouplingType() == CouplingSeries {
			return fmt.Errorf("remote sensing on channel %d: %w", ch, ErrChannelsCoupled)
		}
		if enable && !c.SupportsRemoteSensing() {
			return fmt.Errorf("remote sensing on channel %d: %w", ch, ErrHardwareMissing)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return d.submit(ctx, opRemoteSensingEnable, ch, enable)
}

func (d *Dispatcher) RemoteProgrammingEnable(ctx context.Context, ch int, enable bool) error {
	if err := d.checkChannel(ch); err != nil {
		return err
	}
	err := d.view(ctx, func(e *Engine) error {
		c := e.topo.channels[ch]
		if !enable {
			return nil
		}
		if err := e.remoteProgrammingBlocked(c); err != nil {
			return err
		}
		if !c.SupportsRemoteProgramming() {
			return fmt.Errorf("remote programming on channel %d: %w", ch, ErrHardwareMissing)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return d.submit(ctx, opRemoteProgrammingEnable, ch, enable)
}

func (d *Dispatcher) SetDisplayViewSettings(ctx context.Context, ch int, s DisplayViewSettings) error {
	return d.set(ctx, opSetDisplayViewSettings, ch, s)
}

func (d *Dispatcher) SetOvpParameters(ctx context.Context, ch int, p OvpParameters) error {
	return d.set(ctx, opSetOvpParameters, ch, p)
}

func (d *Dispatcher) SetOvpState(ctx context.Context, ch int, state bool) error {
	return d.set(ctx, opSetOvpState, ch, state)
}

func (d *Dispatcher) SetOvpType(ctx context.Context, ch int, hardware bool) error {
	return d.set(ctx, opSetOvpType, ch, hardware)
}

func (d *Dispatcher) SetOvpLevel(ctx context.Context, ch int, level float64) error {
	return d.set(ctx, opSetOvpLevel, ch, level)
}

func (d *Dispatcher) SetOvpDelay(ctx context.Context, ch int, delay float64) error {
	return d.set(ctx, opSetOvpDelay, ch, delay)
}

func (d *Dispatcher) SetOcpParameters(ctx context.Context, ch int, state bool, delay float64) error {
	return d.set(ctx, opSetOcpParameters, ch, ocpParameters{State: state, Delay: delay})
}

func (d *Dispatcher) SetOcpState(ctx context.Context, ch int, state bool) error {
	return d.set(ctx, opSetOcpState, ch, state)
}

func (d *Dispatcher) SetOcpDelay(ctx context.Context, ch int, delay float64) error {
	return d.set(ctx, opSetOcpDelay, ch, delay)
}

func (d *Dispatcher) SetOppParameters(ctx context.Context, ch int, p OppParameters) error {
	return d.set(ctx, opSetOppParameters, ch, p)
}

func (d *Dispatcher) SetOppState(ctx context.Context, ch int, state bool) error {
	return d.set(ctx, opSetOppState, ch, state)
}

func (d *Dispatcher) SetOppLevel(ctx context.Context, ch int, level float64) error {
	return d.set(ctx, opSetOppLevel, ch, level)
}

func (d *Dispatcher) SetOppDelay(ctx context.Context, ch int, delay float64) error {
	return d.set(ctx, opSetOppDelay, ch, delay)
}

// SetOtpParameters configures the OTP sensor of channel ch.
func (d *Dispatcher) SetOtpParameters(ctx context.Context, ch int, state bool, level, delay float64) error {
	return d.set(ctx, opSetOtpParameters, ch, otpParameters{State: state, Level: level, Delay: delay})
}

func (d *Dispatcher) SetOtpState(ctx context.Context, sensor int, state bool) error {
	if err := d.checkSensor(sensor); err != nil {
		return err
	}
	return d.submit(ctx, opSetOtpState, sensor, state)
}

func (d *Dispatcher) SetOtpLevel(ctx context.Context, sensor int, level float64) error {
	if err := d.checkSensor(sensor); err != nil {
		return err
	}
	return d.submit(ctx, opSetOtpLevel, sensor, level)
}

func (d *Dispatcher) SetOtpDelay(ctx context.Context, sensor int, delay float64) error {
	if err := d.checkSensor(sensor); err != nil {
		return err
	}
	return d.submit(ctx, opSetOtpDelay, sensor, delay)
}

func (d *Dispatcher) ClearOtpProtection(ctx context.Context, sensor int) error {
	if err := d.checkSensor(sensor); err != nil {
		return err
	}
	return d.submit(ctx, opClearOtpProtection, sensor, struct{}{})
}

func (d *Dispatcher) ClearProtection(ctx context.Context, ch int) error {
	return d.set(ctx, opClearProtection, ch, struct{}{})
}

func (d *Dispatcher) DisableProtection(ctx context.Context, ch int) error {
	return d.set(ctx, opDisableProtection, ch, struct{}{})
}

// UpdateMonitor hands a new acquisition of channel ch to the owner task.
func (d *Dispatcher) UpdateMonitor(ctx context.Context, ch int, r MonitorReading) error {
	return d.set(ctx, opUpdateMonitor, ch, r)
}

// IsCouplingTypeAllowed checks the hardware against coupling t.
func (d *Dispatcher) IsCouplingTypeAllowed(t CouplingType) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine.IsCouplingTypeAllowed(t)
}

// SetCouplingType validates and schedules a coupling change. Requesting the
// current coupling is a no-op.
func (d *Dispatcher) SetCouplingType(ctx context.Context, t CouplingType) error {
	err := d.view(ctx, func(e *Engine) error {
		if t == e.CouplingType() {
			return errNoop
		}
		return e.IsCouplingTypeAllowed(t)
	})
	if err == errNoop {
		return nil
	}
	if err != nil {
		return err
	}
	return d.submit(ctx, opSetCouplingType, -1, t)
}

func (d *Dispatcher) IsTrackingAllowed(ch int) error {
	if err := d.checkChannel(ch); err != nil {
		return err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.engine.IsTrackingAllowed(d.engine.topo.channels[ch])
}

// SetTrackingChannels makes the channels of mask the tracked group. Every
// channel of the mask must pass IsTrackingAllowed.
func (d *Dispatcher) SetTrackingChannels(ctx context.Context, mask uint32) error {
	n := d.ChannelCount()
	if n < 32 && mask>>uint(n) != 0 {
		return fmt.Errorf("tracking mask %#x: %w", mask, ErrInvalidChannel)
	}
	err := d.view(ctx, func(e *Engine) error {
		for _, ch := range e.topo.channels {
			if mask&(1<<uint(ch.Index)) == 0 {
				continue
			}
			if err := e.IsTrackingAllowed(ch); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return d.submit(ctx, opSetTrackingChannels, -1, mask)
}

// OutputEnableOnNextSync stages an output change for the group of ch.
func (d *Dispatcher) OutputEnableOnNextSync(ctx context.Context, ch int, enable bool) error {
	return d.set(ctx, opOutputEnableOnNextSync, ch, enable)
}

// SyncOutputEnable applies every staged output change at once.
func (d *Dispatcher) SyncOutputEnable(ctx context.Context) error {
	return d.submit(ctx, opSyncOutputEnable, -1, struct{}{})
}

// OutputEnable switches the output of ch and of its group. It runs the same
// guards as OutputEnableMask.
func (d *Dispatcher) OutputEnable(ctx context.Context, ch int, enable bool) error {
	if err := d.checkChannel(ch); err != nil {
		return err
	}
	return d.OutputEnableMask(ctx, 1<<uint(ch), enable)
}

// OutputEnableMask validates every channel of mask. When a trigger sequence
// holds one of them, the sequence is aborted and nothing else happens;
// otherwise the whole mask switches in one sync.
func (d *Dispatcher) OutputEnableMask(ctx context.Context, mask uint32, enable bool) error {
	var abort bool
	err := d.view(ctx, func(e *Engine) error {
		var err error
		abort, err = e.TestOutputEnableMask(mask, enable)
		return err
	})
	if err != nil {
		return err
	}
	if abort {
		d.engine.deps.Trigger.Abort()
		return nil
	}
	// one staging slot per mask, so masks queued back to back do not overwrite
	// each other
	return d.submit(ctx, opOutputEnableMask, int(mask), maskRequest{Mask: mask, Enable: enable})
}

func (d *Dispatcher) DisableOutputForAllChannels(ctx context.Context) error {
	return d.submit(ctx, opDisableOutputForAllChannels, -1, struct{}{})
}

// CopyChannelToChannel clones src onto dst. Validation runs on the caller
// against a consistent snapshot and leaves dst untouched on failure; the
// returned error is then an *OverflowError.
func (d *Dispatcher) CopyChannelToChannel(ctx context.Context, src, dst int) error {
	if err := d.checkChannel(src); err != nil {
		return err
	}
	if err := d.checkChannel(dst); err != nil {
		return err
	}
	if src == dst {
		return nil
	}
	var cs *cloneSource
	err := d.view(ctx, func(e *Engine) error {
		var err error
		cs, err = e.prepareClone(e.topo.channels[src], e.topo.channels[dst])
		return err
	})
	if err != nil {
		return err
	}
	return d.submit(ctx, opClone, dst, cs)
}
