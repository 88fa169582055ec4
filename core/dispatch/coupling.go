package dispatch

import (
	"fmt"

	"github.com/kilianp07/benchpsu/core/channel"
	"github.com/kilianp07/benchpsu/core/events"
)

// IsCouplingTypeAllowed checks that the hardware can take the coupling. It
// does not mutate anything.
func (e *Engine) IsCouplingTypeAllowed(t CouplingType) error {
	chs := e.topo.channels
	switch t {
	case CouplingNone:
		return nil
	case CouplingCommonGnd:
		healthy := 0
		for _, ch := range chs {
			if ch.IsOk() && ch.SubchannelIndex == 0 {
				healthy++
			}
		}
		if healthy < 2 {
			return fmt.Errorf("coupling %s: %w", t, ErrHardwareError)
		}
		return nil
	case CouplingParallel, CouplingSeries, CouplingSplitRails:
		if len(chs) < 2 {
			return fmt.Errorf("coupling %s: %w", t, ErrHardwareMissing)
		}
		for _, ch := range chs[:2] {
			if !ch.IsOk() || !ch.SupportsCoupling() {
				return fmt.Errorf("coupling %s on channel %d: %w", t, ch.Index, ErrHardwareError)
			}
		}
		return nil
	default:
		return fmt.Errorf("dispatch: unknown coupling type %d", int(t))
	}
}

var couplingEvents = map[CouplingType]events.Kind{
	CouplingNone:       events.KindChannelsUncoupled,
	CouplingParallel:   events.KindCoupledInParallel,
	CouplingSeries:     events.KindCoupledInSeries,
	CouplingCommonGnd:  events.KindCoupledInCommonGnd,
	CouplingSplitRails: events.KindCoupledInSplitRails,
}

// applyCouplingType runs the relay transition. It reports false when the
// coupling was already in place. The caller owns the settle delay.
func (e *Engine) applyCouplingType(t CouplingType) bool {
	if t == e.topo.coupling || len(e.topo.channels) < 2 {
		return false
	}
	prev := e.topo.coupling
	e.deps.Trigger.Abort()
	e.topo.coupling = t
	e.DisableOutputForAllChannels()

	pair := e.topo.channels[:2]
	minU := max(pair[0].U.Min, pair[1].U.Min)
	minI := max(pair[0].I.Min, pair[1].I.Min)
	limU := min(pair[0].GetVoltageLimit(), pair[1].GetVoltageLimit())
	limI := min(pair[0].GetCurrentLimit(), pair[1].GetCurrentLimit())

	for i, ch := range pair {
		ch.RemoteSensingEnable(false)
		ch.RemoteProgrammingEnable(false)
		ch.SetVoltageTriggerMode(channel.TriggerModeFixed)
		ch.SetCurrentTriggerMode(channel.TriggerModeFixed)
		ch.SetTriggerOutputState(true)
		ch.SetTriggerOnListStop(channel.TriggerOnListStopOutputOff)
		e.deps.Lists.ResetChannelList(ch.Index)

		ch.SetVoltage(minU)
		ch.SetVoltageLimit(limU)
		ch.SetCurrent(minI)
		ch.SetCurrentLimit(limI)
		ch.U.TriggerLevel = minU
		ch.I.TriggerLevel = minI

		if i == 1 && t != CouplingNone {
			ch.Flags.DisplayValue1 = pair[0].Flags.DisplayValue1
			ch.Flags.DisplayValue2 = pair[0].Flags.DisplayValue2
			ch.YTViewRate = pair[0].YTViewRate
			ch.U.RampDuration = pair[0].U.RampDuration
		}

		ch.SetCurrentRangeSelectionMode(channel.CurrentRangeSelectionUseBoth)
		ch.EnableAutoSelectCurrentRange(false)
		ch.Flags.TrackingEnabled = false
		ch.ResetHistory()
	}
	e.harmonizeProtection(pair)

	if (t == CouplingParallel || t == CouplingSeries) && e.deps.Settings.MaxChannelIndex() == 1 {
		e.deps.Settings.SetMaxChannelIndex(0)
	}

	e.deps.IOExpander.SwitchChannelCoupling(t)
	e.deps.Events.PushEvent(couplingEvents[t])
	e.deps.Status.SetOperBits(OperGroupParallel, t == CouplingParallel)
	e.deps.Status.SetOperBits(OperGroupSerial, t == CouplingSeries)
	e.deps.Status.SetOperBits(OperGroupCommonGnd, t == CouplingCommonGnd)
	e.deps.Status.SetOperBits(OperGroupSplitRails, t == CouplingSplitRails)
	e.log.Infof("coupling changed from %s to %s", prev, t)
	return true
}

// IsTrackingAllowed checks whether ch may join the tracked group.
func (e *Engine) IsTrackingAllowed(ch *channel.Channel) error {
	if !ch.IsOk() {
		return fmt.Errorf("tracking channel %d: %w", ch.Index, ErrHardwareError)
	}
	if len(e.topo.channels) < 2 {
		return fmt.Errorf("tracking channel %d: %w", ch.Index, ErrHardwareMissing)
	}
	if e.topo.IsCoupled(ch) {
		return fmt.Errorf("tracking channel %d: %w", ch.Index, ErrChannelsCoupled)
	}
	return nil
}

// applyTrackingChannels sets the tracked group to the channels of mask. When
// a channel joins, the whole group is harmonized to its common safe range.
func (e *Engine) applyTrackingChannels(mask uint32) {
	joined := false
	for _, ch := range e.topo.channels {
		want := mask&(1<<uint(ch.Index)) != 0
		if want && !ch.Flags.TrackingEnabled {
			joined = true
		}
		ch.Flags.TrackingEnabled = want
	}
	if !joined {
		return
	}

	tracked := e.topo.Tracked()
	e.deps.Events.PushEvent(events.KindChannelsTracked)
	e.deps.Trigger.Abort()

	p := Plan{Self: tracked[0], Members: tracked, Mode: ModeTracking}
	minU, minI := p.Lower(uMin), p.Lower(iMin)
	limU, limI := p.Upper(uLimit), p.Upper(iLimit)
	defU, defI := p.Upper(uDef), p.Upper(iDef)
	e.harmonizeProtection(tracked)
	e.DisableOutputForAllTrackingChannels()

	for _, ch := range tracked {
		ch.RemoteSensingEnable(false)
		ch.RemoteProgrammingEnable(false)
		ch.SetVoltageTriggerMode(channel.TriggerModeFixed)
		ch.SetCurrentTriggerMode(channel.TriggerModeFixed)
		e.deps.Lists.ResetChannelList(ch.Index)

		ch.SetTriggerOutputState(true)
		ch.SetTriggerOnListStop(channel.TriggerOnListStopOutputOff)

		// every member starts from the group minimum
		ch.SetVoltage(minU)
		ch.SetVoltageLimit(max(limU, minU))
		ch.SetCurrent(minI)
		ch.SetCurrentLimit(max(limI, minI))
		ch.U.TriggerLevel = defU
		ch.I.TriggerLevel = defI

		ch.U.RampDuration = channel.RampDurationDefault
		ch.I.RampDuration = channel.RampDurationDefault
		ch.ResetHistory()
	}
	e.log.Infof("tracking channels mask=%#x", mask)
}
