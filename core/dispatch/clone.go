package dispatch

import (
	"fmt"

	"github.com/kilianp07/benchpsu/core/channel"
)

// cloneSource is a settled copy of everything a clone writes, taken while
// the source is validated.
type cloneSource struct {
	src       channel.Channel
	uLimit    float64
	iLimit    float64
	pLimit    float64
	dwell     []float64
	voltage   []float64
	current   []float64
	listCount int
}

// remoteProgrammingBlocked reports why ch cannot use remote programming when
// asked directly. Any coupling of channels 0 and 1 forbids it.
func (e *Engine) remoteProgrammingBlocked(ch *channel.Channel) error {
	if ch.Index < 2 && e.topo.coupling != CouplingNone && len(e.topo.channels) >= 2 {
		return fmt.Errorf("remote programming on channel %d: %w", ch.Index, ErrChannelsCoupled)
	}
	if ch.Flags.TrackingEnabled {
		return fmt.Errorf("remote programming on channel %d: %w", ch.Index, ErrInTrackingMode)
	}
	return nil
}

// cloneRemoteProgrammingBlocked is the clone variant: only a series or
// parallel pair refuses a remotely programmed source.
func (e *Engine) cloneRemoteProgrammingBlocked(dst *channel.Channel) bool {
	return e.topo.IsCoupled(dst) || dst.Flags.TrackingEnabled
}

// prepareClone validates a copy of src onto dst without touching either.
func (e *Engine) prepareClone(src, dst *channel.Channel) (*cloneSource, error) {
	uMaxLimit, iMaxLimit := e.UMaxLimit(dst), e.IMaxLimit(dst)
	cs := &cloneSource{
		src:    *src,
		uLimit: min(src.GetVoltageLimit(), uMaxLimit),
		iLimit: min(src.GetCurrentLimit(), iMaxLimit),
		pLimit: min(src.GetPowerLimit(), e.PowerMaxLimit(dst)),
	}
	if src.U.Set > cs.uLimit {
		return nil, &OverflowError{Kind: OverflowVoltage}
	}
	if src.I.Set > cs.iLimit {
		return nil, &OverflowError{Kind: OverflowCurrent}
	}
	if src.U.Set*src.I.Set > cs.pLimit {
		return nil, &OverflowError{Kind: OverflowPower}
	}
	if src.IsRemoteProgrammingEnabled() && e.cloneRemoteProgrammingBlocked(dst) {
		return nil, &OverflowError{Kind: OverflowRemoteProgramming}
	}

	lists := e.deps.Lists
	cs.dwell = lists.DwellList(src.Index)
	cs.voltage = lists.VoltageList(src.Index)
	cs.current = lists.CurrentList(src.Index)
	cs.listCount = lists.ListCount(src.Index)

	for _, v := range cs.voltage {
		if v > uMaxLimit {
			return nil, &OverflowError{Kind: OverflowVoltageList}
		}
	}
	for _, v := range cs.current {
		if v > iMaxLimit {
			return nil, &OverflowError{Kind: OverflowCurrentList}
		}
	}
	return cs, nil
}

// CopyChannelToChannel validates and applies a clone in one step.
func (e *Engine) CopyChannelToChannel(src, dst *channel.Channel) error {
	cs, err := e.prepareClone(src, dst)
	if err != nil {
		return err
	}
	e.applyClone(cs, dst)
	return nil
}

// applyClone writes the snapshot through the regular setters so dst keeps
// obeying its coupling and tracking group.
func (e *Engine) applyClone(cs *cloneSource, dst *channel.Channel) {
	src := &cs.src
	e.OutputEnable(dst, false)

	e.SetVoltage(dst, src.U.Set)
	e.SetVoltageStep(dst, src.U.Step)
	e.SetVoltageLimit(dst, cs.uLimit)
	e.SetCurrent(dst, src.I.Set)
	e.SetCurrentStep(dst, src.I.Step)
	e.SetCurrentLimit(dst, cs.iLimit)
	e.SetPowerLimit(dst, cs.pLimit)

	e.SetOvpParameters(dst, OvpParameters{
		State:    src.ProtConf.UState,
		Hardware: src.ProtConf.UType,
		Level:    src.ProtConf.ULevel,
		Delay:    src.ProtConf.UDelay,
	})
	e.SetOcpParameters(dst, src.ProtConf.IState, src.ProtConf.IDelay)
	e.SetOppParameters(dst, OppParameters{
		State: src.ProtConf.PState,
		Level: src.ProtConf.PLevel,
		Delay: src.ProtConf.PDelay,
	})

	e.RemoteSensingEnable(dst, src.IsRemoteSensingEnabled())
	if dst.SupportsRemoteProgramming() {
		e.RemoteProgrammingEnable(dst, src.IsRemoteProgrammingEnabled())
	}

	settings := DisplayViewSettings{
		DisplayValue1: src.Flags.DisplayValue1,
		DisplayValue2: src.Flags.DisplayValue2,
		YTViewRate:    src.YTViewRate,
	}
	if settings.DisplayValue1 == channel.DisplayValueNone {
		settings.DisplayValue1 = channel.DisplayValueVoltage
	}
	if settings.DisplayValue2 == channel.DisplayValueNone {
		settings.DisplayValue2 = channel.DisplayValueCurrent
	}
	if settings.YTViewRate == 0 {
		settings.YTViewRate = channel.DefaultYTViewRate
	}
	e.SetDisplayViewSettings(dst, settings)

	e.SetVoltageTriggerMode(dst, src.GetVoltageTriggerMode())
	e.SetCurrentTriggerMode(dst, src.GetCurrentTriggerMode())
	e.SetTriggerOutputState(dst, src.GetTriggerOutputState())
	e.SetTriggerOnListStop(dst, src.GetTriggerOnListStop())
	e.SetTriggerVoltage(dst, src.U.TriggerLevel)
	e.SetTriggerCurrent(dst, src.I.TriggerLevel)
	e.SetVoltageRampDuration(dst, src.U.RampDuration)
	e.SetCurrentRampDuration(dst, src.I.RampDuration)
	e.SetOutputDelayDuration(dst, src.OutputDelayDuration)
	e.SetListCount(dst, cs.listCount)

	e.SetCurrentRangeSelectionMode(dst, src.Flags.CurrentRangeSelectionMode)
	e.EnableAutoSelectCurrentRange(dst, src.Flags.AutoSelectCurrentRange)
	e.SetDprogState(dst, src.Flags.DprogState)

	e.SetDwellList(dst, cs.dwell)
	e.SetVoltageList(dst, cs.voltage)
	e.SetCurrentList(dst, cs.current)
	e.log.Debugf("channel %d cloned onto channel %d", src.Index, dst.Index)
}
