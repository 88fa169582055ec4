package dispatch

import (
	"github.com/kilianp07/benchpsu/core/channel"
)

// abortIfRunning stops a trigger sequence that would fight the new value.
func (e *Engine) abortIfRunning(p Plan) {
	if e.deps.Trigger.IsIdle() {
		return
	}
	if p.Any(func(c *channel.Channel) bool {
		return c.Flags.VoltageTriggerMode != channel.TriggerModeFixed ||
			c.Flags.CurrentTriggerMode != channel.TriggerModeFixed
	}) {
		e.log.Debugf("aborting trigger sequence before changing channel %d", p.Self.Index)
		e.deps.Trigger.Abort()
	}
}

func (e *Engine) SetVoltage(ch *channel.Channel, v float64) {
	p := e.resolve(ch, QuantityVoltage)
	e.abortIfRunning(p)
	v = p.Split(channel.UnitVolt, v)
	p.Each(func(c *channel.Channel) { c.SetVoltage(v) })
}

func (e *Engine) SetVoltageStep(ch *channel.Channel, step float64) {
	p := e.resolve(ch, QuantityOther)
	step = p.Split(channel.UnitVolt, step)
	p.Each(func(c *channel.Channel) { c.U.Step = step })
}

func (e *Engine) SetVoltageLimit(ch *channel.Channel, limit float64) {
	p := e.resolve(ch, QuantityVoltage)
	limit = p.Split(channel.UnitVolt, limit)
	p.Each(func(c *channel.Channel) { c.SetVoltageLimit(limit) })
}

func (e *Engine) SetCurrent(ch *channel.Channel, i float64) {
	p := e.resolve(ch, QuantityCurrent)
	e.abortIfRunning(p)
	i = p.Split(channel.UnitAmper, i)
	p.Each(func(c *channel.Channel) { c.SetCurrent(i) })
}

func (e *Engine) SetCurrentStep(ch *channel.Channel, step float64) {
	p := e.resolve(ch, QuantityOther)
	step = p.Split(channel.UnitAmper, step)
	p.Each(func(c *channel.Channel) { c.I.Step = step })
}

func (e *Engine) SetCurrentLimit(ch *channel.Channel, limit float64) {
	p := e.resolve(ch, QuantityCurrent)
	limit = p.Split(channel.UnitAmper, limit)
	p.Each(func(c *channel.Channel) { c.SetCurrentLimit(limit) })
}

// SetPowerLimit writes the limit and pulls the OPP level down to it.
func (e *Engine) SetPowerLimit(ch *channel.Channel, limit float64) {
	p := e.resolve(ch, QuantityPower)
	v := p.Split(channel.UnitWatt, limit)
	p.Each(func(c *channel.Channel) { c.SetPowerLimit(v) })
	if e.OppLevel(ch) > e.PowerLimit(ch) {
		e.SetOppLevel(ch, e.PowerLimit(ch))
	}
}

func roundDuration(d float64) float64 {
	return channel.RoundPrec(d, channel.RampDurationPrecision)
}

func (e *Engine) SetVoltageRampDuration(ch *channel.Channel, d float64) {
	d = roundDuration(d)
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { c.U.RampDuration = d })
}

func (e *Engine) SetCurrentRampDuration(ch *channel.Channel, d float64) {
	d = roundDuration(d)
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { c.I.RampDuration = d })
}

func (e *Engine) SetOutputDelayDuration(ch *channel.Channel, d float64) {
	d = roundDuration(d)
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { c.OutputDelayDuration = d })
}

// SetTriggerVoltage stores the logical level; it is not split because the
// trigger subsystem applies it through SetVoltage.
func (e *Engine) SetTriggerVoltage(ch *channel.Channel, v float64) {
	p := e.resolve(ch, QuantityOther)
	v = p.Round(channel.UnitVolt, v)
	p.Each(func(c *channel.Channel) { c.U.TriggerLevel = v })
}

func (e *Engine) SetTriggerCurrent(ch *channel.Channel, i float64) {
	p := e.resolve(ch, QuantityOther)
	i = p.Round(channel.UnitAmper, i)
	p.Each(func(c *channel.Channel) { c.I.TriggerLevel = i })
}

func (e *Engine) SetVoltageTriggerMode(ch *channel.Channel, m channel.TriggerMode) {
	p := e.resolve(ch, QuantityOther)
	e.abortIfRunning(p)
	p.Each(func(c *channel.Channel) { c.SetVoltageTriggerMode(m) })
}

func (e *Engine) SetCurrentTriggerMode(ch *channel.Channel, m channel.TriggerMode) {
	p := e.resolve(ch, QuantityOther)
	e.abortIfRunning(p)
	p.Each(func(c *channel.Channel) { c.SetCurrentTriggerMode(m) })
}

func (e *Engine) SetTriggerOutputState(ch *channel.Channel, on bool) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { c.SetTriggerOutputState(on) })
}

func (e *Engine) SetTriggerOnListStop(ch *channel.Channel, v channel.TriggerOnListStop) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { c.SetTriggerOnListStop(v) })
}

func (e *Engine) SetDwellList(ch *channel.Channel, values []float64) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { e.deps.Lists.SetDwellList(c.Index, values) })
}

func (e *Engine) SetVoltageList(ch *channel.Channel, values []float64) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { e.deps.Lists.SetVoltageList(c.Index, values) })
}

func (e *Engine) SetCurrentList(ch *channel.Channel, values []float64) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { e.deps.Lists.SetCurrentList(c.Index, values) })
}

func (e *Engine) SetListCount(ch *channel.Channel, count int) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { e.deps.Lists.SetListCount(c.Index, count) })
}

// coupledOnly widens the plan to the pair when coupled and otherwise narrows
// it to the channel itself. Current range settings are not tracked.
func (e *Engine) coupledOnly(ch *channel.Channel) Plan {
	p := e.resolve(ch, QuantityOther)
	if p.Mode == ModeTracking {
		return Plan{Self: ch, Members: []*channel.Channel{ch}, Mode: ModeSingle}
	}
	return p
}

func (e *Engine) SetCurrentRangeSelectionMode(ch *channel.Channel, m channel.CurrentRangeSelectionMode) {
	e.coupledOnly(ch).Each(func(c *channel.Channel) { c.SetCurrentRangeSelectionMode(m) })
}

func (e *Engine) EnableAutoSelectCurrentRange(ch *channel.Channel, enable bool) {
	e.coupledOnly(ch).Each(func(c *channel.Channel) { c.EnableAutoSelectCurrentRange(enable) })
}

func (e *Engine) SetDprogState(ch *channel.Channel, s channel.DprogState) {
	e.coupledOnly(ch).Each(func(c *channel.Channel) { c.SetDprogState(s) })
}

func (e *Engine) RemoteSensingEnable(ch *channel.Channel, enable bool) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) { c.RemoteSensingEnable(enable) })
}

// RemoteProgrammingEnable only touches the channel itself; coupled and tracked
// channels are rejected before reaching the engine.
func (e *Engine) RemoteProgrammingEnable(ch *channel.Channel, enable bool) {
	ch.RemoteProgrammingEnable(enable)
}

// DisplayViewSettings is the tile configuration of a channel.
type DisplayViewSettings struct {
	DisplayValue1 channel.DisplayValue
	DisplayValue2 channel.DisplayValue
	YTViewRate    float64
}

// SetDisplayViewSettings applies the settings to the group. A new YT rate
// invalidates every recorded history.
func (e *Engine) SetDisplayViewSettings(ch *channel.Channel, s DisplayViewSettings) {
	rateChanged := false
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) {
		c.Flags.DisplayValue1 = s.DisplayValue1
		c.Flags.DisplayValue2 = s.DisplayValue2
		if c.YTViewRate != s.YTViewRate {
			c.YTViewRate = s.YTViewRate
			rateChanged = true
		}
	})
	if rateChanged {
		for _, c := range e.topo.channels {
			c.ResetHistory()
		}
	}
}
