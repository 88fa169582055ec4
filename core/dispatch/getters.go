package dispatch

import (
	"github.com/kilianp07/benchpsu/core/channel"
)

const (
	// ovpHeadroom is the margin above UMax allowed for the OVP level.
	ovpHeadroom = 0.5
)

func uSet(ch *channel.Channel) float64        { return ch.U.Set }
func uMon(ch *channel.Channel) float64        { return ch.U.Mon }
func uMonLast(ch *channel.Channel) float64    { return ch.U.MonLast }
func uMonDac(ch *channel.Channel) float64     { return ch.U.MonDac }
func uMonDacLast(ch *channel.Channel) float64 { return ch.U.MonDacLast }
func uLimit(ch *channel.Channel) float64      { return ch.GetVoltageLimit() }
func uMaxLimit(ch *channel.Channel) float64   { return ch.GetVoltageMaxLimit() }
func uMin(ch *channel.Channel) float64        { return ch.U.Min }
func uMax(ch *channel.Channel) float64        { return ch.U.Max }
func uDef(ch *channel.Channel) float64        { return ch.U.Def }
func uLevel(ch *channel.Channel) float64      { return ch.ProtConf.ULevel }
func iSet(ch *channel.Channel) float64        { return ch.I.Set }
func iMon(ch *channel.Channel) float64        { return ch.I.Mon }
func iMonLast(ch *channel.Channel) float64    { return ch.I.MonLast }
func iMonDac(ch *channel.Channel) float64     { return ch.I.MonDac }
func iMonDacLast(ch *channel.Channel) float64 { return ch.I.MonDacLast }
func iLimit(ch *channel.Channel) float64      { return ch.GetCurrentLimit() }
func iMaxLimit(ch *channel.Channel) float64   { return ch.GetMaxCurrentLimit() }
func iMin(ch *channel.Channel) float64        { return ch.I.Min }
func iMax(ch *channel.Channel) float64        { return ch.I.Max }
func iDef(ch *channel.Channel) float64        { return ch.I.Def }
func pLimit(ch *channel.Channel) float64      { return ch.GetPowerLimit() }
func pTotal(ch *channel.Channel) float64      { return ch.Params.PTotal }
func pLevel(ch *channel.Channel) float64      { return ch.ProtConf.PLevel }
func oppMin(ch *channel.Channel) float64      { return ch.Params.OPPMinLevel }
func oppDef(ch *channel.Channel) float64      { return ch.Params.OPPDefaultLevel }

func (e *Engine) USet(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Value(uSet)
}

// USetUnbalanced returns the set point as requested by the user, before any
// balancing of the pair.
func (e *Engine) USetUnbalanced(ch *channel.Channel) float64 {
	p := e.resolve(ch, QuantityVoltage)
	return p.Value(func(c *channel.Channel) float64 { return c.GetUSetUnbalanced() })
}

func (e *Engine) UMon(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Value(uMon)
}

func (e *Engine) UMonLast(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Value(uMonLast)
}

func (e *Engine) UMonDac(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Value(uMonDac)
}

func (e *Engine) UMonDacLast(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Value(uMonDacLast)
}

func (e *Engine) ULimit(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Upper(uLimit)
}

func (e *Engine) UMaxLimit(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Upper(uMaxLimit)
}

func (e *Engine) UMin(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Lower(uMin)
}

func (e *Engine) UDef(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Value(uDef)
}

func (e *Engine) UMax(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Upper(uMax)
}

// UMaxOvpLimit is the highest OVP level the user may program. Remote
// programming adds headroom above UMax.
func (e *Engine) UMaxOvpLimit(ch *channel.Channel) float64 {
	if ch.IsRemoteProgrammingEnabled() {
		return e.UMax(ch) + ovpHeadroom
	}
	return e.UMax(ch)
}

func (e *Engine) UMaxOvpLevel(ch *channel.Channel) float64 {
	return e.UMax(ch) + ovpHeadroom
}

func (e *Engine) UProtectionLevel(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityVoltage).Value(uLevel)
}

func (e *Engine) ISet(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Value(iSet)
}

func (e *Engine) ISetUnbalanced(ch *channel.Channel) float64 {
	p := e.resolve(ch, QuantityCurrent)
	return p.Value(func(c *channel.Channel) float64 { return c.GetISetUnbalanced() })
}

func (e *Engine) IMon(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Value(iMon)
}

func (e *Engine) IMonLast(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Value(iMonLast)
}

func (e *Engine) IMonDac(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Value(iMonDac)
}

func (e *Engine) IMonDacLast(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Value(iMonDacLast)
}

func (e *Engine) ILimit(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Upper(iLimit)
}

func (e *Engine) IMaxLimit(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Upper(iMaxLimit)
}

func (e *Engine) IMin(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Lower(iMin)
}

func (e *Engine) IDef(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Value(iDef)
}

func (e *Engine) IMax(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityCurrent).Upper(iMax)
}

func (e *Engine) PowerLimit(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityPower).Upper(pLimit)
}

func (e *Engine) PowerMinLimit(*channel.Channel) float64 { return 0 }

func (e *Engine) PowerMaxLimit(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityPower).Upper(pTotal)
}

func (e *Engine) PowerDefaultLimit(ch *channel.Channel) float64 {
	return e.PowerMaxLimit(ch)
}

func (e *Engine) PowerProtectionLevel(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityPower).Value(pLevel)
}

// OppLevel is an alias of PowerProtectionLevel kept for the protocol layer.
func (e *Engine) OppLevel(ch *channel.Channel) float64 {
	return e.PowerProtectionLevel(ch)
}

func (e *Engine) OppMinLevel(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityPower).Lower(oppMin)
}

func (e *Engine) OppMaxLevel(ch *channel.Channel) float64 {
	return e.PowerLimit(ch)
}

func (e *Engine) OppDefaultLevel(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityPower).Value(oppDef)
}

func (e *Engine) TriggerVoltage(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityOther).Lead().U.TriggerLevel
}

func (e *Engine) TriggerCurrent(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityOther).Lead().I.TriggerLevel
}

func (e *Engine) VoltageTriggerMode(ch *channel.Channel) channel.TriggerMode {
	return e.resolve(ch, QuantityOther).Lead().GetVoltageTriggerMode()
}

func (e *Engine) CurrentTriggerMode(ch *channel.Channel) channel.TriggerMode {
	return e.resolve(ch, QuantityOther).Lead().GetCurrentTriggerMode()
}

func (e *Engine) TriggerOutputState(ch *channel.Channel) bool {
	return e.resolve(ch, QuantityOther).Lead().GetTriggerOutputState()
}

func (e *Engine) TriggerOnListStop(ch *channel.Channel) channel.TriggerOnListStop {
	return e.resolve(ch, QuantityOther).Lead().GetTriggerOnListStop()
}

func (e *Engine) VoltageRampDuration(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityOther).Lead().U.RampDuration
}

func (e *Engine) CurrentRampDuration(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityOther).Lead().I.RampDuration
}

func (e *Engine) OutputDelayDuration(ch *channel.Channel) float64 {
	return e.resolve(ch, QuantityOther).Lead().OutputDelayDuration
}

func (e *Engine) DwellList(ch *channel.Channel) []float64 {
	return e.deps.Lists.DwellList(e.resolve(ch, QuantityOther).Lead().Index)
}

func (e *Engine) VoltageList(ch *channel.Channel) []float64 {
	return e.deps.Lists.VoltageList(e.resolve(ch, QuantityOther).Lead().Index)
}

func (e *Engine) CurrentList(ch *channel.Channel) []float64 {
	return e.deps.Lists.CurrentList(e.resolve(ch, QuantityOther).Lead().Index)
}

func (e *Engine) ListCount(ch *channel.Channel) int {
	return e.deps.Lists.ListCount(e.resolve(ch, QuantityOther).Lead().Index)
}
