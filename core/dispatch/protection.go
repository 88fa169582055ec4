package dispatch

import (
	"github.com/kilianp07/benchpsu/core/channel"
	"github.com/kilianp07/benchpsu/core/temperature"
)

func roundDelay(d float64) float64 { return channel.RoundPrec(d, channel.DelayPrecision) }

// protectionLevel converts a logical OVP or OPP level into the value stored
// on every member.
func protectionLevel(p Plan, unit channel.Unit, level float64) float64 {
	switch p.Mode {
	case ModeCoupled:
		if p.Summed {
			level /= float64(len(p.Members))
		}
		return channel.RoundPrec(level, p.Members[0].ValuePrecision(unit, level))
	default:
		return p.Round(unit, level)
	}
}

// OvpParameters is a full OVP configuration.
type OvpParameters struct {
	State bool
	// Hardware selects the hardware comparator when the channel has one.
	Hardware bool
	Level    float64
	Delay    float64
}

func (e *Engine) SetOvpParameters(ch *channel.Channel, prm OvpParameters) {
	p := e.resolve(ch, QuantityVoltage)
	level := protectionLevel(p, channel.UnitVolt, prm.Level)
	delay := roundDelay(prm.Delay)
	p.Each(func(c *channel.Channel) {
		c.ProtConf.UState = prm.State
		if c.SupportsHardwareOVP() {
			c.ProtConf.UType = prm.Hardware
		}
		c.ProtConf.ULevel = level
		c.ProtConf.UDelay = delay
	})
}

func (e *Engine) SetOvpState(ch *channel.Channel, state bool) {
	e.resolve(ch, QuantityVoltage).Each(func(c *channel.Channel) { c.ProtConf.UState = state })
}

// SetOvpType only reaches members with a hardware OVP comparator.
func (e *Engine) SetOvpType(ch *channel.Channel, hardware bool) {
	e.resolve(ch, QuantityVoltage).Each(func(c *channel.Channel) {
		if c.SupportsHardwareOVP() {
			c.ProtConf.UType = hardware
		}
	})
}

func (e *Engine) SetOvpLevel(ch *channel.Channel, level float64) {
	p := e.resolve(ch, QuantityVoltage)
	level = protectionLevel(p, channel.UnitVolt, level)
	p.Each(func(c *channel.Channel) { c.ProtConf.ULevel = level })
}

func (e *Engine) SetOvpDelay(ch *channel.Channel, delay float64) {
	delay = roundDelay(delay)
	e.resolve(ch, QuantityVoltage).Each(func(c *channel.Channel) { c.ProtConf.UDelay = delay })
}

func (e *Engine) SetOcpParameters(ch *channel.Channel, state bool, delay float64) {
	delay = roundDelay(delay)
	e.resolve(ch, QuantityCurrent).Each(func(c *channel.Channel) {
		c.ProtConf.IState = state
		c.ProtConf.IDelay = delay
	})
}

func (e *Engine) SetOcpState(ch *channel.Channel, state bool) {
	e.resolve(ch, QuantityCurrent).Each(func(c *channel.Channel) { c.ProtConf.IState = state })
}

func (e *Engine) SetOcpDelay(ch *channel.Channel, delay float64) {
	delay = roundDelay(delay)
	e.resolve(ch, QuantityCurrent).Each(func(c *channel.Channel) { c.ProtConf.IDelay = delay })
}

// OppParameters is a full OPP configuration.
type OppParameters struct {
	State bool
	Level float64
	Delay float64
}

func (e *Engine) SetOppParameters(ch *channel.Channel, prm OppParameters) {
	p := e.resolve(ch, QuantityPower)
	level := protectionLevel(p, channel.UnitWatt, prm.Level)
	delay := roundDelay(prm.Delay)
	p.Each(func(c *channel.Channel) {
		c.ProtConf.PState = prm.State
		c.ProtConf.PLevel = level
		c.ProtConf.PDelay = delay
	})
}

func (e *Engine) SetOppState(ch *channel.Channel, state bool) {
	e.resolve(ch, QuantityPower).Each(func(c *channel.Channel) { c.ProtConf.PState = state })
}

func (e *Engine) SetOppLevel(ch *channel.Channel, level float64) {
	p := e.resolve(ch, QuantityPower)
	level = protectionLevel(p, channel.UnitWatt, level)
	p.Each(func(c *channel.Channel) { c.ProtConf.PLevel = level })
}

func (e *Engine) SetOppDelay(ch *channel.Channel, delay float64) {
	delay = roundDelay(delay)
	e.resolve(ch, QuantityPower).Each(func(c *channel.Channel) { c.ProtConf.PDelay = delay })
}

func (e *Engine) IsTripped(ch *channel.Channel) bool {
	return e.resolve(ch, QuantityOther).Any((*channel.Channel).IsTripped) || e.IsOtpTripped(ch)
}

func (e *Engine) IsOvpTripped(ch *channel.Channel) bool {
	return e.resolve(ch, QuantityOther).Any(func(c *channel.Channel) bool { return c.OVP.Tripped })
}

func (e *Engine) IsOcpTripped(ch *channel.Channel) bool {
	return e.resolve(ch, QuantityOther).Any(func(c *channel.Channel) bool { return c.OCP.Tripped })
}

func (e *Engine) IsOppTripped(ch *channel.Channel) bool {
	return e.resolve(ch, QuantityOther).Any(func(c *channel.Channel) bool { return c.OPP.Tripped })
}

func (e *Engine) IsOtpTripped(ch *channel.Channel) bool {
	return e.resolve(ch, QuantityOther).Any(func(c *channel.Channel) bool {
		s := e.topo.channelSensor(c)
		return s != nil && s.IsTripped()
	})
}

// ClearProtection clears channel and OTP trips on every group member.
func (e *Engine) ClearProtection(ch *channel.Channel) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) {
		c.ClearProtection()
		if s := e.topo.channelSensor(c); s != nil {
			s.ClearProtection()
		}
	})
}

func (e *Engine) DisableProtection(ch *channel.Channel) {
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) {
		c.DisableProtection()
		if s := e.topo.channelSensor(c); s != nil {
			s.ProtConf.State = false
		}
	})
}

// sensorGroup returns the sensors sharing the OTP configuration of sensor.
// Channel sensors follow the group of their channel; AUX stands alone.
func (e *Engine) sensorGroup(sensor int) []*temperature.Sensor {
	s, ok := e.topo.Sensor(sensor)
	if !ok {
		return nil
	}
	ch, ok := e.topo.Channel(sensor - temperature.SensorCH1)
	if sensor < temperature.SensorCH1 || !ok {
		return []*temperature.Sensor{s}
	}
	var out []*temperature.Sensor
	e.resolve(ch, QuantityOther).Each(func(c *channel.Channel) {
		if cs := e.topo.channelSensor(c); cs != nil {
			out = append(out, cs)
		}
	})
	return out
}

func roundTemperature(t float64) float64 {
	return channel.RoundPrec(t, channel.TemperaturePrecision)
}

// SetOtpParameters configures the OTP of the channel sensor and its group.
func (e *Engine) SetOtpParameters(ch *channel.Channel, state bool, level, delay float64) {
	level = roundTemperature(level)
	delay = roundDelay(delay)
	for _, s := range e.sensorGroup(temperature.ChannelSensor(ch.Index)) {
		s.ProtConf = temperature.ProtectionConfig{State: state, Level: level, Delay: delay}
	}
}

func (e *Engine) SetOtpState(sensor int, state bool) {
	for _, s := range e.sensorGroup(sensor) {
		s.ProtConf.State = state
	}
}

func (e *Engine) SetOtpLevel(sensor int, level float64) {
	level = roundTemperature(level)
	for _, s := range e.sensorGroup(sensor) {
		s.ProtConf.Level = level
	}
}

func (e *Engine) SetOtpDelay(sensor int, delay float64) {
	delay = roundDelay(delay)
	for _, s := range e.sensorGroup(sensor) {
		s.ProtConf.Delay = delay
	}
}

func (e *Engine) ClearOtpProtection(sensor int) {
	for _, s := range e.sensorGroup(sensor) {
		s.ClearProtection()
	}
}

// harmonizeProtection applies OR(state) and MIN(level, delay) of members to
// every member, OTP included.
func (e *Engine) harmonizeProtection(members []*channel.Channel) {
	if len(members) == 0 {
		return
	}
	var conf channel.ProtectionConfig
	var otp temperature.ProtectionConfig
	otpSeen := false
	for i, c := range members {
		pc := c.ProtConf
		if i == 0 {
			conf = pc
		} else {
			conf.UState = conf.UState || pc.UState
			conf.UType = conf.UType || pc.UType
			conf.ULevel = min(conf.ULevel, pc.ULevel)
			conf.UDelay = min(conf.UDelay, pc.UDelay)
			conf.IState = conf.IState || pc.IState
			conf.IDelay = min(conf.IDelay, pc.IDelay)
			conf.PState = conf.PState || pc.PState
			conf.PLevel = min(conf.PLevel, pc.PLevel)
			conf.PDelay = min(conf.PDelay, pc.PDelay)
		}
		if s := e.topo.channelSensor(c); s != nil {
			if !otpSeen {
				otp = s.ProtConf
				otpSeen = true
			} else {
				otp.State = otp.State || s.ProtConf.State
				otp.Level = min(otp.Level, s.ProtConf.Level)
				otp.Delay = min(otp.Delay, s.ProtConf.Delay)
			}
		}
	}
	for _, c := range members {
		uType := c.ProtConf.UType
		c.ProtConf = conf
		if c.SupportsHardwareOVP() {
			c.ProtConf.UType = conf.UType
		} else {
			c.ProtConf.UType = uType
		}
		if s := e.topo.channelSensor(c); s != nil && otpSeen {
			s.ProtConf = otp
		}
	}
}
