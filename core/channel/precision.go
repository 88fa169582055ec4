package channel

import "math"

// Unit identifies the physical unit of a value.
type Unit int

const (
	UnitVolt Unit = iota
	UnitAmper
	UnitWatt
	UnitSecond
	UnitCelsius
)

func (u Unit) String() string {
	switch u {
	case UnitVolt:
		return "V"
	case UnitAmper:
		return "A"
	case UnitWatt:
		return "W"
	case UnitSecond:
		return "s"
	case UnitCelsius:
		return "C"
	default:
		return "?"
	}
}

const (
	// DelayPrecision is the rounding step of every protection delay.
	DelayPrecision = 0.001
	// TemperaturePrecision is the rounding step of OTP levels.
	TemperaturePrecision = 1.0
)

// RoundPrec rounds value to the nearest multiple of prec. A non positive
// precision leaves the value untouched.
func RoundPrec(value, prec float64) float64 {
	if prec <= 0 {
		return value
	}
	r := math.Round(value/prec) * prec
	// trim binary noise introduced by the multiplication
	digits := -math.Floor(math.Log10(prec))
	if digits > 0 {
		scale := math.Pow(10, digits+1)
		r = math.Round(r*scale) / scale
	}
	return r
}

// ValuePrecision returns the smallest distinguishable step of value in unit.
func (c *Channel) ValuePrecision(unit Unit, value float64) float64 {
	switch unit {
	case UnitVolt:
		return c.Params.VoltageResolution
	case UnitAmper:
		if c.Params.CurrentLowRangeResolution > 0 && math.Abs(value) <= c.Params.CurrentLowRangeMax &&
			c.Flags.CurrentRangeSelectionMode != CurrentRangeSelectionAlwaysHigh {
			return c.Params.CurrentLowRangeResolution
		}
		return c.Params.CurrentResolution
	case UnitWatt:
		return c.Params.PowerResolution
	case UnitSecond:
		return DelayPrecision
	case UnitCelsius:
		return TemperaturePrecision
	default:
		return 0
	}
}
