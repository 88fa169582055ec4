package dispatch

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/benchpsu/core/channel"
)

// Mode is the grouping a channel belongs to for one operation.
type Mode int

const (
	ModeSingle Mode = iota
	ModeCoupled
	ModeTracking
)

func (m Mode) String() string {
	switch m {
	case ModeCoupled:
		return "coupled"
	case ModeTracking:
		return "tracking"
	default:
		return "single"
	}
}

// Quantity selects the axis an operation works on. It decides whether a
// coupled pair sums its members.
type Quantity int

const (
	QuantityOther Quantity = iota
	QuantityVoltage
	QuantityCurrent
	QuantityPower
)

// Field reads one value from a channel.
type Field func(ch *channel.Channel) float64

// Plan tells a getter or setter which channels it touches and how their
// values combine.
type Plan struct {
	Self    *channel.Channel
	Members []*channel.Channel
	Mode    Mode
	// Summed is true when the logical value is the sum of the members, i.e.
	// voltage in series, current in parallel and power in both.
	Summed bool
}

// Resolve builds the plan of ch for quantity q. Coupling wins over tracking
// because a coupled channel can never be tracked.
func (t *TopologyState) Resolve(ch *channel.Channel, q Quantity) Plan {
	if t.IsCoupled(ch) {
		p := Plan{Self: ch, Members: []*channel.Channel{t.channels[0], t.channels[1]}, Mode: ModeCoupled}
		switch q {
		case QuantityVoltage:
			p.Summed = t.coupling == CouplingSeries
		case QuantityCurrent:
			p.Summed = t.coupling == CouplingParallel
		case QuantityPower:
			p.Summed = true
		}
		return p
	}
	if ch.Flags.TrackingEnabled {
		if tracked := t.Tracked(); len(tracked) > 0 {
			return Plan{Self: ch, Members: tracked, Mode: ModeTracking}
		}
	}
	return Plan{Self: ch, Members: []*channel.Channel{ch}, Mode: ModeSingle}
}

// Lead is the channel whose stored value represents the group.
func (p Plan) Lead() *channel.Channel {
	if p.Mode == ModeSingle {
		return p.Self
	}
	return p.Members[0]
}

func (p Plan) collect(f Field) []float64 {
	vals := make([]float64, len(p.Members))
	for i, ch := range p.Members {
		vals[i] = f(ch)
	}
	return vals
}

// Value reads a logical value: the sum when summed, otherwise the lead's.
func (p Plan) Value(f Field) float64 {
	if p.Summed {
		return floats.Sum(p.collect(f))
	}
	return f(p.Lead())
}

// Upper combines an upper bound: the smallest member bound, scaled by the
// member count when summed.
func (p Plan) Upper(f Field) float64 {
	v := floats.Min(p.collect(f))
	if p.Summed {
		v *= float64(len(p.Members))
	}
	return v
}

// Lower combines a lower bound: the largest member bound, scaled by the
// member count when summed.
func (p Plan) Lower(f Field) float64 {
	v := floats.Max(p.collect(f))
	if p.Summed {
		v *= float64(len(p.Members))
	}
	return v
}

// Any reports whether pred holds for at least one member.
func (p Plan) Any(pred func(ch *channel.Channel) bool) bool {
	for _, ch := range p.Members {
		if pred(ch) {
			return true
		}
	}
	return false
}

// Each calls fn for every member in index order.
func (p Plan) Each(fn func(ch *channel.Channel)) {
	for _, ch := range p.Members {
		fn(ch)
	}
}

// Precision returns the rounding step of value. A tracked group uses its
// coarsest member so every member can represent the result.
func (p Plan) Precision(unit channel.Unit, value float64) float64 {
	switch p.Mode {
	case ModeTracking:
		prec := 0.0
		for _, ch := range p.Members {
			if v := ch.ValuePrecision(unit, value); v > prec {
				prec = v
			}
		}
		return prec
	case ModeCoupled:
		return p.Members[0].ValuePrecision(unit, value)
	default:
		return p.Self.ValuePrecision(unit, value)
	}
}

func (p Plan) Round(unit channel.Unit, value float64) float64 {
	return channel.RoundPrec(value, p.Precision(unit, value))
}

// Split turns a logical value into the per member value written to the
// hardware. Summed values are divided evenly; uncoupled values are rounded
// up front and coupled ones are left to the channel.
func (p Plan) Split(unit channel.Unit, value float64) float64 {
	if p.Summed {
		return value / float64(len(p.Members))
	}
	if p.Mode == ModeCoupled {
		return value
	}
	return p.Round(unit, value)
}
