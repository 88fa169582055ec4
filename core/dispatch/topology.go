package dispatch

import (
	"fmt"
	"strings"

	"github.com/kilianp07/benchpsu/core/channel"
	"github.com/kilianp07/benchpsu/core/temperature"
)

// CouplingType is the electrical configuration of channels 0 and 1.
type CouplingType int

const (
	CouplingNone CouplingType = iota
	CouplingParallel
	CouplingSeries
	CouplingCommonGnd
	CouplingSplitRails
)

var couplingNames = map[CouplingType]string{
	CouplingNone:       "none",
	CouplingParallel:   "parallel",
	CouplingSeries:     "series",
	CouplingCommonGnd:  "common_gnd",
	CouplingSplitRails: "split_rails",
}

func (t CouplingType) String() string {
	if s, ok := couplingNames[t]; ok {
		return s
	}
	return fmt.Sprintf("coupling(%d)", int(t))
}

// ParseCouplingType accepts the names returned by String, case insensitive.
func ParseCouplingType(s string) (CouplingType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range couplingNames {
		if name == s {
			return t, nil
		}
	}
	return CouplingNone, fmt.Errorf("dispatch: unknown coupling type %q", s)
}

// TopologyState is the single source of truth for the coupling type and the
// channel and sensor tables. Only the coupling controller changes it.
type TopologyState struct {
	coupling CouplingType
	channels []*channel.Channel
	sensors  []*temperature.Sensor
}

func newTopology(channels []*channel.Channel, sensors []*temperature.Sensor) *TopologyState {
	return &TopologyState{channels: channels, sensors: sensors}
}

func (t *TopologyState) Coupling() CouplingType { return t.coupling }

// Channels returns the channel table. The slice must not be modified.
func (t *TopologyState) Channels() []*channel.Channel { return t.channels }

func (t *TopologyState) Channel(index int) (*channel.Channel, bool) {
	if index < 0 || index >= len(t.channels) {
		return nil, false
	}
	return t.channels[index], true
}

func (t *TopologyState) Sensor(index int) (*temperature.Sensor, bool) {
	if index < 0 || index >= len(t.sensors) {
		return nil, false
	}
	return t.sensors[index], true
}

// channelSensor returns the OTP zone of a channel, nil when it has none.
func (t *TopologyState) channelSensor(ch *channel.Channel) *temperature.Sensor {
	s, _ := t.Sensor(temperature.ChannelSensor(ch.Index))
	return s
}

// IsCoupled reports whether the channel is one of the electrically joined
// pair under series or parallel.
func (t *TopologyState) IsCoupled(ch *channel.Channel) bool {
	return ch.Index < 2 && len(t.channels) >= 2 &&
		(t.coupling == CouplingSeries || t.coupling == CouplingParallel)
}

// Tracked returns the channels with tracking enabled, in index order.
func (t *TopologyState) Tracked() []*channel.Channel {
	var out []*channel.Channel
	for _, ch := range t.channels {
		if ch.Flags.TrackingEnabled {
			out = append(out, ch)
		}
	}
	return out
}

// TrackingMask returns the tracked channels as a bit mask.
func (t *TopologyState) TrackingMask() uint32 {
	var mask uint32
	for _, ch := range t.channels {
		if ch.Flags.TrackingEnabled {
			mask |= 1 << uint(ch.Index)
		}
	}
	return mask
}
