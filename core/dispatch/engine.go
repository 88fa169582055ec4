package dispatch

import (
	"github.com/kilianp07/benchpsu/core/channel"
	"github.com/kilianp07/benchpsu/core/logger"
	"github.com/kilianp07/benchpsu/core/temperature"
)

// Engine applies logical channel operations to the physical channels. It is
// not safe for concurrent use; Dispatcher serializes every call onto the
// owner task.
type Engine struct {
	topo *TopologyState
	deps Deps
	log  logger.Logger
}

// NewEngine builds an engine over the channel and sensor tables. When sensors
// is nil the AUX sensor plus one sensor per channel are created.
func NewEngine(channels []*channel.Channel, sensors []*temperature.Sensor, deps Deps) *Engine {
	if sensors == nil {
		sensors = temperature.NewSensors(len(channels), 0, 0)
	}
	deps = deps.withDefaults()
	return &Engine{
		topo: newTopology(channels, sensors),
		deps: deps,
		log:  deps.Logger,
	}
}

// Topology exposes the coupling and channel tables.
func (e *Engine) Topology() *TopologyState { return e.topo }

func (e *Engine) resolve(ch *channel.Channel, q Quantity) Plan {
	return e.topo.Resolve(ch, q)
}

func (e *Engine) CouplingType() CouplingType { return e.topo.coupling }

// IsEditEnabled reports whether the front panel may edit the channel set
// values.
func (e *Engine) IsEditEnabled(ch *channel.Channel) bool {
	if ch.Flags.VoltageTriggerMode != channel.TriggerModeFixed ||
		ch.Flags.CurrentTriggerMode != channel.TriggerModeFixed {
		return !e.deps.Pages.IsMainPageActive()
	}
	return true
}

// UpdateMonitor stores a new acquisition and appends it to the YT history.
func (e *Engine) UpdateMonitor(ch *channel.Channel, r MonitorReading) {
	ch.UpdateMonitor(r.U, r.I, r.UDac, r.IDac)
	ch.RecordSample(channel.Sample{U: r.U, I: r.I})
}
