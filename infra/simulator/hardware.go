// Package simulator stands in for the PSU hardware: channel DACs, coupling
// relays, the operation status register and a resistive load per channel
// whose readings are fed back to the dispatcher.
package simulator

import (
	"sync"

	"github.com/kilianp07/benchpsu/core/dispatch"
)

// Output is the programmed state of one physical channel.
type Output struct {
	USet, ISet     float64
	Enabled        bool
	RemoteSense    bool
	RemoteProg     bool
	SetpointWrites int
}

// Hardware records every write of the engine. It implements channel.Driver,
// dispatch.IOExpander, dispatch.StatusRegister, dispatch.Pages and
// dispatch.Calibration.
type Hardware struct {
	mu          sync.RWMutex
	outputs     []Output
	relay       dispatch.CouplingType
	operBits    map[dispatch.OperGroup]bool
	mainPage    bool
	calibrating bool
}

func NewHardware(channels int) *Hardware {
	return &Hardware{
		outputs:  make([]Output, channels),
		operBits: make(map[dispatch.OperGroup]bool),
	}
}

func (h *Hardware) with(index int, fn func(o *Output)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index >= 0 && index < len(h.outputs) {
		fn(&h.outputs[index])
	}
}

func (h *Hardware) ApplySetpoints(index int, u, i float64) {
	h.with(index, func(o *Output) {
		o.USet, o.ISet = u, i
		o.SetpointWrites++
	})
}

func (h *Hardware) ApplyOutput(index int, enable bool) {
	h.with(index, func(o *Output) { o.Enabled = enable })
}

func (h *Hardware) ApplyRemoteSensing(index int, enable bool) {
	h.with(index, func(o *Output) { o.RemoteSense = enable })
}

func (h *Hardware) ApplyRemoteProgramming(index int, enable bool) {
	h.with(index, func(o *Output) { o.RemoteProg = enable })
}

// Output returns the programmed state of a physical channel.
func (h *Hardware) Output(index int) Output {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if index < 0 || index >= len(h.outputs) {
		return Output{}
	}
	return h.outputs[index]
}

func (h *Hardware) SwitchChannelCoupling(t dispatch.CouplingType) {
	h.mu.Lock()
	h.relay = t
	h.mu.Unlock()
}

// Relay is the last coupling switched on the relays.
func (h *Hardware) Relay() dispatch.CouplingType {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.relay
}

func (h *Hardware) SetOperBits(g dispatch.OperGroup, on bool) {
	h.mu.Lock()
	h.operBits[g] = on
	h.mu.Unlock()
}

func (h *Hardware) OperBit(g dispatch.OperGroup) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.operBits[g]
}

func (h *Hardware) IsMainPageActive() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mainPage
}

// SetMainPageActive simulates the front panel switching pages.
func (h *Hardware) SetMainPageActive(active bool) {
	h.mu.Lock()
	h.mainPage = active
	h.mu.Unlock()
}

func (h *Hardware) IsEnabled() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.calibrating
}

// SetCalibrating starts or ends a simulated calibration session.
func (h *Hardware) SetCalibrating(on bool) {
	h.mu.Lock()
	h.calibrating = on
	h.mu.Unlock()
}
