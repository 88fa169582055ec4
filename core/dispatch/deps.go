package dispatch

import (
	"github.com/kilianp07/benchpsu/core/events"
	"github.com/kilianp07/benchpsu/core/list"
	"github.com/kilianp07/benchpsu/core/logger"
	"github.com/kilianp07/benchpsu/core/monitoring"
	"github.com/kilianp07/benchpsu/core/trigger"
)

// IOExpander drives the coupling relays.
type IOExpander interface {
	SwitchChannelCoupling(t CouplingType)
}

// Calibration reports whether a calibration session is running.
type Calibration interface {
	IsEnabled() bool
}

// Settings persists instrument wide user settings.
type Settings interface {
	MaxChannelIndex() int
	SetMaxChannelIndex(index int)
}

// OperGroup is a bit of the operation status register.
type OperGroup int

const (
	OperGroupParallel OperGroup = iota
	OperGroupSerial
	OperGroupCommonGnd
	OperGroupSplitRails
)

func (g OperGroup) String() string {
	switch g {
	case OperGroupParallel:
		return "parallel"
	case OperGroupSerial:
		return "serial"
	case OperGroupCommonGnd:
		return "common_gnd"
	case OperGroupSplitRails:
		return "split_rails"
	default:
		return "unknown"
	}
}

// StatusRegister is the SCPI operation status register.
type StatusRegister interface {
	SetOperBits(group OperGroup, on bool)
}

// Pages reports the state of the front panel.
type Pages interface {
	IsMainPageActive() bool
}

// Deps groups the collaborators of the engine. Nil fields are replaced by
// no-op implementations.
type Deps struct {
	Lists       list.Store
	Trigger     trigger.Trigger
	Events      events.Log
	IOExpander  IOExpander
	Calibration Calibration
	Settings    Settings
	Status      StatusRegister
	Pages       Pages
	Logger      logger.Logger
	Monitor     monitoring.Monitor
}

type nopIOExpander struct{}

func (nopIOExpander) SwitchChannelCoupling(CouplingType) {}

type nopCalibration struct{}

func (nopCalibration) IsEnabled() bool { return false }

// MemorySettings keeps settings in memory.
type MemorySettings struct{ maxChannelIndex int }

func (s *MemorySettings) MaxChannelIndex() int         { return s.maxChannelIndex }
func (s *MemorySettings) SetMaxChannelIndex(index int) { s.maxChannelIndex = index }

type nopStatus struct{}

func (nopStatus) SetOperBits(OperGroup, bool) {}

type nopPages struct{}

func (nopPages) IsMainPageActive() bool { return false }

type idleTrigger struct{}

func (idleTrigger) Abort()            {}
func (idleTrigger) IsIdle() bool      { return true }
func (idleTrigger) IsInitiated() bool { return false }

func (d Deps) withDefaults() Deps {
	if d.Lists == nil {
		d.Lists = list.NewMemoryStore()
	}
	if d.Trigger == nil {
		d.Trigger = idleTrigger{}
	}
	if d.Events == nil {
		d.Events = events.NopLog{}
	}
	if d.IOExpander == nil {
		d.IOExpander = nopIOExpander{}
	}
	if d.Calibration == nil {
		d.Calibration = nopCalibration{}
	}
	if d.Settings == nil {
		d.Settings = &MemorySettings{}
	}
	if d.Status == nil {
		d.Status = nopStatus{}
	}
	if d.Pages == nil {
		d.Pages = nopPages{}
	}
	if d.Logger == nil {
		d.Logger = logger.NopLogger{}
	}
	if d.Monitor == nil {
		d.Monitor = monitoring.NopMonitor{}
	}
	return d
}
