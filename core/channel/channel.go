package channel

// TriggerMode selects how a set value is applied when a trigger fires.
type TriggerMode int

const (
	TriggerModeFixed TriggerMode = iota
	TriggerModeList
	TriggerModeStep
)

// TriggerOnListStop defines what happens to the output when a list ends.
type TriggerOnListStop int

const (
	TriggerOnListStopOutputOff TriggerOnListStop = iota
	TriggerOnListStopSetToFirstStep
	TriggerOnListStopSetToLastStep
	TriggerOnListStopStandby
)

// CurrentRangeSelectionMode selects which current ranges a channel may use.
type CurrentRangeSelectionMode int

const (
	CurrentRangeSelectionUseBoth CurrentRangeSelectionMode = iota
	CurrentRangeSelectionAlwaysHigh
	CurrentRangeSelectionAlwaysLow
)

// DisplayValue selects a reading shown on the channel tile.
type DisplayValue int

const (
	DisplayValueNone DisplayValue = iota
	DisplayValueVoltage
	DisplayValueCurrent
	DisplayValuePower
)

// DprogState is the state of down-programming.
type DprogState int

const (
	DprogStateOff DprogState = iota
	DprogStateOn
	DprogStateAuto
)

const (
	// RampDurationDefault is applied when a channel joins a tracked group.
	RampDurationDefault = 0.0
	// RampDurationPrecision is the rounding step for ramp and output delay durations.
	RampDurationPrecision = 0.001
	// DefaultYTViewRate is the YT history sample period in seconds.
	DefaultYTViewRate = 0.1
	historyCapacity   = 480
)

// Value holds the registers of one electrical quantity.
type Value struct {
	Set          float64
	Mon          float64
	MonLast      float64
	MonDac       float64
	MonDacLast   float64
	Min          float64
	Max          float64
	Def          float64
	Limit        float64
	Step         float64
	TriggerLevel float64
	RampDuration float64
}

// Params are the fixed hardware characteristics of a channel.
type Params struct {
	UMin, UMax, UDef float64
	IMin, IMax, IDef float64
	PTotal           float64
	OPPMinLevel      float64
	OPPDefaultLevel  float64

	VoltageResolution         float64
	CurrentResolution         float64
	CurrentLowRangeResolution float64
	// CurrentLowRangeMax is the highest current served by the low range.
	CurrentLowRangeMax float64
	PowerResolution    float64

	Features Features
}

// ProtectionConfig holds the user configured protection thresholds.
type ProtectionConfig struct {
	UState bool
	// UType selects hardware OVP when true.
	UType  bool
	ULevel float64
	UDelay float64

	IState bool
	IDelay float64

	PState bool
	PLevel float64
	PDelay float64
}

// Protection is the runtime state of one protection.
type Protection struct {
	Tripped bool
}

// Flags are the per channel mode switches.
type Flags struct {
	TrackingEnabled           bool
	RprogEnabled              bool
	SenseEnabled              bool
	DisplayValue1             DisplayValue
	DisplayValue2             DisplayValue
	CurrentRangeSelectionMode CurrentRangeSelectionMode
	AutoSelectCurrentRange    bool
	VoltageTriggerMode        TriggerMode
	CurrentTriggerMode        TriggerMode
	TriggerOutputState        bool
	TriggerOnListStop         TriggerOnListStop
	DprogState                DprogState
}

// PendingOutputChange is an output enable request staged for the next sync.
type PendingOutputChange struct {
	Pending bool
	Enable  bool
}

// Sample is one YT history point.
type Sample struct {
	U float64
	I float64
}

// Driver is the hardware port of a channel. Implementations must not block.
type Driver interface {
	ApplySetpoints(index int, u, i float64)
	ApplyOutput(index int, enable bool)
	ApplyRemoteSensing(index int, enable bool)
	ApplyRemoteProgramming(index int, enable bool)
}

// NopDriver discards every hardware write.
type NopDriver struct{}

func (NopDriver) ApplySetpoints(int, float64, float64) {}
func (NopDriver) ApplyOutput(int, bool)                {}
func (NopDriver) ApplyRemoteSensing(int, bool)         {}
func (NopDriver) ApplyRemoteProgramming(int, bool)     {}

// Channel is a physical output. It is not safe for concurrent use; the
// dispatcher owns every Channel and serializes access to it.
type Channel struct {
	Index           int
	SubchannelIndex int
	Params          Params

	U      Value
	I      Value
	PLimit float64

	ProtConf ProtectionConfig
	OVP      Protection
	OCP      Protection
	OPP      Protection

	Flags               Flags
	YTViewRate          float64
	OutputDelayDuration float64

	pending       PendingOutputChange
	outputEnabled bool
	ok            bool
	driver        Driver
	history       []Sample
}

// New creates a healthy channel initialized to its hardware defaults.
func New(index int, params Params, driver Driver) *Channel {
	if driver == nil {
		driver = NopDriver{}
	}
	ch := &Channel{
		Index:      index,
		Params:     params,
		ok:         true,
		driver:     driver,
		YTViewRate: DefaultYTViewRate,
	}
	ch.U = Value{Min: params.UMin, Max: params.UMax, Def: params.UDef, Limit: params.UMax, Set: params.UDef, TriggerLevel: params.UDef}
	ch.I = Value{Min: params.IMin, Max: params.IMax, Def: params.IDef, Limit: params.IMax, Set: params.IDef, TriggerLevel: params.IDef}
	ch.PLimit = params.PTotal
	ch.ProtConf = ProtectionConfig{
		ULevel: params.UMax,
		PLevel: params.OPPDefaultLevel,
	}
	ch.Flags.DisplayValue1 = DisplayValueVoltage
	ch.Flags.DisplayValue2 = DisplayValueCurrent
	ch.Flags.TriggerOutputState = true
	return ch
}

// IsOk reports whether the channel passed its self test.
func (c *Channel) IsOk() bool { return c.ok }

// SetOk marks the channel healthy or failed.
func (c *Channel) SetOk(ok bool) { c.ok = ok }

func (c *Channel) IsOutputEnabled() bool { return c.outputEnabled }

// SetVoltage writes the voltage set point rounded to the channel precision.
func (c *Channel) SetVoltage(v float64) {
	c.U.Set = RoundPrec(v, c.ValuePrecision(UnitVolt, v))
	c.driver.ApplySetpoints(c.Index, c.U.Set, c.I.Set)
}

// SetCurrent writes the current set point rounded to the channel precision.
func (c *Channel) SetCurrent(i float64) {
	c.I.Set = RoundPrec(i, c.ValuePrecision(UnitAmper, i))
	c.driver.ApplySetpoints(c.Index, c.U.Set, c.I.Set)
}

func (c *Channel) GetVoltageLimit() float64 { return c.U.Limit }

// SetVoltageLimit stores the user ceiling and pulls the set point down to it.
func (c *Channel) SetVoltageLimit(limit float64) {
	c.U.Limit = RoundPrec(limit, c.ValuePrecision(UnitVolt, limit))
	if c.U.Set > c.U.Limit {
		c.SetVoltage(c.U.Limit)
	}
}

func (c *Channel) GetCurrentLimit() float64 { return c.I.Limit }

// SetCurrentLimit stores the user ceiling and pulls the set point down to it.
func (c *Channel) SetCurrentLimit(limit float64) {
	c.I.Limit = RoundPrec(limit, c.ValuePrecision(UnitAmper, limit))
	if c.I.Set > c.I.Limit {
		c.SetCurrent(c.I.Limit)
	}
}

func (c *Channel) GetPowerLimit() float64 { return c.PLimit }

func (c *Channel) SetPowerLimit(limit float64) {
	c.PLimit = RoundPrec(limit, c.Params.PowerResolution)
}

func (c *Channel) GetVoltageMaxLimit() float64   { return c.U.Max }
func (c *Channel) GetMaxCurrentLimit() float64   { return c.I.Max }
func (c *Channel) GetVoltageResolution() float64 { return c.Params.VoltageResolution }
func (c *Channel) GetPowerResolution() float64   { return c.Params.PowerResolution }

// GetUSetUnbalanced returns the set point before any series balancing.
func (c *Channel) GetUSetUnbalanced() float64 { return c.U.Set }

// GetISetUnbalanced returns the set point before any parallel balancing.
func (c *Channel) GetISetUnbalanced() float64 { return c.I.Set }

func (c *Channel) RemoteSensingEnable(enable bool) {
	if enable && !c.SupportsRemoteSensing() {
		return
	}
	c.Flags.SenseEnabled = enable
	c.driver.ApplyRemoteSensing(c.Index, enable)
}

func (c *Channel) IsRemoteSensingEnabled() bool { return c.Flags.SenseEnabled }

func (c *Channel) RemoteProgrammingEnable(enable bool) {
	if enable && !c.SupportsRemoteProgramming() {
		return
	}
	c.Flags.RprogEnabled = enable
	c.driver.ApplyRemoteProgramming(c.Index, enable)
}

func (c *Channel) IsRemoteProgrammingEnabled() bool { return c.Flags.RprogEnabled }

func (c *Channel) SetVoltageTriggerMode(m TriggerMode) { c.Flags.VoltageTriggerMode = m }
func (c *Channel) GetVoltageTriggerMode() TriggerMode  { return c.Flags.VoltageTriggerMode }
func (c *Channel) SetCurrentTriggerMode(m TriggerMode) { c.Flags.CurrentTriggerMode = m }
func (c *Channel) GetCurrentTriggerMode() TriggerMode  { return c.Flags.CurrentTriggerMode }
func (c *Channel) SetTriggerOutputState(on bool)       { c.Flags.TriggerOutputState = on }
func (c *Channel) GetTriggerOutputState() bool         { return c.Flags.TriggerOutputState }

func (c *Channel) SetTriggerOnListStop(v TriggerOnListStop) { c.Flags.TriggerOnListStop = v }
func (c *Channel) GetTriggerOnListStop() TriggerOnListStop  { return c.Flags.TriggerOnListStop }

func (c *Channel) SetCurrentRangeSelectionMode(m CurrentRangeSelectionMode) {
	c.Flags.CurrentRangeSelectionMode = m
}

func (c *Channel) EnableAutoSelectCurrentRange(enable bool) { c.Flags.AutoSelectCurrentRange = enable }

func (c *Channel) SetDprogState(s DprogState) { c.Flags.DprogState = s }

// IsTripped reports whether any of the channel protections tripped.
func (c *Channel) IsTripped() bool {
	return c.OVP.Tripped || c.OCP.Tripped || c.OPP.Tripped
}

// ClearProtection resets every trip flag.
func (c *Channel) ClearProtection() {
	c.OVP.Tripped = false
	c.OCP.Tripped = false
	c.OPP.Tripped = false
}

// DisableProtection switches off OVP, OCP and OPP.
func (c *Channel) DisableProtection() {
	c.ProtConf.UState = false
	c.ProtConf.IState = false
	c.ProtConf.PState = false
}

// Pending returns the output change staged for the next sync.
func (c *Channel) Pending() PendingOutputChange { return c.pending }

// StageOutputEnable records an output change applied by the next SyncOutput.
func (c *Channel) StageOutputEnable(enable bool) {
	c.pending = PendingOutputChange{Pending: true, Enable: enable}
}

// SyncOutput applies and clears the staged output change. It reports whether
// the relay state changed.
func (c *Channel) SyncOutput() bool {
	if !c.pending.Pending {
		return false
	}
	enable := c.pending.Enable
	c.pending = PendingOutputChange{}
	if enable == c.outputEnabled {
		return false
	}
	c.outputEnabled = enable
	c.driver.ApplyOutput(c.Index, enable)
	return true
}

// RecordSample appends a monitor reading to the YT history.
func (c *Channel) RecordSample(s Sample) {
	if len(c.history) >= historyCapacity {
		copy(c.history, c.history[1:])
		c.history = c.history[:historyCapacity-1]
	}
	c.history = append(c.history, s)
}

// History returns a copy of the YT history.
func (c *Channel) History() []Sample {
	return append([]Sample(nil), c.history...)
}

func (c *Channel) ResetHistory() { c.history = c.history[:0] }

// UpdateMonitor stores new ADC readings, keeping the previous ones as "last".
func (c *Channel) UpdateMonitor(u, i, uDac, iDac float64) {
	c.U.MonLast, c.I.MonLast = c.U.Mon, c.I.Mon
	c.U.MonDacLast, c.I.MonDacLast = c.U.MonDac, c.I.MonDac
	c.U.Mon, c.I.Mon = u, i
	c.U.MonDac, c.I.MonDac = uDac, iDac
}
