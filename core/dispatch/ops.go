package dispatch

import (
	"context"

	"github.com/kilianp07/benchpsu/core/channel"
)

type op uint8

const (
	opSetVoltage op = iota + 1
	opSetVoltageStep
	opSetVoltageLimit
	opSetCurrent
	opSetCurrentStep
	opSetCurrentLimit
	opSetPowerLimit
	opSetVoltageRampDuration
	opSetCurrentRampDuration
	opSetOutputDelayDuration
	opSetTriggerVoltage
	opSetTriggerCurrent
	opSetVoltageTriggerMode
	opSetCurrentTriggerMode
	opSetTriggerOutputState
	opSetTriggerOnListStop
	opSetDwellList
	opSetVoltageList
	opSetCurrentList
	opSetListCount
	opSetCurrentRangeSelectionMode
	opEnableAutoSelectCurrentRange
	opSetDprogState
	opRemoteSensingEnable
	opRemoteProgrammingEnable
	opSetDisplayViewSettings
	opSetOvpParameters
	opSetOvpState
	opSetOvpType
	opSetOvpLevel
	opSetOvpDelay
	opSetOcpParameters
	opSetOcpState
	opSetOcpDelay
	opSetOppParameters
	opSetOppState
	opSetOppLevel
	opSetOppDelay
	opSetOtpParameters
	opClearProtection
	opDisableProtection
	opOutputEnableOnNextSync
	opClone
	opUpdateMonitor
	opSetOtpState
	opSetOtpLevel
	opSetOtpDelay
	opClearOtpProtection
	opSetCouplingType
	opSetTrackingChannels
	opSyncOutputEnable
	opOutputEnableMask
	opDisableOutputForAllChannels
	opDo
)

// message is what travels through the owner queue. Arguments live in the
// staging slots; only opDo carries a payload.
type message struct {
	op     op
	target int
	fn     func(ctx context.Context, e *Engine)
}

// slotKey addresses a staging slot. A newer argument for the same operation
// and target overwrites an older one that has not been applied yet.
type slotKey struct {
	op     op
	target int
}

type opSpec struct {
	name  string
	apply func(e *Engine, target int, arg any)
}

func chanOp[T any](name string, f func(*Engine, *channel.Channel, T)) opSpec {
	return opSpec{name: name, apply: func(e *Engine, target int, arg any) {
		f(e, e.topo.channels[target], arg.(T))
	}}
}

func chanOp0(name string, f func(*Engine, *channel.Channel)) opSpec {
	return opSpec{name: name, apply: func(e *Engine, target int, _ any) {
		f(e, e.topo.channels[target])
	}}
}

func sensorOp[T any](name string, f func(*Engine, int, T)) opSpec {
	return opSpec{name: name, apply: func(e *Engine, target int, arg any) { f(e, target, arg.(T)) }}
}

func globalOp[T any](name string, f func(*Engine, T)) opSpec {
	return opSpec{name: name, apply: func(e *Engine, _ int, arg any) { f(e, arg.(T)) }}
}

type ocpParameters struct {
	State bool
	Delay float64
}

type otpParameters struct {
	State bool
	Level float64
	Delay float64
}

type maskRequest struct {
	Mask   uint32
	Enable bool
}

// MonitorReading is one ADC acquisition of a channel.
type MonitorReading struct {
	U, I       float64
	UDac, IDac float64
}

var ops = map[op]opSpec{
	opSetVoltage:                   chanOp("set_voltage", (*Engine).SetVoltage),
	opSetVoltageStep:               chanOp("set_voltage_step", (*Engine).SetVoltageStep),
	opSetVoltageLimit:              chanOp("set_voltage_limit", (*Engine).SetVoltageLimit),
	opSetCurrent:                   chanOp("set_current", (*Engine).SetCurrent),
	opSetCurrentStep:               chanOp("set_current_step", (*Engine).SetCurrentStep),
	opSetCurrentLimit:              chanOp("set_current_limit", (*Engine).SetCurrentLimit),
	opSetPowerLimit:                chanOp("set_power_limit", (*Engine).SetPowerLimit),
	opSetVoltageRampDuration:       chanOp("set_voltage_ramp_duration", (*Engine).SetVoltageRampDuration),
	opSetCurrentRampDuration:       chanOp("set_current_ramp_duration", (*Engine).SetCurrentRampDuration),
	opSetOutputDelayDuration:       chanOp("set_output_delay_duration", (*Engine).SetOutputDelayDuration),
	opSetTriggerVoltage:            chanOp("set_trigger_voltage", (*Engine).SetTriggerVoltage),
	opSetTriggerCurrent:            chanOp("set_trigger_current", (*Engine).SetTriggerCurrent),
	opSetVoltageTriggerMode:        chanOp("set_voltage_trigger_mode", (*Engine).SetVoltageTriggerMode),
	opSetCurrentTriggerMode:        chanOp("set_current_trigger_mode", (*Engine).SetCurrentTriggerMode),
	opSetTriggerOutputState:        chanOp("set_trigger_output_state", (*Engine).SetTriggerOutputState),
	opSetTriggerOnListStop:         chanOp("set_trigger_on_list_stop", (*Engine).SetTriggerOnListStop),
	opSetDwellList:                 chanOp("set_dwell_list", (*Engine).SetDwellList),
	opSetVoltageList:               chanOp("set_voltage_list", (*Engine).SetVoltageList),
	opSetCurrentList:               chanOp("set_current_list", (*Engine).SetCurrentList),
	opSetListCount:                 chanOp("set_list_count", (*Engine).SetListCount),
	opSetCurrentRangeSelectionMode: chanOp("set_current_range_selection_mode", (*Engine).SetCurrentRangeSelectionMode),
	opEnableAutoSelectCurrentRange: chanOp("enable_auto_select_current_range", (*Engine).EnableAutoSelectCurrentRange),
	opSetDprogState:                chanOp("set_dprog_state", (*Engine).SetDprogState),
	opRemoteSensingEnable:          chanOp("remote_sensing_enable", (*Engine).RemoteSensingEnable),
	opRemoteProgrammingEnable:      chanOp("remote_programming_enable", (*Engine).RemoteProgrammingEnable),
	opSetDisplayViewSettings:       chanOp("set_display_view_settings", (*Engine).SetDisplayViewSettings),
	opSetOvpParameters:             chanOp("set_ovp_parameters", (*Engine).SetOvpParameters),
	opSetOvpState:                  chanOp("set_ovp_state", (*Engine).SetOvpState),
	opSetOvpType:                   chanOp("set_ovp_type", (*Engine).SetOvpType),
	opSetOvpLevel:                  chanOp("set_ovp_level", (*Engine).SetOvpLevel),
	opSetOvpDelay:                  chanOp("set_ovp_delay", (*Engine).SetOvpDelay),
	opSetOcpParameters: chanOp("set_ocp_parameters", func(e *Engine, ch *channel.Channel, p ocpParameters) {
		e.SetOcpParameters(ch, p.State, p.Delay)
	}),
	opSetOcpState:      chanOp("set_ocp_state", (*Engine).SetOcpState),
	opSetOcpDelay:      chanOp("set_ocp_delay", (*Engine).SetOcpDelay),
	opSetOppParameters: chanOp("set_opp_parameters", (*Engine).SetOppParameters),
	opSetOppState:      chanOp("set_opp_state", (*Engine).SetOppState),
	opSetOppLevel:      chanOp("set_opp_level", (*Engine).SetOppLevel),
	opSetOppDelay:      chanOp("set_opp_delay", (*Engine).SetOppDelay),
	opSetOtpParameters: chanOp("set_otp_parameters", func(e *Engine, ch *channel.Channel, p otpParameters) {
		e.SetOtpParameters(ch, p.State, p.Level, p.Delay)
	}),
	opClearProtection:        chanOp0("clear_protection", (*Engine).ClearProtection),
	opDisableProtection:      chanOp0("disable_protection", (*Engine).DisableProtection),
	opOutputEnableOnNextSync: chanOp("output_enable_on_next_sync", (*Engine).OutputEnableOnNextSync),
	opClone:                  chanOp("copy_channel", func(e *Engine, dst *channel.Channel, cs *cloneSource) { e.applyClone(cs, dst) }),
	opUpdateMonitor:          chanOp("update_monitor", (*Engine).UpdateMonitor),
	opSetOtpState:            sensorOp("set_otp_state", (*Engine).SetOtpState),
	opSetOtpLevel:            sensorOp("set_otp_level", (*Engine).SetOtpLevel),
	opSetOtpDelay:            sensorOp("set_otp_delay", (*Engine).SetOtpDelay),
	opClearOtpProtection: sensorOp("clear_otp_protection", func(e *Engine, sensor int, _ struct{}) {
		e.ClearOtpProtection(sensor)
	}),
	opSetCouplingType: globalOp("set_coupling_type", func(e *Engine, t CouplingType) {
		e.applyCouplingType(t)
	}),
	opSetTrackingChannels: globalOp("set_tracking_channels", (*Engine).applyTrackingChannels),
	opSyncOutputEnable: globalOp("sync_output_enable", func(e *Engine, _ struct{}) {
		e.SyncOutputEnable()
	}),
	opOutputEnableMask: globalOp("output_enable_mask", func(e *Engine, r maskRequest) {
		e.OutputEnableMask(r.Mask, r.Enable)
	}),
	opDisableOutputForAllChannels: globalOp("disable_output_all", func(e *Engine, _ struct{}) {
		e.DisableOutputForAllChannels()
	}),
	opDo: {name: "do"},
}

func (o op) String() string {
	if s, ok := ops[o]; ok {
		return s.name
	}
	return "unknown"
}
