package dispatch

import "errors"

var (
	ErrHardwareMissing           = errors.New("hardware missing")
	ErrHardwareError             = errors.New("hardware error")
	ErrChannelsCoupled           = errors.New("channels are coupled")
	ErrInTrackingMode            = errors.New("channel is in tracking mode")
	ErrTransientTriggerActive    = errors.New("cannot change transient trigger")
	ErrProtectionTripped         = errors.New("cannot execute before clearing protection")
	ErrCalibrationOutputDisabled = errors.New("output disabled during calibration")
	ErrInvalidChannel            = errors.New("invalid channel")
	ErrClosed                    = errors.New("dispatcher closed")
)

// OverflowKind identifies which check of a clone failed.
type OverflowKind int

const (
	OverflowVoltage OverflowKind = iota
	OverflowCurrent
	OverflowPower
	OverflowRemoteProgramming
	OverflowVoltageList
	OverflowCurrentList
)

var overflowMessages = map[OverflowKind]string{
	OverflowVoltage:           "Voltage overflow.",
	OverflowCurrent:           "Current overflow.",
	OverflowPower:             "Power overflow.",
	OverflowRemoteProgramming: "Can not enable remote programming.",
	OverflowVoltageList:       "Voltage list value overflow.",
	OverflowCurrentList:       "Current list value overflow.",
}

// OverflowError is returned when a channel cannot be cloned onto another.
// Its message is meant for the user.
type OverflowError struct {
	Kind OverflowKind
}

func (e *OverflowError) Error() string { return overflowMessages[e.Kind] }

// IsOverflow reports whether err is an OverflowError of the given kind.
func IsOverflow(err error, kind OverflowKind) bool {
	var oe *OverflowError
	return errors.As(err, &oe) && oe.Kind == kind
}

// errNoop short-circuits a request that leaves the state unchanged.
var errNoop = errors.New("no-op")
