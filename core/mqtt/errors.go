package mqtt

import "errors"

var (
	// ErrUnknownOp is returned for a command whose op is not supported.
	ErrUnknownOp = errors.New("unknown command op")
	// ErrInvalidCommand is returned when a command cannot be decoded.
	ErrInvalidCommand = errors.New("invalid command")
)
