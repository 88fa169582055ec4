// Package mqtt defines the remote control messages exchanged with the
// instrument over MQTT and the topic layout they travel on.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Supported command ops.
const (
	OpSetVoltage      = "set_voltage"
	OpSetCurrent      = "set_current"
	OpSetVoltageLimit = "set_voltage_limit"
	OpSetCurrentLimit = "set_current_limit"
	OpSetPowerLimit   = "set_power_limit"
	OpOutput          = "output"
	OpCouple          = "couple"
	OpTrack           = "track"
	OpClone           = "clone"
	OpClearProtection = "clear_protection"
)

// Command is a remote request. Fields not used by Op are ignored.
type Command struct {
	ID       string  `json:"command_id"`
	Op       string  `json:"op"`
	Channel  int     `json:"channel"`
	Source   int     `json:"source,omitempty"`
	Value    float64 `json:"value,omitempty"`
	Enable   bool    `json:"enable,omitempty"`
	Coupling string  `json:"coupling,omitempty"`
	Mask     uint32  `json:"mask,omitempty"`
}

// DecodeCommand parses and checks a command payload.
func DecodeCommand(payload []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(payload, &c); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if c.ID == "" || c.Op == "" {
		return Command{}, fmt.Errorf("%w: command_id and op are required", ErrInvalidCommand)
	}
	return c, nil
}

// Ack reports the outcome of a command.
type Ack struct {
	CommandID string    `json:"command_id"`
	OK        bool      `json:"ok"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}

// NewAck builds the acknowledgment of cmd for err.
func NewAck(cmd Command, err error, now time.Time) Ack {
	a := Ack{CommandID: cmd.ID, OK: err == nil, Time: now}
	if err != nil {
		a.Error = err.Error()
	}
	return a
}

// Handler executes remote commands.
type Handler interface {
	HandleCommand(ctx context.Context, cmd Command) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, cmd Command) error

func (f HandlerFunc) HandleCommand(ctx context.Context, cmd Command) error { return f(ctx, cmd) }

// Topics derives every topic from a common prefix.
type Topics struct {
	Prefix string
}

func (t Topics) join(parts ...string) string {
	return strings.Join(append([]string{strings.TrimSuffix(t.Prefix, "/")}, parts...), "/")
}

func (t Topics) Status(channel int) string  { return t.join("channel", fmt.Sprint(channel), "status") }
func (t Topics) Monitor(channel int) string { return t.join("channel", fmt.Sprint(channel), "monitor") }

// MonitorFilter matches the monitor topic of every channel.
func (t Topics) MonitorFilter() string { return t.join("channel", "+", "monitor") }

func (t Topics) Events() string       { return t.join("events") }
func (t Topics) Command() string      { return t.join("command") }
func (t Topics) Ack() string          { return t.join("command", "ack") }
func (t Topics) Availability() string { return t.join("availability") }
