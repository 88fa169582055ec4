package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/benchpsu/core/dispatch"
	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
)

// CommandHandler applies remote commands to a dispatcher. A command returns
// once the owner task has applied it, so acks reflect the settled state.
type CommandHandler struct {
	d *dispatch.Dispatcher
}

func NewCommandHandler(d *dispatch.Dispatcher) *CommandHandler {
	return &CommandHandler{d: d}
}

func (h *CommandHandler) HandleCommand(ctx context.Context, cmd coremqtt.Command) error {
	if err := h.apply(ctx, cmd); err != nil {
		return err
	}
	return h.d.Wait(ctx)
}

func (h *CommandHandler) apply(ctx context.Context, cmd coremqtt.Command) error {
	d := h.d
	switch cmd.Op {
	case coremqtt.OpSetVoltage:
		return d.SetVoltage(ctx, cmd.Channel, cmd.Value)
	case coremqtt.OpSetCurrent:
		return d.SetCurrent(ctx, cmd.Channel, cmd.Value)
	case coremqtt.OpSetVoltageLimit:
		return d.SetVoltageLimit(ctx, cmd.Channel, cmd.Value)
	case coremqtt.OpSetCurrentLimit:
		return d.SetCurrentLimit(ctx, cmd.Channel, cmd.Value)
	case coremqtt.OpSetPowerLimit:
		return d.SetPowerLimit(ctx, cmd.Channel, cmd.Value)
	case coremqtt.OpOutput:
		return d.OutputEnable(ctx, cmd.Channel, cmd.Enable)
	case coremqtt.OpCouple:
		t, err := dispatch.ParseCouplingType(cmd.Coupling)
		if err != nil {
			return fmt.Errorf("%w: %v", coremqtt.ErrInvalidCommand, err)
		}
		return d.SetCouplingType(ctx, t)
	case coremqtt.OpTrack:
		return d.SetTrackingChannels(ctx, cmd.Mask)
	case coremqtt.OpClone:
		return d.CopyChannelToChannel(ctx, cmd.Source, cmd.Channel)
	case coremqtt.OpClearProtection:
		return d.ClearProtection(ctx, cmd.Channel)
	default:
		return fmt.Errorf("%w: %s", coremqtt.ErrUnknownOp, cmd.Op)
	}
}
