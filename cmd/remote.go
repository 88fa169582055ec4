package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
	"github.com/kilianp07/benchpsu/infra/mqtt"
)

var (
	remoteCmd  coremqtt.Command
	remoteWait time.Duration
)

var remoteSendCmd = &cobra.Command{
	Use:   "remote <op>",
	Short: "Send a command to a running instrument over MQTT and wait for its ack",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemote,
}

func init() {
	f := remoteSendCmd.Flags()
	f.IntVar(&remoteCmd.Channel, "channel", 0, "target channel")
	f.IntVar(&remoteCmd.Source, "source", 0, "source channel of a clone")
	f.Float64Var(&remoteCmd.Value, "value", 0, "set point or limit")
	f.BoolVar(&remoteCmd.Enable, "enable", false, "output state")
	f.StringVar(&remoteCmd.Coupling, "coupling", "", "coupling type")
	f.Uint32Var(&remoteCmd.Mask, "mask", 0, "tracking channel mask")
	f.DurationVar(&remoteWait, "timeout", 5*time.Second, "ack timeout")
	rootCmd.AddCommand(remoteSendCmd)
}

func runRemote(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cfg.MQTT.Enabled() {
		return fmt.Errorf("mqtt.broker is not configured")
	}
	r, err := mqtt.NewRemote(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("mqtt remote: %w", err)
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), remoteWait)
	defer cancel()
	c := remoteCmd
	c.Op = args[0]
	ack, err := r.Send(ctx, c)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(cmd.OutOrStdout()).Encode(ack); err != nil {
		return err
	}
	if !ack.OK {
		return fmt.Errorf("command %s rejected: %s", ack.CommandID, ack.Error)
	}
	return nil
}
