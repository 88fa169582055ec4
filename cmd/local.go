package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/benchpsu/app"
	coremqtt "github.com/kilianp07/benchpsu/core/mqtt"
	"github.com/kilianp07/benchpsu/infra/logger"
)

const localTimeout = 5 * time.Second

var coupleCmd = &cobra.Command{
	Use:   "couple <none|parallel|series|common_gnd|split_rails>",
	Short: "Apply a coupling on a local instrument and print the channel status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLocal(cmd, coremqtt.Command{ID: "cli", Op: coremqtt.OpCouple, Coupling: args[0]})
	},
}

var cloneCmd = &cobra.Command{
	Use:   "clone <source> <destination>",
	Short: "Copy the settings of one channel onto another on a local instrument",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("source channel: %w", err)
		}
		dst, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("destination channel: %w", err)
		}
		return runLocal(cmd, coremqtt.Command{ID: "cli", Op: coremqtt.OpClone, Source: src, Channel: dst})
	},
}

func init() {
	rootCmd.AddCommand(coupleCmd, cloneCmd)
}

// runLocal starts the configured instrument, applies one command, prints
// the resulting channel table and shuts down.
func runLocal(cmd *cobra.Command, c coremqtt.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// the instrument must not answer remote commands during a local run
	cfg.MQTT.Commands = false
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Run(runCtx)
	}()
	defer func() {
		cancel()
		<-done
		if err := svc.Close(); err != nil {
			logger.New("cli").Errorf("service close: %v", err)
		}
	}()

	cmdCtx, cmdCancel := context.WithTimeout(runCtx, localTimeout)
	defer cmdCancel()
	if err := svc.Handler().HandleCommand(cmdCtx, c); err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(svc.Dispatcher.Status())
}
