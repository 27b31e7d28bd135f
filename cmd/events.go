/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/daycare-hub/apiserver/config"
	"github.com/daycare-hub/apiserver/internal/events"
	"github.com/daycare-hub/apiserver/internal/logging"
	"github.com/daycare-hub/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect account events on the message queue",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail [type...]",
	Short: "Print account events as they arrive",
	Long: `Subscribes to MQ_CHANNEL and prints each account event as JSON. Pass event
types (account.registered, account.login) to filter.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.New(logging.Config{
			Service: "daycare-events",
			Version: version,
			Env:     cfg.Env,
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
			Output:  os.Stderr,
		})
		if cfg.MQ.Backend == config.MQBackendNone {
			return errors.New("MQ_BACKEND is none; nothing to tail")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		defer queue.Close()

		out := cmd.OutOrStdout()
		err = queue.Subscribe(ctx, cfg.MQ.Channel, func(_ context.Context, msg mq.Message) error {
			event, err := events.Decode(msg)
			if err != nil {
				// nil acks; redelivery would fail the same way.
				logger.Warn("skipping undecodable message", "id", msg.ID, "error", err)
				return nil
			}
			if !events.Filter(event, args...) {
				return nil
			}
			return printJSON(out, event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("subscribe %s: %w", cfg.MQ.Channel, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
