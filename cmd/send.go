package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/pushrelay/internal/config"
	"github.com/shaharia-lab/pushrelay/internal/logger"
)

// NewSendCmd returns the "send" subcommand that publishes a test notification.
func NewSendCmd(cfg *config.AppConfig) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a test notification to the configured topic",
		Long: `Exchange a fresh access token and publish a fixed test message to the
FCM topic, printing the provider's response. Useful to check credentials
before wiring the database webhook.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("topic") {
				cfg.Topic = topic
			}
			log := logger.NewWithWriter(os.Stderr, cfg.SlogLevel())
			return runSend(cmd.Context(), cfg, log, cmd)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", cfg.Topic, "FCM topic to publish to (overrides FCM_TOPIC env var)")

	return cmd
}

func runSend(ctx context.Context, cfg *config.AppConfig, log *slog.Logger, cmd *cobra.Command) error {
	relaySvc, _, err := buildRelay(cfg, log, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	resp, err := relaySvc.TestNotification(ctx)
	if err != nil {
		return fmt.Errorf("sending test notification: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(resp))
	return nil
}
