package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/pushrelay/internal/api"
	"github.com/shaharia-lab/pushrelay/internal/build"
	"github.com/shaharia-lab/pushrelay/internal/config"
	"github.com/shaharia-lab/pushrelay/internal/logger"
	"github.com/shaharia-lab/pushrelay/internal/server"
	"github.com/shaharia-lab/pushrelay/internal/telemetry"
)

// NewServeCmd returns the "serve" subcommand that starts the webhook server.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int
	var topic string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long: `Start the HTTP server that accepts database change webhooks on any path
and relays INSERT events to the configured FCM topic.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("topic") {
				cfg.Topic = topic
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	cmd.Flags().StringVar(&topic, "topic", cfg.Topic, "FCM topic to publish to (overrides FCM_TOPIC env var)")

	return cmd
}

func runServe(parent context.Context, cfg *config.AppConfig) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log, closer, err := logger.New(cfg.LogFile, cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = closer.Close() }()

	log.Info("pushrelay starting",
		slog.Int("port", cfg.Port),
		slog.String("topic", cfg.Topic),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	reg := newRegistry()
	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName: "pushrelay",
		Version:     build.Version,
		Endpoint:    cfg.OTLPEndpoint,
		Registerer:  reg,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := tel.Shutdown(flushCtx); err != nil {
			log.Warn("flushing telemetry", "error", err)
		}
	}()
	log = logger.Tee(log, tel.LogHandler)

	relaySvc, m, err := buildRelay(cfg, log, reg)
	if err != nil {
		return err
	}

	apiSrv := api.New(relaySvc, log,
		api.WithWebhookSecret(cfg.WebhookSecret),
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithMetrics(m),
	)
	if cfg.WebhookSecret == "" {
		log.Warn("WEBHOOK_SECRET is not set; the webhook accepts unauthenticated calls")
	}

	srv := server.New(apiSrv, reg, cfg.Port, log)
	return srv.Run(ctx)
}
