package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shaharia-lab/pushrelay/internal/build"
	"github.com/shaharia-lab/pushrelay/internal/config"
	"github.com/shaharia-lab/pushrelay/internal/credential"
	"github.com/shaharia-lab/pushrelay/internal/metrics"
	"github.com/shaharia-lab/pushrelay/internal/notification"
	"github.com/shaharia-lab/pushrelay/internal/service"
	"github.com/shaharia-lab/pushrelay/internal/token"
)

// newRegistry returns a registry with the Go runtime and process collectors.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// buildRelay loads the credential and assembles the relay path from cfg,
// registering its metrics with reg.
func buildRelay(cfg *config.AppConfig, log *slog.Logger, reg prometheus.Registerer) (service.RelayService, *metrics.Metrics, error) {
	cred, err := credential.Load(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("loading credential: %w", err)
	}
	log.Info("credential loaded", "credential", cred)

	httpClient := &http.Client{
		Timeout:   cfg.HTTPTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var issuer token.Issuer = token.NewJWTIssuer(
		token.WithTokenURL(cfg.TokenURL),
		token.WithHTTPClient(httpClient),
		token.WithUserAgent(build.UserAgent()),
	)
	if cfg.TokenCache {
		issuer = token.NewCachingIssuer(issuer, cfg.TokenRenewBefore)
		log.Info("access token cache enabled", "renew_before", cfg.TokenRenewBefore)
	}

	m := metrics.New(reg)

	relaySvc := service.NewRelayService(
		cred,
		notification.NewFormatter(cfg.Topic),
		issuer,
		notification.NewFCMProvider(cfg.FCMEndpoint, httpClient, build.UserAgent()),
		m,
		log,
	)
	return relaySvc, m, nil
}
