// Package telemetry configures OpenTelemetry tracing, metrics and log export.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config selects what Setup installs.
type Config struct {
	ServiceName string
	Version     string
	// Endpoint is the OTLP/gRPC collector. Empty disables trace and log export.
	Endpoint string
	// Registerer receives OpenTelemetry metrics (otelhttp server metrics among
	// them) so they are served next to the relay's own. Nil disables it.
	Registerer prometheus.Registerer
}

// Telemetry holds the installed providers.
type Telemetry struct {
	// LogHandler forwards slog records to the collector. Nil when export is off.
	LogHandler slog.Handler

	shutdowns []func(context.Context) error
}

// Setup installs global OpenTelemetry providers according to cfg.
func Setup(ctx context.Context, cfg Config) (*Telemetry, error) {
	t := &Telemetry{}
	res := resource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.Version),
	)
	endpoint := strings.TrimSpace(cfg.Endpoint)

	if err := t.setupMetrics(ctx, res, endpoint, cfg.Registerer); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	if endpoint == "" {
		return t, nil
	}
	if err := t.setupTracing(ctx, res, endpoint); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	if err := t.setupLogs(ctx, res, endpoint, cfg.ServiceName); err != nil {
		return nil, errors.Join(err, t.Shutdown(ctx))
	}
	return t, nil
}

// Shutdown flushes and stops every provider Setup installed.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.shutdowns) - 1; i >= 0; i-- {
		errs = append(errs, t.shutdowns[i](ctx))
	}
	t.shutdowns = nil
	return errors.Join(errs...)
}

func (t *Telemetry) setupTracing(ctx context.Context, res *resource.Resource, endpoint string) error {
	opt := otlptracegrpc.WithEndpoint(endpoint)
	if strings.Contains(endpoint, "://") {
		opt = otlptracegrpc.WithEndpointURL(endpoint)
	}
	exporter, err := otlptracegrpc.New(ctx, opt)
	if err != nil {
		return fmt.Errorf("creating otlp trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	t.shutdowns = append(t.shutdowns, tp.Shutdown)
	return nil
}

func (t *Telemetry) setupMetrics(ctx context.Context, res *resource.Resource, endpoint string, reg prometheus.Registerer) error {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if reg != nil {
		exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return fmt.Errorf("creating prometheus metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exporter))
	}
	if endpoint != "" {
		opt := otlpmetricgrpc.WithEndpoint(endpoint)
		if strings.Contains(endpoint, "://") {
			opt = otlpmetricgrpc.WithEndpointURL(endpoint)
		}
		exporter, err := otlpmetricgrpc.New(ctx, opt)
		if err != nil {
			return fmt.Errorf("creating otlp metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}
	if len(opts) == 1 {
		return nil
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	t.shutdowns = append(t.shutdowns, mp.Shutdown)
	return nil
}

func (t *Telemetry) setupLogs(ctx context.Context, res *resource.Resource, endpoint, name string) error {
	opt := otlploggrpc.WithEndpoint(endpoint)
	if strings.Contains(endpoint, "://") {
		opt = otlploggrpc.WithEndpointURL(endpoint)
	}
	exporter, err := otlploggrpc.New(ctx, opt)
	if err != nil {
		return fmt.Errorf("creating otlp log exporter: %w", err)
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)
	global.SetLoggerProvider(lp)
	t.LogHandler = otelslog.NewHandler(name, otelslog.WithLoggerProvider(lp))
	t.shutdowns = append(t.shutdowns, lp.Shutdown)
	return nil
}
