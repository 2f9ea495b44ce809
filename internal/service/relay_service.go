package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/shaharia-lab/pushrelay/internal/credential"
	"github.com/shaharia-lab/pushrelay/internal/metrics"
	"github.com/shaharia-lab/pushrelay/internal/notification"
	"github.com/shaharia-lab/pushrelay/internal/token"
)

const (
	tracerName = "github.com/shaharia-lab/pushrelay/internal/service"

	// TestBody is the body of the message sent by TestNotification.
	TestBody = "Notificación de prueba"
)

// RelayResult is the outcome of relaying one change event.
type RelayResult struct {
	// Ignored is true when the event was not an INSERT and nothing was sent.
	Ignored bool
	// Response is the provider's reply, unmodified.
	Response json.RawMessage
}

// RelayService turns downtime change events into topic notifications.
type RelayService interface {
	// Relay formats event, obtains an access token and sends the message.
	// Non-INSERT events are ignored without contacting any remote service.
	Relay(ctx context.Context, event notification.ChangeEvent) (*RelayResult, error)
	// TestNotification sends a fixed message through the same path.
	TestNotification(ctx context.Context) (json.RawMessage, error)
}

// relayServiceImpl implements RelayService.
type relayServiceImpl struct {
	cred      *credential.ServiceCredential
	formatter *notification.Formatter
	issuer    token.Issuer
	provider  notification.Provider
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewRelayService creates a new RelayService. m may be nil.
func NewRelayService(
	cred *credential.ServiceCredential,
	formatter *notification.Formatter,
	issuer token.Issuer,
	provider notification.Provider,
	m *metrics.Metrics,
	logger *slog.Logger,
) RelayService {
	return &relayServiceImpl{
		cred:      cred,
		formatter: formatter,
		issuer:    issuer,
		provider:  provider,
		metrics:   m,
		logger:    logger.With("component", "relay"),
		tracer:    otel.Tracer(tracerName),
	}
}

// Relay implements RelayService.
func (s *relayServiceImpl) Relay(ctx context.Context, event notification.ChangeEvent) (*RelayResult, error) {
	ctx, span := s.tracer.Start(ctx, "relay",
		trace.WithAttributes(
			attribute.String("event.type", string(event.Type)),
			attribute.String("event.table", event.Table),
		))
	defer span.End()

	msg, ok := s.formatter.Format(event)
	if !ok {
		s.logger.Debug("ignoring change event", "type", event.Type, "table", event.Table)
		s.metrics.ObserveEvent(metrics.OutcomeIgnored)
		span.SetAttributes(attribute.Bool("relay.ignored", true))
		return &RelayResult{Ignored: true}, nil
	}

	s.logger.Info("relaying downtime event",
		"table", event.Table,
		"schema", event.Schema,
		"topic", msg.Topic,
		"body", msg.Body)

	resp, err := s.deliver(ctx, msg)
	if err != nil {
		s.fail(span, err)
		return nil, err
	}

	s.metrics.ObserveEvent(metrics.OutcomeSent)
	s.logger.Info("notification sent", "provider", s.provider.Name(), "response", string(resp))
	return &RelayResult{Response: resp}, nil
}

// TestNotification implements RelayService.
func (s *relayServiceImpl) TestNotification(ctx context.Context) (json.RawMessage, error) {
	ctx, span := s.tracer.Start(ctx, "relay.test")
	defer span.End()

	msg := notification.Message{
		Topic: s.formatter.Topic(),
		Title: notification.Title,
		Body:  TestBody,
	}
	resp, err := s.deliver(ctx, msg)
	if err != nil {
		s.fail(span, err)
		return nil, err
	}
	s.logger.Info("test notification sent", "provider", s.provider.Name(), "response", string(resp))
	return resp, nil
}

// deliver issues a token and hands msg to the provider. Nothing is retried.
func (s *relayServiceImpl) deliver(ctx context.Context, msg notification.Message) (json.RawMessage, error) {
	start := time.Now()
	tokCtx, tokSpan := s.tracer.Start(ctx, "token.issue")
	tok, err := s.issuer.Issue(tokCtx, s.cred)
	tokSpan.End()
	s.metrics.ObserveStage("token", start)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	sendCtx, sendSpan := s.tracer.Start(ctx, "notification.send",
		trace.WithAttributes(
			attribute.String("notification.provider", s.provider.Name()),
			attribute.String("notification.topic", msg.Topic),
		))
	resp, err := s.provider.Send(sendCtx, msg, tok, s.cred.ProjectID)
	sendSpan.End()
	s.metrics.ObserveStage("dispatch", start)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *relayServiceImpl) fail(span trace.Span, err error) {
	stage := FailureStage(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, stage)
	s.metrics.ObserveEvent(metrics.OutcomeFailed)
	s.metrics.ObserveFailure(stage)
	s.logger.Error("relay failed", "stage", stage, "error", err)
}
