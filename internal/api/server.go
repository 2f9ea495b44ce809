package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shaharia-lab/pushrelay/internal/metrics"
	"github.com/shaharia-lab/pushrelay/internal/service"
)

// DefaultMaxBodyBytes caps webhook bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Server holds all dependencies for the webhook handlers.
type Server struct {
	relaySvc      service.RelayService
	metrics       *metrics.Metrics
	logger        *slog.Logger
	webhookSecret string
	maxBodyBytes  int64
}

// Option configures a Server.
type Option func(*Server)

// WithWebhookSecret requires callers to send "Authorization: Bearer <secret>".
func WithWebhookSecret(secret string) Option {
	return func(s *Server) { s.webhookSecret = secret }
}

// WithMaxBodyBytes caps the size of a webhook body.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithMetrics records rejected requests that never reach the relay service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a new API Server backed by the relay service.
func New(relaySvc service.RelayService, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		relaySvc:     relaySvc,
		logger:       logger.With("component", "webhook"),
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount registers all API routes under the given router. The webhook accepts
// POST on any path, matching how database webhooks are usually configured.
func (s *Server) Mount(r chi.Router) {
	r.Get("/version", s.handleVersion)

	r.Group(func(r chi.Router) {
		if s.webhookSecret != "" {
			r.Use(s.requireSecret)
		}
		r.Post("/*", s.handleWebhook)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeRawJSON(w http.ResponseWriter, status int, raw json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
