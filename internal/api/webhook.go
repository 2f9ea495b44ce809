package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/shaharia-lab/pushrelay/internal/metrics"
	"github.com/shaharia-lab/pushrelay/internal/notification"
	"github.com/shaharia-lab/pushrelay/internal/service"
)

// NotInsertMessage is the plain-text reply for events that are not relayed.
const NotInsertMessage = "Not an INSERT event"

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	event, err := notification.DecodeChangeEvent(body)
	if err != nil {
		parseErr := &service.RequestParseError{Err: err}
		s.logger.Warn("rejecting webhook body", "request_id", reqID, "error", parseErr)
		s.metrics.ObserveEvent(metrics.OutcomeFailed)
		s.metrics.ObserveFailure(service.StageParse)
		writeError(w, http.StatusInternalServerError, parseErr.Error())
		return
	}

	res, err := s.relaySvc.Relay(r.Context(), event)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if res.Ignored {
		writeText(w, http.StatusOK, NotInsertMessage)
		return
	}
	writeRawJSON(w, http.StatusOK, res.Response)
}

// requireSecret rejects requests that do not carry the configured bearer secret.
func (s *Server) requireSecret(next http.Handler) http.Handler {
	want := []byte(s.webhookSecret)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			s.logger.Warn("unauthorized webhook call",
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
