package notification_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/shaharia-lab/pushrelay/internal/notification"
)

var testToken = &oauth2.Token{AccessToken: "ya29.test", TokenType: "Bearer"}

var testMessage = notification.Message{
	Topic: "production_alerts",
	Title: notification.Title,
	Body:  "Línea 3: Jam (12 min)",
}

func TestFCMProvider_Send(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/projects/plant-alerts/messages:send", r.URL.Path)
		assert.Equal(t, "Bearer ya29.test", r.Header.Get("Authorization"))
		assert.Equal(t, "pushrelay/test", r.Header.Get("User-Agent"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"message": map[string]any{
				"topic": "production_alerts",
				"notification": map[string]any{
					"title": notification.Title,
					"body":  "Línea 3: Jam (12 min)",
				},
			},
		}, body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"projects/plant-alerts/messages/0:1700000000000000"}`))
	}))
	defer srv.Close()

	p := notification.NewFCMProvider(srv.URL, srv.Client(), "pushrelay/test")
	assert.Equal(t, "fcm", p.Name())

	for i := 0; i < 2; i++ {
		raw, err := p.Send(context.Background(), testMessage, testToken, "plant-alerts")
		require.NoError(t, err)
		assert.JSONEq(t, `{"name":"projects/plant-alerts/messages/0:1700000000000000"}`, string(raw))
	}
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestFCMProvider_SuccessReplyVerbatim(t *testing.T) {
	const providerReply = `{"name":"projects/plant-alerts/messages/1","extra":"kept"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(providerReply + "\n"))
	}))
	defer srv.Close()

	client := srv.Client()
	transport := client.Transport

	p := notification.NewFCMProvider(srv.URL, client, "")
	raw, err := p.Send(context.Background(), testMessage, testToken, "plant-alerts")
	require.NoError(t, err)
	assert.Equal(t, providerReply, string(raw))
	assert.Same(t, transport, client.Transport)
}

func TestFCMProvider_ErrorBodyPassedThrough(t *testing.T) {
	const providerErr = `{"error":{"code":403,"message":"SenderId mismatch","status":"PERMISSION_DENIED"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(providerErr))
	}))
	defer srv.Close()

	p := notification.NewFCMProvider(srv.URL, srv.Client(), "")
	raw, err := p.Send(context.Background(), testMessage, testToken, "plant-alerts")
	require.NoError(t, err)
	assert.JSONEq(t, providerErr, string(raw))
}

func TestFCMProvider_Failures(t *testing.T) {
	t.Run("non-json error page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>upstream down</html>"))
		}))
		defer srv.Close()

		_, err := notification.NewFCMProvider(srv.URL, srv.Client(), "").
			Send(context.Background(), testMessage, testToken, "plant-alerts")
		var dErr *notification.DispatchError
		require.True(t, errors.As(err, &dErr))
		assert.Equal(t, http.StatusBadGateway, dErr.StatusCode)
	})

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := notification.NewFCMProvider(url, nil, "").
			Send(context.Background(), testMessage, testToken, "plant-alerts")
		var dErr *notification.DispatchError
		require.True(t, errors.As(err, &dErr))
		assert.Zero(t, dErr.StatusCode)
		assert.Contains(t, err.Error(), "sending notification via fcm")
	})

	t.Run("missing token", func(t *testing.T) {
		_, err := notification.NewFCMProvider("", nil, "").
			Send(context.Background(), testMessage, nil, "plant-alerts")
		var dErr *notification.DispatchError
		require.True(t, errors.As(err, &dErr))
	})
}
