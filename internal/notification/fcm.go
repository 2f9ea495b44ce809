package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	fcm "google.golang.org/api/fcm/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// DefaultFCMEndpoint is the base URL of the FCM HTTP v1 API.
const DefaultFCMEndpoint = "https://fcm.googleapis.com/"

// FCMProvider publishes topic messages through Firebase Cloud Messaging v1.
// The API client is built on first use and shared by all sends; the bearer
// token is attached per call.
type FCMProvider struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string

	once    sync.Once
	svc     *fcm.Service
	initErr error
}

// NewFCMProvider creates an FCMProvider. httpClient carries no credentials of
// its own; a nil client means http.DefaultClient.
func NewFCMProvider(endpoint string, httpClient *http.Client, userAgent string) *FCMProvider {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultFCMEndpoint
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	// Copy so the caller's client keeps its own transport.
	recording := *httpClient
	recording.Transport = &replyRecorder{base: httpClient.Transport}
	return &FCMProvider{endpoint: endpoint, httpClient: &recording, userAgent: userAgent}
}

// Name returns the provider identifier.
func (p *FCMProvider) Name() string { return "fcm" }

func (p *FCMProvider) service() (*fcm.Service, error) {
	p.once.Do(func() {
		p.svc, p.initErr = fcm.NewService(context.Background(),
			option.WithHTTPClient(p.httpClient),
			option.WithEndpoint(p.endpoint),
		)
	})
	return p.svc, p.initErr
}

// Send posts msg to projects/{projectID}/messages:send. Both the success reply
// and a JSON error reply are returned verbatim; only transport failures and
// unreadable replies are errors.
func (p *FCMProvider) Send(ctx context.Context, msg Message, tok *oauth2.Token, projectID string) (json.RawMessage, error) {
	if tok == nil || tok.AccessToken == "" {
		return nil, &DispatchError{Provider: p.Name(), Err: errors.New("no access token")}
	}

	svc, err := p.service()
	if err != nil {
		return nil, &DispatchError{Provider: p.Name(), Err: fmt.Errorf("creating fcm client: %w", err)}
	}

	req := &fcm.SendMessageRequest{
		Message: &fcm.Message{
			Topic: msg.Topic,
			Notification: &fcm.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
		},
	}
	reply := &bytes.Buffer{}
	call := svc.Projects.Messages.Send("projects/"+projectID, req).
		Context(context.WithValue(ctx, replyKey{}, reply))
	call.Header().Set("Authorization", tok.Type()+" "+tok.AccessToken)
	if p.userAgent != "" {
		call.Header().Set("User-Agent", p.userAgent)
	}

	sent, err := call.Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if body := strings.TrimSpace(apiErr.Body); body != "" && json.Valid([]byte(body)) {
				return json.RawMessage(body), nil
			}
			return nil, &DispatchError{Provider: p.Name(), StatusCode: apiErr.Code, Err: err}
		}
		return nil, &DispatchError{Provider: p.Name(), Err: err}
	}

	if body := bytes.TrimSpace(reply.Bytes()); len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body), nil
	}
	raw, err := json.Marshal(sent)
	if err != nil {
		return nil, &DispatchError{Provider: p.Name(), Err: fmt.Errorf("encoding fcm response: %w", err)}
	}
	return raw, nil
}

type replyKey struct{}

// replyRecorder copies response bodies into the buffer carried by the request
// context, so the provider's reply can be returned byte for byte after the
// generated client has decoded it.
type replyRecorder struct {
	base http.RoundTripper
}

func (r *replyRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	base := r.base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if buf, ok := req.Context().Value(replyKey{}).(*bytes.Buffer); ok {
		resp.Body = struct {
			io.Reader
			io.Closer
		}{io.TeeReader(resp.Body, buf), resp.Body}
	}
	return resp, nil
}
