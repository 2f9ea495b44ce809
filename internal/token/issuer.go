// Package token obtains OAuth2 access tokens for a service account using the
// JWT-bearer grant: a self-signed RS256 assertion is exchanged at the token
// endpoint for a short-lived bearer token.
package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/shaharia-lab/pushrelay/internal/credential"
)

const (
	// MessagingScope grants permission to send FCM messages.
	MessagingScope = "https://www.googleapis.com/auth/firebase.messaging"
	// JWTBearerGrant is the grant_type of the assertion exchange.
	JWTBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	assertionTTL     = time.Hour
	maxResponseBytes = 1 << 20
)

// Issuer hands out access tokens for a credential.
type Issuer interface {
	Issue(ctx context.Context, cred *credential.ServiceCredential) (*oauth2.Token, error)
}

// JWTIssuer signs an assertion and exchanges it on every call. It keeps no
// state between calls.
type JWTIssuer struct {
	tokenURL  string
	client    *http.Client
	now       func() time.Time
	userAgent string
}

// Option configures a JWTIssuer.
type Option func(*JWTIssuer)

// WithTokenURL forces the token endpoint, ignoring the credential's token_uri.
func WithTokenURL(u string) Option {
	return func(i *JWTIssuer) { i.tokenURL = strings.TrimSpace(u) }
}

// WithHTTPClient sets the client used for the exchange.
func WithHTTPClient(c *http.Client) Option {
	return func(i *JWTIssuer) { i.client = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(i *JWTIssuer) { i.now = now }
}

// WithUserAgent sets the User-Agent header of the exchange request.
func WithUserAgent(ua string) Option {
	return func(i *JWTIssuer) { i.userAgent = ua }
}

// NewJWTIssuer creates a JWTIssuer. Without options it posts to Google's
// token endpoint using http.DefaultClient.
func NewJWTIssuer(opts ...Option) *JWTIssuer {
	i := &JWTIssuer{
		client: http.DefaultClient,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TokenURL returns the endpoint used for cred: the configured override, then
// the credential's token_uri, then Google's default.
func (i *JWTIssuer) TokenURL(cred *credential.ServiceCredential) string {
	if i.tokenURL != "" {
		return i.tokenURL
	}
	if cred.TokenURI != "" {
		return cred.TokenURI
	}
	return google.JWTTokenURL
}

// Issue signs a fresh assertion for cred and exchanges it for an access token.
func (i *JWTIssuer) Issue(ctx context.Context, cred *credential.ServiceCredential) (*oauth2.Token, error) {
	now := i.now()
	tokenURL := i.TokenURL(cred)

	assertion, err := SignAssertion(cred, tokenURL, now)
	if err != nil {
		return nil, err
	}
	return i.exchange(ctx, tokenURL, assertion, now)
}

// SignAssertion builds and signs the RS256 assertion for cred, valid from now
// for one hour.
func SignAssertion(cred *credential.ServiceCredential, audience string, now time.Time) (string, error) {
	if cred.PrivateKey == nil {
		return "", &SigningError{Err: errors.New("credential has no private key")}
	}

	claims := AssertionClaims{
		Issuer:    cred.IssuerEmail,
		Audience:  audience,
		Scope:     MessagingScope,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(assertionTTL)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if cred.PrivateKeyID != "" {
		t.Header["kid"] = cred.PrivateKeyID
	}

	signed, err := t.SignedString(cred.PrivateKey)
	if err != nil {
		return "", &SigningError{Err: err}
	}
	return signed, nil
}

// tokenResponse is the token endpoint reply, success or error.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (i *JWTIssuer) exchange(ctx context.Context, tokenURL, assertion string, now time.Time) (*oauth2.Token, error) {
	form := url.Values{
		"grant_type": {JWTBearerGrant},
		"assertion":  {assertion},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if i.userAgent != "" {
		req.Header.Set("User-Agent", i.userAgent)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &ExchangeError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || tr.AccessToken == "" {
		e := &ExchangeError{StatusCode: resp.StatusCode, Code: tr.Error, Description: tr.ErrorDescription}
		if e.Code == "" && e.Description == "" {
			e.Err = errors.New("response has no access_token")
		}
		return nil, e
	}

	expiresIn := time.Duration(tr.ExpiresIn) * time.Second
	if expiresIn <= 0 {
		expiresIn = assertionTTL
	}
	tokenType := tr.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &oauth2.Token{
		AccessToken: tr.AccessToken,
		TokenType:   tokenType,
		Expiry:      now.Add(expiresIn),
	}, nil
}
