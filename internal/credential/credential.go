// Package credential loads the service-account identity used to sign token
// assertions. A credential is read once at startup and never mutated.
package credential

import (
	"crypto/rsa"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceCredential is a service-account identity: who signs the assertion,
// with which key, and which project notifications are sent for.
type ServiceCredential struct {
	IssuerEmail  string
	ProjectID    string
	PrivateKeyID string
	PrivateKey   *rsa.PrivateKey
	// TokenURI is the token endpoint named by the key file, if any.
	TokenURI string
	// Source records where the credential came from ("env" or a file path).
	Source string
}

// LogValue keeps key material out of logs.
func (c *ServiceCredential) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("issuer", c.IssuerEmail),
		slog.String("project_id", c.ProjectID),
		slog.String("key_id", c.PrivateKeyID),
		slog.String("source", c.Source),
	)
}

// MissingFieldError is returned when a required credential field is empty.
type MissingFieldError struct {
	Source string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("credential from %s: %s is required", e.Source, e.Field)
}

// KeyParseError is returned when the private key is not a usable RSA PEM key.
type KeyParseError struct {
	Source string
	Err    error
}

func (e *KeyParseError) Error() string {
	return fmt.Sprintf("credential from %s: parsing private key: %v", e.Source, e.Err)
}

func (e *KeyParseError) Unwrap() error { return e.Err }

// Fields are the raw, unparsed credential values.
type Fields struct {
	ClientEmail  string
	ProjectID    string
	PrivateKeyID string
	PrivateKey   string
	TokenURI     string
}

// New validates fields and parses the PEM private key (PKCS#1 or PKCS#8).
func New(source string, f Fields) (*ServiceCredential, error) {
	required := []struct{ name, value string }{
		{"client_email", f.ClientEmail},
		{"project_id", f.ProjectID},
		{"private_key", f.PrivateKey},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, &MissingFieldError{Source: source, Field: r.name}
		}
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(f.PrivateKey))
	if err != nil {
		return nil, &KeyParseError{Source: source, Err: err}
	}

	return &ServiceCredential{
		IssuerEmail:  strings.TrimSpace(f.ClientEmail),
		ProjectID:    strings.TrimSpace(f.ProjectID),
		PrivateKeyID: strings.TrimSpace(f.PrivateKeyID),
		PrivateKey:   key,
		TokenURI:     strings.TrimSpace(f.TokenURI),
		Source:       source,
	}, nil
}
