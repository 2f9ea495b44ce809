// Package credentialtest provides throwaway service-account credentials for tests.
package credentialtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/shaharia-lab/pushrelay/internal/credential"
)

const (
	Email     = "relay@plant-alerts.iam.gserviceaccount.com"
	ProjectID = "plant-alerts"
	KeyID     = "k-1"
)

// RSAKey generates a 2048-bit RSA key.
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}
	return key
}

// PKCS8PEM encodes key the way Google key files do ("BEGIN PRIVATE KEY").
func PKCS8PEM(t testing.TB, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("marshal pkcs8 key: %v", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

// PKCS1PEM encodes key as "BEGIN RSA PRIVATE KEY".
func PKCS1PEM(key *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

// New returns a credential with a fresh key.
func New(t testing.TB) *credential.ServiceCredential {
	t.Helper()
	key := RSAKey(t)
	return &credential.ServiceCredential{
		IssuerEmail:  Email,
		ProjectID:    ProjectID,
		PrivateKeyID: KeyID,
		PrivateKey:   key,
		Source:       "test",
	}
}
