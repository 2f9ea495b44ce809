package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shaharia-lab/pushrelay/internal/config"
)

const sourceEnv = "env"

// serviceAccountKey is the downloadable Google service-account JSON key.
type serviceAccountKey struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	ClientID     string `json:"client_id"`
	TokenURI     string `json:"token_uri"`
}

// Load picks the credential source from cfg: a key file when one is
// configured, otherwise the FIREBASE_* environment variables.
func Load(cfg *config.AppConfig) (*ServiceCredential, error) {
	if path := cfg.CredentialsPath(); path != "" {
		return FromFile(path)
	}
	return FromEnv(cfg)
}

// FromEnv builds a credential from the FIREBASE_* configuration values.
// Secret stores often hold the PEM key on one line with literal "\n"
// sequences; those are expanded before parsing.
func FromEnv(cfg *config.AppConfig) (*ServiceCredential, error) {
	return New(sourceEnv, Fields{
		ClientEmail:  cfg.ClientEmail,
		ProjectID:    cfg.ProjectID,
		PrivateKeyID: cfg.PrivateKeyID,
		PrivateKey:   normalizePEM(cfg.PrivateKey),
	})
}

// FromFile reads a Google service-account JSON key file.
func FromFile(path string) (*ServiceCredential, error) {
	//nolint:gosec // path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading credential file %q: %w", path, err)
	}
	return FromJSON(path, data)
}

// FromJSON parses service-account key JSON; source names it in errors.
func FromJSON(source string, data []byte) (*ServiceCredential, error) {
	var key serviceAccountKey
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("credential from %s: decoding service account key: %w", source, err)
	}
	if key.Type != "" && key.Type != "service_account" {
		return nil, fmt.Errorf("credential from %s: unsupported key type %q", source, key.Type)
	}
	return New(source, Fields{
		ClientEmail:  key.ClientEmail,
		ProjectID:    key.ProjectID,
		PrivateKeyID: key.PrivateKeyID,
		PrivateKey:   key.PrivateKey,
		TokenURI:     key.TokenURI,
	})
}

func normalizePEM(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.ReplaceAll(s, `\n`, "\n")
}
