package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// SecretRecord is the secret store record shared by the webhook ingestor
// and the GitHub App authenticator. The private key may be provisioned
// empty and rotated in later; consumers must validate the field they use.
type SecretRecord struct {
	PrivateKey    string `json:"PRIVATE_KEY" masq:"secret"`
	WebhookSecret string `json:"WEBHOOK_SECRET" masq:"secret"`
}

// ParseSecretRecord decodes the JSON secret record payload
func ParseSecretRecord(data []byte) (*SecretRecord, error) {
	var rec SecretRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, goerr.Wrap(err, "failed to decode secret record", goerr.T(types.ErrTagUpstream))
	}
	return &rec, nil
}

// ValidateWebhookSecret checks that the shared HMAC key is present
func (r *SecretRecord) ValidateWebhookSecret() error {
	if r.WebhookSecret == "" {
		return goerr.New("webhook secret is empty in secret record", goerr.T(types.ErrTagUpstream))
	}
	return nil
}

// ValidatePrivateKey checks that the App private key looks like a PEM
// block. A record provisioned with an empty key is not yet usable.
func (r *SecretRecord) ValidatePrivateKey() error {
	if r.PrivateKey == "" {
		return goerr.Wrap(types.ErrSecretUnavailable, "private key is empty in secret record")
	}
	if !strings.Contains(r.PrivateKey, "-----BEGIN") {
		return goerr.Wrap(types.ErrSecretUnavailable, "private key is not PEM encoded")
	}
	return nil
}
