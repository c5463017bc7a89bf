// Package secrets provides secret store implementations for the App
// credentials record (PRIVATE_KEY + WEBHOOK_SECRET).
package secrets

import (
	"context"
	"encoding/base64"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	secretmanager "google.golang.org/api/secretmanager/v1"
)

// SecretManagerStore fetches the secret record from Google Secret
// Manager. Each call reads the named version so rotations take effect
// without a restart.
type SecretManagerStore struct {
	svc        *secretmanager.Service
	secretName string
}

// NewSecretManagerStore creates a store reading the given secret
// resource name (projects/{project}/secrets/{secret}/versions/latest).
func NewSecretManagerStore(ctx context.Context, secretName string) (*SecretManagerStore, error) {
	svc, err := secretmanager.NewService(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create secret manager client", goerr.T(types.ErrTagUpstream))
	}

	return &SecretManagerStore{
		svc:        svc,
		secretName: secretName,
	}, nil
}

// GetSecretRecord fetches and decodes the secret record
func (s *SecretManagerStore) GetSecretRecord(ctx context.Context) (*model.SecretRecord, error) {
	resp, err := s.svc.Projects.Secrets.Versions.Access(s.secretName).Context(ctx).Do()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to access secret version",
			goerr.T(types.ErrTagUpstream),
			goerr.V("secret", s.secretName),
		)
	}
	if resp.Payload == nil {
		return nil, goerr.New("secret version has no payload",
			goerr.T(types.ErrTagUpstream),
			goerr.V("secret", s.secretName),
		)
	}

	data, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode secret payload", goerr.T(types.ErrTagUpstream))
	}

	return model.ParseSecretRecord(data)
}

var _ interfaces.SecretStore = (*SecretManagerStore)(nil)
