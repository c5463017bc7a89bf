package secrets

import (
	"context"
	"os"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
)

// EnvStore reads the secret record from environment variables, mainly
// for local development. Values are read on every call, matching the
// no-cache contract of the interface.
type EnvStore struct {
	privateKeyVar    string
	webhookSecretVar string
}

// NewEnvStore creates a store reading the given environment variables
func NewEnvStore(privateKeyVar, webhookSecretVar string) *EnvStore {
	return &EnvStore{
		privateKeyVar:    privateKeyVar,
		webhookSecretVar: webhookSecretVar,
	}
}

// GetSecretRecord builds the secret record from the environment
func (s *EnvStore) GetSecretRecord(_ context.Context) (*model.SecretRecord, error) {
	return &model.SecretRecord{
		PrivateKey:    os.Getenv(s.privateKeyVar),
		WebhookSecret: os.Getenv(s.webhookSecretVar),
	}, nil
}

var _ interfaces.SecretStore = (*EnvStore)(nil)
