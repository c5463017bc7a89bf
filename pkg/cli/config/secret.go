package config

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/infra/secrets"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// Secret selects and configures the secret store backend
type Secret struct {
	Source     string
	SecretName string
}

// Flags returns CLI flags for secret store configuration
func (c *Secret) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "secret-source",
			Usage:       "Secret store backend (gsm or env)",
			Value:       "gsm",
			Destination: &c.Source,
			Sources:     cli.EnvVars("DROVER_SECRET_SOURCE"),
		},
		&cli.StringFlag{
			Name:        "secret-name",
			Usage:       "Secret Manager resource name (projects/{p}/secrets/{s}/versions/latest)",
			Destination: &c.SecretName,
			Sources:     cli.EnvVars("DROVER_SECRET_NAME"),
		},
	}
}

// Configure builds the secret store. Misconfiguration is reported here,
// at initialization, not at first request.
func (c *Secret) Configure(ctx context.Context) (interfaces.SecretStore, error) {
	switch c.Source {
	case "gsm":
		if c.SecretName == "" {
			return nil, goerr.New("secret-name is required for the gsm secret source")
		}
		return secrets.NewSecretManagerStore(ctx, c.SecretName)
	case "env":
		return secrets.NewEnvStore("DROVER_PRIVATE_KEY", "DROVER_WEBHOOK_SECRET"), nil
	default:
		return nil, goerr.New("unknown secret source", goerr.V("source", c.Source))
	}
}
