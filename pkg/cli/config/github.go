package config

import "github.com/urfave/cli/v3"

// GitHub holds GitHub App configuration. The App ID comes from the
// environment; the private key and webhook secret live in the secret
// store record.
type GitHub struct {
	AppID int64
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Required:    true,
			Destination: &c.AppID,
			Sources:     cli.EnvVars("DROVER_GITHUB_APP_ID"),
		},
	}
}
