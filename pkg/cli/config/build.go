package config

import "github.com/urfave/cli/v3"

// Build holds build-execution service configuration
type Build struct {
	Endpoint    string
	ProjectName string
	RunnerLabel string
}

// Flags returns CLI flags for build service configuration
func (c *Build) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "build-endpoint",
			Usage:       "Build-execution service endpoint URL",
			Required:    true,
			Destination: &c.Endpoint,
			Sources:     cli.EnvVars("DROVER_BUILD_ENDPOINT"),
		},
		&cli.StringFlag{
			Name:        "build-project",
			Usage:       "Build project started per dispatch",
			Required:    true,
			Destination: &c.ProjectName,
			Sources:     cli.EnvVars("DROVER_BUILD_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "runner-label",
			Usage:       "Label the ephemeral runner registers with",
			Required:    true,
			Destination: &c.RunnerLabel,
			Sources:     cli.EnvVars("DROVER_RUNNER_LABEL"),
		},
	}
}
