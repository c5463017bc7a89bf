package config

import (
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// Routing holds the label routing table configuration. Routes are an
// explicit ordered list; flag order defines match priority.
type Routing struct {
	Routes         []string
	DefaultSubject string
}

// Flags returns CLI flags for routing configuration
func (c *Routing) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "label-route",
			Usage:       "Label routing entry as label=subject, repeatable, first match wins",
			Destination: &c.Routes,
			Sources:     cli.EnvVars("DROVER_LABEL_ROUTES"),
		},
		&cli.StringFlag{
			Name:        "default-subject",
			Usage:       "Queue subject for jobs whose labels match no route",
			Value:       "dispatch.default",
			Destination: &c.DefaultSubject,
			Sources:     cli.EnvVars("DROVER_DEFAULT_SUBJECT"),
		},
	}
}

// Configure parses the flag values into a route table
func (c *Routing) Configure() (*model.RouteTable, error) {
	routes, err := model.ParseRoutes(c.Routes)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateSubject(c.DefaultSubject); err != nil {
		return nil, err
	}
	return model.NewRouteTable(routes, c.DefaultSubject), nil
}

// Subjects returns all subjects the dispatcher must consume, the default
// subject included, without duplicates and in table order.
func (c *Routing) Subjects() ([]string, error) {
	routes, err := model.ParseRoutes(c.Routes)
	if err != nil {
		return nil, err
	}
	if err := model.ValidateSubject(c.DefaultSubject); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(routes)+1)
	subjects := make([]string, 0, len(routes)+1)
	for _, r := range routes {
		if !seen[r.Subject] {
			seen[r.Subject] = true
			subjects = append(subjects, r.Subject)
		}
	}
	if !seen[c.DefaultSubject] {
		subjects = append(subjects, c.DefaultSubject)
	}

	return subjects, nil
}
