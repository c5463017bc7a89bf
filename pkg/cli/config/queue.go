package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Queue holds dispatch queue configuration
type Queue struct {
	URL             string
	DispatchTimeout time.Duration
}

// Flags returns CLI flags for queue configuration
func (c *Queue) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "nats-url",
			Usage:       "NATS server URL for the dispatch queue",
			Required:    true,
			Destination: &c.URL,
			Sources:     cli.EnvVars("DROVER_NATS_URL"),
		},
		&cli.DurationFlag{
			Name:        "dispatch-timeout",
			Usage:       "Timeout for one dispatch attempt",
			Value:       5 * time.Minute,
			Destination: &c.DispatchTimeout,
			Sources:     cli.EnvVars("DROVER_DISPATCH_TIMEOUT"),
		},
	}
}

// ackWaitHeadroom keeps the redelivery window open past the handler
// deadline so a timed-out attempt cannot race its own redelivery.
const ackWaitHeadroom = 30 * time.Second

// AckWait returns the queue visibility window for one dispatch attempt
func (c *Queue) AckWait() time.Duration {
	return c.DispatchTimeout + ackWaitHeadroom
}
