// Package queue runs the dispatch side of the pipeline: it consumes
// dispatch requests from the durable queue and hands them to the
// dispatch use case.
package queue

import (
	"context"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// Consumer subscribes to dispatch subjects and processes each delivered
// message once per delivery. A handler error leaves the message
// unacknowledged so the queue redelivers it after the visibility window;
// that redelivery is the only retry mechanism.
type Consumer struct {
	queue      interfaces.DispatchQueue
	dispatchUC interfaces.DispatchUseCase
	subjects   []string
	timeout    time.Duration
}

// NewConsumer creates a consumer for the given subjects. timeout bounds
// one dispatch attempt including all token exchanges.
func NewConsumer(queue interfaces.DispatchQueue, dispatchUC interfaces.DispatchUseCase, subjects []string, timeout time.Duration) *Consumer {
	return &Consumer{
		queue:      queue,
		dispatchUC: dispatchUC,
		subjects:   subjects,
		timeout:    timeout,
	}
}

// Start subscribes to all configured subjects and returns a stop
// function that halts message delivery.
func (c *Consumer) Start(ctx context.Context) (func(), error) {
	logger := ctxlog.From(ctx)

	stops := make([]func(), 0, len(c.subjects))
	stopAll := func() {
		for _, stop := range stops {
			stop()
		}
	}

	for _, subject := range c.subjects {
		stop, err := c.queue.Subscribe(ctx, subject, c.handleMessage)
		if err != nil {
			stopAll()
			return nil, goerr.Wrap(err, "failed to subscribe dispatch subject", goerr.V("subject", subject))
		}
		stops = append(stops, stop)
		logger.Info("Subscribed dispatch subject", "subject", subject)
	}

	return stopAll, nil
}

// handleMessage unwraps one queue envelope and dispatches the request
func (c *Consumer) handleMessage(ctx context.Context, data []byte) error {
	req, err := model.UnwrapDispatchRequest(data)
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	return c.dispatchUC.ProcessDispatch(ctx, req)
}
