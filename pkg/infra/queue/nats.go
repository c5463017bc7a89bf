// Package queue implements the dispatch queue on NATS JetStream. The
// stream gives at-least-once delivery: a handler failure triggers Nak
// and the message is redelivered after the ack wait window.
package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const streamName = "DISPATCH"

// SubjectPrefix is the subject namespace captured by the dispatch stream
const SubjectPrefix = model.SubjectPrefix

// Queue implements interfaces.DispatchQueue using NATS JetStream
type Queue struct {
	nc      *nats.Conn
	js      jetstream.JetStream
	ackWait time.Duration
}

// Connect establishes a connection to NATS and ensures the dispatch
// stream exists. ackWait is the visibility window before an
// unacknowledged message is redelivered.
func Connect(ctx context.Context, url string, ackWait time.Duration) (*Queue, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, goerr.Wrap(err, "nats connect", goerr.T(types.ErrTagUpstream))
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, goerr.Wrap(err, "jetstream init", goerr.T(types.ErrTagUpstream))
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{SubjectPrefix + ">"},
	})
	if err != nil {
		nc.Close()
		return nil, goerr.Wrap(err, "jetstream stream create", goerr.T(types.ErrTagUpstream))
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{nc: nc, js: js, ackWait: ackWait}, nil
}

// Enqueue wraps the dispatch request in the transport envelope and
// publishes it. It returns only after the broker acknowledged the
// message; ownership of the request transfers to the queue here.
func (q *Queue) Enqueue(ctx context.Context, subject string, req *model.DispatchRequest) error {
	env, err := model.WrapDispatchRequest(req)
	if err != nil {
		return err
	}

	data, err := json.Marshal(env)
	if err != nil {
		return goerr.Wrap(err, "failed to encode queue envelope")
	}

	if _, err := q.js.Publish(ctx, subject, data); err != nil {
		return goerr.Wrap(err, "nats publish", goerr.T(types.ErrTagUpstream), goerr.V("subject", subject))
	}
	return nil
}

// Subscribe registers a handler for messages on the given subject. The
// handler receives the raw envelope bytes; a non-nil error causes Nak
// and redelivery after the ack wait window.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler interfaces.QueueHandler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Durable:       durableName(subject),
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       q.ackWait,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "nats consumer create", goerr.T(types.ErrTagUpstream))
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		if err := handler(ctx, msg.Data()); err != nil {
			slog.Error("dispatch handler failed", "subject", msg.Subject(), "error", err)
			// A plain Nak redelivers immediately; pace retries by the
			// ack wait window instead.
			if nakErr := msg.NakWithDelay(q.ackWait); nakErr != nil {
				slog.Error("nats nak failed", "error", nakErr)
			}
			return
		}
		if ackErr := msg.Ack(); ackErr != nil {
			slog.Error("nats ack failed", "error", ackErr)
		}
	})
	if err != nil {
		return nil, goerr.Wrap(err, "nats consume", goerr.T(types.ErrTagUpstream))
	}

	return cons.Stop, nil
}

// durableName derives a durable consumer name from the subject so
// multiple dispatcher processes share one consumer per subject.
func durableName(subject string) string {
	return "dispatcher-" + strings.ReplaceAll(subject, ".", "-")
}

// Close shuts down the NATS connection
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

var _ interfaces.DispatchQueue = (*Queue)(nil)
