package model

import (
	"encoding/json"

	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// DispatchRequest is the durable unit of work handed from ingestion to
// the runner dispatcher through the queue.
type DispatchRequest struct {
	Owner          string `json:"owner"`
	RepositoryName string `json:"repositoryName"`
	Label          string `json:"label,omitempty"`
	DeliveryID     string `json:"deliveryId,omitempty"`
}

// Validate checks the invariants required to dispatch a runner
func (r *DispatchRequest) Validate() error {
	if r.Owner == "" {
		return goerr.New("dispatch request has empty owner", goerr.T(types.ErrTagInvalidInput))
	}
	if r.RepositoryName == "" {
		return goerr.New("dispatch request has empty repository name", goerr.T(types.ErrTagInvalidInput))
	}
	return nil
}

// QueueEnvelope is the transport-level wrapper around a queued message.
// The dispatch request is JSON-encoded inside the Body field, so a
// consumer unwraps exactly one JSON layer to recover it.
type QueueEnvelope struct {
	Body string `json:"body"`
}

// WrapDispatchRequest encodes a dispatch request into an envelope
func WrapDispatchRequest(req *DispatchRequest) (*QueueEnvelope, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode dispatch request")
	}
	return &QueueEnvelope{Body: string(body)}, nil
}

// UnwrapDispatchRequest decodes envelope bytes into a dispatch request
func UnwrapDispatchRequest(data []byte) (*DispatchRequest, error) {
	var env QueueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, goerr.Wrap(err, "failed to decode queue envelope", goerr.T(types.ErrTagInvalidInput))
	}

	var req DispatchRequest
	if err := json.Unmarshal([]byte(env.Body), &req); err != nil {
		return nil, goerr.Wrap(err, "failed to decode dispatch request body", goerr.T(types.ErrTagInvalidInput))
	}

	return &req, nil
}

// BuildInvocation is the parameter set handed to the build-execution
// service. The JIT token lives only for this one invocation and must
// never be logged or persisted.
type BuildInvocation struct {
	ProjectName    string
	Owner          string
	Repo           string
	JitToken       string `masq:"secret"`
	RunnerLabel    string
	IdempotencyKey string
}
