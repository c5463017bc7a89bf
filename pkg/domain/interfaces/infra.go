package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// SecretStore fetches the shared secret record from a secret-management
// service. Implementations must not cache: every call reads the current
// record so rotations take effect without a restart.
type SecretStore interface {
	GetSecretRecord(ctx context.Context) (*model.SecretRecord, error)
}

// QueueHandler processes one dequeued message body. A non-nil error
// means the message is not acknowledged and will be redelivered.
type QueueHandler func(ctx context.Context, data []byte) error

// DispatchQueue is the durable at-least-once buffer between ingestion
// and dispatch. Enqueue returns only after the broker acknowledged the
// message. Subscribe registers a handler and returns a stop function.
type DispatchQueue interface {
	Enqueue(ctx context.Context, subject string, req *model.DispatchRequest) error
	Subscribe(ctx context.Context, subject string, handler QueueHandler) (func(), error)
}

// RunnerTokenSource mints single-use JIT runner registration tokens via
// the GitHub App credential exchange.
type RunnerTokenSource interface {
	MintRunnerToken(ctx context.Context, owner, repo string) (string, error)
}

// BuildTrigger starts the external build-execution service that hosts
// one ephemeral runner. The service owns the build lifecycle after a
// successful start.
type BuildTrigger interface {
	StartBuild(ctx context.Context, inv *model.BuildInvocation) error
}
