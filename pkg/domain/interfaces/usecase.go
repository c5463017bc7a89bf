package interfaces

import (
	"context"

	"github.com/m-mizutani/drover/pkg/domain/model"
)

// IngestResult tells the HTTP controller what happened to an event
type IngestResult struct {
	Ignored bool
	Subject string
	Request *model.DispatchRequest
}

// WebhookUseCase defines workflow_job event ingestion: action filtering,
// label routing and hand-off to the dispatch queue.
type WebhookUseCase interface {
	ProcessWorkflowJob(ctx context.Context, event *model.WorkflowJobEvent) (*IngestResult, error)
}

// DispatchUseCase processes one dequeued dispatch request: mint a JIT
// token and trigger the build-execution service. Any error propagates to
// the queue consumer, which must not acknowledge the message.
type DispatchUseCase interface {
	ProcessDispatch(ctx context.Context, req *model.DispatchRequest) error
}
