package usecase

import (
	"context"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type webhookUseCase struct {
	routes *model.RouteTable
	queue  interfaces.DispatchQueue
}

// NewWebhook creates a new instance of WebhookUseCase. The route table
// decides which queue subject receives each dispatch request.
func NewWebhook(routes *model.RouteTable, queue interfaces.DispatchQueue) interfaces.WebhookUseCase {
	return &webhookUseCase{
		routes: routes,
		queue:  queue,
	}
}

// ProcessWorkflowJob filters a verified workflow_job event by action,
// resolves its routing label and enqueues a dispatch request. Ignored
// actions are an idempotent no-op with no side effect.
func (uc *webhookUseCase) ProcessWorkflowJob(ctx context.Context, event *model.WorkflowJobEvent) (*interfaces.IngestResult, error) {
	logger := ctxlog.From(ctx)

	if !event.ShouldDispatch() {
		logger.Info("Ignoring workflow_job event",
			"action", event.Action,
			"owner", event.Owner,
			"repository", event.Repository,
		)
		return &interfaces.IngestResult{Ignored: true}, nil
	}

	subject, label := uc.routes.Resolve(event.Labels)

	req := &model.DispatchRequest{
		Owner:          event.Owner,
		RepositoryName: event.Repository,
		Label:          label,
		DeliveryID:     event.DeliveryID,
	}
	if err := req.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid dispatch request from webhook event")
	}

	if err := uc.queue.Enqueue(ctx, subject, req); err != nil {
		return nil, goerr.Wrap(err, "failed to enqueue dispatch request",
			goerr.V("subject", subject),
			goerr.V("owner", req.Owner),
			goerr.V("repository", req.RepositoryName),
		)
	}

	logger.Info("Enqueued dispatch request",
		"subject", subject,
		"owner", req.Owner,
		"repository", req.RepositoryName,
		"label", label,
		"delivery_id", req.DeliveryID,
	)

	return &interfaces.IngestResult{Subject: subject, Request: req}, nil
}
