package model

import "time"

// Dispatchable workflow_job actions. GitHub emits "queued" when a job is
// waiting for a runner; older App configurations deliver "created" for
// the same transition.
const (
	ActionQueued  = "queued"
	ActionCreated = "created"
)

// WorkflowJobEvent is a verified workflow_job webhook payload. It must
// only be constructed after the HMAC signature of the raw body has been
// verified.
type WorkflowJobEvent struct {
	DeliveryID string    // Retrieved from X-GitHub-Delivery header
	Action     string    // Event action (e.g. queued, completed)
	Owner      string    // Repository owner login
	Repository string    // Repository name
	Labels     []string  // Runner labels requested by the workflow job
	ReceivedAt time.Time // Time when the event was received
}

// ShouldDispatch reports whether the event should provision a runner.
// All other actions are ignored as an idempotent no-op.
func (e *WorkflowJobEvent) ShouldDispatch() bool {
	return e.Action == ActionQueued || e.Action == ActionCreated
}
