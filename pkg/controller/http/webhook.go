package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

var errMissingFields = goerr.New("payload is missing action or repository fields", goerr.T(types.ErrTagInvalidInput))

// WebhookHandler handles GitHub workflow_job webhooks
type WebhookHandler struct {
	secrets   interfaces.SecretStore
	webhookUC interfaces.WebhookUseCase
}

// NewWebhookHandler creates a new WebhookHandler. The webhook secret is
// fetched from the secret store on every request so rotations take
// effect immediately.
func NewWebhookHandler(secrets interfaces.SecretStore, webhookUC interfaces.WebhookUseCase) *WebhookHandler {
	return &WebhookHandler{
		secrets:   secrets,
		webhookUC: webhookUC,
	}
}

// Handle processes webhook requests
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := ctxlog.From(ctx)

	// Read payload
	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.Error("Failed to read request body", "error", err)
		writeMessage(w, http.StatusBadRequest, "Missing body or signature")
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Hub-Signature-256")
	if len(body) == 0 || signature == "" {
		writeMessage(w, http.StatusBadRequest, "Missing body or signature")
		return
	}

	// Fetch the shared secret fresh for this request
	record, err := h.secrets.GetSecretRecord(ctx)
	if err != nil {
		logger.Error("Failed to fetch webhook secret", "error", err)
		writeMessage(w, http.StatusBadGateway, "Failed to process event")
		return
	}
	if err := record.ValidateWebhookSecret(); err != nil {
		logger.Error("Webhook secret is not usable", "error", err)
		writeMessage(w, http.StatusBadGateway, "Failed to process event")
		return
	}

	// Verify signature. The response carries no detail about why
	// verification failed.
	if !verifySignature(record.WebhookSecret, body, signature) {
		logger.Warn("Invalid webhook signature")
		writeMessage(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	// Only workflow_job events can dispatch runners; everything else is
	// acknowledged and dropped.
	if eventType := r.Header.Get("X-GitHub-Event"); eventType != "" && eventType != "workflow_job" {
		logger.Info("Ignoring unsupported event type", "event_type", eventType)
		writeMessage(w, http.StatusOK, "Ignored non-queued event")
		return
	}

	event, err := parseWorkflowJobEvent(body)
	if err != nil {
		logger.Warn("Malformed webhook payload", "error", err)
		writeMessage(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	event.DeliveryID = r.Header.Get("X-GitHub-Delivery")

	result, err := h.webhookUC.ProcessWorkflowJob(ctx, event)
	if err != nil {
		logger.Error("Failed to process webhook event", "error", err)
		writeMessage(w, http.StatusBadGateway, "Failed to process event")
		return
	}

	if result.Ignored {
		writeMessage(w, http.StatusOK, "Ignored non-queued event")
		return
	}
	writeMessage(w, http.StatusOK, "OK")
}

// parseWorkflowJobEvent decodes a verified payload into a workflow job
// event. It must only be called with a body whose signature has been
// verified.
func parseWorkflowJobEvent(body []byte) (*model.WorkflowJobEvent, error) {
	var payload github.WorkflowJobEvent
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	event := &model.WorkflowJobEvent{
		Action:     payload.GetAction(),
		Owner:      payload.GetRepo().GetOwner().GetLogin(),
		Repository: payload.GetRepo().GetName(),
		Labels:     payload.GetWorkflowJob().Labels,
		ReceivedAt: time.Now(),
	}

	if event.Action == "" || event.Owner == "" || event.Repository == "" {
		return nil, errMissingFields
	}

	return event, nil
}

// verifySignature verifies the webhook signature with a constant-time
// comparison of the HMAC-SHA256 over the raw body.
func verifySignature(secret string, payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	// Remove "sha256=" prefix if present
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expectedMAC := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expectedMAC))
}
