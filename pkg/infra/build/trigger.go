// Package build implements the client for the external build-execution
// service that hosts ephemeral runner processes.
package build

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// envVar is one plaintext environment override for the build
type envVar struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Type  string `json:"type"`
}

// startBuildRequest is the wire format of a build start call
type startBuildRequest struct {
	ProjectName                  string   `json:"projectName"`
	EnvironmentVariablesOverride []envVar `json:"environmentVariablesOverride"`
}

// Trigger starts builds over the service's HTTP API
type Trigger struct {
	endpoint string
	client   *http.Client
}

// NewTrigger creates a build trigger client for the given endpoint
func NewTrigger(endpoint string) *Trigger {
	return &Trigger{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StartBuild starts one build with the invocation's environment
// overrides. The JIT token travels only in the request body; it is never
// logged here or by the caller.
func (t *Trigger) StartBuild(ctx context.Context, inv *model.BuildInvocation) error {
	reqBody := startBuildRequest{
		ProjectName: inv.ProjectName,
		EnvironmentVariablesOverride: []envVar{
			{Name: "OWNER", Value: inv.Owner, Type: "PLAINTEXT"},
			{Name: "REPO", Value: inv.Repo, Type: "PLAINTEXT"},
			{Name: "JIT_TOKEN", Value: inv.JitToken, Type: "PLAINTEXT"},
			{Name: "RUNNER_LABEL", Value: inv.RunnerLabel, Type: "PLAINTEXT"},
			{Name: "IDEMPOTENCY_KEY", Value: inv.IdempotencyKey, Type: "PLAINTEXT"},
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return goerr.Wrap(err, "failed to encode build request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(data))
	if err != nil {
		return goerr.Wrap(err, "failed to create build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to call build service",
			goerr.T(types.ErrTagUpstream),
			goerr.V("project", inv.ProjectName),
		)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return goerr.New("build service returned non-success status",
			goerr.T(types.ErrTagUpstream),
			goerr.V("status", resp.StatusCode),
			goerr.V("project", inv.ProjectName),
		)
	}

	return nil
}

var _ interfaces.BuildTrigger = (*Trigger)(nil)
