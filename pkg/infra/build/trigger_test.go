package build_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/drover/pkg/infra/build"
	"github.com/m-mizutani/gt"
)

func TestTrigger_StartBuild(t *testing.T) {
	type envVar struct {
		Name  string `json:"name"`
		Value string `json:"value"`
		Type  string `json:"type"`
	}
	type startRequest struct {
		ProjectName                  string   `json:"projectName"`
		EnvironmentVariablesOverride []envVar `json:"environmentVariablesOverride"`
	}

	var got startRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Value(t, r.Method).Equal(http.MethodPost)
		gt.Value(t, r.Header.Get("Content-Type")).Equal("application/json")

		body, err := io.ReadAll(r.Body)
		gt.NoError(t, err)
		gt.NoError(t, json.Unmarshal(body, &got))

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	trigger := build.NewTrigger(srv.URL)

	inv := &model.BuildInvocation{
		ProjectName:    "runner-project",
		Owner:          "org1",
		Repo:           "repo1",
		JitToken:       "tok-123",
		RunnerLabel:    "aws-runner",
		IdempotencyKey: "delivery-1",
	}
	gt.NoError(t, trigger.StartBuild(context.Background(), inv))

	gt.Value(t, got.ProjectName).Equal("runner-project")
	gt.Value(t, got.EnvironmentVariablesOverride).Equal([]envVar{
		{Name: "OWNER", Value: "org1", Type: "PLAINTEXT"},
		{Name: "REPO", Value: "repo1", Type: "PLAINTEXT"},
		{Name: "JIT_TOKEN", Value: "tok-123", Type: "PLAINTEXT"},
		{Name: "RUNNER_LABEL", Value: "aws-runner", Type: "PLAINTEXT"},
		{Name: "IDEMPOTENCY_KEY", Value: "delivery-1", Type: "PLAINTEXT"},
	})
}

func TestTrigger_StartBuild_NonSuccessStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "Server error", status: http.StatusInternalServerError},
		{name: "Throttled", status: http.StatusTooManyRequests},
		{name: "Not found", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			trigger := build.NewTrigger(srv.URL)
			inv := &model.BuildInvocation{ProjectName: "runner-project", Owner: "org1", Repo: "repo1"}
			gt.Error(t, trigger.StartBuild(context.Background(), inv))
		})
	}
}

func TestTrigger_StartBuild_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Closed before use

	trigger := build.NewTrigger(srv.URL)
	inv := &model.BuildInvocation{ProjectName: "runner-project", Owner: "org1", Repo: "repo1"}
	gt.Error(t, trigger.StartBuild(context.Background(), inv))
}
