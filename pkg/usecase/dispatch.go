package usecase

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	dedupCacheEntries = 1 << 14
	dedupTTL          = 15 * time.Minute
)

type dispatchUseCase struct {
	tokens      interfaces.RunnerTokenSource
	build       interfaces.BuildTrigger
	projectName string
	runnerLabel string
	seen        *ristretto.Cache[string, struct{}]
}

// NewDispatch creates a new instance of DispatchUseCase. projectName is
// the build-execution project started per dispatch; runnerLabel is the
// label the ephemeral runner registers with.
func NewDispatch(tokens interfaces.RunnerTokenSource, build interfaces.BuildTrigger, projectName, runnerLabel string) (interfaces.DispatchUseCase, error) {
	seen, err := ristretto.NewCache(&ristretto.Config[string, struct{}]{
		NumCounters: dedupCacheEntries * 10,
		MaxCost:     dedupCacheEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create dedup cache")
	}

	return &dispatchUseCase{
		tokens:      tokens,
		build:       build,
		projectName: projectName,
		runnerLabel: runnerLabel,
		seen:        seen,
	}, nil
}

// ProcessDispatch handles one dequeued dispatch request. The queue
// delivers at least once; a delivery ID already dispatched within the
// dedup window is acknowledged without starting a second runner. Any
// failure is returned so the consumer leaves the message unacknowledged
// and the queue redelivers it. There is no internal retry or backoff.
func (uc *dispatchUseCase) ProcessDispatch(ctx context.Context, req *model.DispatchRequest) error {
	logger := ctxlog.From(ctx)

	if err := req.Validate(); err != nil {
		return err
	}

	if req.DeliveryID != "" {
		if _, found := uc.seen.Get(req.DeliveryID); found {
			logger.Info("Skipping already dispatched delivery",
				"delivery_id", req.DeliveryID,
				"owner", req.Owner,
				"repository", req.RepositoryName,
			)
			return nil
		}
	}

	token, err := uc.tokens.MintRunnerToken(ctx, req.Owner, req.RepositoryName)
	if err != nil {
		return goerr.Wrap(err, "failed to mint runner token",
			goerr.V("owner", req.Owner),
			goerr.V("repository", req.RepositoryName),
		)
	}

	inv := &model.BuildInvocation{
		ProjectName:    uc.projectName,
		Owner:          req.Owner,
		Repo:           req.RepositoryName,
		JitToken:       token,
		RunnerLabel:    uc.runnerLabel,
		IdempotencyKey: req.DeliveryID,
	}

	if err := uc.build.StartBuild(ctx, inv); err != nil {
		return goerr.Wrap(err, "failed to start runner build",
			goerr.V("project", uc.projectName),
			goerr.V("owner", req.Owner),
			goerr.V("repository", req.RepositoryName),
		)
	}

	// Mark only after a successful start so a failed attempt is retried
	// on redelivery.
	if req.DeliveryID != "" {
		uc.seen.SetWithTTL(req.DeliveryID, struct{}{}, 1, dedupTTL)
		uc.seen.Wait()
	}

	logger.Info("Triggered runner build",
		"project", uc.projectName,
		"owner", req.Owner,
		"repository", req.RepositoryName,
		"runner_label", uc.runnerLabel,
		"delivery_id", req.DeliveryID,
	)

	return nil
}
