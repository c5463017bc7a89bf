package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/cli/config"
	consumer "github.com/m-mizutani/drover/pkg/controller/queue"
	"github.com/m-mizutani/drover/pkg/infra/build"
	"github.com/m-mizutani/drover/pkg/infra/github"
	"github.com/m-mizutani/drover/pkg/infra/queue"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdDispatch() *cli.Command {
	var (
		secretCfg  config.Secret
		githubCfg  config.GitHub
		queueCfg   config.Queue
		routingCfg config.Routing
		buildCfg   config.Build
	)

	flags := append(secretCfg.Flags(), githubCfg.Flags()...)
	flags = append(flags, queueCfg.Flags()...)
	flags = append(flags, routingCfg.Flags()...)
	flags = append(flags, buildCfg.Flags()...)

	return &cli.Command{
		Name:    "dispatch",
		Aliases: []string{"d"},
		Usage:   "Start the runner dispatch queue consumer",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			secrets, err := secretCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure secret store")
			}

			subjects, err := routingCfg.Subjects()
			if err != nil {
				return goerr.Wrap(err, "failed to configure dispatch subjects")
			}

			dispatchQueue, err := queue.Connect(ctx, queueCfg.URL, queueCfg.AckWait())
			if err != nil {
				return goerr.Wrap(err, "failed to connect dispatch queue")
			}
			defer dispatchQueue.Close()

			tokens := github.NewApp(githubCfg.AppID, secrets)
			trigger := build.NewTrigger(buildCfg.Endpoint)

			dispatchUC, err := usecase.NewDispatch(tokens, trigger, buildCfg.ProjectName, buildCfg.RunnerLabel)
			if err != nil {
				return goerr.Wrap(err, "failed to create dispatch use case")
			}

			cons := consumer.NewConsumer(dispatchQueue, dispatchUC, subjects, queueCfg.DispatchTimeout)
			stop, err := cons.Start(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to start dispatch consumer")
			}
			defer stop()

			logger.Info("Dispatch consumer started",
				"subjects", subjects,
				"project", buildCfg.ProjectName,
				"runner_label", buildCfg.RunnerLabel,
			)

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", "signal", sig.String())
			}

			logger.Info("Dispatch consumer shutdown complete")
			return nil
		},
	}
}
