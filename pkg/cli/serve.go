package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/drover/pkg/cli/config"
	controller "github.com/m-mizutani/drover/pkg/controller/http"
	"github.com/m-mizutani/drover/pkg/infra/queue"
	"github.com/m-mizutani/drover/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		secretCfg  config.Secret
		queueCfg   config.Queue
		routingCfg config.Routing
	)

	flags := append(serverCfg.Flags(), secretCfg.Flags()...)
	flags = append(flags, queueCfg.Flags()...)
	flags = append(flags, routingCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the webhook ingestion HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			logger.Info("Starting drover ingestor",
				slog.String("addr", serverCfg.Addr),
			)

			secrets, err := secretCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to configure secret store")
			}

			routes, err := routingCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to configure label routing")
			}

			dispatchQueue, err := queue.Connect(ctx, queueCfg.URL, queueCfg.AckWait())
			if err != nil {
				return goerr.Wrap(err, "failed to connect dispatch queue")
			}
			defer dispatchQueue.Close()

			webhookUC := usecase.NewWebhook(routes, dispatchQueue)

			server, err := controller.NewServer(
				ctx,
				secrets,
				webhookUC,
				controller.WithAddr(serverCfg.Addr),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
