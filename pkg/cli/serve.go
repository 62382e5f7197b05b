package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/meetsync/pkg/cli/config"
	httpctrl "github.com/secmon-lab/meetsync/pkg/controller/http"
	"github.com/secmon-lab/meetsync/pkg/service/worker"
	"github.com/secmon-lab/meetsync/pkg/usecase"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var repoCfg config.Repository
	var calCfg config.Calendar
	var recCfg config.Recorder
	var slackCfg config.Slack
	var policyCfg config.Policy

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("MEETSYNC_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, calCfg.Flags()...)
	flags = append(flags, recCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start the sync server with push notification endpoint and background workers",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			policy, err := policyCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load policy")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			ucOpts := []usecase.Option{
				usecase.WithPolicy(policy),
				usecase.WithWebhookURL(calCfg.WebhookURL()),
			}

			calClient, err := calCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize calendar client")
			}
			ucOpts = append(ucOpts, usecase.WithCalendar(calClient))

			if recCfg.IsConfigured() {
				recSvc, err := recCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to initialize recorder client")
				}
				ucOpts = append(ucOpts, usecase.WithRecorder(recSvc))
				logging.Default().Info("Recorder service enabled")
			} else {
				logging.Default().Warn("Recorder not configured, bot dispatch and polling disabled")
			}

			if slackCfg.IsConfigured() {
				notifier, err := slackCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to initialize slack notifier")
				}
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logging.Default().Info("Slack notifications enabled")
			}

			uc := usecase.New(repo, ucOpts...)

			// Background workers: adaptive poll sweep and channel renewal
			pollWorker := worker.NewPollWorker(uc, time.Duration(policy.SweepIntervalSeconds)*time.Second)
			if err := pollWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start poll worker")
			}

			renewalWorker := worker.NewRenewalWorker(uc, time.Hour)
			if err := renewalWorker.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start renewal worker")
			}

			httpHandler := httpctrl.New(uc,
				httpctrl.WithSyncTimeout(time.Duration(policy.WebhookSyncTimeoutSeconds)*time.Second),
			)
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				pollWorker.Stop()
				renewalWorker.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
