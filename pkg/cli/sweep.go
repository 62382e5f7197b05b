package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/meetsync/pkg/cli/config"
	"github.com/secmon-lab/meetsync/pkg/usecase"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// cmdSweep runs one scheduler pass and one channel renewal pass, then
// exits. Intended for cron-style deployments without the long-running
// server.
func cmdSweep() *cli.Command {
	var repoCfg config.Repository
	var calCfg config.Calendar
	var recCfg config.Recorder
	var slackCfg config.Slack
	var policyCfg config.Policy
	var skipChannels bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "skip-channels",
			Usage:       "Skip the channel renewal pass",
			Destination: &skipChannels,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, calCfg.Flags()...)
	flags = append(flags, recCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)

	return &cli.Command{
		Name:  "sweep",
		Usage: "Run one poll sweep and channel renewal pass, then exit",
		Flags: flags,
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
			}

			if slackCfg.IsConfigured() {
				notifier, err := slackCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to initialize slack notifier")
				}
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
			}

			uc := usecase.New(repo, ucOpts...)

			result, err := uc.Poll.Sweep(ctx)
			if err != nil {
				return goerr.Wrap(err, "poll sweep failed")
			}
			logging.Default().Info("poll sweep done",
				"selected", result.Selected, "polled", result.Polled,
				"skipped", result.Skipped, "failed", result.Failed)

			if !skipChannels {
				if err := uc.Channel.SweepExpiring(ctx); err != nil {
					return goerr.Wrap(err, "channel renewal sweep failed")
				}
			}

			return nil
		},
	}
}
