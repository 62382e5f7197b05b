package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/meetsync/pkg/cli/config"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/usecase"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// cmdWatch registers a push channel for one (user, calendar) pair and
// seeds the local store with a full sync.
func cmdWatch() *cli.Command {
	var userID string
	var calendarID string
	var repoCfg config.Repository
	var calCfg config.Calendar
	var policyCfg config.Policy

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user-id",
			Usage:       "Owning user ID",
			Required:    true,
			Sources:     cli.EnvVars("MEETSYNC_USER_ID"),
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "calendar-id",
			Usage:       "Calendar ID to watch (e.g., primary or an email address)",
			Required:    true,
			Sources:     cli.EnvVars("MEETSYNC_CALENDAR_ID"),
			Destination: &calendarID,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, calCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)

	return &cli.Command{
		Name:    "watch",
		Aliases: []string{"w"},
		Usage:   "Register a push channel for a calendar and run an initial full sync",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if calCfg.WebhookURL() == "" {
				return goerr.New("webhook-url is required to register a channel")
			}

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

			calClient, err := calCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize calendar client")
			}

			uc := usecase.New(repo,
				usecase.WithPolicy(policy),
				usecase.WithCalendar(calClient),
				usecase.WithWebhookURL(calCfg.WebhookURL()),
			)

			uid := types.UserID(userID)
			cid := types.CalendarID(calendarID)

			ch, err := uc.Channel.Register(ctx, uid, cid)
			if err != nil {
				return goerr.Wrap(err, "failed to register channel")
			}
			logging.Default().Info("channel registered",
				"channelID", ch.ID, "expiration", ch.Expiration)

			result, err := uc.Sync.SyncFull(ctx, uid, cid, policy.WindowDays)
			if err != nil {
				return goerr.Wrap(err, "initial full sync failed")
			}
			logging.Default().Info("initial sync completed",
				"applied", result.Applied, "removed", result.Removed)

			return nil
		},
	}
}
