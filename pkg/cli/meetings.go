package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/secmon-lab/meetsync/pkg/cli/config"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// cmdMeetings lists the locally known meetings and their bot lifecycle
// state, for operator inspection.
func cmdMeetings() *cli.Command {
	var repoCfg config.Repository
	var showAll bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "all",
			Usage:       "Include meetings without a dispatched bot",
			Destination: &showAll,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "meetings",
		Aliases: []string{"ls"},
		Usage:   "List tracked meetings and their bot lifecycle state",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			meetings, err := repo.Meeting().List(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to list meetings")
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "START\tTITLE\tSTATUS\tNEXT POLL\tTRANSCRIPT")
			for _, m := range meetings {
				if !showAll && !m.HasBot() {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					m.StartTime.Format("2006-01-02 15:04"),
					m.Title,
					colorStatus(m.Status),
					formatNextPoll(m),
					formatTranscript(m),
				)
			}
			if err := w.Flush(); err != nil {
				return goerr.Wrap(err, "failed to flush output")
			}

			return nil
		},
	}
}

func colorStatus(s types.BotStatus) string {
	switch s {
	case types.BotStatusCompleted:
		return color.GreenString(s.String())
	case types.BotStatusFailed:
		return color.RedString(s.String())
	case types.BotStatusJoined, types.BotStatusTranscribing:
		return color.CyanString(s.String())
	case types.BotStatusPending, types.BotStatusScheduled:
		return color.YellowString(s.String())
	default:
		return "-"
	}
}

func formatNextPoll(m *model.Meeting) string {
	if m.NextPollAt == nil {
		return "-"
	}
	return m.NextPollAt.Format("15:04:05")
}

func formatTranscript(m *model.Meeting) string {
	switch {
	case m.TranscriptRetrievedAt != nil:
		return color.GreenString("retrieved")
	case m.TranscriptAttempts > 0:
		return color.YellowString(fmt.Sprintf("pending (%d attempts)", m.TranscriptAttempts))
	case m.Status == types.BotStatusCompleted:
		return "pending"
	default:
		return "-"
	}
}
