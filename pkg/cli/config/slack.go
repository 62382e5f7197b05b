package config

import (
	"github.com/secmon-lab/meetsync/pkg/service/notify"
	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for operator notifications
type Slack struct {
	botToken  string
	channelID string
}

// Flags returns CLI flags for Slack configuration
func (s *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot Token for operator notifications",
			Category:    "Notification",
			Sources:     cli.EnvVars("MEETSYNC_SLACK_BOT_TOKEN"),
			Destination: &s.botToken,
		},
		&cli.StringFlag{
			Name:        "slack-channel-id",
			Usage:       "Slack channel ID notifications are posted to",
			Category:    "Notification",
			Sources:     cli.EnvVars("MEETSYNC_SLACK_CHANNEL_ID"),
			Destination: &s.channelID,
		},
	}
}

// IsConfigured reports whether the notifier can be built
func (s *Slack) IsConfigured() bool {
	return s.botToken != "" && s.channelID != ""
}

// Configure builds the Slack notifier
func (s *Slack) Configure() (notify.Service, error) {
	return notify.NewSlack(s.botToken, s.channelID)
}
