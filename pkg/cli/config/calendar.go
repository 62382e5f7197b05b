package config

import (
	"context"

	"github.com/secmon-lab/meetsync/pkg/service/gcal"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Calendar holds CLI flags for the calendar provider client
type Calendar struct {
	credentialsFile string
	webhookURL      string
}

// Flags returns CLI flags for calendar configuration
func (c *Calendar) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "calendar-credentials",
			Usage:       "Path to Google service account credentials file (omit to use application default credentials)",
			Category:    "Calendar",
			Sources:     cli.EnvVars("MEETSYNC_CALENDAR_CREDENTIALS"),
			Destination: &c.credentialsFile,
		},
		&cli.StringFlag{
			Name:        "webhook-url",
			Usage:       "Public URL push notifications are delivered to (e.g., https://your-domain.com/hooks/calendar)",
			Category:    "Calendar",
			Sources:     cli.EnvVars("MEETSYNC_WEBHOOK_URL"),
			Destination: &c.webhookURL,
		},
	}
}

// WebhookURL returns the configured push notification address
func (c *Calendar) WebhookURL() string {
	return c.webhookURL
}

// Configure builds the calendar API client
func (c *Calendar) Configure(ctx context.Context) (gcal.Client, error) {
	var opts []gcal.Option
	if c.credentialsFile != "" {
		opts = append(opts, gcal.WithCredentialsFile(c.credentialsFile))
		logging.Default().Info("Using calendar credentials file", "path", c.credentialsFile)
	} else {
		logging.Default().Info("Using application default credentials for calendar")
	}

	return gcal.New(ctx, opts...)
}
