package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/service/recorder"
	"github.com/urfave/cli/v3"
)

// Recorder holds CLI flags for the bot provider client
type Recorder struct {
	baseURL string
	token   string
	botName string
}

// Flags returns CLI flags for recorder configuration
func (r *Recorder) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "recorder-url",
			Usage:       "Base URL of the recording bot provider API",
			Category:    "Recorder",
			Sources:     cli.EnvVars("MEETSYNC_RECORDER_URL"),
			Destination: &r.baseURL,
		},
		&cli.StringFlag{
			Name:        "recorder-token",
			Usage:       "API token for the recording bot provider",
			Category:    "Recorder",
			Sources:     cli.EnvVars("MEETSYNC_RECORDER_TOKEN"),
			Destination: &r.token,
		},
		&cli.StringFlag{
			Name:        "recorder-bot-name",
			Usage:       "Display name of the bot inside meetings",
			Category:    "Recorder",
			Value:       "MeetSync Notetaker",
			Sources:     cli.EnvVars("MEETSYNC_RECORDER_BOT_NAME"),
			Destination: &r.botName,
		},
	}
}

// IsConfigured reports whether the recorder client can be built
func (r *Recorder) IsConfigured() bool {
	return r.baseURL != "" && r.token != ""
}

// Configure builds the bot provider client
func (r *Recorder) Configure() (recorder.Service, error) {
	if !r.IsConfigured() {
		return nil, goerr.New("recorder-url and recorder-token are required")
	}

	return recorder.New(r.baseURL, r.token, recorder.WithBotName(r.botName))
}
