package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/slack-go/slack"
)

// slackNotifier implements Service by posting to a Slack channel
type slackNotifier struct {
	api       *slack.Client
	channelID string
}

// NewSlack creates a Slack-backed notifier posting to the given channel
func NewSlack(botToken, channelID string) (Service, error) {
	if botToken == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	return &slackNotifier{
		api:       slack.New(botToken),
		channelID: channelID,
	}, nil
}

func (n *slackNotifier) post(ctx context.Context, color, title string, fields []slack.AttachmentField) error {
	attachment := slack.Attachment{
		Color:  color,
		Title:  title,
		Fields: fields,
	}

	_, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionAttachments(attachment))
	if err != nil {
		return goerr.Wrap(err, "failed to post Slack notification", goerr.V("channel", n.channelID))
	}
	return nil
}

func meetingFields(m *model.Meeting) []slack.AttachmentField {
	return []slack.AttachmentField{
		{Title: "Meeting", Value: m.Title, Short: true},
		{Title: "User", Value: m.UserID.String(), Short: true},
		{Title: "Start", Value: m.StartTime.Format(time.RFC3339), Short: true},
		{Title: "Bot", Value: m.BotID.String(), Short: true},
	}
}

func (n *slackNotifier) BotFailed(ctx context.Context, m *model.Meeting) error {
	return n.post(ctx, "danger", "Recording bot failed", meetingFields(m))
}

func (n *slackNotifier) TranscriptRetryExceeded(ctx context.Context, m *model.Meeting, attempts int) error {
	fields := append(meetingFields(m), slack.AttachmentField{
		Title: "Attempts", Value: fmt.Sprintf("%d", attempts), Short: true,
	})
	return n.post(ctx, "warning", "Transcript retrieval retry ceiling reached", fields)
}
