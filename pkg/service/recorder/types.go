package recorder

import (
	"context"

	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// Service defines the bot provider operations: dispatching a recording
// bot into a meeting, polling its status, and fetching its transcript.
type Service interface {
	// Dispatch sends a bot to the meeting URL and returns the
	// provider-side bot ID.
	Dispatch(ctx context.Context, meetingURL string, settings map[string]any) (types.BotID, error)

	// Status returns the current lifecycle status of the bot. A
	// provider-reported permanent failure is returned as
	// BotStatusFailed, not as an error.
	Status(ctx context.Context, botID types.BotID) (types.BotStatus, error)

	// Transcript fetches and normalizes the transcript, participant
	// list and recording URLs of a completed bot.
	Transcript(ctx context.Context, botID types.BotID) (*model.Transcript, error)
}
