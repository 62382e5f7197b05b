package interfaces

import (
	"context"

	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// BotRepository defines the interface for Bot data access
type BotRepository interface {
	// Put stores a dispatched bot
	Put(ctx context.Context, bot *model.Bot) error

	// Get retrieves a bot by its provider bot ID
	Get(ctx context.Context, id types.BotID) (*model.Bot, error)

	// GetByMeeting retrieves the bot dispatched for a meeting.
	// Returns nil, nil when no bot has been dispatched.
	GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Bot, error)
}
