package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// ChannelRepository defines the interface for push channel data access
type ChannelRepository interface {
	// Put stores a new channel
	Put(ctx context.Context, ch *model.Channel) (*model.Channel, error)

	// Get retrieves a channel by its provider channel ID
	Get(ctx context.Context, id types.ChannelID) (*model.Channel, error)

	// GetActive retrieves the active channel of a (user, calendar)
	// pair. Returns nil, nil when none is active.
	GetActive(ctx context.Context, userID types.UserID, calendarID types.CalendarID) (*model.Channel, error)

	// ListActive retrieves all active channels
	ListActive(ctx context.Context) ([]*model.Channel, error)

	// ListExpiring retrieves active channels whose expiry is before the
	// given deadline.
	ListExpiring(ctx context.Context, before time.Time) ([]*model.Channel, error)

	// UpdateSyncToken persists a new continuation token on the channel.
	// The write replaces the old token atomically with the channel row
	// update.
	UpdateSyncToken(ctx context.Context, id types.ChannelID, token string) error

	// Deactivate marks the channel inactive
	Deactivate(ctx context.Context, id types.ChannelID) error
}
