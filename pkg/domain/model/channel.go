package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// NewChannelID generates a new UUID v4 ChannelID. The channel ID is
// chosen locally at registration time and echoed back by the provider in
// push notifications.
func NewChannelID() types.ChannelID {
	return types.ChannelID(uuid.New().String())
}

// Channel represents one push-notification subscription against a
// provider calendar. At most one channel per (UserID, CalendarID) is
// active at a time.
type Channel struct {
	ID         types.ChannelID
	ResourceID string
	UserID     types.UserID
	CalendarID types.CalendarID

	// SyncToken is the opaque continuation cursor for incremental
	// diff sync. It is persisted in the same write as any other
	// channel mutation so the token and the channel row can never
	// disagree.
	SyncToken string

	// Secret is sent to the provider at registration and echoed back
	// in the X-Goog-Channel-Token header of every notification. It
	// authenticates inbound notifications.
	Secret string

	Expiration time.Time
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ExpiresWithin reports whether the channel's remaining lifetime at now
// is below the given threshold.
func (c *Channel) ExpiresWithin(now time.Time, threshold time.Duration) bool {
	return c.Expiration.Sub(now) < threshold
}

// Expired reports whether the channel is past its provider-imposed expiry
func (c *Channel) Expired(now time.Time) bool {
	return !c.Expiration.After(now)
}
