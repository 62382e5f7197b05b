package gcal

import (
	"context"
	"time"

	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// Client defines the calendar provider operations the sync engine needs
type Client interface {
	// Watch registers a push-notification channel for the calendar.
	// channelID and secret are chosen by the caller; the provider
	// echoes them back in every notification.
	Watch(ctx context.Context, calendarID types.CalendarID, channelID types.ChannelID, secret, address string) (*WatchResult, error)

	// Stop terminates a push-notification channel
	Stop(ctx context.Context, channelID types.ChannelID, resourceID string) error

	// Changes lists events changed or deleted since the continuation
	// token was issued, and returns the next token. Returns
	// types.ErrSyncTokenInvalid when the provider rejects the token.
	Changes(ctx context.Context, calendarID types.CalendarID, syncToken string) (*ChangeSet, error)

	// ListWindow lists all events with a start time inside [from, to]
	// and returns a fresh continuation token for subsequent
	// incremental syncs.
	ListWindow(ctx context.Context, calendarID types.CalendarID, from, to time.Time) (*ChangeSet, error)
}

// WatchResult is the provider's response to a channel registration
type WatchResult struct {
	ChannelID  types.ChannelID
	ResourceID string
	Expiration time.Time
}

// ChangeSet is one listing result: the normalized events (cancelled
// ones flagged) and the continuation token valid after applying them.
type ChangeSet struct {
	Events        []model.CalendarEvent
	NextSyncToken string
}
