package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/interfaces"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

type channelRepository struct {
	mu       sync.RWMutex
	channels map[types.ChannelID]*model.Channel
}

func newChannelRepository() *channelRepository {
	return &channelRepository{
		channels: make(map[types.ChannelID]*model.Channel),
	}
}

// copyChannel creates a deep copy of a channel
func copyChannel(ch *model.Channel) *model.Channel {
	c := *ch
	return &c
}

func (r *channelRepository) Put(ctx context.Context, ch *model.Channel) (*model.Channel, error) {
	if ch.ID == "" {
		return nil, goerr.New("channel ID is required")
	}
	if err := ch.UserID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid channel")
	}
	if err := ch.CalendarID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid channel")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyChannel(ch)
	created.CreatedAt = now
	created.UpdatedAt = now

	r.channels[created.ID] = created
	return copyChannel(created), nil
}

func (r *channelRepository) Get(ctx context.Context, id types.ChannelID) (*model.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, exists := r.channels[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "channel not found", goerr.V("id", id))
	}
	return copyChannel(ch), nil
}

func (r *channelRepository) GetActive(ctx context.Context, userID types.UserID, calendarID types.CalendarID) (*model.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ch := range r.channels {
		if ch.Active && ch.UserID == userID && ch.CalendarID == calendarID {
			return copyChannel(ch), nil
		}
	}
	return nil, nil
}

func (r *channelRepository) ListActive(ctx context.Context) ([]*model.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var channels []*model.Channel
	for _, ch := range r.channels {
		if ch.Active {
			channels = append(channels, copyChannel(ch))
		}
	}
	return channels, nil
}

func (r *channelRepository) ListExpiring(ctx context.Context, before time.Time) ([]*model.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var channels []*model.Channel
	for _, ch := range r.channels {
		if ch.Active && ch.Expiration.Before(before) {
			channels = append(channels, copyChannel(ch))
		}
	}
	return channels, nil
}

func (r *channelRepository) UpdateSyncToken(ctx context.Context, id types.ChannelID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, exists := r.channels[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "channel not found", goerr.V("id", id))
	}

	ch.SyncToken = token
	ch.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *channelRepository) Deactivate(ctx context.Context, id types.ChannelID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, exists := r.channels[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "channel not found", goerr.V("id", id))
	}

	ch.Active = false
	ch.UpdatedAt = time.Now().UTC()
	return nil
}
