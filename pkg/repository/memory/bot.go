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

type botRepository struct {
	mu   sync.RWMutex
	bots map[types.BotID]*model.Bot
}

func newBotRepository() *botRepository {
	return &botRepository{
		bots: make(map[types.BotID]*model.Bot),
	}
}

// copyBot creates a deep copy of a bot
func copyBot(b *model.Bot) *model.Bot {
	var settings map[string]any
	if b.Settings != nil {
		settings = make(map[string]any, len(b.Settings))
		for k, v := range b.Settings {
			settings[k] = v
		}
	}
	return &model.Bot{
		ID:        b.ID,
		MeetingID: b.MeetingID,
		Provider:  b.Provider,
		Settings:  settings,
		CreatedAt: b.CreatedAt,
	}
}

func (r *botRepository) Put(ctx context.Context, bot *model.Bot) error {
	if bot.ID == "" {
		return goerr.New("bot ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyBot(bot)
	created.CreatedAt = time.Now().UTC()
	r.bots[created.ID] = created
	return nil
}

func (r *botRepository) Get(ctx context.Context, id types.BotID) (*model.Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bot, exists := r.bots[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "bot not found", goerr.V("id", id))
	}
	return copyBot(bot), nil
}

func (r *botRepository) GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Bot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, bot := range r.bots {
		if bot.MeetingID == meetingID {
			return copyBot(bot), nil
		}
	}
	return nil, nil
}
