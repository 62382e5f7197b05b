package model

import (
	"time"

	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// Bot is the provider-side handle of a dispatched recording bot. It is
// owned 1:1 by a Meeting once dispatched; its lifetime is independent of
// the Meeting's own Status field, which is only the locally observed
// projection of the provider-side state.
type Bot struct {
	ID        types.BotID
	MeetingID types.MeetingID
	Provider  string
	Settings  map[string]any
	CreatedAt time.Time
}
