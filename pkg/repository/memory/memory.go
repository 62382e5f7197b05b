package memory

import (
	"github.com/secmon-lab/meetsync/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

type Memory struct {
	meeting    *meetingRepository
	channel    *channelRepository
	bot        *botRepository
	syncRecord *syncRecordRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		meeting:    newMeetingRepository(),
		channel:    newChannelRepository(),
		bot:        newBotRepository(),
		syncRecord: newSyncRecordRepository(),
	}
}

func (m *Memory) Meeting() interfaces.MeetingRepository {
	return m.meeting
}

func (m *Memory) Channel() interfaces.ChannelRepository {
	return m.channel
}

func (m *Memory) Bot() interfaces.BotRepository {
	return m.bot
}

func (m *Memory) SyncRecord() interfaces.SyncRecordRepository {
	return m.syncRecord
}

func (m *Memory) Close() error {
	return nil
}
