package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Meeting() MeetingRepository
	Channel() ChannelRepository
	Bot() BotRepository
	SyncRecord() SyncRecordRepository

	Close() error
}
