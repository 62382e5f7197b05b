package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// NewMeetingID generates a new UUID v4 MeetingID
func NewMeetingID() types.MeetingID {
	return types.MeetingID(uuid.New().String())
}

// Meeting represents one calendar event for one owning user, together
// with the locally observed projection of its recording bot lifecycle.
// The pair (EventID, UserID) is unique: re-processing the same provider
// event updates, never duplicates, the record.
type Meeting struct {
	ID         types.MeetingID
	UserID     types.UserID
	CalendarID types.CalendarID
	EventID    types.EventID

	Title      string
	StartTime  time.Time
	EndTime    time.Time
	MeetingURL string

	// BotID is the provider-side bot handle, empty until a bot is
	// dispatched. Status is empty in the same window.
	BotID  types.BotID
	Status types.BotStatus

	LastPolledAt *time.Time
	NextPollAt   *time.Time

	Transcript            *Transcript
	TranscriptRetrievedAt *time.Time
	TranscriptAttempts    int

	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasBot reports whether a recording bot has been dispatched for this meeting
func (m *Meeting) HasBot() bool {
	return m.BotID != ""
}

// IsDeleted reports whether the meeting was soft-deleted
func (m *Meeting) IsDeleted() bool {
	return m.DeletedAt != nil
}

// IsDue reports whether the meeting is eligible for a poll at now: it
// has a bot, its lifecycle is still moving (or completed with the
// transcript not yet retrieved), and its scheduled poll time has
// arrived. A nil NextPollAt means the meeting was descheduled and is
// never selected; dispatching a bot always sets the first poll time.
func (m *Meeting) IsDue(now time.Time) bool {
	if m.IsDeleted() || !m.HasBot() || m.NextPollAt == nil {
		return false
	}
	switch {
	case m.Status == types.BotStatusFailed:
		return false
	case m.Status == types.BotStatusCompleted && m.TranscriptRetrievedAt != nil:
		return false
	}
	return !m.NextPollAt.After(now)
}

// Transcript holds the normalized transcript and recording metadata
// retrieved from the bot provider after completion.
type Transcript struct {
	Summary         string
	DurationSeconds float64
	Segments        []TranscriptSegment
	Participants    []Participant
	AudioURL        string
	VideoURL        string
}

// TranscriptSegment is one per-speaker utterance with offsets relative
// to the start of the recording.
type TranscriptSegment struct {
	Speaker     string
	Text        string
	StartOffset float64
	EndOffset   float64
}

// Participant is an attendee observed by the bot
type Participant struct {
	Name  string
	Email string
}
