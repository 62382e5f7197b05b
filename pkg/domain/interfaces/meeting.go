package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = goerr.New("record not found")

// MeetingRepository defines the interface for Meeting data access.
//
// All mutations are keyed by the meeting's unique identity and applied
// as idempotent or conditional writes; there is no global lock.
type MeetingRepository interface {
	// Upsert creates or updates the meeting keyed by (EventID, UserID).
	// When the record exists, only the calendar-derived fields (title,
	// times, meeting URL) are updated; lifecycle, schedule and
	// transcript fields are preserved. An upsert of a previously
	// soft-deleted meeting revives it.
	Upsert(ctx context.Context, m *model.Meeting) (*model.Meeting, error)

	// Get retrieves a meeting by ID
	Get(ctx context.Context, id types.MeetingID) (*model.Meeting, error)

	// GetByEvent retrieves a meeting by its unique (user, event) key.
	// Returns nil, nil if no meeting is found.
	GetByEvent(ctx context.Context, userID types.UserID, eventID types.EventID) (*model.Meeting, error)

	// List retrieves all non-deleted meetings
	List(ctx context.Context) ([]*model.Meeting, error)

	// ListDue retrieves meetings eligible for polling at now: non-nil
	// bot reference, non-terminal status (or completed with transcript
	// pending), and NextPollAt null or <= now.
	ListDue(ctx context.Context, now time.Time) ([]*model.Meeting, error)

	// ListWindow retrieves non-deleted meetings of a (user, calendar)
	// pair whose start time falls within [from, to].
	ListWindow(ctx context.Context, userID types.UserID, calendarID types.CalendarID, from, to time.Time) ([]*model.Meeting, error)

	// Claim conditionally advances NextPollAt to until if and only if
	// the meeting is still due at now, and records LastPolledAt.
	// Returns false when another worker already claimed the meeting.
	Claim(ctx context.Context, id types.MeetingID, now, until time.Time) (bool, error)

	// AttachBot records a dispatched bot on the meeting and schedules
	// its first poll.
	AttachBot(ctx context.Context, id types.MeetingID, botID types.BotID, status types.BotStatus, next time.Time) error

	// Reschedule sets the lifecycle status and the next poll time.
	// Status may equal the current one (poll completed without change).
	Reschedule(ctx context.Context, id types.MeetingID, status types.BotStatus, next time.Time) error

	// Deschedule clears NextPollAt and optionally sets a terminal
	// status, removing the meeting from poll selection.
	Deschedule(ctx context.Context, id types.MeetingID, status types.BotStatus) error

	// SaveTranscript stores the transcript and sets
	// TranscriptRetrievedAt, but only if it is still unset. Returns
	// false without modifying anything when retrieval already happened.
	SaveTranscript(ctx context.Context, id types.MeetingID, t *model.Transcript, retrievedAt time.Time) (bool, error)

	// CountTranscriptAttempt increments the transcript retry counter
	// and returns the new value.
	CountTranscriptAttempt(ctx context.Context, id types.MeetingID) (int, error)

	// SoftDelete marks the meeting deleted and clears NextPollAt so it
	// is never selected again.
	SoftDelete(ctx context.Context, id types.MeetingID, at time.Time) error
}
