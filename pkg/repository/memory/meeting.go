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

type eventKey struct {
	userID  types.UserID
	eventID types.EventID
}

type meetingRepository struct {
	mu       sync.RWMutex
	meetings map[types.MeetingID]*model.Meeting
	byEvent  map[eventKey]types.MeetingID
}

func newMeetingRepository() *meetingRepository {
	return &meetingRepository{
		meetings: make(map[types.MeetingID]*model.Meeting),
		byEvent:  make(map[eventKey]types.MeetingID),
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// copyTranscript creates a deep copy of a transcript
func copyTranscript(t *model.Transcript) *model.Transcript {
	if t == nil {
		return nil
	}
	segments := make([]model.TranscriptSegment, len(t.Segments))
	copy(segments, t.Segments)
	participants := make([]model.Participant, len(t.Participants))
	copy(participants, t.Participants)

	return &model.Transcript{
		Summary:         t.Summary,
		DurationSeconds: t.DurationSeconds,
		Segments:        segments,
		Participants:    participants,
		AudioURL:        t.AudioURL,
		VideoURL:        t.VideoURL,
	}
}

// copyMeeting creates a deep copy of a meeting
func copyMeeting(m *model.Meeting) *model.Meeting {
	return &model.Meeting{
		ID:                    m.ID,
		UserID:                m.UserID,
		CalendarID:            m.CalendarID,
		EventID:               m.EventID,
		Title:                 m.Title,
		StartTime:             m.StartTime,
		EndTime:               m.EndTime,
		MeetingURL:            m.MeetingURL,
		BotID:                 m.BotID,
		Status:                m.Status,
		LastPolledAt:          copyTime(m.LastPolledAt),
		NextPollAt:            copyTime(m.NextPollAt),
		Transcript:            copyTranscript(m.Transcript),
		TranscriptRetrievedAt: copyTime(m.TranscriptRetrievedAt),
		TranscriptAttempts:    m.TranscriptAttempts,
		DeletedAt:             copyTime(m.DeletedAt),
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func (r *meetingRepository) Upsert(ctx context.Context, m *model.Meeting) (*model.Meeting, error) {
	if err := m.UserID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid meeting")
	}
	if m.EventID == "" {
		return nil, goerr.New("event ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := eventKey{userID: m.UserID, eventID: m.EventID}

	if id, exists := r.byEvent[key]; exists {
		existing := r.meetings[id]
		// Only calendar-derived fields change on re-application;
		// lifecycle, schedule and transcript fields stay intact.
		existing.Title = m.Title
		existing.StartTime = m.StartTime
		existing.EndTime = m.EndTime
		existing.MeetingURL = m.MeetingURL
		existing.DeletedAt = nil
		existing.UpdatedAt = now
		return copyMeeting(existing), nil
	}

	created := copyMeeting(m)
	if created.ID == "" {
		created.ID = model.NewMeetingID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.meetings[created.ID] = created
	r.byEvent[key] = created.ID
	return copyMeeting(created), nil
}

func (r *meetingRepository) Get(ctx context.Context, id types.MeetingID) (*model.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, exists := r.meetings[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}
	return copyMeeting(m), nil
}

func (r *meetingRepository) GetByEvent(ctx context.Context, userID types.UserID, eventID types.EventID) (*model.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byEvent[eventKey{userID: userID, eventID: eventID}]
	if !exists {
		return nil, nil
	}
	return copyMeeting(r.meetings[id]), nil
}

func (r *meetingRepository) List(ctx context.Context) ([]*model.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var meetings []*model.Meeting
	for _, m := range r.meetings {
		if m.IsDeleted() {
			continue
		}
		meetings = append(meetings, copyMeeting(m))
	}
	return meetings, nil
}

func (r *meetingRepository) ListDue(ctx context.Context, now time.Time) ([]*model.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []*model.Meeting
	for _, m := range r.meetings {
		if m.IsDue(now) {
			due = append(due, copyMeeting(m))
		}
	}
	return due, nil
}

func (r *meetingRepository) ListWindow(ctx context.Context, userID types.UserID, calendarID types.CalendarID, from, to time.Time) ([]*model.Meeting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var meetings []*model.Meeting
	for _, m := range r.meetings {
		if m.UserID != userID || m.CalendarID != calendarID || m.IsDeleted() {
			continue
		}
		if m.StartTime.Before(from) || m.StartTime.After(to) {
			continue
		}
		meetings = append(meetings, copyMeeting(m))
	}
	return meetings, nil
}

func (r *meetingRepository) Claim(ctx context.Context, id types.MeetingID, now, until time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.meetings[id]
	if !exists {
		return false, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}
	if !m.IsDue(now) {
		return false, nil
	}

	polledAt := now
	m.LastPolledAt = &polledAt
	next := until
	m.NextPollAt = &next
	m.UpdatedAt = now
	return true, nil
}

func (r *meetingRepository) AttachBot(ctx context.Context, id types.MeetingID, botID types.BotID, status types.BotStatus, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.meetings[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}

	m.BotID = botID
	m.Status = status
	m.NextPollAt = &next
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *meetingRepository) Reschedule(ctx context.Context, id types.MeetingID, status types.BotStatus, next time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.meetings[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}

	m.Status = status
	n := next
	m.NextPollAt = &n
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *meetingRepository) Deschedule(ctx context.Context, id types.MeetingID, status types.BotStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.meetings[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}

	m.Status = status
	m.NextPollAt = nil
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *meetingRepository) SaveTranscript(ctx context.Context, id types.MeetingID, t *model.Transcript, retrievedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.meetings[id]
	if !exists {
		return false, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}
	if m.TranscriptRetrievedAt != nil {
		return false, nil
	}

	m.Transcript = copyTranscript(t)
	at := retrievedAt
	m.TranscriptRetrievedAt = &at
	m.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *meetingRepository) CountTranscriptAttempt(ctx context.Context, id types.MeetingID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.meetings[id]
	if !exists {
		return 0, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}

	m.TranscriptAttempts++
	m.UpdatedAt = time.Now().UTC()
	return m.TranscriptAttempts, nil
}

func (r *meetingRepository) SoftDelete(ctx context.Context, id types.MeetingID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, exists := r.meetings[id]
	if !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}

	deletedAt := at
	m.DeletedAt = &deletedAt
	m.NextPollAt = nil
	m.UpdatedAt = time.Now().UTC()
	return nil
}
