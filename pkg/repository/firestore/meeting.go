package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/interfaces"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type meetingRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newMeetingRepository(client *firestore.Client) *meetingRepository {
	return &meetingRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *meetingRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_meetings"
	}
	return "meetings"
}

// eventDocID is the document ID of a meeting. Doc IDs are derived from
// the unique (user, event) key so that re-processing the same provider
// event can only ever rewrite the same document.
func eventDocID(userID types.UserID, eventID types.EventID) string {
	return fmt.Sprintf("%s_%s", userID, eventID)
}

func (r *meetingRepository) Upsert(ctx context.Context, m *model.Meeting) (*model.Meeting, error) {
	if err := m.UserID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid meeting")
	}
	if m.EventID == "" {
		return nil, goerr.New("event ID is required")
	}

	docRef := r.client.Collection(r.collection()).Doc(eventDocID(m.UserID, m.EventID))

	var result *model.Meeting
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()

		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return goerr.Wrap(err, "failed to get meeting")
			}

			created := *m
			if created.ID == "" {
				created.ID = model.NewMeetingID()
			}
			created.CreatedAt = now
			created.UpdatedAt = now
			result = &created
			return tx.Set(docRef, &created)
		}

		var existing model.Meeting
		if err := doc.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode meeting")
		}

		// Only calendar-derived fields change on re-application;
		// lifecycle, schedule and transcript fields stay intact.
		existing.Title = m.Title
		existing.StartTime = m.StartTime
		existing.EndTime = m.EndTime
		existing.MeetingURL = m.MeetingURL
		existing.DeletedAt = nil
		existing.UpdatedAt = now
		result = &existing
		return tx.Set(docRef, &existing)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert meeting",
			goerr.V("userID", m.UserID), goerr.V("eventID", m.EventID))
	}

	return result, nil
}

func (r *meetingRepository) Get(ctx context.Context, id types.MeetingID) (*model.Meeting, error) {
	iter := r.client.Collection(r.collection()).Where("ID", "==", id.String()).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "meeting not found", goerr.V("id", id))
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get meeting", goerr.V("id", id))
	}

	var m model.Meeting
	if err := doc.DataTo(&m); err != nil {
		return nil, goerr.Wrap(err, "failed to decode meeting", goerr.V("id", id))
	}
	return &m, nil
}

func (r *meetingRepository) GetByEvent(ctx context.Context, userID types.UserID, eventID types.EventID) (*model.Meeting, error) {
	doc, err := r.client.Collection(r.collection()).Doc(eventDocID(userID, eventID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get meeting",
			goerr.V("userID", userID), goerr.V("eventID", eventID))
	}

	var m model.Meeting
	if err := doc.DataTo(&m); err != nil {
		return nil, goerr.Wrap(err, "failed to decode meeting", goerr.V("eventID", eventID))
	}
	return &m, nil
}

func (r *meetingRepository) List(ctx context.Context) ([]*model.Meeting, error) {
	iter := r.client.Collection(r.collection()).Where("DeletedAt", "==", nil).Documents(ctx)
	defer iter.Stop()

	var meetings []*model.Meeting
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate meetings")
		}

		var m model.Meeting
		if err := doc.DataTo(&m); err != nil {
			return nil, goerr.Wrap(err, "failed to decode meeting", goerr.V("doc_id", doc.Ref.ID))
		}
		meetings = append(meetings, &m)
	}
	return meetings, nil
}

// ListDue selects meetings whose scheduled poll time has arrived. The
// full due predicate is re-checked in code; the query only narrows the
// scan. Descheduled meetings carry a null NextPollAt and never match.
func (r *meetingRepository) ListDue(ctx context.Context, now time.Time) ([]*model.Meeting, error) {
	iter := r.client.Collection(r.collection()).
		Where("NextPollAt", "<=", now).
		Documents(ctx)
	defer iter.Stop()

	var due []*model.Meeting
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate due meetings")
		}

		var m model.Meeting
		if err := doc.DataTo(&m); err != nil {
			return nil, goerr.Wrap(err, "failed to decode meeting", goerr.V("doc_id", doc.Ref.ID))
		}
		if m.IsDue(now) {
			due = append(due, &m)
		}
	}
	return due, nil
}

func (r *meetingRepository) ListWindow(ctx context.Context, userID types.UserID, calendarID types.CalendarID, from, to time.Time) ([]*model.Meeting, error) {
	iter := r.client.Collection(r.collection()).
		Where("UserID", "==", userID.String()).
		Where("CalendarID", "==", calendarID.String()).
		Where("StartTime", ">=", from).
		Where("StartTime", "<=", to).
		Documents(ctx)
	defer iter.Stop()

	var meetings []*model.Meeting
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate meetings in window")
		}

		var m model.Meeting
		if err := doc.DataTo(&m); err != nil {
			return nil, goerr.Wrap(err, "failed to decode meeting", goerr.V("doc_id", doc.Ref.ID))
		}
		if m.IsDeleted() {
			continue
		}
		meetings = append(meetings, &m)
	}
	return meetings, nil
}

// Claim advances NextPollAt inside a transaction so that of two
// concurrent sweeps exactly one wins the meeting.
func (r *meetingRepository) Claim(ctx context.Context, id types.MeetingID, now, until time.Time) (bool, error) {
	m, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	docRef := r.client.Collection(r.collection()).Doc(eventDocID(m.UserID, m.EventID))

	claimed := false
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return goerr.Wrap(err, "failed to get meeting for claim")
		}

		var current model.Meeting
		if err := doc.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to decode meeting")
		}
		if !current.IsDue(now) {
			claimed = false
			return nil
		}

		claimed = true
		return tx.Update(docRef, []firestore.Update{
			{Path: "LastPolledAt", Value: now},
			{Path: "NextPollAt", Value: until},
			{Path: "UpdatedAt", Value: now},
		})
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to claim meeting", goerr.V("id", id))
	}
	return claimed, nil
}

func (r *meetingRepository) update(ctx context.Context, id types.MeetingID, updates []firestore.Update) error {
	m, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	docRef := r.client.Collection(r.collection()).Doc(eventDocID(m.UserID, m.EventID))

	updates = append(updates, firestore.Update{Path: "UpdatedAt", Value: time.Now().UTC()})
	if _, err := docRef.Update(ctx, updates); err != nil {
		return goerr.Wrap(err, "failed to update meeting", goerr.V("id", id))
	}
	return nil
}

func (r *meetingRepository) AttachBot(ctx context.Context, id types.MeetingID, botID types.BotID, st types.BotStatus, next time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "BotID", Value: botID.String()},
		{Path: "Status", Value: st.String()},
		{Path: "NextPollAt", Value: next},
	})
}

func (r *meetingRepository) Reschedule(ctx context.Context, id types.MeetingID, st types.BotStatus, next time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "Status", Value: st.String()},
		{Path: "NextPollAt", Value: next},
	})
}

func (r *meetingRepository) Deschedule(ctx context.Context, id types.MeetingID, st types.BotStatus) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "Status", Value: st.String()},
		{Path: "NextPollAt", Value: nil},
	})
}

func (r *meetingRepository) SaveTranscript(ctx context.Context, id types.MeetingID, t *model.Transcript, retrievedAt time.Time) (bool, error) {
	m, err := r.Get(ctx, id)
	if err != nil {
		return false, err
	}
	docRef := r.client.Collection(r.collection()).Doc(eventDocID(m.UserID, m.EventID))

	saved := false
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return goerr.Wrap(err, "failed to get meeting for transcript save")
		}

		var current model.Meeting
		if err := doc.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to decode meeting")
		}
		if current.TranscriptRetrievedAt != nil {
			saved = false
			return nil
		}

		saved = true
		return tx.Update(docRef, []firestore.Update{
			{Path: "Transcript", Value: t},
			{Path: "TranscriptRetrievedAt", Value: retrievedAt},
			{Path: "UpdatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		return false, goerr.Wrap(err, "failed to save transcript", goerr.V("id", id))
	}
	return saved, nil
}

func (r *meetingRepository) CountTranscriptAttempt(ctx context.Context, id types.MeetingID) (int, error) {
	m, err := r.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	docRef := r.client.Collection(r.collection()).Doc(eventDocID(m.UserID, m.EventID))

	var count int
	err = r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			return goerr.Wrap(err, "failed to get meeting for attempt count")
		}

		var current model.Meeting
		if err := doc.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to decode meeting")
		}

		count = current.TranscriptAttempts + 1
		return tx.Update(docRef, []firestore.Update{
			{Path: "TranscriptAttempts", Value: count},
			{Path: "UpdatedAt", Value: time.Now().UTC()},
		})
	})
	if err != nil {
		return 0, goerr.Wrap(err, "failed to count transcript attempt", goerr.V("id", id))
	}
	return count, nil
}

func (r *meetingRepository) SoftDelete(ctx context.Context, id types.MeetingID, at time.Time) error {
	return r.update(ctx, id, []firestore.Update{
		{Path: "DeletedAt", Value: at},
		{Path: "NextPollAt", Value: nil},
	})
}
