package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/secmon-lab/meetsync/pkg/domain/interfaces"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/repository/firestore"
	"github.com/secmon-lab/meetsync/pkg/repository/memory"
)

func newMeeting(userID types.UserID, eventID types.EventID) *model.Meeting {
	start := time.Now().UTC().Add(time.Hour)
	return &model.Meeting{
		UserID:     userID,
		CalendarID: "primary",
		EventID:    eventID,
		Title:      "Weekly Sync",
		StartTime:  start,
		EndTime:    start.Add(30 * time.Minute),
		MeetingURL: "https://meet.example.com/abc-defg-hij",
	}
}

func runMeetingRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Upsert creates and then updates on the same key", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert meeting: %v", err)
		}
		if created.ID == "" {
			t.Error("expected generated meeting ID")
		}
		if created.CreatedAt.IsZero() {
			t.Error("expected non-zero CreatedAt")
		}

		update := newMeeting("user-1", "evt-1")
		update.Title = "Weekly Sync (moved)"
		update.StartTime = created.StartTime.Add(time.Hour)

		updated, err := repo.Meeting().Upsert(ctx, update)
		if err != nil {
			t.Fatalf("failed to re-upsert meeting: %v", err)
		}
		if updated.ID != created.ID {
			t.Errorf("expected same meeting ID %s, got %s", created.ID, updated.ID)
		}
		if updated.Title != "Weekly Sync (moved)" {
			t.Errorf("expected updated title, got %s", updated.Title)
		}

		all, err := repo.Meeting().List(ctx)
		if err != nil {
			t.Fatalf("failed to list meetings: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("expected 1 meeting after re-upsert, got %d", len(all))
		}
	})

	t.Run("Upsert preserves lifecycle and transcript fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert meeting: %v", err)
		}

		next := time.Now().UTC().Add(time.Minute)
		if err := repo.Meeting().AttachBot(ctx, created.ID, "bot-1", types.BotStatusScheduled, next); err != nil {
			t.Fatalf("failed to attach bot: %v", err)
		}

		updated, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to re-upsert meeting: %v", err)
		}
		if updated.BotID != "bot-1" {
			t.Errorf("expected BotID preserved, got %q", updated.BotID)
		}
		if updated.Status != types.BotStatusScheduled {
			t.Errorf("expected status preserved, got %s", updated.Status)
		}
		if updated.NextPollAt == nil {
			t.Error("expected NextPollAt preserved")
		}
	})

	t.Run("Upsert revives a soft-deleted meeting", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert meeting: %v", err)
		}
		if err := repo.Meeting().SoftDelete(ctx, created.ID, time.Now().UTC()); err != nil {
			t.Fatalf("failed to soft delete: %v", err)
		}

		revived, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to re-upsert meeting: %v", err)
		}
		if revived.IsDeleted() {
			t.Error("expected meeting to be revived")
		}
	})

	t.Run("Same event for different users creates separate meetings", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		m1, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert meeting: %v", err)
		}
		m2, err := repo.Meeting().Upsert(ctx, newMeeting("user-2", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert meeting: %v", err)
		}
		if m1.ID == m2.ID {
			t.Error("expected distinct meetings for distinct users")
		}
	})

	t.Run("GetByEvent returns nil for unknown key", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		m, err := repo.Meeting().GetByEvent(ctx, "user-1", "no-such-event")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m != nil {
			t.Errorf("expected nil meeting, got %+v", m)
		}
	})

	t.Run("Get returns ErrNotFound for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Meeting().Get(ctx, "no-such-id")
		if !errors.Is(err, interfaces.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListDue selects by lifecycle state and poll time", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		// No bot: never due.
		if _, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-nobot")); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		// Bot attached, poll time arrived: due.
		dueMeeting, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-due"))
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		if err := repo.Meeting().AttachBot(ctx, dueMeeting.ID, "bot-due", types.BotStatusScheduled, now.Add(-time.Minute)); err != nil {
			t.Fatalf("failed to attach bot: %v", err)
		}

		// Bot attached, poll time in the future: not due.
		laterMeeting, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-later"))
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		if err := repo.Meeting().AttachBot(ctx, laterMeeting.ID, "bot-later", types.BotStatusScheduled, now.Add(time.Hour)); err != nil {
			t.Fatalf("failed to attach bot: %v", err)
		}

		// Failed: never due.
		failedMeeting, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-failed"))
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		if err := repo.Meeting().AttachBot(ctx, failedMeeting.ID, "bot-failed", types.BotStatusScheduled, now.Add(-time.Minute)); err != nil {
			t.Fatalf("failed to attach bot: %v", err)
		}
		if err := repo.Meeting().Deschedule(ctx, failedMeeting.ID, types.BotStatusFailed); err != nil {
			t.Fatalf("failed to deschedule: %v", err)
		}

		due, err := repo.Meeting().ListDue(ctx, now)
		if err != nil {
			t.Fatalf("failed to list due meetings: %v", err)
		}
		if len(due) != 1 {
			t.Fatalf("expected 1 due meeting, got %d", len(due))
		}
		if due[0].ID != dueMeeting.ID {
			t.Errorf("expected due meeting %s, got %s", dueMeeting.ID, due[0].ID)
		}
	})

	t.Run("Completed meeting stays due until transcript retrieved", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		m, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		if err := repo.Meeting().AttachBot(ctx, m.ID, "bot-1", types.BotStatusScheduled, now.Add(-time.Minute)); err != nil {
			t.Fatalf("failed to attach bot: %v", err)
		}
		if err := repo.Meeting().Reschedule(ctx, m.ID, types.BotStatusCompleted, now.Add(-time.Second)); err != nil {
			t.Fatalf("failed to reschedule: %v", err)
		}

		due, err := repo.Meeting().ListDue(ctx, now)
		if err != nil {
			t.Fatalf("failed to list due meetings: %v", err)
		}
		if len(due) != 1 {
			t.Fatalf("expected completed meeting with pending transcript to be due, got %d", len(due))
		}

		saved, err := repo.Meeting().SaveTranscript(ctx, m.ID, &model.Transcript{Summary: "notes"}, now)
		if err != nil {
			t.Fatalf("failed to save transcript: %v", err)
		}
		if !saved {
			t.Fatal("expected transcript to be saved")
		}

		due, err = repo.Meeting().ListDue(ctx, now)
		if err != nil {
			t.Fatalf("failed to list due meetings: %v", err)
		}
		if len(due) != 0 {
			t.Errorf("expected no due meetings after transcript retrieval, got %d", len(due))
		}
	})

	t.Run("Claim wins exactly once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		m, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		if err := repo.Meeting().AttachBot(ctx, m.ID, "bot-1", types.BotStatusScheduled, now.Add(-time.Minute)); err != nil {
			t.Fatalf("failed to attach bot: %v", err)
		}

		first, err := repo.Meeting().Claim(ctx, m.ID, now, now.Add(2*time.Minute))
		if err != nil {
			t.Fatalf("failed to claim: %v", err)
		}
		if !first {
			t.Fatal("expected first claim to win")
		}

		second, err := repo.Meeting().Claim(ctx, m.ID, now, now.Add(2*time.Minute))
		if err != nil {
			t.Fatalf("failed to claim: %v", err)
		}
		if second {
			t.Error("expected second claim to lose")
		}

		got, err := repo.Meeting().Get(ctx, m.ID)
		if err != nil {
			t.Fatalf("failed to get meeting: %v", err)
		}
		if got.LastPolledAt == nil {
			t.Error("expected LastPolledAt to be recorded")
		}
	})

	t.Run("Concurrent claims produce a single winner", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		m, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		if err := repo.Meeting().AttachBot(ctx, m.ID, "bot-1", types.BotStatusScheduled, now.Add(-time.Minute)); err != nil {
			t.Fatalf("failed to attach bot: %v", err)
		}

		const workers = 8
		var wg sync.WaitGroup
		wins := make(chan bool, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				claimed, err := repo.Meeting().Claim(ctx, m.ID, now, now.Add(2*time.Minute))
				if err != nil {
					t.Errorf("claim failed: %v", err)
					return
				}
				wins <- claimed
			}()
		}
		wg.Wait()
		close(wins)

		winners := 0
		for w := range wins {
			if w {
				winners++
			}
		}
		if winners != 1 {
			t.Errorf("expected exactly 1 winning claim, got %d", winners)
		}
	})

	t.Run("SaveTranscript is write-once", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		m, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		saved, err := repo.Meeting().SaveTranscript(ctx, m.ID, &model.Transcript{Summary: "first"}, now)
		if err != nil {
			t.Fatalf("failed to save transcript: %v", err)
		}
		if !saved {
			t.Fatal("expected first save to succeed")
		}

		saved, err = repo.Meeting().SaveTranscript(ctx, m.ID, &model.Transcript{Summary: "second"}, now.Add(time.Minute))
		if err != nil {
			t.Fatalf("failed on second save: %v", err)
		}
		if saved {
			t.Error("expected second save to be rejected")
		}

		got, err := repo.Meeting().Get(ctx, m.ID)
		if err != nil {
			t.Fatalf("failed to get meeting: %v", err)
		}
		if got.Transcript == nil || got.Transcript.Summary != "first" {
			t.Errorf("expected first transcript to survive, got %+v", got.Transcript)
		}
	})

	t.Run("CountTranscriptAttempt increments", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		m, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		for want := 1; want <= 3; want++ {
			got, err := repo.Meeting().CountTranscriptAttempt(ctx, m.ID)
			if err != nil {
				t.Fatalf("failed to count attempt: %v", err)
			}
			if got != want {
				t.Errorf("expected attempt count %d, got %d", want, got)
			}
		}
	})

	t.Run("SoftDelete removes from listing and selection", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		m, err := repo.Meeting().Upsert(ctx, newMeeting("user-1", "evt-1"))
		if err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}
		if err := repo.Meeting().AttachBot(ctx, m.ID, "bot-1", types.BotStatusScheduled, now.Add(-time.Minute)); err != nil {
			t.Fatalf("failed to attach bot: %v", err)
		}
		if err := repo.Meeting().SoftDelete(ctx, m.ID, now); err != nil {
			t.Fatalf("failed to soft delete: %v", err)
		}

		all, err := repo.Meeting().List(ctx)
		if err != nil {
			t.Fatalf("failed to list meetings: %v", err)
		}
		if len(all) != 0 {
			t.Errorf("expected empty listing after soft delete, got %d", len(all))
		}

		due, err := repo.Meeting().ListDue(ctx, now.Add(time.Hour))
		if err != nil {
			t.Fatalf("failed to list due meetings: %v", err)
		}
		if len(due) != 0 {
			t.Errorf("expected no due meetings after soft delete, got %d", len(due))
		}
	})

	t.Run("ListWindow bounds by pair and start time", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		inside := newMeeting("user-1", "evt-in")
		inside.StartTime = now.Add(24 * time.Hour)
		if _, err := repo.Meeting().Upsert(ctx, inside); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		outside := newMeeting("user-1", "evt-out")
		outside.StartTime = now.Add(60 * 24 * time.Hour)
		if _, err := repo.Meeting().Upsert(ctx, outside); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		otherUser := newMeeting("user-2", "evt-other")
		otherUser.StartTime = now.Add(24 * time.Hour)
		if _, err := repo.Meeting().Upsert(ctx, otherUser); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		window, err := repo.Meeting().ListWindow(ctx, "user-1", "primary", now.Add(-30*24*time.Hour), now.Add(30*24*time.Hour))
		if err != nil {
			t.Fatalf("failed to list window: %v", err)
		}
		if len(window) != 1 {
			t.Fatalf("expected 1 meeting in window, got %d", len(window))
		}
		if window[0].EventID != "evt-in" {
			t.Errorf("expected evt-in, got %s", window[0].EventID)
		}
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func TestMemoryMeetingRepository(t *testing.T) {
	runMeetingRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreMeetingRepository(t *testing.T) {
	runMeetingRepositoryTest(t, newFirestoreRepository)
}
