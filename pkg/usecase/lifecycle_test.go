package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/repository/memory"
	"github.com/secmon-lab/meetsync/pkg/usecase"
)

func seedMeeting(t *testing.T, repo *memory.Memory, eventID types.EventID) *model.Meeting {
	t.Helper()
	now := time.Now().UTC()
	m, err := repo.Meeting().Upsert(context.Background(), &model.Meeting{
		UserID:     "user-1",
		CalendarID: "primary",
		EventID:    eventID,
		Title:      "Design Review",
		StartTime:  now.Add(time.Hour),
		EndTime:    now.Add(2 * time.Hour),
		MeetingURL: "https://meet.example.com/abc-defg-hij",
	})
	gt.NoError(t, err).Required()
	return m
}

func TestLifecycleUseCase_DispatchBot(t *testing.T) {
	t.Run("dispatches and schedules the first poll", func(t *testing.T) {
		repo := memory.New()
		ctx := context.Background()
		rec := &mockRecorderService{}

		uc := usecase.New(repo, usecase.WithRecorder(rec))
		m := seedMeeting(t, repo, "evt-1")

		dispatched, err := uc.Lifecycle.DispatchBot(ctx, m.ID, map[string]any{"bot_name": "Notetaker"})
		gt.NoError(t, err).Required()
		gt.Value(t, dispatched.BotID).Equal(types.BotID("bot-1"))
		gt.Value(t, dispatched.Status).Equal(types.BotStatusPending)
		gt.Value(t, dispatched.NextPollAt).NotNil()
		gt.Number(t, rec.dispatchCalls).Equal(1)

		bot, err := repo.Bot().Get(ctx, "bot-1")
		gt.NoError(t, err).Required()
		gt.Value(t, bot.MeetingID).Equal(m.ID)
	})

	t.Run("rejects double dispatch", func(t *testing.T) {
		repo := memory.New()
		ctx := context.Background()
		rec := &mockRecorderService{}

		uc := usecase.New(repo, usecase.WithRecorder(rec))
		m := seedMeeting(t, repo, "evt-1")

		_, err := uc.Lifecycle.DispatchBot(ctx, m.ID, nil)
		gt.NoError(t, err).Required()

		_, err = uc.Lifecycle.DispatchBot(ctx, m.ID, nil)
		gt.Value(t, err).NotNil()
		gt.Number(t, rec.dispatchCalls).Equal(1)
	})

	t.Run("rejects meeting without URL", func(t *testing.T) {
		repo := memory.New()
		ctx := context.Background()

		uc := usecase.New(repo, usecase.WithRecorder(&mockRecorderService{}))
		now := time.Now().UTC()
		m, err := repo.Meeting().Upsert(ctx, &model.Meeting{
			UserID:     "user-1",
			CalendarID: "primary",
			EventID:    "evt-nourl",
			Title:      "1on1",
			StartTime:  now.Add(time.Hour),
			EndTime:    now.Add(2 * time.Hour),
		})
		gt.NoError(t, err).Required()

		_, err = uc.Lifecycle.DispatchBot(ctx, m.ID, nil)
		gt.Value(t, err).NotNil()
	})
}

func TestLifecycleUseCase_ApplyStatus(t *testing.T) {
	setup := func(t *testing.T, status types.BotStatus) (*usecase.UseCases, *memory.Memory, *mockNotifier, *model.Meeting) {
		t.Helper()
		repo := memory.New()
		notifier := &mockNotifier{}
		uc := usecase.New(repo,
			usecase.WithRecorder(&mockRecorderService{}),
			usecase.WithNotifier(notifier),
		)

		m := seedMeeting(t, repo, "evt-1")
		ctx := context.Background()
		gt.NoError(t, repo.Meeting().AttachBot(ctx, m.ID, "bot-1", types.BotStatusPending, time.Now().UTC()))
		if status != types.BotStatusPending {
			gt.NoError(t, repo.Meeting().Reschedule(ctx, m.ID, status, time.Now().UTC()))
		}
		current, err := repo.Meeting().Get(ctx, m.ID)
		gt.NoError(t, err).Required()
		return uc, repo, notifier, current
	}

	t.Run("forward transition reschedules by the new interval", func(t *testing.T) {
		uc, repo, _, m := setup(t, types.BotStatusScheduled)
		ctx := context.Background()

		gt.NoError(t, uc.Lifecycle.ApplyStatus(ctx, m, types.BotStatusJoined))

		got, err := repo.Meeting().Get(ctx, m.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.BotStatusJoined)
		gt.Value(t, got.NextPollAt).NotNil()
	})

	t.Run("skipping intermediate states is allowed", func(t *testing.T) {
		uc, repo, _, m := setup(t, types.BotStatusScheduled)
		ctx := context.Background()

		gt.NoError(t, uc.Lifecycle.ApplyStatus(ctx, m, types.BotStatusCompleted))

		got, err := repo.Meeting().Get(ctx, m.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.BotStatusCompleted)
	})

	t.Run("backward transition is rejected without modification", func(t *testing.T) {
		uc, repo, _, m := setup(t, types.BotStatusTranscribing)
		ctx := context.Background()

		err := uc.Lifecycle.ApplyStatus(ctx, m, types.BotStatusScheduled)
		gt.Value(t, errors.Is(err, types.ErrIllegalTransition)).Equal(true)

		got, err := repo.Meeting().Get(ctx, m.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.BotStatusTranscribing)
	})

	t.Run("nothing leaves a terminal state", func(t *testing.T) {
		uc, repo, _, m := setup(t, types.BotStatusCompleted)
		ctx := context.Background()

		err := uc.Lifecycle.ApplyStatus(ctx, m, types.BotStatusFailed)
		gt.Value(t, errors.Is(err, types.ErrIllegalTransition)).Equal(true)

		got, err := repo.Meeting().Get(ctx, m.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.BotStatusCompleted)
	})

	t.Run("failed deschedules and notifies", func(t *testing.T) {
		uc, repo, notifier, m := setup(t, types.BotStatusJoined)
		ctx := context.Background()

		gt.NoError(t, uc.Lifecycle.ApplyStatus(ctx, m, types.BotStatusFailed))

		got, err := repo.Meeting().Get(ctx, m.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.BotStatusFailed)
		gt.Value(t, got.NextPollAt).Nil()
		gt.Number(t, len(notifier.botFailed)).Equal(1)
		gt.Value(t, notifier.botFailed[0]).Equal(m.ID)
	})

	t.Run("unchanged status keeps the current cadence", func(t *testing.T) {
		uc, repo, _, m := setup(t, types.BotStatusJoined)
		ctx := context.Background()

		gt.NoError(t, uc.Lifecycle.ApplyStatus(ctx, m, types.BotStatusJoined))

		got, err := repo.Meeting().Get(ctx, m.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Status).Equal(types.BotStatusJoined)
		gt.Value(t, got.NextPollAt).NotNil()
	})
}
