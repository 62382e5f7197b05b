package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// TranscriptUseCase fetches transcripts of completed meetings, exactly
// once per meeting, with a bounded retry budget for provider failures.
type TranscriptUseCase struct {
	uc *UseCases
}

func newTranscriptUseCase(uc *UseCases) *TranscriptUseCase {
	return &TranscriptUseCase{uc: uc}
}

// Retrieve fetches the transcript of a completed meeting. The retrieval
// timestamp is the single guard: once set, the operation is a no-op
// even if the lifecycle or the scheduler replays it. A provider failure
// consumes one retry; exhausting the budget removes the meeting from
// poll selection and notifies the operator.
func (t *TranscriptUseCase) Retrieve(ctx context.Context, m *model.Meeting) error {
	logger := logging.From(ctx)

	if m.TranscriptRetrievedAt != nil {
		return nil
	}
	if m.Status != types.BotStatusCompleted {
		return goerr.New("transcript requested before completion",
			goerr.V("meetingID", m.ID), goerr.V("status", m.Status))
	}
	if t.uc.recorder == nil {
		return goerr.New("recorder service is not configured")
	}

	tr, err := t.uc.recorder.Transcript(ctx, m.BotID)
	if err != nil {
		return t.countFailure(ctx, m, err)
	}

	saved, err := t.uc.repo.Meeting().SaveTranscript(ctx, m.ID, tr, t.uc.clock())
	if err != nil {
		return goerr.Wrap(err, "failed to save transcript", goerr.V("meetingID", m.ID))
	}
	if !saved {
		logger.Info("transcript already retrieved, skipping",
			"meetingID", m.ID, "botID", m.BotID)
		return nil
	}

	logger.Info("transcript retrieved",
		"meetingID", m.ID, "botID", m.BotID,
		"segments", len(tr.Segments), "participants", len(tr.Participants))

	return nil
}

// countFailure books one failed retrieval attempt. Below the ceiling the
// meeting stays in poll selection and will be retried on the completed
// cadence; at the ceiling it is descheduled for good.
func (t *TranscriptUseCase) countFailure(ctx context.Context, m *model.Meeting, cause error) error {
	logger := logging.From(ctx)

	attempts, err := t.uc.repo.Meeting().CountTranscriptAttempt(ctx, m.ID)
	if err != nil {
		return goerr.Wrap(err, "failed to count transcript attempt", goerr.V("meetingID", m.ID))
	}

	limit := t.uc.policy.TranscriptRetryLimit
	if attempts >= limit {
		if err := t.uc.repo.Meeting().Deschedule(ctx, m.ID, types.BotStatusCompleted); err != nil {
			return goerr.Wrap(err, "failed to deschedule meeting", goerr.V("meetingID", m.ID))
		}

		logger.Error("transcript retry budget exhausted",
			"meetingID", m.ID, "botID", m.BotID,
			"attempts", attempts, "limit", limit, "error", cause.Error())

		if t.uc.notifier != nil {
			if err := t.uc.notifier.TranscriptRetryExceeded(ctx, m, attempts); err != nil {
				logger.Error("failed to notify transcript retry exhaustion",
					"meetingID", m.ID, "error", err.Error())
			}
		}

		return goerr.Wrap(cause, "transcript retrieval abandoned",
			goerr.V("meetingID", m.ID), goerr.V("attempts", attempts))
	}

	logger.Warn("transcript retrieval failed, will retry",
		"meetingID", m.ID, "botID", m.BotID,
		"attempts", attempts, "limit", limit, "error", cause.Error())

	return goerr.Wrap(cause, "transcript retrieval failed",
		goerr.V("meetingID", m.ID), goerr.V("attempts", attempts))
}
