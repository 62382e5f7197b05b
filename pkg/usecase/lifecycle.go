package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// LifecycleUseCase owns the bot lifecycle state machine: dispatching
// bots into meetings and applying provider-observed status changes with
// transition validation.
type LifecycleUseCase struct {
	uc *UseCases
}

func newLifecycleUseCase(uc *UseCases) *LifecycleUseCase {
	return &LifecycleUseCase{uc: uc}
}

// DispatchBot sends a recording bot into the meeting and attaches the
// provider handle. The meeting enters the lifecycle in pending and is
// scheduled for its first poll immediately.
func (l *LifecycleUseCase) DispatchBot(ctx context.Context, meetingID types.MeetingID, settings map[string]any) (*model.Meeting, error) {
	if l.uc.recorder == nil {
		return nil, goerr.New("recorder service is not configured")
	}

	m, err := l.uc.repo.Meeting().Get(ctx, meetingID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get meeting", goerr.V("meetingID", meetingID))
	}
	if m.IsDeleted() {
		return nil, goerr.New("meeting is deleted", goerr.V("meetingID", meetingID))
	}
	if m.HasBot() {
		return nil, goerr.New("meeting already has a bot",
			goerr.V("meetingID", meetingID), goerr.V("botID", m.BotID))
	}
	if m.MeetingURL == "" {
		return nil, goerr.New("meeting has no meeting URL", goerr.V("meetingID", meetingID))
	}

	botID, err := l.uc.recorder.Dispatch(ctx, m.MeetingURL, settings)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to dispatch bot", goerr.V("meetingID", meetingID))
	}

	bot := &model.Bot{
		ID:        botID,
		MeetingID: m.ID,
		Provider:  "recorder",
		Settings:  settings,
		CreatedAt: l.uc.clock(),
	}
	if err := l.uc.repo.Bot().Put(ctx, bot); err != nil {
		return nil, goerr.Wrap(err, "failed to store bot", goerr.V("botID", botID))
	}

	if err := l.uc.repo.Meeting().AttachBot(ctx, m.ID, botID, types.BotStatusPending, l.uc.clock()); err != nil {
		return nil, goerr.Wrap(err, "failed to attach bot to meeting",
			goerr.V("meetingID", m.ID), goerr.V("botID", botID))
	}

	logging.From(ctx).Info("bot dispatched",
		"meetingID", m.ID, "botID", botID, "title", m.Title)

	return l.uc.repo.Meeting().Get(ctx, m.ID)
}

// ApplyStatus validates and applies a provider-observed status to the
// meeting. An illegal transition is logged and rejected without
// modifying the record. Entering failed removes the meeting from poll
// selection and notifies the operator; any other accepted status
// reschedules the next poll by the interval of the new state.
func (l *LifecycleUseCase) ApplyStatus(ctx context.Context, m *model.Meeting, observed types.BotStatus) error {
	logger := logging.From(ctx)

	if observed == m.Status {
		// No change; keep polling at the current state's cadence.
		next := l.uc.clock().Add(m.Status.PollInterval())
		return l.uc.repo.Meeting().Reschedule(ctx, m.ID, m.Status, next)
	}

	if !m.Status.CanTransitionTo(observed) {
		logger.Warn("illegal bot status transition rejected",
			"meetingID", m.ID, "botID", m.BotID,
			"from", m.Status, "to", observed)
		return goerr.Wrap(types.ErrIllegalTransition, "transition rejected",
			goerr.V("meetingID", m.ID),
			goerr.V("from", m.Status), goerr.V("to", observed))
	}

	if observed == types.BotStatusFailed {
		if err := l.uc.repo.Meeting().Deschedule(ctx, m.ID, types.BotStatusFailed); err != nil {
			return goerr.Wrap(err, "failed to deschedule failed meeting", goerr.V("meetingID", m.ID))
		}
		logger.Warn("bot entered failed state",
			"meetingID", m.ID, "botID", m.BotID, "from", m.Status)

		if l.uc.notifier != nil {
			if err := l.uc.notifier.BotFailed(ctx, m); err != nil {
				logger.Error("failed to notify bot failure",
					"meetingID", m.ID, "error", err.Error())
			}
		}
		return nil
	}

	next := l.uc.clock().Add(observed.PollInterval())
	if err := l.uc.repo.Meeting().Reschedule(ctx, m.ID, observed, next); err != nil {
		return goerr.Wrap(err, "failed to apply status",
			goerr.V("meetingID", m.ID), goerr.V("status", observed))
	}

	logger.Info("bot status advanced",
		"meetingID", m.ID, "botID", m.BotID,
		"from", m.Status, "to", observed)

	return nil
}
