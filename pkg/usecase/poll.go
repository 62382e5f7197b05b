package usecase

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// PollUseCase drives the adaptive polling scheduler: selecting due
// meetings, claiming each one against concurrent sweepers, and applying
// whatever the provider reports.
type PollUseCase struct {
	uc *UseCases
}

func newPollUseCase(uc *UseCases) *PollUseCase {
	return &PollUseCase{uc: uc}
}

// SweepResult summarizes one scheduler pass
type SweepResult struct {
	Selected int
	Polled   int
	Skipped  int
	Failed   int
}

// Sweep runs one scheduler pass: select every due meeting, then poll
// them with bounded concurrency. Failures are per-meeting; one broken
// provider call never stops the rest of the pass. A meeting another
// sweeper claimed first is skipped, not retried.
func (p *PollUseCase) Sweep(ctx context.Context) (*SweepResult, error) {
	now := p.uc.clock()

	due, err := p.uc.repo.Meeting().ListDue(ctx, now)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to select due meetings")
	}

	result := &SweepResult{Selected: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	var polled, skipped, failed atomic.Int64

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.uc.policy.WorkerConcurrency)

	for _, m := range due {
		eg.Go(func() error {
			claimed, err := p.pollOne(ctx, m)
			switch {
			case err != nil:
				failed.Add(1)
				logging.From(ctx).Error("poll failed",
					"meetingID", m.ID, "botID", m.BotID, "error", err.Error())
			case !claimed:
				skipped.Add(1)
			default:
				polled.Add(1)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "sweep aborted")
	}

	result.Polled = int(polled.Load())
	result.Skipped = int(skipped.Load())
	result.Failed = int(failed.Load())

	logging.From(ctx).Info("scheduler sweep completed",
		"selected", result.Selected, "polled", result.Polled,
		"skipped", result.Skipped, "failed", result.Failed)

	return result, nil
}

// pollOne claims one due meeting and polls its provider state. The
// claim advances NextPollAt before any provider call, so a failed call
// costs one interval of delay but is never double-executed; there is no
// rollback path. Returns false when another sweeper won the claim.
func (p *PollUseCase) pollOne(ctx context.Context, m *model.Meeting) (bool, error) {
	now := p.uc.clock()
	until := now.Add(m.Status.PollInterval())

	claimed, err := p.uc.repo.Meeting().Claim(ctx, m.ID, now, until)
	if err != nil {
		return false, goerr.Wrap(err, "failed to claim meeting", goerr.V("meetingID", m.ID))
	}
	if !claimed {
		return false, nil
	}

	// A completed meeting is due only while its transcript is pending;
	// the status will not move again, so skip the provider status call.
	if m.Status == types.BotStatusCompleted {
		return true, p.uc.Transcript.Retrieve(ctx, m)
	}

	if p.uc.recorder == nil {
		return true, goerr.New("recorder service is not configured")
	}

	observed, err := p.uc.recorder.Status(ctx, m.BotID)
	if err != nil {
		// Claimed but not rolled back; the meeting comes due again at
		// the end of the claimed interval.
		return true, goerr.Wrap(err, "failed to poll bot status",
			goerr.V("meetingID", m.ID), goerr.V("botID", m.BotID))
	}

	if err := p.uc.Lifecycle.ApplyStatus(ctx, m, observed); err != nil {
		if errors.Is(err, types.ErrIllegalTransition) {
			// Already logged and rejected; the record is untouched and
			// the meeting stays on its current cadence.
			return true, nil
		}
		return true, err
	}

	if observed == types.BotStatusCompleted {
		fresh, err := p.uc.repo.Meeting().Get(ctx, m.ID)
		if err != nil {
			return true, goerr.Wrap(err, "failed to reload completed meeting",
				goerr.V("meetingID", m.ID))
		}
		return true, p.uc.Transcript.Retrieve(ctx, fresh)
	}

	return true, nil
}
