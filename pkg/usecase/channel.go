package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// ChannelUseCase owns push-notification channel registration, renewal
// and expiry handling.
type ChannelUseCase struct {
	uc *UseCases
}

func newChannelUseCase(uc *UseCases) *ChannelUseCase {
	return &ChannelUseCase{uc: uc}
}

// Register creates a push channel for the (user, calendar) pair. If a
// channel is already active, it is deactivated first so that exactly one
// active channel per pair remains. Registration carries the stale
// channel's sync token over, so incremental sync resumes where it left
// off; without a carried token the first incremental sync falls back to
// a full resync on its own.
func (c *ChannelUseCase) Register(ctx context.Context, userID types.UserID, calendarID types.CalendarID) (*model.Channel, error) {
	if c.uc.calendar == nil {
		return nil, goerr.New("calendar client is not configured")
	}
	if c.uc.webhookURL == "" {
		return nil, goerr.New("webhook URL is not configured")
	}

	var carriedToken string
	stale, err := c.uc.repo.Channel().GetActive(ctx, userID, calendarID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up active channel")
	}
	if stale != nil {
		carriedToken = stale.SyncToken
		if err := c.Deactivate(ctx, stale); err != nil {
			return nil, goerr.Wrap(err, "failed to deactivate stale channel",
				goerr.V("channelID", stale.ID))
		}
	}

	return c.register(ctx, userID, calendarID, carriedToken)
}

func (c *ChannelUseCase) register(ctx context.Context, userID types.UserID, calendarID types.CalendarID, carriedToken string) (*model.Channel, error) {
	channelID := model.NewChannelID()
	secret := uuid.New().String()

	res, err := c.uc.calendar.Watch(ctx, calendarID, channelID, secret, c.uc.webhookURL)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to register watch channel",
			goerr.V("userID", userID), goerr.V("calendarID", calendarID))
	}

	ch := &model.Channel{
		ID:         res.ChannelID,
		ResourceID: res.ResourceID,
		UserID:     userID,
		CalendarID: calendarID,
		SyncToken:  carriedToken,
		Secret:     secret,
		Expiration: res.Expiration,
		Active:     true,
	}

	created, err := c.uc.repo.Channel().Put(ctx, ch)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to store channel", goerr.V("channelID", ch.ID))
	}

	logging.From(ctx).Info("registered push channel",
		"channelID", created.ID,
		"userID", userID,
		"calendarID", calendarID,
		"expiration", created.Expiration)
	return created, nil
}

// Renew replaces the channel with a fresh registration. The provider
// does not extend channel lifetimes, so renewal is re-registration: the
// sync token moves to the new channel in the same write that activates
// it, then the old channel is stopped and deactivated.
func (c *ChannelUseCase) Renew(ctx context.Context, ch *model.Channel) (*model.Channel, error) {
	renewed, err := c.register(ctx, ch.UserID, ch.CalendarID, ch.SyncToken)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to renew channel", goerr.V("channelID", ch.ID))
	}

	if err := c.Deactivate(ctx, ch); err != nil {
		// The new channel is live; the stale one expires on its own.
		logging.From(ctx).Warn("failed to deactivate renewed channel",
			"channelID", ch.ID, "error", err.Error())
	}

	return renewed, nil
}

// Deactivate stops the provider-side channel and marks it inactive
func (c *ChannelUseCase) Deactivate(ctx context.Context, ch *model.Channel) error {
	if c.uc.calendar != nil {
		if err := c.uc.calendar.Stop(ctx, ch.ID, ch.ResourceID); err != nil {
			// Provider-side stop is best effort: an already expired
			// channel rejects the stop but costs nothing to leave.
			logging.From(ctx).Warn("failed to stop provider channel",
				"channelID", ch.ID, "error", err.Error())
		}
	}

	if err := c.uc.repo.Channel().Deactivate(ctx, ch.ID); err != nil {
		return goerr.Wrap(err, "failed to deactivate channel", goerr.V("channelID", ch.ID))
	}
	return nil
}

// SweepExpiring renews every active channel whose remaining lifetime is
// below the renewal threshold. A channel already past expiry whose
// renewal fails is deactivated and re-registered from scratch.
func (c *ChannelUseCase) SweepExpiring(ctx context.Context) error {
	now := c.uc.clock()
	threshold := time.Duration(c.uc.policy.RenewalThresholdHours) * time.Hour

	channels, err := c.uc.repo.Channel().ListExpiring(ctx, now.Add(threshold))
	if err != nil {
		return goerr.Wrap(err, "failed to list expiring channels")
	}

	logger := logging.From(ctx)
	var lastErr error
	for _, ch := range channels {
		if _, err := c.Renew(ctx, ch); err == nil {
			continue
		} else if !ch.Expired(now) {
			// Still alive; the next sweep retries.
			logger.Warn("channel renewal failed, will retry",
				"channelID", ch.ID, "error", err.Error())
			lastErr = err
			continue
		}

		logger.Error("expired channel renewal failed, re-registering",
			"channelID", ch.ID)
		if err := c.uc.repo.Channel().Deactivate(ctx, ch.ID); err != nil {
			lastErr = goerr.Wrap(err, "failed to deactivate expired channel", goerr.V("channelID", ch.ID))
			continue
		}
		if _, err := c.register(ctx, ch.UserID, ch.CalendarID, ch.SyncToken); err != nil {
			lastErr = goerr.Wrap(err, "failed to re-register expired channel", goerr.V("channelID", ch.ID))
		}
	}

	return lastErr
}
