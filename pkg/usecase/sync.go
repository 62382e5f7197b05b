package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// SyncUseCase keeps the local meeting store consistent with the
// calendar provider. Push notifications and the periodic poll are two
// producers feeding the same idempotent sink: every application path
// goes through the unique-keyed upsert, so re-delivery and concurrent
// delivery are safe.
type SyncUseCase struct {
	uc *UseCases
}

func newSyncUseCase(uc *UseCases) *SyncUseCase {
	return &SyncUseCase{uc: uc}
}

// SyncResult summarizes one sync attempt
type SyncResult struct {
	Kind    types.SyncKind
	Applied int
	Removed int
}

// HandleNotification processes one push notification. The notification
// body is never a data source: a change-state notification only
// triggers an incremental sync. The initial handshake notification
// (state "sync") is acknowledged without syncing.
func (s *SyncUseCase) HandleNotification(ctx context.Context, ch *model.Channel, state string) error {
	if state == "sync" {
		logging.From(ctx).Info("channel handshake received", "channelID", ch.ID)
		return nil
	}

	_, err := s.SyncIncremental(ctx, ch)
	return err
}

// SyncIncremental performs a diff sync using the channel's continuation
// token. Events are applied before the new token is persisted, so a
// crash between the two replays the page on recovery; the unique-keyed
// upsert makes the replay a no-op. A token rejected by the provider
// falls back to a full resync instead of surfacing as a failure.
func (s *SyncUseCase) SyncIncremental(ctx context.Context, ch *model.Channel) (*SyncResult, error) {
	if s.uc.calendar == nil {
		return nil, goerr.New("calendar client is not configured")
	}

	startedAt := s.uc.clock()
	rec := model.NewSyncRecord(ch.UserID, ch.CalendarID, types.SyncKindIncremental, startedAt)

	set, err := s.uc.calendar.Changes(ctx, ch.CalendarID, ch.SyncToken)
	if err != nil {
		if errors.Is(err, types.ErrSyncTokenInvalid) {
			rec.Outcome = types.SyncOutcomeTokenInvalid
			s.record(ctx, rec)

			logging.From(ctx).Info("sync token invalidated, falling back to full resync",
				"channelID", ch.ID, "calendarID", ch.CalendarID)
			return s.SyncFull(ctx, ch.UserID, ch.CalendarID, s.uc.policy.WindowDays)
		}

		rec.Outcome = types.SyncOutcomeProviderError
		rec.Error = err.Error()
		s.record(ctx, rec)
		return nil, goerr.Wrap(err, "incremental sync failed", goerr.V("channelID", ch.ID))
	}

	applied, removed, err := s.applyEvents(ctx, ch.UserID, ch.CalendarID, set.Events)
	if err != nil {
		rec.Outcome = types.SyncOutcomeProviderError
		rec.Error = err.Error()
		s.record(ctx, rec)
		return nil, err
	}

	// The token advances only after the whole change set is durably
	// applied (at-least-once).
	if set.NextSyncToken != "" {
		if err := s.uc.repo.Channel().UpdateSyncToken(ctx, ch.ID, set.NextSyncToken); err != nil {
			return nil, goerr.Wrap(err, "failed to persist sync token", goerr.V("channelID", ch.ID))
		}
	}

	rec.Outcome = types.SyncOutcomeSuccess
	rec.Events = applied
	rec.Removed = removed
	s.record(ctx, rec)

	return &SyncResult{Kind: types.SyncKindIncremental, Applied: applied, Removed: removed}, nil
}

// SyncFull lists every event in a bounded window around now, upserts
// all of them, and soft-deletes any local meeting in the window absent
// from the listing. This is the only deletion-detection path besides
// the explicit deletions incremental sync reports. A fresh continuation
// token from the listing is stored on the pair's active channel.
func (s *SyncUseCase) SyncFull(ctx context.Context, userID types.UserID, calendarID types.CalendarID, windowDays int) (*SyncResult, error) {
	if s.uc.calendar == nil {
		return nil, goerr.New("calendar client is not configured")
	}

	startedAt := s.uc.clock()
	rec := model.NewSyncRecord(userID, calendarID, types.SyncKindFull, startedAt)

	window := time.Duration(windowDays) * 24 * time.Hour
	from := startedAt.Add(-window)
	to := startedAt.Add(window)

	set, err := s.uc.calendar.ListWindow(ctx, calendarID, from, to)
	if err != nil {
		rec.Outcome = types.SyncOutcomeProviderError
		rec.Error = err.Error()
		s.record(ctx, rec)
		return nil, goerr.Wrap(err, "full sync listing failed", goerr.V("calendarID", calendarID))
	}

	applied, removed, err := s.applyEvents(ctx, userID, calendarID, set.Events)
	if err != nil {
		rec.Outcome = types.SyncOutcomeProviderError
		rec.Error = err.Error()
		s.record(ctx, rec)
		return nil, err
	}

	orphans, err := s.removeOrphans(ctx, userID, calendarID, from, to, set.Events)
	if err != nil {
		rec.Outcome = types.SyncOutcomeProviderError
		rec.Error = err.Error()
		s.record(ctx, rec)
		return nil, err
	}
	removed += orphans

	if set.NextSyncToken != "" {
		ch, err := s.uc.repo.Channel().GetActive(ctx, userID, calendarID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to look up channel for token update")
		}
		if ch != nil {
			if err := s.uc.repo.Channel().UpdateSyncToken(ctx, ch.ID, set.NextSyncToken); err != nil {
				return nil, goerr.Wrap(err, "failed to persist sync token", goerr.V("channelID", ch.ID))
			}
		}
	}

	rec.Outcome = types.SyncOutcomeSuccess
	rec.Events = applied
	rec.Removed = removed
	s.record(ctx, rec)

	return &SyncResult{Kind: types.SyncKindFull, Applied: applied, Removed: removed}, nil
}

// applyEvents feeds provider events into the idempotent sink: live
// events upsert on the (event, user) key, cancelled events soft-delete.
func (s *SyncUseCase) applyEvents(ctx context.Context, userID types.UserID, calendarID types.CalendarID, events []model.CalendarEvent) (applied, removed int, err error) {
	meetings := s.uc.repo.Meeting()

	for _, ev := range events {
		if ev.Cancelled {
			existing, err := meetings.GetByEvent(ctx, userID, ev.ID)
			if err != nil {
				return applied, removed, goerr.Wrap(err, "failed to look up cancelled event",
					goerr.V("eventID", ev.ID))
			}
			if existing == nil || existing.IsDeleted() {
				continue
			}
			if err := meetings.SoftDelete(ctx, existing.ID, s.uc.clock()); err != nil {
				return applied, removed, goerr.Wrap(err, "failed to delete cancelled meeting",
					goerr.V("eventID", ev.ID))
			}
			removed++
			continue
		}

		m := &model.Meeting{
			UserID:     userID,
			CalendarID: calendarID,
			EventID:    ev.ID,
			Title:      ev.Title,
			StartTime:  ev.StartTime,
			EndTime:    ev.EndTime,
			MeetingURL: ev.MeetingURL,
		}
		if _, err := meetings.Upsert(ctx, m); err != nil {
			return applied, removed, goerr.Wrap(err, "failed to upsert meeting",
				goerr.V("eventID", ev.ID))
		}
		applied++
	}

	return applied, removed, nil
}

// removeOrphans soft-deletes local meetings in the window whose event
// is absent from the full listing.
func (s *SyncUseCase) removeOrphans(ctx context.Context, userID types.UserID, calendarID types.CalendarID, from, to time.Time, listed []model.CalendarEvent) (int, error) {
	seen := make(map[types.EventID]struct{}, len(listed))
	for _, ev := range listed {
		if !ev.Cancelled {
			seen[ev.ID] = struct{}{}
		}
	}

	local, err := s.uc.repo.Meeting().ListWindow(ctx, userID, calendarID, from, to)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list local meetings in window")
	}

	removed := 0
	for _, m := range local {
		if _, ok := seen[m.EventID]; ok {
			continue
		}
		if err := s.uc.repo.Meeting().SoftDelete(ctx, m.ID, s.uc.clock()); err != nil {
			return removed, goerr.Wrap(err, "failed to delete orphaned meeting",
				goerr.V("meetingID", m.ID), goerr.V("eventID", m.EventID))
		}
		removed++
	}

	return removed, nil
}

// record appends to the sync activity log; logging failures must not
// fail the sync itself.
func (s *SyncUseCase) record(ctx context.Context, rec *model.SyncRecord) {
	rec.Duration = s.uc.clock().Sub(rec.StartedAt)
	if err := s.uc.repo.SyncRecord().Add(ctx, rec); err != nil {
		logging.From(ctx).Error("failed to append sync record",
			"recordID", rec.ID, "error", err.Error())
	}
}
