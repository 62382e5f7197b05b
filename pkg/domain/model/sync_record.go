package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// SyncRecord is one append-only entry of the sync activity log. Every
// sync attempt, successful or not, produces exactly one record.
type SyncRecord struct {
	ID         string
	UserID     types.UserID
	CalendarID types.CalendarID
	Kind       types.SyncKind
	Outcome    types.SyncOutcome

	// Events is the number of provider events applied; Removed is the
	// number of local meetings soft-deleted as orphans.
	Events  int
	Removed int

	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// NewSyncRecord creates a record for a sync attempt starting now
func NewSyncRecord(userID types.UserID, calendarID types.CalendarID, kind types.SyncKind, startedAt time.Time) *SyncRecord {
	return &SyncRecord{
		ID:         uuid.New().String(),
		UserID:     userID,
		CalendarID: calendarID,
		Kind:       kind,
		StartedAt:  startedAt,
	}
}
