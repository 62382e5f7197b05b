package model

import (
	"time"

	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

// CalendarEvent is a provider event normalized to the fields this system
// cares about. Cancelled events arrive from incremental sync as explicit
// deletions; full-sync listings omit them entirely.
type CalendarEvent struct {
	ID         types.EventID
	Title      string
	StartTime  time.Time
	EndTime    time.Time
	MeetingURL string
	Cancelled  bool
}
