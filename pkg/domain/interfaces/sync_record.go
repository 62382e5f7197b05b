package interfaces

import (
	"context"

	"github.com/secmon-lab/meetsync/pkg/domain/model"
)

// SyncRecordRepository defines the interface for the append-only sync
// activity log
type SyncRecordRepository interface {
	// Add appends a sync record
	Add(ctx context.Context, rec *model.SyncRecord) error

	// ListRecent retrieves the most recent records, newest first
	ListRecent(ctx context.Context, limit int) ([]*model.SyncRecord, error)
}
