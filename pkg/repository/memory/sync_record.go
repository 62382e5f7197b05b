package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
)

type syncRecordRepository struct {
	mu      sync.RWMutex
	records []*model.SyncRecord
}

func newSyncRecordRepository() *syncRecordRepository {
	return &syncRecordRepository{}
}

func copySyncRecord(rec *model.SyncRecord) *model.SyncRecord {
	c := *rec
	return &c
}

func (r *syncRecordRepository) Add(ctx context.Context, rec *model.SyncRecord) error {
	if rec.ID == "" {
		return goerr.New("sync record ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, copySyncRecord(rec))
	return nil
}

func (r *syncRecordRepository) ListRecent(ctx context.Context, limit int) ([]*model.SyncRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var records []*model.SyncRecord
	for i := len(r.records) - 1; i >= 0 && len(records) < limit; i-- {
		records = append(records, copySyncRecord(r.records[i]))
	}
	return records, nil
}
