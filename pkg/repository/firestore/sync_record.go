package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"google.golang.org/api/iterator"
)

type syncRecordRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newSyncRecordRepository(client *firestore.Client) *syncRecordRepository {
	return &syncRecordRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *syncRecordRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_sync_records"
	}
	return "sync_records"
}

func (r *syncRecordRepository) Add(ctx context.Context, rec *model.SyncRecord) error {
	if rec.ID == "" {
		return goerr.New("sync record ID is required")
	}

	if _, err := r.client.Collection(r.collection()).Doc(rec.ID).Set(ctx, rec); err != nil {
		return goerr.Wrap(err, "failed to add sync record", goerr.V("id", rec.ID))
	}
	return nil
}

func (r *syncRecordRepository) ListRecent(ctx context.Context, limit int) ([]*model.SyncRecord, error) {
	iter := r.client.Collection(r.collection()).
		OrderBy("StartedAt", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer iter.Stop()

	var records []*model.SyncRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate sync records")
		}

		var rec model.SyncRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, goerr.Wrap(err, "failed to decode sync record", goerr.V("doc_id", doc.Ref.ID))
		}
		records = append(records, &rec)
	}
	return records, nil
}
