package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/interfaces"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type channelRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newChannelRepository(client *firestore.Client) *channelRepository {
	return &channelRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *channelRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_channels"
	}
	return "channels"
}

func (r *channelRepository) Put(ctx context.Context, ch *model.Channel) (*model.Channel, error) {
	if ch.ID == "" {
		return nil, goerr.New("channel ID is required")
	}
	if err := ch.UserID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid channel")
	}
	if err := ch.CalendarID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid channel")
	}

	now := time.Now().UTC()
	created := *ch
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.client.Collection(r.collection()).Doc(created.ID.String()).Set(ctx, &created); err != nil {
		return nil, goerr.Wrap(err, "failed to put channel", goerr.V("id", ch.ID))
	}
	return &created, nil
}

func (r *channelRepository) Get(ctx context.Context, id types.ChannelID) (*model.Channel, error) {
	doc, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "channel not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get channel", goerr.V("id", id))
	}

	var ch model.Channel
	if err := doc.DataTo(&ch); err != nil {
		return nil, goerr.Wrap(err, "failed to decode channel", goerr.V("id", id))
	}
	return &ch, nil
}

func (r *channelRepository) GetActive(ctx context.Context, userID types.UserID, calendarID types.CalendarID) (*model.Channel, error) {
	iter := r.client.Collection(r.collection()).
		Where("UserID", "==", userID.String()).
		Where("CalendarID", "==", calendarID.String()).
		Where("Active", "==", true).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query active channel",
			goerr.V("userID", userID), goerr.V("calendarID", calendarID))
	}

	var ch model.Channel
	if err := doc.DataTo(&ch); err != nil {
		return nil, goerr.Wrap(err, "failed to decode channel")
	}
	return &ch, nil
}

func (r *channelRepository) listActive(ctx context.Context, q firestore.Query) ([]*model.Channel, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var channels []*model.Channel
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate channels")
		}

		var ch model.Channel
		if err := doc.DataTo(&ch); err != nil {
			return nil, goerr.Wrap(err, "failed to decode channel", goerr.V("doc_id", doc.Ref.ID))
		}
		channels = append(channels, &ch)
	}
	return channels, nil
}

func (r *channelRepository) ListActive(ctx context.Context) ([]*model.Channel, error) {
	return r.listActive(ctx, r.client.Collection(r.collection()).Where("Active", "==", true))
}

func (r *channelRepository) ListExpiring(ctx context.Context, before time.Time) ([]*model.Channel, error) {
	return r.listActive(ctx, r.client.Collection(r.collection()).
		Where("Active", "==", true).
		Where("Expiration", "<", before))
}

// UpdateSyncToken replaces the continuation token. The token lives on
// the channel document, so the swap is atomic with the row update by
// construction.
func (r *channelRepository) UpdateSyncToken(ctx context.Context, id types.ChannelID, token string) error {
	docRef := r.client.Collection(r.collection()).Doc(id.String())
	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "SyncToken", Value: token},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "channel not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update sync token", goerr.V("id", id))
	}
	return nil
}

func (r *channelRepository) Deactivate(ctx context.Context, id types.ChannelID) error {
	docRef := r.client.Collection(r.collection()).Doc(id.String())
	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "Active", Value: false},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "channel not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to deactivate channel", goerr.V("id", id))
	}
	return nil
}
