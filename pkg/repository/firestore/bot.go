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

type botRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newBotRepository(client *firestore.Client) *botRepository {
	return &botRepository{
		client:           client,
		collectionPrefix: "",
	}
}

func (r *botRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_bots"
	}
	return "bots"
}

func (r *botRepository) Put(ctx context.Context, bot *model.Bot) error {
	if bot.ID == "" {
		return goerr.New("bot ID is required")
	}

	created := *bot
	created.CreatedAt = time.Now().UTC()

	if _, err := r.client.Collection(r.collection()).Doc(created.ID.String()).Set(ctx, &created); err != nil {
		return goerr.Wrap(err, "failed to put bot", goerr.V("id", bot.ID))
	}
	return nil
}

func (r *botRepository) Get(ctx context.Context, id types.BotID) (*model.Bot, error) {
	doc, err := r.client.Collection(r.collection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "bot not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get bot", goerr.V("id", id))
	}

	var bot model.Bot
	if err := doc.DataTo(&bot); err != nil {
		return nil, goerr.Wrap(err, "failed to decode bot", goerr.V("id", id))
	}
	return &bot, nil
}

func (r *botRepository) GetByMeeting(ctx context.Context, meetingID types.MeetingID) (*model.Bot, error) {
	iter := r.client.Collection(r.collection()).
		Where("MeetingID", "==", meetingID.String()).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query bot", goerr.V("meetingID", meetingID))
	}

	var bot model.Bot
	if err := doc.DataTo(&bot); err != nil {
		return nil, goerr.Wrap(err, "failed to decode bot")
	}
	return &bot, nil
}
