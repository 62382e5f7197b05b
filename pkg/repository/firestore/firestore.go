package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/interfaces"
)

type Firestore struct {
	client     *firestore.Client
	meeting    *meetingRepository
	channel    *channelRepository
	bot        *botRepository
	syncRecord *syncRecordRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.meeting.collectionPrefix = prefix
		f.channel.collectionPrefix = prefix
		f.bot.collectionPrefix = prefix
		f.syncRecord.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client:     client,
		meeting:    newMeetingRepository(client),
		channel:    newChannelRepository(client),
		bot:        newBotRepository(client),
		syncRecord: newSyncRecordRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Meeting() interfaces.MeetingRepository {
	return f.meeting
}

func (f *Firestore) Channel() interfaces.ChannelRepository {
	return f.channel
}

func (f *Firestore) Bot() interfaces.BotRepository {
	return f.bot
}

func (f *Firestore) SyncRecord() interfaces.SyncRecordRepository {
	return f.syncRecord
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
