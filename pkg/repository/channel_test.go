package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/secmon-lab/meetsync/pkg/domain/interfaces"
	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/repository/memory"
)

func newChannel(id types.ChannelID, userID types.UserID, expiration time.Time) *model.Channel {
	return &model.Channel{
		ID:         id,
		ResourceID: "resource-" + string(id),
		UserID:     userID,
		CalendarID: "primary",
		Secret:     "secret-" + string(id),
		Expiration: expiration,
		Active:     true,
	}
}

func runChannelRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		exp := time.Now().UTC().Add(7 * 24 * time.Hour)
		created, err := repo.Channel().Put(ctx, newChannel("ch-1", "user-1", exp))
		if err != nil {
			t.Fatalf("failed to put channel: %v", err)
		}
		if created.CreatedAt.IsZero() {
			t.Error("expected non-zero CreatedAt")
		}

		got, err := repo.Channel().Get(ctx, "ch-1")
		if err != nil {
			t.Fatalf("failed to get channel: %v", err)
		}
		if got.ResourceID != created.ResourceID {
			t.Errorf("expected resource ID %s, got %s", created.ResourceID, got.ResourceID)
		}
		if !got.Active {
			t.Error("expected channel to be active")
		}
	})

	t.Run("Get returns ErrNotFound for unknown channel", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Channel().Get(ctx, "no-such-channel")
		if !errors.Is(err, interfaces.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetActive finds only the active channel of the pair", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		exp := time.Now().UTC().Add(7 * 24 * time.Hour)

		if _, err := repo.Channel().Put(ctx, newChannel("ch-old", "user-1", exp)); err != nil {
			t.Fatalf("failed to put channel: %v", err)
		}
		if err := repo.Channel().Deactivate(ctx, "ch-old"); err != nil {
			t.Fatalf("failed to deactivate channel: %v", err)
		}
		if _, err := repo.Channel().Put(ctx, newChannel("ch-new", "user-1", exp)); err != nil {
			t.Fatalf("failed to put channel: %v", err)
		}

		active, err := repo.Channel().GetActive(ctx, "user-1", "primary")
		if err != nil {
			t.Fatalf("failed to get active channel: %v", err)
		}
		if active == nil {
			t.Fatal("expected an active channel")
		}
		if active.ID != "ch-new" {
			t.Errorf("expected ch-new, got %s", active.ID)
		}

		none, err := repo.Channel().GetActive(ctx, "user-2", "primary")
		if err != nil {
			t.Fatalf("failed to get active channel: %v", err)
		}
		if none != nil {
			t.Errorf("expected no active channel for user-2, got %+v", none)
		}
	})

	t.Run("ListExpiring filters by expiration and activity", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := time.Now().UTC()

		if _, err := repo.Channel().Put(ctx, newChannel("ch-soon", "user-1", now.Add(12*time.Hour))); err != nil {
			t.Fatalf("failed to put channel: %v", err)
		}
		if _, err := repo.Channel().Put(ctx, newChannel("ch-later", "user-2", now.Add(7*24*time.Hour))); err != nil {
			t.Fatalf("failed to put channel: %v", err)
		}
		if _, err := repo.Channel().Put(ctx, newChannel("ch-dead", "user-3", now.Add(time.Hour))); err != nil {
			t.Fatalf("failed to put channel: %v", err)
		}
		if err := repo.Channel().Deactivate(ctx, "ch-dead"); err != nil {
			t.Fatalf("failed to deactivate channel: %v", err)
		}

		expiring, err := repo.Channel().ListExpiring(ctx, now.Add(24*time.Hour))
		if err != nil {
			t.Fatalf("failed to list expiring channels: %v", err)
		}
		if len(expiring) != 1 {
			t.Fatalf("expected 1 expiring channel, got %d", len(expiring))
		}
		if expiring[0].ID != "ch-soon" {
			t.Errorf("expected ch-soon, got %s", expiring[0].ID)
		}
	})

	t.Run("UpdateSyncToken replaces the token", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		exp := time.Now().UTC().Add(7 * 24 * time.Hour)

		ch := newChannel("ch-1", "user-1", exp)
		ch.SyncToken = "token-old"
		if _, err := repo.Channel().Put(ctx, ch); err != nil {
			t.Fatalf("failed to put channel: %v", err)
		}

		if err := repo.Channel().UpdateSyncToken(ctx, "ch-1", "token-new"); err != nil {
			t.Fatalf("failed to update sync token: %v", err)
		}

		got, err := repo.Channel().Get(ctx, "ch-1")
		if err != nil {
			t.Fatalf("failed to get channel: %v", err)
		}
		if got.SyncToken != "token-new" {
			t.Errorf("expected token-new, got %s", got.SyncToken)
		}
	})
}

func TestMemoryChannelRepository(t *testing.T) {
	runChannelRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreChannelRepository(t *testing.T) {
	runChannelRepositoryTest(t, newFirestoreRepository)
}
