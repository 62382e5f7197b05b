package http

import (
	"context"
	"crypto/hmac"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/utils/async"
	"github.com/secmon-lab/meetsync/pkg/utils/errutil"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// handleCalendarNotification handles calendar push notifications. The
// request body carries no event data; the headers identify the channel
// and the sync itself fetches changes from the provider. The response
// is acknowledged before the sync runs so the provider never counts a
// slow sync as a delivery failure.
func (s *Server) handleCalendarNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID := r.Header.Get("X-Goog-Channel-ID")
	resourceID := r.Header.Get("X-Goog-Resource-ID")
	state := r.Header.Get("X-Goog-Resource-State")
	token := r.Header.Get("X-Goog-Channel-Token")

	if channelID == "" || state == "" {
		errutil.HandleHTTP(ctx, w, goerr.New("missing notification headers",
			goerr.V("channelID", channelID), goerr.V("state", state)), http.StatusBadRequest)
		return
	}

	ch, err := s.uc.Repo().Channel().Get(ctx, types.ChannelID(channelID))
	if err != nil {
		// Notifications for unknown channels are expected after a
		// channel is replaced; acknowledge so the provider stops
		// retrying the stale delivery.
		logging.From(ctx).Warn("notification for unknown channel",
			"channelID", channelID, "resourceID", resourceID, "state", state)
		w.WriteHeader(http.StatusOK)
		return
	}

	if !hmac.Equal([]byte(ch.Secret), []byte(token)) {
		errutil.HandleHTTP(ctx, w, goerr.New("channel token mismatch",
			goerr.V("channelID", channelID)), http.StatusUnauthorized)
		return
	}

	if !ch.Active {
		logging.From(ctx).Info("notification for inactive channel, ignoring",
			"channelID", channelID, "state", state)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Acknowledge first, sync in the background
	w.WriteHeader(http.StatusOK)

	timeout := s.syncTimeout
	async.Dispatch(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := s.uc.Sync.HandleNotification(ctx, ch, state); err != nil {
			return goerr.Wrap(err, "failed to handle calendar notification",
				goerr.V("channelID", channelID), goerr.V("state", state))
		}
		return nil
	})
}
