package notify

import (
	"context"

	"github.com/secmon-lab/meetsync/pkg/domain/model"
)

// Service defines operator-facing notifications. Only terminal bot
// failures and exhausted transcript retries are surfaced; everything
// else is absorbed by the engine's fallback and retry paths.
type Service interface {
	// BotFailed reports a meeting whose bot entered the failed
	// terminal state.
	BotFailed(ctx context.Context, m *model.Meeting) error

	// TranscriptRetryExceeded reports a completed meeting whose
	// transcript retrieval hit the retry ceiling.
	TranscriptRetryExceeded(ctx context.Context, m *model.Meeting, attempts int) error
}
