package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/meetsync/pkg/usecase"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// PollWorker runs the adaptive polling scheduler on a fixed cadence.
// The sweep interval only controls selection latency; per-meeting poll
// frequency is governed by each meeting's own NextPollAt.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - The per-meeting claim makes concurrent sweeps safe, so a second
//   instance degrades throughput, not correctness
type PollWorker struct {
	uc       *usecase.UseCases
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewPollWorker creates a worker that sweeps due meetings every interval
func NewPollWorker(uc *usecase.UseCases, interval time.Duration) *PollWorker {
	return &PollWorker{
		uc:       uc,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop. Does not block server startup.
func (w *PollWorker) Start(ctx context.Context) error {
	logging.Default().Info("poll worker starting", "interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *PollWorker) Stop() {
	logging.Default().Info("poll worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("poll worker stopped")
}

func (w *PollWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.uc.Poll.Sweep(ctx); err != nil {
				// Log error but continue worker
				logging.Default().Error("scheduler sweep failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("poll worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("poll worker context cancelled")
			return
		}
	}
}
