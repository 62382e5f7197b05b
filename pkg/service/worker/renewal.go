package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/meetsync/pkg/usecase"
	"github.com/secmon-lab/meetsync/pkg/utils/logging"
)

// RenewalWorker keeps push channels alive by renewing any channel
// approaching expiration before the provider silently stops delivering.
type RenewalWorker struct {
	uc       *usecase.UseCases
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewRenewalWorker creates a worker that checks channel expirations every interval
func NewRenewalWorker(uc *usecase.UseCases, interval time.Duration) *RenewalWorker {
	return &RenewalWorker{
		uc:       uc,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background renewal loop. An initial sweep runs
// immediately so channels that expired while the server was down are
// re-registered without waiting a full interval.
func (w *RenewalWorker) Start(ctx context.Context) error {
	logging.Default().Info("channel renewal worker starting", "interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *RenewalWorker) Stop() {
	logging.Default().Info("channel renewal worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("channel renewal worker stopped")
}

func (w *RenewalWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	if err := w.uc.Channel.SweepExpiring(ctx); err != nil {
		logging.Default().Error("initial channel renewal sweep failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.uc.Channel.SweepExpiring(ctx); err != nil {
				// Log error but continue worker
				logging.Default().Error("channel renewal sweep failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("channel renewal worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("channel renewal worker context cancelled")
			return
		}
	}
}
