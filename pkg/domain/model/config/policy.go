package config

import (
	"github.com/m-mizutani/goerr/v2"
)

// Policy holds the operational tunables of the sync and polling engine.
// It is loaded from a TOML file; zero-valued fields fall back to the
// defaults below.
type Policy struct {
	// WindowDays bounds the full-resync listing to ±WindowDays around
	// now. Full resync is the only deletion-detection path, so the
	// window also bounds how far out orphan removal reaches.
	WindowDays int `toml:"window_days"`

	// RenewalThresholdHours is the remaining channel lifetime below
	// which the renewal sweep re-registers the channel.
	RenewalThresholdHours int `toml:"renewal_threshold_hours"`

	// TranscriptRetryLimit caps transcript retrieval attempts; when
	// crossed the meeting is descheduled and the operator notified.
	TranscriptRetryLimit int `toml:"transcript_retry_limit"`

	// SweepIntervalSeconds is the period of the background poll sweep
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`

	// WorkerConcurrency bounds the poll sweep fan-out
	WorkerConcurrency int `toml:"worker_concurrency"`

	// WebhookSyncTimeoutSeconds bounds the incremental sync triggered
	// by a push notification. It must stay under the provider's retry
	// deadline.
	WebhookSyncTimeoutSeconds int `toml:"webhook_sync_timeout_seconds"`
}

// DefaultPolicy returns the built-in defaults
func DefaultPolicy() *Policy {
	return &Policy{
		WindowDays:                30,
		RenewalThresholdHours:     24,
		TranscriptRetryLimit:      10,
		SweepIntervalSeconds:      60,
		WorkerConcurrency:         8,
		WebhookSyncTimeoutSeconds: 8,
	}
}

// Normalize fills zero-valued fields with defaults
func (p *Policy) Normalize() {
	def := DefaultPolicy()
	if p.WindowDays == 0 {
		p.WindowDays = def.WindowDays
	}
	if p.RenewalThresholdHours == 0 {
		p.RenewalThresholdHours = def.RenewalThresholdHours
	}
	if p.TranscriptRetryLimit == 0 {
		p.TranscriptRetryLimit = def.TranscriptRetryLimit
	}
	if p.SweepIntervalSeconds == 0 {
		p.SweepIntervalSeconds = def.SweepIntervalSeconds
	}
	if p.WorkerConcurrency == 0 {
		p.WorkerConcurrency = def.WorkerConcurrency
	}
	if p.WebhookSyncTimeoutSeconds == 0 {
		p.WebhookSyncTimeoutSeconds = def.WebhookSyncTimeoutSeconds
	}
}

// Validate checks if the Policy is valid
func (p *Policy) Validate() error {
	if p.WindowDays < 1 {
		return goerr.New("window_days must be positive", goerr.V("window_days", p.WindowDays))
	}
	if p.RenewalThresholdHours < 1 {
		return goerr.New("renewal_threshold_hours must be positive", goerr.V("renewal_threshold_hours", p.RenewalThresholdHours))
	}
	if p.TranscriptRetryLimit < 1 {
		return goerr.New("transcript_retry_limit must be positive", goerr.V("transcript_retry_limit", p.TranscriptRetryLimit))
	}
	if p.SweepIntervalSeconds < 1 {
		return goerr.New("sweep_interval_seconds must be positive", goerr.V("sweep_interval_seconds", p.SweepIntervalSeconds))
	}
	if p.WorkerConcurrency < 1 {
		return goerr.New("worker_concurrency must be positive", goerr.V("worker_concurrency", p.WorkerConcurrency))
	}
	if p.WebhookSyncTimeoutSeconds < 1 || p.WebhookSyncTimeoutSeconds > 10 {
		return goerr.New("webhook_sync_timeout_seconds must be within 1-10",
			goerr.V("webhook_sync_timeout_seconds", p.WebhookSyncTimeoutSeconds))
	}
	return nil
}
