package usecase

import (
	"time"

	"github.com/secmon-lab/meetsync/pkg/domain/interfaces"
	"github.com/secmon-lab/meetsync/pkg/domain/model/config"
	"github.com/secmon-lab/meetsync/pkg/service/gcal"
	"github.com/secmon-lab/meetsync/pkg/service/notify"
	"github.com/secmon-lab/meetsync/pkg/service/recorder"
)

// Clock returns the current time; injected so scheduling logic is
// deterministic under test.
type Clock func() time.Time

type UseCases struct {
	repo       interfaces.Repository
	calendar   gcal.Client
	recorder   recorder.Service
	notifier   notify.Service
	policy     *config.Policy
	webhookURL string
	clock      Clock

	Channel    *ChannelUseCase
	Sync       *SyncUseCase
	Lifecycle  *LifecycleUseCase
	Poll       *PollUseCase
	Transcript *TranscriptUseCase
}

type Option func(*UseCases)

func WithCalendar(c gcal.Client) Option {
	return func(uc *UseCases) {
		uc.calendar = c
	}
}

func WithRecorder(r recorder.Service) Option {
	return func(uc *UseCases) {
		uc.recorder = r
	}
}

func WithNotifier(n notify.Service) Option {
	return func(uc *UseCases) {
		uc.notifier = n
	}
}

func WithPolicy(p *config.Policy) Option {
	return func(uc *UseCases) {
		uc.policy = p
	}
}

// WithWebhookURL sets the public address push notifications are
// delivered to; required for channel registration.
func WithWebhookURL(url string) Option {
	return func(uc *UseCases) {
		uc.webhookURL = url
	}
}

func WithClock(clock Clock) Option {
	return func(uc *UseCases) {
		uc.clock = clock
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:  repo,
		clock: func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.policy == nil {
		uc.policy = config.DefaultPolicy()
	}

	uc.Channel = newChannelUseCase(uc)
	uc.Sync = newSyncUseCase(uc)
	uc.Lifecycle = newLifecycleUseCase(uc)
	uc.Transcript = newTranscriptUseCase(uc)
	uc.Poll = newPollUseCase(uc)

	return uc
}

// Repo exposes the repository for controllers that need direct reads,
// such as channel lookup during webhook verification.
func (uc *UseCases) Repo() interfaces.Repository {
	return uc.repo
}

// Policy returns the effective scheduling policy
func (uc *UseCases) Policy() *config.Policy {
	return uc.policy
}
