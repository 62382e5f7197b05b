package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/meetsync/pkg/domain/model"
	"github.com/secmon-lab/meetsync/pkg/domain/types"
	"github.com/secmon-lab/meetsync/pkg/service/gcal"
)

// mockCalendarClient is a mock implementation of gcal.Client
type mockCalendarClient struct {
	mu sync.Mutex

	watchErr   error
	expiration time.Time

	changesFunc    func(calendarID types.CalendarID, syncToken string) (*gcal.ChangeSet, error)
	listWindowFunc func(calendarID types.CalendarID, from, to time.Time) (*gcal.ChangeSet, error)

	watchCalls      int
	stopCalls       int
	changesCalls    int
	listWindowCalls int
	stoppedChannels []types.ChannelID
}

func (m *mockCalendarClient) Watch(_ context.Context, _ types.CalendarID, channelID types.ChannelID, _, _ string) (*gcal.WatchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchCalls++
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	exp := m.expiration
	if exp.IsZero() {
		exp = time.Now().UTC().Add(7 * 24 * time.Hour)
	}
	return &gcal.WatchResult{
		ChannelID:  channelID,
		ResourceID: "resource-" + string(channelID),
		Expiration: exp,
	}, nil
}

func (m *mockCalendarClient) Stop(_ context.Context, channelID types.ChannelID, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalls++
	m.stoppedChannels = append(m.stoppedChannels, channelID)
	return nil
}

func (m *mockCalendarClient) Changes(_ context.Context, calendarID types.CalendarID, syncToken string) (*gcal.ChangeSet, error) {
	m.mu.Lock()
	m.changesCalls++
	fn := m.changesFunc
	m.mu.Unlock()
	if fn == nil {
		return &gcal.ChangeSet{}, nil
	}
	return fn(calendarID, syncToken)
}

func (m *mockCalendarClient) ListWindow(_ context.Context, calendarID types.CalendarID, from, to time.Time) (*gcal.ChangeSet, error) {
	m.mu.Lock()
	m.listWindowCalls++
	fn := m.listWindowFunc
	m.mu.Unlock()
	if fn == nil {
		return &gcal.ChangeSet{}, nil
	}
	return fn(calendarID, from, to)
}

// mockRecorderService is a mock implementation of recorder.Service
type mockRecorderService struct {
	mu sync.Mutex

	dispatchErr   error
	statusFunc    func(botID types.BotID) (types.BotStatus, error)
	transcript    *model.Transcript
	transcriptErr error

	dispatchCalls   int
	statusCalls     int
	transcriptCalls int
}

func (m *mockRecorderService) Dispatch(_ context.Context, _ string, _ map[string]any) (types.BotID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchCalls++
	if m.dispatchErr != nil {
		return "", m.dispatchErr
	}
	return "bot-1", nil
}

func (m *mockRecorderService) Status(_ context.Context, botID types.BotID) (types.BotStatus, error) {
	m.mu.Lock()
	m.statusCalls++
	fn := m.statusFunc
	m.mu.Unlock()
	if fn == nil {
		return types.BotStatusScheduled, nil
	}
	return fn(botID)
}

func (m *mockRecorderService) Transcript(_ context.Context, _ types.BotID) (*model.Transcript, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcriptCalls++
	if m.transcriptErr != nil {
		return nil, m.transcriptErr
	}
	if m.transcript != nil {
		return m.transcript, nil
	}
	return &model.Transcript{Summary: "test transcript"}, nil
}

// mockNotifier is a mock implementation of notify.Service
type mockNotifier struct {
	mu sync.Mutex

	botFailed     []types.MeetingID
	retryExceeded []types.MeetingID
}

func (m *mockNotifier) BotFailed(_ context.Context, meeting *model.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.botFailed = append(m.botFailed, meeting.ID)
	return nil
}

func (m *mockNotifier) TranscriptRetryExceeded(_ context.Context, meeting *model.Meeting, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retryExceeded = append(m.retryExceeded, meeting.ID)
	return nil
}
