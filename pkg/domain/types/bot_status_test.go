package types_test

import (
	"testing"
	"time"

	"github.com/secmon-lab/meetsync/pkg/domain/types"
)

func TestBotStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		name string
		from types.BotStatus
		to   types.BotStatus
		want bool
	}{
		{"pending to scheduled", types.BotStatusPending, types.BotStatusScheduled, true},
		{"scheduled to joined", types.BotStatusScheduled, types.BotStatusJoined, true},
		{"joined to transcribing", types.BotStatusJoined, types.BotStatusTranscribing, true},
		{"transcribing to completed", types.BotStatusTranscribing, types.BotStatusCompleted, true},
		{"skip scheduled to transcribing", types.BotStatusScheduled, types.BotStatusTranscribing, true},
		{"skip pending to completed", types.BotStatusPending, types.BotStatusCompleted, true},
		{"backward joined to scheduled", types.BotStatusJoined, types.BotStatusScheduled, false},
		{"backward completed to transcribing", types.BotStatusCompleted, types.BotStatusTranscribing, false},
		{"self transition", types.BotStatusJoined, types.BotStatusJoined, false},
		{"pending to failed", types.BotStatusPending, types.BotStatusFailed, true},
		{"transcribing to failed", types.BotStatusTranscribing, types.BotStatusFailed, true},
		{"completed to failed", types.BotStatusCompleted, types.BotStatusFailed, false},
		{"failed to scheduled", types.BotStatusFailed, types.BotStatusScheduled, false},
		{"failed to failed", types.BotStatusFailed, types.BotStatusFailed, false},
		{"invalid source", types.BotStatus("bogus"), types.BotStatusJoined, false},
		{"invalid target", types.BotStatusJoined, types.BotStatus("bogus"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestBotStatusPollInterval(t *testing.T) {
	cases := []struct {
		status types.BotStatus
		want   time.Duration
	}{
		{types.BotStatusPending, 2 * time.Minute},
		{types.BotStatusScheduled, 2 * time.Minute},
		{types.BotStatusJoined, time.Minute},
		{types.BotStatusTranscribing, 30 * time.Second},
		{types.BotStatusCompleted, 5 * time.Minute},
	}

	for _, tc := range cases {
		t.Run(tc.status.String(), func(t *testing.T) {
			if got := tc.status.PollInterval(); got != tc.want {
				t.Errorf("PollInterval(%s) = %v, want %v", tc.status, got, tc.want)
			}
		})
	}
}

func TestBotStatusIsTerminal(t *testing.T) {
	for _, s := range types.AllBotStatuses() {
		want := s == types.BotStatusCompleted || s == types.BotStatusFailed
		if got := s.IsTerminal(); got != want {
			t.Errorf("IsTerminal(%s) = %v, want %v", s, got, want)
		}
	}
}

func TestParseBotStatus(t *testing.T) {
	if _, err := types.ParseBotStatus("transcribing"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := types.ParseBotStatus("unknown"); err == nil {
		t.Error("expected error for unknown status")
	}
}
