package types

import (
	"fmt"
	"time"
)

// BotStatus represents the locally observed lifecycle state of a
// meeting's recording bot.
type BotStatus string

const (
	BotStatusPending      BotStatus = "pending"
	BotStatusScheduled    BotStatus = "scheduled"
	BotStatusJoined       BotStatus = "joined"
	BotStatusTranscribing BotStatus = "transcribing"
	BotStatusCompleted    BotStatus = "completed"
	BotStatusFailed       BotStatus = "failed"
)

// statusRank orders the forward progression of the lifecycle. failed is
// not ranked; it is reachable from any non-terminal state.
var statusRank = map[BotStatus]int{
	BotStatusPending:      0,
	BotStatusScheduled:    1,
	BotStatusJoined:       2,
	BotStatusTranscribing: 3,
	BotStatusCompleted:    4,
}

// AllBotStatuses returns all valid bot statuses
func AllBotStatuses() []BotStatus {
	return []BotStatus{
		BotStatusPending,
		BotStatusScheduled,
		BotStatusJoined,
		BotStatusTranscribing,
		BotStatusCompleted,
		BotStatusFailed,
	}
}

// IsValid checks if the bot status is valid
func (s BotStatus) IsValid() bool {
	switch s {
	case BotStatusPending,
		BotStatusScheduled,
		BotStatusJoined,
		BotStatusTranscribing,
		BotStatusCompleted,
		BotStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions may leave this state
func (s BotStatus) IsTerminal() bool {
	return s == BotStatusCompleted || s == BotStatusFailed
}

// CanTransitionTo reports whether moving from s to next is a legal
// transition. The lifecycle only moves forward: polling may observe a
// later state than the last one recorded (skipping intermediate states),
// but never an earlier one, and nothing leaves a terminal state.
func (s BotStatus) CanTransitionTo(next BotStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	if next == BotStatusFailed {
		return true
	}
	return statusRank[next] > statusRank[s]
}

// PollInterval returns how long after a poll the meeting becomes due
// again while in this state. The interval tightens in the hot states
// around join and transcription where status changes are bursty, and
// relaxes while the bot is merely scheduled, bounding provider API call
// volume.
func (s BotStatus) PollInterval() time.Duration {
	switch s {
	case BotStatusJoined:
		return time.Minute
	case BotStatusTranscribing:
		return 30 * time.Second
	case BotStatusCompleted:
		return 5 * time.Minute
	default:
		// pending and scheduled share the coldest interval
		return 2 * time.Minute
	}
}

// String returns the string representation of the bot status
func (s BotStatus) String() string {
	return string(s)
}

// ParseBotStatus parses a string into a BotStatus
func ParseBotStatus(s string) (BotStatus, error) {
	status := BotStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid bot status: %s", s)
	}
	return status, nil
}
