package types

import (
	"github.com/m-mizutani/goerr/v2"
)

// UserID identifies the owning user of a calendar and its meetings
type UserID string

// Validate checks if the UserID is valid
func (u UserID) Validate() error {
	if u == "" {
		return goerr.New("user ID cannot be empty")
	}
	return nil
}

// String returns the string representation of UserID
func (u UserID) String() string {
	return string(u)
}

// CalendarID is the provider-side calendar identifier
type CalendarID string

// Validate checks if the CalendarID is valid
func (c CalendarID) Validate() error {
	if c == "" {
		return goerr.New("calendar ID cannot be empty")
	}
	return nil
}

// String returns the string representation of CalendarID
func (c CalendarID) String() string {
	return string(c)
}

// EventID is the opaque calendar-event identifier issued by the provider
type EventID string

// String returns the string representation of EventID
func (e EventID) String() string {
	return string(e)
}

// MeetingID is a UUID-based identifier for Meeting
type MeetingID string

// String returns the string representation of MeetingID
func (m MeetingID) String() string {
	return string(m)
}

// ChannelID is the push-notification channel identifier. It is chosen
// locally at registration time and echoed back by provider notifications.
type ChannelID string

// String returns the string representation of ChannelID
func (c ChannelID) String() string {
	return string(c)
}

// BotID is the provider-side recording bot identifier
type BotID string

// String returns the string representation of BotID
func (b BotID) String() string {
	return string(b)
}
