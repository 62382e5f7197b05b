package types

import "fmt"

// SyncKind distinguishes the two synchronization paths
type SyncKind string

const (
	SyncKindIncremental SyncKind = "incremental"
	SyncKindFull        SyncKind = "full"
)

// IsValid checks if the sync kind is valid
func (k SyncKind) IsValid() bool {
	switch k {
	case SyncKindIncremental, SyncKindFull:
		return true
	default:
		return false
	}
}

// String returns the string representation of the sync kind
func (k SyncKind) String() string {
	return string(k)
}

// SyncOutcome records how a sync attempt ended
type SyncOutcome string

const (
	SyncOutcomeSuccess       SyncOutcome = "success"
	SyncOutcomeTokenInvalid  SyncOutcome = "token_invalid"
	SyncOutcomeProviderError SyncOutcome = "provider_error"
)

// AllSyncOutcomes returns all valid sync outcomes
func AllSyncOutcomes() []SyncOutcome {
	return []SyncOutcome{
		SyncOutcomeSuccess,
		SyncOutcomeTokenInvalid,
		SyncOutcomeProviderError,
	}
}

// IsValid checks if the sync outcome is valid
func (o SyncOutcome) IsValid() bool {
	switch o {
	case SyncOutcomeSuccess, SyncOutcomeTokenInvalid, SyncOutcomeProviderError:
		return true
	default:
		return false
	}
}

// String returns the string representation of the sync outcome
func (o SyncOutcome) String() string {
	return string(o)
}

// ParseSyncOutcome parses a string into a SyncOutcome
func ParseSyncOutcome(s string) (SyncOutcome, error) {
	outcome := SyncOutcome(s)
	if !outcome.IsValid() {
		return "", fmt.Errorf("invalid sync outcome: %s", s)
	}
	return outcome, nil
}
