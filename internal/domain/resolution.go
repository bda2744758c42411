package domain

import "time"

// ResolutionState is the lifecycle state of a tracked market resolution.
// Transitions move forward only; Cancelled is reachable from any
// non-terminal state.
type ResolutionState string

const (
	ResolutionRegistered           ResolutionState = "registered"
	ResolutionAwaitingConfirmation ResolutionState = "awaiting_confirmation"
	ResolutionConfirmed            ResolutionState = "confirmed"
	ResolutionExpired              ResolutionState = "expired"
	ResolutionCancelled            ResolutionState = "cancelled"
)

// Terminal reports whether the state admits no further transitions.
func (s ResolutionState) Terminal() bool {
	switch s {
	case ResolutionConfirmed, ResolutionExpired, ResolutionCancelled:
		return true
	}
	return false
}

// PendingResolution tracks a market whose oracle outcome is expected soon.
// Keyed by condition id; re-registering the same condition updates the entry
// in place.
type PendingResolution struct {
	ConditionID  string
	MarketID     string
	TokenID      string
	Question     string
	State        ResolutionState
	Deadline     time.Time
	LastPrice    float64
	Answer       *bool // set once confirmed
	Confidence   float64
	RegisteredAt time.Time
	UpdatedAt    time.Time
}
