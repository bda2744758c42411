package domain

import "time"

// TradeOutcome classifies what ultimately happened to a signal in one cycle.
// Every signal produces exactly one trade-log entry, including the ones that
// never reached the venue.
type TradeOutcome string

const (
	OutcomeSubmitted     TradeOutcome = "submitted"
	OutcomeFilled        TradeOutcome = "filled"
	OutcomeSimulated     TradeOutcome = "simulated"
	OutcomeRecorded      TradeOutcome = "recorded"
	OutcomeRejectedRisk  TradeOutcome = "rejected_risk"
	OutcomeRejectedVenue TradeOutcome = "rejected_venue"
	OutcomeConflictLoser TradeOutcome = "conflict_loser"
	OutcomeFailed        TradeOutcome = "failed"
)

// TradeLogEntry is one append-only row of the per-cycle outcome log.
type TradeLogEntry struct {
	ID        int64
	Cycle     uint64
	Strategy  string
	MarketID  string
	TokenID   string
	Side      OrderSide
	Price     float64
	Size      float64
	Outcome   TradeOutcome
	Reason    string
	OrderID   string
	CreatedAt time.Time
}
