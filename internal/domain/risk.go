package domain

import "time"

// RejectReason is the typed reason a trade intent was refused by the risk
// gate.
type RejectReason string

const (
	ReasonKillSwitch  RejectReason = "kill_switch"
	ReasonManualStop  RejectReason = "manual_stop"
	ReasonPositionCap RejectReason = "position_cap"
	ReasonDailyLoss   RejectReason = "daily_loss"
	ReasonOrderSize   RejectReason = "order_size"
)

// TradeIntent is what a scanner signal becomes once it is sized and priced,
// immediately before risk authorization.
type TradeIntent struct {
	SignalID string
	Strategy string
	MarketID string
	TokenID  string
	Side     OrderSide
	Price    float64
	Size     float64
}

// WorstCaseLoss is the capital at risk if the trade fills and resolves
// against us: the full premium for buys, the full payout gap for sells.
func (t TradeIntent) WorstCaseLoss() float64 {
	if t.Side == OrderSideBuy {
		return t.Price * t.Size
	}
	return (1 - t.Price) * t.Size
}

// RiskState is the mutable book-keeping the risk gate protects. It is only
// read or written inside the gate's authorize-and-commit section.
type RiskState struct {
	DailyLossUsed  float64
	DayStartedAt   time.Time
	PositionByMkt  map[string]float64 // committed notional per market id
	ManualStop     bool
	AuthorizedToday int64
	RejectedToday   int64
}
