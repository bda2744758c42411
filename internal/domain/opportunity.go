package domain

import "time"

// CorrelationEdge is a directed parent→child implication between two markets.
// Weight is the conditional probability P(child | parent) in (0,1].
type CorrelationEdge struct {
	ParentID string
	ChildID  string
	Weight   float64
	AddedAt  time.Time
}

// Violation is a detected correlation mispricing: the parent trades rich
// relative to the weighted child.
type Violation struct {
	ParentID    string
	ChildID     string
	Weight      float64
	ParentPrice float64
	ChildPrice  float64
	EdgeBps     float64 // (parent − weight×child) × 10000
	Transitive  bool    // true when derived through a composed path
}

// NegRiskKind is the direction of a unity-constraint arbitrage.
type NegRiskKind string

const (
	NegRiskMintAndSell NegRiskKind = "mint_and_sell" // sum of bids > 1 + fee
	NegRiskBuyAndMerge NegRiskKind = "buy_and_merge" // sum of asks < 1 − fee
)

// NegRiskOpportunity is a unity-constraint arbitrage on a multi-outcome
// condition group.
type NegRiskOpportunity struct {
	MarketID  string
	Kind      NegRiskKind
	SumBids   float64
	SumAsks   float64
	ProfitBps float64 // net of fee
	Outcomes  int
}

// QuoteStyle is how a market-making quote should rest on the book.
type QuoteStyle string

const (
	QuoteStyleMaker QuoteStyle = "maker" // post-only
	QuoteStyleTaker QuoteStyle = "taker"
)

// MarketOpportunity is a wide-spread quoting opportunity found by the
// zombie-market scanner.
type MarketOpportunity struct {
	MarketID   string
	TokenID    string
	Bid        float64
	Ask        float64
	SpreadBps  float64
	QuotePrice float64 // bid + edgeFraction × (ask − bid)
	Side       OrderSide
	Style      QuoteStyle
}
