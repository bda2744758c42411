package domain

import "time"

// MarketStatus represents the lifecycle state of a market.
type MarketStatus string

const (
	MarketStatusActive  MarketStatus = "active"
	MarketStatusClosed  MarketStatus = "closed"
	MarketStatusSettled MarketStatus = "settled"
)

// Market represents a Polymarket prediction market. Binary markets carry two
// outcomes; neg-risk condition groups may carry more.
type Market struct {
	ID          string
	Question    string
	Slug        string
	Outcomes    []string // e.g. ["Yes","No"], or N outcomes for a neg-risk group
	TokenIDs    []string // ERC-1155 token IDs (76-digit strings), parallel to Outcomes
	ConditionID string
	NegRisk     bool
	Volume      float64
	EndDate     *time.Time
	Status      MarketStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// YesTokenID returns the token id of the first (YES) outcome, or "" when the
// market carries no tokens.
func (m Market) YesTokenID() string {
	if len(m.TokenIDs) == 0 {
		return ""
	}
	return m.TokenIDs[0]
}

// Quote is the best bid/ask pair for one market's YES token.
type Quote struct {
	MarketID  string
	TokenID   string
	Bid       float64
	Ask       float64
	BidSize   float64
	AskSize   float64
	UpdatedAt time.Time
}

// Mid returns the midpoint price, or 0 when either side is absent.
func (q Quote) Mid() float64 {
	if q.Bid <= 0 || q.Ask <= 0 {
		return 0
	}
	return (q.Bid + q.Ask) / 2
}

// SpreadBps returns the absolute bid/ask spread expressed in basis points of
// the [0,1] price space.
func (q Quote) SpreadBps() float64 {
	return (q.Ask - q.Bid) * 10000
}
