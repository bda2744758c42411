package domain

import "time"

// MarketSnapshot is an immutable view of the market universe taken at the top
// of an orchestrator cycle. All scanners in a cycle read the same snapshot;
// writers build a fresh one and swap it wholesale.
type MarketSnapshot struct {
	Cycle   uint64
	TakenAt time.Time
	Markets map[string]Market
	Quotes  map[string]Quote // keyed by market id
}

// Quote returns the best bid/ask for a market and whether one is present.
func (s *MarketSnapshot) Quote(marketID string) (Quote, bool) {
	q, ok := s.Quotes[marketID]
	return q, ok
}

// Price returns the YES mid price for a market, falling back to the bid when
// the book is one-sided. The second return is false when no usable price
// exists in this snapshot.
func (s *MarketSnapshot) Price(marketID string) (float64, bool) {
	q, ok := s.Quotes[marketID]
	if !ok {
		return 0, false
	}
	if mid := q.Mid(); mid > 0 {
		return mid, true
	}
	if q.Bid > 0 {
		return q.Bid, true
	}
	return 0, false
}
