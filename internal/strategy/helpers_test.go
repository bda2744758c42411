package strategy

import (
	"log/slog"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// makeSnap builds a snapshot from market id → [bid, ask] pairs. Each market
// gets a matching metadata entry with a YES token id derived from its id.
func makeSnap(quotes map[string][2]float64) *domain.MarketSnapshot {
	snap := &domain.MarketSnapshot{
		Cycle:   1,
		TakenAt: time.Now().UTC(),
		Markets: make(map[string]domain.Market, len(quotes)),
		Quotes:  make(map[string]domain.Quote, len(quotes)),
	}
	for id, ba := range quotes {
		snap.Markets[id] = domain.Market{
			ID:       id,
			Slug:     id,
			Outcomes: []string{"Yes", "No"},
			TokenIDs: []string{"tok-" + id, "tok-" + id + "-no"},
			Status:   domain.MarketStatusActive,
		}
		snap.Quotes[id] = domain.Quote{
			MarketID: id,
			TokenID:  "tok-" + id,
			Bid:      ba[0],
			Ask:      ba[1],
		}
	}
	return snap
}

func testLogger() *slog.Logger {
	return slog.Default()
}
