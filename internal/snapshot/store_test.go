package snapshot

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

func testStore() *Store {
	return NewStore(slog.Default())
}

func TestFreezeIsImmutable(t *testing.T) {
	s := testStore()
	s.UpsertMarket(domain.Market{ID: "m1", Outcomes: []string{"Yes", "No"}})
	s.ApplyQuote(domain.Quote{MarketID: "m1", Bid: 0.40, Ask: 0.44})

	snap := s.Freeze()
	require.NotNil(t, snap)

	// Mutations after the freeze must not leak into the frozen view.
	s.ApplyQuote(domain.Quote{MarketID: "m1", Bid: 0.90, Ask: 0.95})
	s.UpsertMarket(domain.Market{ID: "m2"})

	q, ok := snap.Quote("m1")
	require.True(t, ok)
	assert.Equal(t, 0.40, q.Bid)
	assert.Equal(t, 0.44, q.Ask)
	assert.Len(t, snap.Markets, 1)

	next := s.Freeze()
	q2, ok := next.Quote("m1")
	require.True(t, ok)
	assert.Equal(t, 0.90, q2.Bid)
	assert.Len(t, next.Markets, 2)
}

func TestFreezeIncrementsCycle(t *testing.T) {
	s := testStore()
	first := s.Freeze()
	second := s.Freeze()
	assert.Equal(t, first.Cycle+1, second.Cycle)
	assert.Same(t, second, s.Current())
}

func TestSnapshotPriceFallsBackToBid(t *testing.T) {
	s := testStore()
	s.ApplyQuote(domain.Quote{MarketID: "one-sided", Bid: 0.30})
	s.ApplyQuote(domain.Quote{MarketID: "two-sided", Bid: 0.40, Ask: 0.50})
	snap := s.Freeze()

	p, ok := snap.Price("two-sided")
	require.True(t, ok)
	assert.InDelta(t, 0.45, p, 1e-9)

	p, ok = snap.Price("one-sided")
	require.True(t, ok)
	assert.Equal(t, 0.30, p)

	_, ok = snap.Price("missing")
	assert.False(t, ok)
}

func TestRemoveMarket(t *testing.T) {
	s := testStore()
	s.UpsertMarket(domain.Market{ID: "m1"})
	s.ApplyQuote(domain.Quote{MarketID: "m1", Bid: 0.5, Ask: 0.6})
	s.RemoveMarket("m1")

	snap := s.Freeze()
	assert.Empty(t, snap.Markets)
	_, ok := snap.Quote("m1")
	assert.False(t, ok)
}
