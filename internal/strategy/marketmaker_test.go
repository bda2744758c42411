package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

func zombieMaker() *ZombieMarketMaker {
	return NewZombieMarketMaker(config.MarketMakerConfig{
		Enabled:      true,
		MinSpreadBps: 800,
		MaxSpreadBps: 5000,
		EdgeFraction: 0.25,
		MinMidPrice:  0.05,
		QuoteSize:    10,
	}, testLogger())
}

func TestScanMarketQuotesInsideSpread(t *testing.T) {
	z := zombieMaker()

	opp := z.ScanMarket(
		domain.Market{ID: "m", Slug: "will-x-happen", TokenIDs: []string{"tok"}},
		domain.Quote{MarketID: "m", Bid: 0.42, Ask: 0.58},
	)
	require.NotNil(t, opp)
	assert.InDelta(t, 1600, opp.SpreadBps, 1e-6)
	assert.InDelta(t, 0.46, opp.QuotePrice, 1e-9) // 0.42 + 0.25×0.16
	assert.Equal(t, domain.OrderSideBuy, opp.Side) // quote below mid 0.50
	assert.Equal(t, domain.QuoteStyleTaker, opp.Style)
}

func TestScanMarketSpreadBounds(t *testing.T) {
	z := zombieMaker()
	m := domain.Market{ID: "m", Slug: "will-x-happen"}

	// 400 bps: too tight.
	assert.Nil(t, z.ScanMarket(m, domain.Quote{MarketID: "m", Bid: 0.48, Ask: 0.52}))
	// 6000 bps: too wide to trust.
	assert.Nil(t, z.ScanMarket(m, domain.Quote{MarketID: "m", Bid: 0.20, Ask: 0.80}))
	// Empty or crossed books never qualify.
	assert.Nil(t, z.ScanMarket(m, domain.Quote{MarketID: "m", Bid: 0.50}))
	assert.Nil(t, z.ScanMarket(m, domain.Quote{MarketID: "m", Bid: 0.60, Ask: 0.55}))
}

func TestScanMarketPennyFloor(t *testing.T) {
	z := zombieMaker()
	// Spread 3000 bps but mid 0.025 sits under the 0.05 floor.
	opp := z.ScanMarket(
		domain.Market{ID: "penny", Slug: "longshot"},
		domain.Quote{MarketID: "penny", Bid: 0.01, Ask: 0.04},
	)
	assert.Nil(t, opp)
}

func TestShortFuseCryptoQuotesPostOnly(t *testing.T) {
	z := zombieMaker()

	opp := z.ScanMarket(
		domain.Market{ID: "m", Slug: "btc-up-or-down-15m-1200et", TokenIDs: []string{"tok"}},
		domain.Quote{MarketID: "m", Bid: 0.42, Ask: 0.58},
	)
	require.NotNil(t, opp)
	assert.Equal(t, domain.QuoteStyleMaker, opp.Style)
}

func TestIsShortFuseCryptoSlug(t *testing.T) {
	cases := []struct {
		slug string
		want bool
	}{
		{"btc-up-or-down-15m-1200et", true},
		{"eth-above-3000-15-min", true},
		{"sol-price-fifteen-min-window", true},
		{"bitcoin-15min-close", true},
		{"btc-above-100k-2026", false},  // crypto but not 15-minute
		{"will-x-resign-15m", false},    // 15-minute token but not crypto
		{"doge-15m", true},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, IsShortFuseCryptoSlug(tc.slug), tc.slug)
	}
}

func TestScanBatchKeepsInputOrder(t *testing.T) {
	z := zombieMaker()

	markets := []domain.Market{
		{ID: "z-last", Slug: "z-last"},
		{ID: "a-first", Slug: "a-first"},
		{ID: "skipped", Slug: "skipped"},
	}
	quotes := map[string]domain.Quote{
		"z-last":  {MarketID: "z-last", Bid: 0.42, Ask: 0.58},
		"a-first": {MarketID: "a-first", Bid: 0.30, Ask: 0.45},
		"skipped": {MarketID: "skipped", Bid: 0.49, Ask: 0.51},
	}
	opps := z.ScanBatch(markets, quotes)
	require.Len(t, opps, 2)
	assert.Equal(t, "z-last", opps[0].MarketID)
	assert.Equal(t, "a-first", opps[1].MarketID)
}

func TestZombieScanEmitsSignals(t *testing.T) {
	z := zombieMaker()
	snap := makeSnap(map[string][2]float64{
		"wide":  {0.42, 0.58},
		"tight": {0.49, 0.51},
	})
	signals, err := z.Scan(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "wide", signals[0].MarketID)
	assert.Equal(t, "market_maker", signals[0].Source)
	assert.InDelta(t, 0.46, signals[0].Price(), 1e-6)
}
