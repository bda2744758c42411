package risk

import (
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

func testGate(t *testing.T, cfg config.RiskConfig) (*Gate, *KillSwitch) {
	t.Helper()
	ks := NewKillSwitch(filepath.Join(t.TempDir(), "KILL_SWITCH"))
	return NewGate(ks, cfg, slog.Default()), ks
}

func buyIntent(market string, price, size float64) domain.TradeIntent {
	return domain.TradeIntent{
		SignalID: "sig",
		Strategy: "resolution",
		MarketID: market,
		TokenID:  "tok-" + market,
		Side:     domain.OrderSideBuy,
		Price:    price,
		Size:     size,
	}
}

func TestAuthorizeCommits(t *testing.T) {
	g, _ := testGate(t, config.RiskConfig{DailyLossLimitUSD: 100, MaxPositionUSD: 50, MaxOrderSizeUSD: 25})

	dec := g.Authorize(buyIntent("m1", 0.50, 20)) // worst case 10
	require.True(t, dec.Allowed)

	st := g.Snapshot()
	assert.InDelta(t, 10, st.DailyLossUsed, 1e-9)
	assert.InDelta(t, 10, st.PositionByMkt["m1"], 1e-9)
	assert.EqualValues(t, 1, st.AuthorizedToday)
}

func TestKillSwitchBlocksUntilCleared(t *testing.T) {
	g, ks := testGate(t, config.RiskConfig{DailyLossLimitUSD: 100, MaxPositionUSD: 50, MaxOrderSizeUSD: 25})
	require.NoError(t, ks.Engage())

	// The switch blocks across repeated cycles while the file exists.
	for i := 0; i < 3; i++ {
		dec := g.Authorize(buyIntent("m1", 0.50, 10))
		require.False(t, dec.Allowed)
		assert.Equal(t, domain.ReasonKillSwitch, dec.Reason)
	}

	require.NoError(t, ks.Clear())
	dec := g.Authorize(buyIntent("m1", 0.50, 10))
	assert.True(t, dec.Allowed)
}

func TestManualStop(t *testing.T) {
	g, _ := testGate(t, config.RiskConfig{DailyLossLimitUSD: 100, MaxPositionUSD: 50, MaxOrderSizeUSD: 25})
	g.SetManualStop(true)

	dec := g.Authorize(buyIntent("m1", 0.50, 10))
	require.False(t, dec.Allowed)
	assert.Equal(t, domain.ReasonManualStop, dec.Reason)

	g.SetManualStop(false)
	assert.True(t, g.Authorize(buyIntent("m1", 0.50, 10)).Allowed)
}

func TestOrderSizeCap(t *testing.T) {
	g, _ := testGate(t, config.RiskConfig{DailyLossLimitUSD: 1000, MaxPositionUSD: 500, MaxOrderSizeUSD: 25})

	dec := g.Authorize(buyIntent("m1", 0.50, 60)) // notional 30 > 25
	require.False(t, dec.Allowed)
	assert.Equal(t, domain.ReasonOrderSize, dec.Reason)
}

func TestPositionCapAccumulates(t *testing.T) {
	g, _ := testGate(t, config.RiskConfig{DailyLossLimitUSD: 1000, MaxPositionUSD: 30, MaxOrderSizeUSD: 25})

	require.True(t, g.Authorize(buyIntent("m1", 0.50, 40)).Allowed) // notional 20
	dec := g.Authorize(buyIntent("m1", 0.50, 40))                   // would be 40 > 30
	require.False(t, dec.Allowed)
	assert.Equal(t, domain.ReasonPositionCap, dec.Reason)

	// A different market has its own cap.
	assert.True(t, g.Authorize(buyIntent("m2", 0.50, 40)).Allowed)
}

func TestSellWorstCaseUsesPayoutGap(t *testing.T) {
	g, _ := testGate(t, config.RiskConfig{DailyLossLimitUSD: 10, MaxPositionUSD: 100, MaxOrderSizeUSD: 100})

	// Selling 20 shares at 0.60: worst case (1−0.60)×20 = 8 ≤ 10.
	sell := domain.TradeIntent{MarketID: "m1", Side: domain.OrderSideSell, Price: 0.60, Size: 20}
	require.True(t, g.Authorize(sell).Allowed)

	// Next sell would need another 8 against the 2 remaining.
	dec := g.Authorize(sell)
	require.False(t, dec.Allowed)
	assert.Equal(t, domain.ReasonDailyLoss, dec.Reason)
}

func TestConcurrentAuthorizeNeverExceedsDailyBudget(t *testing.T) {
	g, _ := testGate(t, config.RiskConfig{DailyLossLimitUSD: 100, MaxPositionUSD: 10000, MaxOrderSizeUSD: 100})

	// 50 goroutines each try to commit a worst case of 10; only 10 can fit.
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			intent := buyIntent("m", 0.50, 20)
			intent.MarketID = intent.MarketID + string(rune('a'+n%26))
			if g.Authorize(intent).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
	st := g.Snapshot()
	assert.LessOrEqual(t, st.DailyLossUsed, 100.0)
}

func TestReleaseRestoresBudget(t *testing.T) {
	g, _ := testGate(t, config.RiskConfig{DailyLossLimitUSD: 10, MaxPositionUSD: 100, MaxOrderSizeUSD: 100})

	intent := buyIntent("m1", 0.50, 20) // worst case 10
	require.True(t, g.Authorize(intent).Allowed)
	require.False(t, g.Authorize(intent).Allowed)

	g.Release(intent)
	assert.True(t, g.Authorize(intent).Allowed)
}

func TestRecordPnLAndResetDay(t *testing.T) {
	g, _ := testGate(t, config.RiskConfig{DailyLossLimitUSD: 100, MaxPositionUSD: 100, MaxOrderSizeUSD: 100})

	require.True(t, g.Authorize(buyIntent("m1", 0.50, 40)).Allowed) // uses 20
	g.RecordPnL(15)                                                 // profit frees budget
	assert.InDelta(t, 5, g.Snapshot().DailyLossUsed, 1e-9)

	g.ResetDay()
	st := g.Snapshot()
	assert.Zero(t, st.DailyLossUsed)
	assert.Empty(t, st.PositionByMkt)
}
