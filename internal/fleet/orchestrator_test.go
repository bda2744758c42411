package fleet

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
	"github.com/RanaPriyansh/polymarket-hft/internal/executor"
	"github.com/RanaPriyansh/polymarket-hft/internal/risk"
	"github.com/RanaPriyansh/polymarket-hft/internal/snapshot"
	"github.com/RanaPriyansh/polymarket-hft/internal/store/memory"
	"github.com/RanaPriyansh/polymarket-hft/internal/strategy"
)

// stubStrategy emits a fixed set of signals per scan.
type stubStrategy struct {
	name    string
	signals []domain.TradeSignal
	err     error
	delay   time.Duration
	scans   int
}

func (s *stubStrategy) Name() string                   { return s.name }
func (s *stubStrategy) Init(ctx context.Context) error { return nil }
func (s *stubStrategy) Close() error                   { return nil }

func (s *stubStrategy) Scan(ctx context.Context, snap *domain.MarketSnapshot) ([]domain.TradeSignal, error) {
	s.scans++
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.signals, s.err
}

// stubRouter records executed signals.
type stubRouter struct {
	result executor.ExecResult
	err    error
	seen   []domain.TradeSignal
}

func (r *stubRouter) Execute(ctx context.Context, sig domain.TradeSignal) (executor.ExecResult, error) {
	r.seen = append(r.seen, sig)
	return r.result, r.err
}

func (r *stubRouter) Cleanup() {}

func fleetCfg() config.FleetConfig {
	return config.FleetConfig{
		CycleInterval:   config.Duration{Duration: 50 * time.Millisecond},
		StrategyTimeout: config.Duration{Duration: 20 * time.Millisecond},
		Priority:        []string{"resolution", "unity_arb", "correlation", "market_maker", "news"},
	}
}

func signalFrom(source, market string) domain.TradeSignal {
	now := time.Now().UTC()
	return domain.TradeSignal{
		ID:         uuid.New().String(),
		Source:     source,
		MarketID:   market,
		TokenID:    "tok-" + market,
		Side:       domain.OrderSideBuy,
		PriceTicks: domain.PriceToTicks(0.50),
		SizeUnits:  domain.SizeToUnits(10),
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Minute),
	}
}

type fixture struct {
	orc    *Orchestrator
	store  *snapshot.Store
	log    *memory.TradeLogStore
	router *stubRouter
	ks     *risk.KillSwitch
}

func newFixture(t *testing.T, mode string, strategies ...strategy.Strategy) *fixture {
	t.Helper()
	logger := slog.Default()

	reg := strategy.NewRegistry()
	for _, s := range strategies {
		reg.Register(s)
	}

	ks := risk.NewKillSwitch(filepath.Join(t.TempDir(), "KILL_SWITCH"))
	gate := risk.NewGate(ks, config.RiskConfig{
		DailyLossLimitUSD: 1000, MaxPositionUSD: 500, MaxOrderSizeUSD: 100,
	}, logger)

	store := snapshot.NewStore(logger)
	store.UpsertMarket(domain.Market{ID: "m1", Status: domain.MarketStatusActive})
	store.ApplyQuote(domain.Quote{MarketID: "m1", Bid: 0.48, Ask: 0.52})

	tlog := memory.NewTradeLogStore()
	router := &stubRouter{result: executor.ExecResult{Outcome: domain.OutcomeSubmitted, OrderID: "ord-1"}}

	return &fixture{
		orc:    NewOrchestrator(store, reg, gate, ks, router, tlog, mode, fleetCfg(), logger),
		store:  store,
		log:    tlog,
		router: router,
		ks:     ks,
	}
}

func outcomes(t *testing.T, tlog *memory.TradeLogStore, cycle uint64) map[string]domain.TradeOutcome {
	t.Helper()
	entries, err := tlog.ListByCycle(context.Background(), cycle)
	require.NoError(t, err)
	out := make(map[string]domain.TradeOutcome, len(entries))
	for _, e := range entries {
		out[e.Strategy] = e.Outcome
	}
	return out
}

func TestLiveCycleSubmitsWinner(t *testing.T) {
	f := newFixture(t, ModeLive, &stubStrategy{name: "resolution", signals: []domain.TradeSignal{signalFrom("resolution", "m1")}})

	require.NoError(t, f.orc.RunCycle(context.Background()))
	require.Len(t, f.router.seen, 1)

	entries, err := f.log.ListByCycle(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OutcomeSubmitted, entries[0].Outcome)
	assert.Equal(t, "ord-1", entries[0].OrderID)
}

func TestPriorityConflictOnSameMarket(t *testing.T) {
	f := newFixture(t, ModeSimulate,
		&stubStrategy{name: "market_maker", signals: []domain.TradeSignal{signalFrom("market_maker", "m1")}},
		&stubStrategy{name: "resolution", signals: []domain.TradeSignal{signalFrom("resolution", "m1")}},
	)

	require.NoError(t, f.orc.RunCycle(context.Background()))

	got := outcomes(t, f.log, 1)
	assert.Equal(t, domain.OutcomeSimulated, got["resolution"])
	assert.Equal(t, domain.OutcomeConflictLoser, got["market_maker"])
}

func TestDifferentMarketsDoNotConflict(t *testing.T) {
	f := newFixture(t, ModeSimulate,
		&stubStrategy{name: "market_maker", signals: []domain.TradeSignal{signalFrom("market_maker", "m2")}},
		&stubStrategy{name: "resolution", signals: []domain.TradeSignal{signalFrom("resolution", "m1")}},
	)

	require.NoError(t, f.orc.RunCycle(context.Background()))

	got := outcomes(t, f.log, 1)
	assert.Equal(t, domain.OutcomeSimulated, got["resolution"])
	assert.Equal(t, domain.OutcomeSimulated, got["market_maker"])
}

func TestSlowStrategyDegradesNotFails(t *testing.T) {
	slow := &stubStrategy{name: "news", delay: time.Second, signals: []domain.TradeSignal{signalFrom("news", "m2")}}
	fast := &stubStrategy{name: "resolution", signals: []domain.TradeSignal{signalFrom("resolution", "m1")}}
	f := newFixture(t, ModeSimulate, slow, fast)

	require.NoError(t, f.orc.RunCycle(context.Background()))

	got := outcomes(t, f.log, 1)
	assert.Equal(t, domain.OutcomeSimulated, got["resolution"])
	_, sawNews := got["news"]
	assert.False(t, sawNews, "timed-out strategy must contribute nothing")
}

func TestFailingStrategyDegradesNotFails(t *testing.T) {
	f := newFixture(t, ModeSimulate,
		&stubStrategy{name: "correlation", err: errors.New("graph locked")},
		&stubStrategy{name: "resolution", signals: []domain.TradeSignal{signalFrom("resolution", "m1")}},
	)

	require.NoError(t, f.orc.RunCycle(context.Background()))
	got := outcomes(t, f.log, 1)
	assert.Equal(t, domain.OutcomeSimulated, got["resolution"])
}

func TestRecordModeSkipsRiskAndVenue(t *testing.T) {
	f := newFixture(t, ModeRecord, &stubStrategy{name: "resolution", signals: []domain.TradeSignal{signalFrom("resolution", "m1")}})

	require.NoError(t, f.orc.RunCycle(context.Background()))
	assert.Empty(t, f.router.seen)
	got := outcomes(t, f.log, 1)
	assert.Equal(t, domain.OutcomeRecorded, got["resolution"])
}

func TestRiskRejectionIsLogged(t *testing.T) {
	sig := signalFrom("resolution", "m1")
	sig.SizeUnits = domain.SizeToUnits(1000) // notional 500 > 100 order cap
	f := newFixture(t, ModeLive, &stubStrategy{name: "resolution", signals: []domain.TradeSignal{sig}})

	require.NoError(t, f.orc.RunCycle(context.Background()))
	assert.Empty(t, f.router.seen)

	entries, err := f.log.ListByCycle(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OutcomeRejectedRisk, entries[0].Outcome)
	assert.Equal(t, string(domain.ReasonOrderSize), entries[0].Reason)
}

func TestExecutionFailureReleasesBudget(t *testing.T) {
	strat := &stubStrategy{name: "resolution", signals: []domain.TradeSignal{signalFrom("resolution", "m1")}}
	f := newFixture(t, ModeLive, strat)
	f.router.result = executor.ExecResult{Outcome: domain.OutcomeFailed, Reason: "exhausted"}
	f.router.err = errors.New("submission failed")

	require.NoError(t, f.orc.RunCycle(context.Background()))

	entries, err := f.log.ListByCycle(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OutcomeFailed, entries[0].Outcome)
}

func TestKillSwitchRefusesSubmissionsButKeepsScanning(t *testing.T) {
	strat := &stubStrategy{name: "resolution", signals: []domain.TradeSignal{signalFrom("resolution", "m1")}}
	f := newFixture(t, ModeLive, strat)
	require.NoError(t, f.ks.Engage())

	require.NoError(t, f.orc.RunCycle(context.Background()))

	// Scanning and logging continue; only the venue path is cut off.
	assert.Equal(t, 1, strat.scans)
	assert.Empty(t, f.router.seen)

	entries, err := f.log.ListByCycle(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OutcomeRejectedRisk, entries[0].Outcome)
	assert.Equal(t, string(domain.ReasonKillSwitch), entries[0].Reason)
}

func TestKillSwitchClearedResumesSubmission(t *testing.T) {
	strat := &stubStrategy{name: "resolution", signals: []domain.TradeSignal{signalFrom("resolution", "m1")}}
	f := newFixture(t, ModeLive, strat)
	require.NoError(t, f.ks.Engage())

	require.NoError(t, f.orc.RunCycle(context.Background()))
	assert.Empty(t, f.router.seen)

	require.NoError(t, f.ks.Clear())
	strat.signals = []domain.TradeSignal{signalFrom("resolution", "m1")}
	require.NoError(t, f.orc.RunCycle(context.Background()))
	assert.Len(t, f.router.seen, 1)
}

func TestCyclesSeeFrozenSnapshots(t *testing.T) {
	strat := &stubStrategy{name: "resolution"}
	f := newFixture(t, ModeSimulate, strat)

	require.NoError(t, f.orc.RunCycle(context.Background()))
	first := f.store.Current()
	f.store.ApplyQuote(domain.Quote{MarketID: "m1", Bid: 0.10, Ask: 0.12})
	require.NoError(t, f.orc.RunCycle(context.Background()))

	assert.EqualValues(t, 1, first.Cycle)
	assert.EqualValues(t, 2, f.store.Current().Cycle)
	assert.InDelta(t, 0.48, first.Quotes["m1"].Bid, 1e-9)
}
