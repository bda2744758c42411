// Package risk is the single exclusive section of the trading pipeline:
// every order intent passes through the gate's authorize-and-commit check
// before it may reach the venue.
package risk

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// Decision is the outcome of one Authorize call.
type Decision struct {
	Allowed bool
	Reason  domain.RejectReason
	Detail  string
}

// Gate enforces the kill switch, per-market position caps, and the daily
// loss budget. Checks and the budget debit happen atomically under one
// mutex, so concurrent authorizations can never jointly exceed a limit.
type Gate struct {
	mu     sync.Mutex
	state  domain.RiskState
	ks     *KillSwitch
	cfg    config.RiskConfig
	logger *slog.Logger
}

// NewGate returns a Gate with a fresh daily budget.
func NewGate(ks *KillSwitch, cfg config.RiskConfig, logger *slog.Logger) *Gate {
	return &Gate{
		state: domain.RiskState{
			DayStartedAt:  time.Now().UTC(),
			PositionByMkt: make(map[string]float64),
		},
		ks:     ks,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "risk_gate")),
	}
}

// Authorize runs the ordered pre-trade checks and, when all pass, commits
// the intent's worst-case loss against the daily budget and its notional
// against the market's position cap in the same critical section.
//
// Checks performed:
//  1. Kill switch (sentinel file, re-checked fresh on every call)
//  2. Manual stop flag
//  3. Single order size cap
//  4. Per-market position cap
//  5. Daily loss budget (projected worst case)
func (g *Gate) Authorize(intent domain.TradeIntent) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ks.Engaged() {
		g.state.RejectedToday++
		g.logger.Warn("risk_gate: kill switch engaged",
			slog.String("strategy", intent.Strategy),
			slog.String("market", intent.MarketID),
		)
		return Decision{Reason: domain.ReasonKillSwitch, Detail: "kill switch file present"}
	}

	if g.state.ManualStop {
		g.state.RejectedToday++
		return Decision{Reason: domain.ReasonManualStop, Detail: "manual stop engaged"}
	}

	notional := intent.Price * intent.Size
	if notional > g.cfg.MaxOrderSizeUSD {
		g.state.RejectedToday++
		g.logger.Warn("risk_gate: order size exceeds cap",
			slog.Float64("notional", notional),
			slog.Float64("max", g.cfg.MaxOrderSizeUSD),
		)
		return Decision{
			Reason: domain.ReasonOrderSize,
			Detail: fmt.Sprintf("notional %.2f exceeds max %.2f", notional, g.cfg.MaxOrderSizeUSD),
		}
	}

	if g.state.PositionByMkt[intent.MarketID]+notional > g.cfg.MaxPositionUSD {
		g.state.RejectedToday++
		g.logger.Warn("risk_gate: position cap reached",
			slog.String("market", intent.MarketID),
			slog.Float64("committed", g.state.PositionByMkt[intent.MarketID]),
			slog.Float64("max", g.cfg.MaxPositionUSD),
		)
		return Decision{
			Reason: domain.ReasonPositionCap,
			Detail: fmt.Sprintf("market %s at %.2f of %.2f cap", intent.MarketID, g.state.PositionByMkt[intent.MarketID], g.cfg.MaxPositionUSD),
		}
	}

	worstCase := intent.WorstCaseLoss()
	if g.state.DailyLossUsed+worstCase > g.cfg.DailyLossLimitUSD {
		g.state.RejectedToday++
		g.logger.Warn("risk_gate: daily loss budget exhausted",
			slog.Float64("used", g.state.DailyLossUsed),
			slog.Float64("projected", worstCase),
			slog.Float64("limit", g.cfg.DailyLossLimitUSD),
		)
		return Decision{
			Reason: domain.ReasonDailyLoss,
			Detail: fmt.Sprintf("budget %.2f used, %.2f projected, %.2f limit", g.state.DailyLossUsed, worstCase, g.cfg.DailyLossLimitUSD),
		}
	}

	// Commit atomically with the checks.
	g.state.DailyLossUsed += worstCase
	g.state.PositionByMkt[intent.MarketID] += notional
	g.state.AuthorizedToday++
	return Decision{Allowed: true}
}

// Release undoes a commit when the order never reached the venue (signing or
// submission failure before acceptance).
func (g *Gate) Release(intent domain.TradeIntent) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.DailyLossUsed -= intent.WorstCaseLoss()
	if g.state.DailyLossUsed < 0 {
		g.state.DailyLossUsed = 0
	}
	notional := intent.Price * intent.Size
	if cur, ok := g.state.PositionByMkt[intent.MarketID]; ok {
		cur -= notional
		if cur < 0 {
			cur = 0
		}
		g.state.PositionByMkt[intent.MarketID] = cur
	}
}

// RecordPnL adjusts the daily counter with a realized result. Profits free
// budget back up; losses consume it beyond the reserved worst case.
func (g *Gate) RecordPnL(pnlUSD float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.DailyLossUsed -= pnlUSD
	if g.state.DailyLossUsed < 0 {
		g.state.DailyLossUsed = 0
	}
}

// SetManualStop toggles the operator stop flag.
func (g *Gate) SetManualStop(stop bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state.ManualStop = stop
}

// ResetDay arms a fresh daily budget and clears position commitments.
func (g *Gate) ResetDay() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.DailyLossUsed = 0
	g.state.DayStartedAt = time.Now().UTC()
	g.state.PositionByMkt = make(map[string]float64)
	g.state.AuthorizedToday = 0
	g.state.RejectedToday = 0
	g.logger.Info("risk_gate: daily budget reset")
}

// Snapshot returns a copy of the current risk state for status reporting.
func (g *Gate) Snapshot() domain.RiskState {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := g.state
	out.PositionByMkt = make(map[string]float64, len(g.state.PositionByMkt))
	for k, v := range g.state.PositionByMkt {
		out.PositionByMkt[k] = v
	}
	return out
}
