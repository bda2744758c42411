// Package fleet runs the strategy fleet on a fixed cycle: freeze a market
// snapshot, fan the scanners out in parallel, resolve same-market conflicts
// by priority, and push the survivors through the risk gate to execution.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
	"github.com/RanaPriyansh/polymarket-hft/internal/executor"
	"github.com/RanaPriyansh/polymarket-hft/internal/risk"
	"github.com/RanaPriyansh/polymarket-hft/internal/snapshot"
	"github.com/RanaPriyansh/polymarket-hft/internal/strategy"
)

// Run modes. Record logs signals without touching risk or the venue,
// simulate runs the full risk path without submission, live submits.
const (
	ModeRecord   = "record"
	ModeSimulate = "simulate"
	ModeLive     = "live"
)

// OrderRouter is the live execution path. Implemented by executor.Router.
type OrderRouter interface {
	Execute(ctx context.Context, sig domain.TradeSignal) (executor.ExecResult, error)
	Cleanup()
}

// Orchestrator drives the scan-decide-execute loop. One cycle never overlaps
// the next: a slow cycle delays the following tick instead of stacking.
type Orchestrator struct {
	store    *snapshot.Store
	registry *strategy.Registry
	gate     *risk.Gate
	ks       *risk.KillSwitch
	router   OrderRouter // nil outside live mode
	tradeLog domain.TradeLogStore
	mode     string
	cfg      config.FleetConfig
	rank     map[string]int
	logger   *slog.Logger
}

// NewOrchestrator wires the loop. router may be nil when mode is not live.
func NewOrchestrator(
	store *snapshot.Store,
	registry *strategy.Registry,
	gate *risk.Gate,
	ks *risk.KillSwitch,
	router OrderRouter,
	tradeLog domain.TradeLogStore,
	mode string,
	cfg config.FleetConfig,
	logger *slog.Logger,
) *Orchestrator {
	rank := make(map[string]int, len(cfg.Priority))
	for i, name := range cfg.Priority {
		rank[name] = i
	}
	return &Orchestrator{
		store:    store,
		registry: registry,
		gate:     gate,
		ks:       ks,
		router:   router,
		tradeLog: tradeLog,
		mode:     mode,
		cfg:      cfg,
		rank:     rank,
		logger:   logger.With(slog.String("component", "fleet")),
	}
}

// Run executes cycles at the configured interval until the context is
// cancelled. Strategy Init runs once up front; Close runs on the way out.
func (o *Orchestrator) Run(ctx context.Context) error {
	strategies := o.registry.All()
	for _, s := range strategies {
		if err := s.Init(ctx); err != nil {
			return fmt.Errorf("fleet: init strategy %s: %w", s.Name(), err)
		}
	}
	defer func() {
		for _, s := range strategies {
			if err := s.Close(); err != nil {
				o.logger.Warn("strategy close failed",
					slog.String("strategy", s.Name()),
					slog.String("error", err.Error()),
				)
			}
		}
	}()

	o.logger.Info("fleet started",
		slog.String("mode", o.mode),
		slog.Int("strategies", len(strategies)),
		slog.Duration("cycle_interval", o.cfg.CycleInterval.Duration),
	)
	defer o.logger.Info("fleet stopped")

	ticker := time.NewTicker(o.cfg.CycleInterval.Duration)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := o.RunCycle(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				o.logger.Error("cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunCycle executes exactly one scan-decide-execute pass. An engaged kill
// switch refuses every submission at the gate but never stops scanning or
// logging: operators keep visibility into what the fleet would have done.
func (o *Orchestrator) RunCycle(ctx context.Context) error {
	if o.ks.Engaged() {
		o.logger.Warn("kill switch engaged, refusing all submissions this cycle")
	}

	snap := o.store.Freeze()
	log := o.logger.With(slog.Uint64("cycle", snap.Cycle))
	started := time.Now()

	signals := o.scanAll(ctx, snap, log)
	winners, losers := o.resolveConflicts(signals)

	entries := make([]domain.TradeLogEntry, 0, len(signals))
	for _, sig := range losers {
		entries = append(entries, o.entryFor(snap.Cycle, sig, domain.OutcomeConflictLoser, "lost priority conflict", ""))
	}
	for _, sig := range winners {
		entries = append(entries, o.dispatch(ctx, snap.Cycle, sig, log))
	}

	if len(entries) > 0 && o.tradeLog != nil {
		if err := o.tradeLog.AppendBatch(ctx, entries); err != nil {
			log.Error("trade log append failed", slog.String("error", err.Error()))
		}
	}
	if o.router != nil {
		o.router.Cleanup()
	}

	log.Info("cycle complete",
		slog.Int("markets", len(snap.Markets)),
		slog.Int("signals", len(signals)),
		slog.Int("winners", len(winners)),
		slog.Duration("elapsed", time.Since(started)),
	)
	return ctx.Err()
}

// scanAll fans the fleet out in parallel, one goroutine per strategy, each
// under its own timeout. A slow or failing scanner degrades to zero signals
// for the cycle; it never fails the cycle.
func (o *Orchestrator) scanAll(ctx context.Context, snap *domain.MarketSnapshot, log *slog.Logger) []domain.TradeSignal {
	var (
		mu  sync.Mutex
		out []domain.TradeSignal
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range o.registry.All() {
		s := s
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(gctx, o.cfg.StrategyTimeout.Duration)
			defer cancel()

			signals, err := s.Scan(sctx, snap)
			if err != nil {
				log.Warn("strategy scan failed",
					slog.String("strategy", s.Name()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			if len(signals) > 0 {
				mu.Lock()
				out = append(out, signals...)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// resolveConflicts keeps, per market, only the signals from the single
// highest-priority source that targeted it. Sources missing from the
// priority list rank below every listed one.
func (o *Orchestrator) resolveConflicts(signals []domain.TradeSignal) (winners, losers []domain.TradeSignal) {
	best := make(map[string]int)
	for _, sig := range signals {
		r := o.rankOf(sig.Source)
		if cur, ok := best[sig.MarketID]; !ok || r < cur {
			best[sig.MarketID] = r
		}
	}
	for _, sig := range signals {
		if o.rankOf(sig.Source) == best[sig.MarketID] {
			winners = append(winners, sig)
		} else {
			losers = append(losers, sig)
		}
	}
	return winners, losers
}

func (o *Orchestrator) rankOf(source string) int {
	if r, ok := o.rank[source]; ok {
		return r
	}
	return len(o.rank)
}

// dispatch runs one winning signal through the mode-appropriate path and
// returns its trade-log entry.
func (o *Orchestrator) dispatch(ctx context.Context, cycle uint64, sig domain.TradeSignal, log *slog.Logger) domain.TradeLogEntry {
	if o.mode == ModeRecord {
		return o.entryFor(cycle, sig, domain.OutcomeRecorded, sig.Reason, "")
	}

	intent := domain.TradeIntent{
		SignalID: sig.ID,
		Strategy: sig.Source,
		MarketID: sig.MarketID,
		TokenID:  sig.TokenID,
		Side:     sig.Side,
		Price:    sig.Price(),
		Size:     sig.Size(),
	}
	dec := o.gate.Authorize(intent)
	if !dec.Allowed {
		return o.entryFor(cycle, sig, domain.OutcomeRejectedRisk, string(dec.Reason), "")
	}

	if o.mode == ModeSimulate {
		return o.entryFor(cycle, sig, domain.OutcomeSimulated, sig.Reason, "")
	}

	res, err := o.router.Execute(ctx, sig)
	if err != nil {
		// Nothing rests at the venue; hand the budget back.
		o.gate.Release(intent)
		log.Warn("execution failed",
			slog.String("signal_id", sig.ID),
			slog.String("outcome", string(res.Outcome)),
			slog.String("error", err.Error()),
		)
	}
	return o.entryFor(cycle, sig, res.Outcome, res.Reason, res.OrderID)
}

func (o *Orchestrator) entryFor(cycle uint64, sig domain.TradeSignal, outcome domain.TradeOutcome, reason, orderID string) domain.TradeLogEntry {
	return domain.TradeLogEntry{
		Cycle:     cycle,
		Strategy:  sig.Source,
		MarketID:  sig.MarketID,
		TokenID:   sig.TokenID,
		Side:      sig.Side,
		Price:     sig.Price(),
		Size:      sig.Size(),
		Outcome:   outcome,
		Reason:    reason,
		OrderID:   orderID,
		CreatedAt: time.Now().UTC(),
	}
}
