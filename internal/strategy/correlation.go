package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// CorrelationGraph is a DAG of directed implication edges between markets.
// An edge parent→child with weight w asserts the parent should not trade
// above weight × child. Edges are evaluated in insertion order;
// cycle-creating inserts are rejected and leave the graph unchanged.
type CorrelationGraph struct {
	mu       sync.RWMutex
	edges    []domain.CorrelationEdge
	children map[string][]string
}

// NewCorrelationGraph returns an empty graph.
func NewCorrelationGraph() *CorrelationGraph {
	return &CorrelationGraph{
		children: make(map[string][]string),
	}
}

// AddEdge inserts a parent→child implication with the given weight in (0,1].
// It returns domain.ErrInvalidInput for bad weights or self-edges, and
// domain.ErrCycle when a path child→…→parent already exists.
func (g *CorrelationGraph) AddEdge(parentID, childID string, weight float64) error {
	if weight <= 0 || weight > 1 {
		return fmt.Errorf("correlation: edge %s→%s weight %v: %w", parentID, childID, weight, domain.ErrInvalidInput)
	}
	if parentID == childID {
		return fmt.Errorf("correlation: self edge %s: %w", parentID, domain.ErrInvalidInput)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.reachableLocked(childID, parentID) {
		return fmt.Errorf("correlation: edge %s→%s: %w", parentID, childID, domain.ErrCycle)
	}
	g.edges = append(g.edges, domain.CorrelationEdge{
		ParentID: parentID,
		ChildID:  childID,
		Weight:   weight,
		AddedAt:  time.Now().UTC(),
	})
	g.children[parentID] = append(g.children[parentID], childID)
	return nil
}

// EdgeCount reports the number of edges in the graph.
func (g *CorrelationGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// reachableLocked reports whether to is reachable from from by following
// edges. Caller holds at least a read lock.
func (g *CorrelationGraph) reachableLocked(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, c := range g.children[n] {
			if c == to {
				return true
			}
			if !seen[c] {
				seen[c] = true
				stack = append(stack, c)
			}
		}
	}
	return false
}

// Scan walks the edges in insertion order against snapshot prices and returns
// violations where price(parent) − weight × price(child) clears minBps,
// sorted by edge magnitude descending (ties keep insertion order). Edges with
// a missing price on either side are skipped. When transitive is set, paths
// of two or more edges are also evaluated with multiplicatively composed
// weights.
func (g *CorrelationGraph) Scan(snap *domain.MarketSnapshot, minBps float64, transitive bool) []domain.Violation {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []domain.Violation
	for _, e := range g.edges {
		if v, ok := g.evaluate(snap, e.ParentID, e.ChildID, e.Weight, minBps, false); ok {
			out = append(out, v)
		}
	}
	if transitive {
		out = append(out, g.scanTransitiveLocked(snap, minBps)...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EdgeBps > out[j].EdgeBps
	})
	return out
}

// scanTransitiveLocked enumerates composed paths of length ≥ 2 and evaluates
// each endpoint pair with the product of the path weights. The graph is
// acyclic, so the walk terminates.
func (g *CorrelationGraph) scanTransitiveLocked(snap *domain.MarketSnapshot, minBps float64) []domain.Violation {
	var out []domain.Violation
	parents := make([]string, 0, len(g.children))
	for p := range g.children {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	var walk func(origin, node string, weight float64, depth int)
	walk = func(origin, node string, weight float64, depth int) {
		for _, e := range g.edges {
			if e.ParentID != node {
				continue
			}
			w := weight * e.Weight
			if depth >= 1 { // composed path, length ≥ 2
				if v, ok := g.evaluate(snap, origin, e.ChildID, w, minBps, true); ok {
					out = append(out, v)
				}
			}
			walk(origin, e.ChildID, w, depth+1)
		}
	}
	for _, p := range parents {
		walk(p, p, 1.0, 0)
	}
	return out
}

func (g *CorrelationGraph) evaluate(snap *domain.MarketSnapshot, parentID, childID string, weight, minBps float64, transitive bool) (domain.Violation, bool) {
	pp, ok := snap.Price(parentID)
	if !ok {
		return domain.Violation{}, false
	}
	cp, ok := snap.Price(childID)
	if !ok {
		return domain.Violation{}, false
	}
	edgeBps := (pp - weight*cp) * 10000
	if edgeBps < minBps {
		return domain.Violation{}, false
	}
	return domain.Violation{
		ParentID:    parentID,
		ChildID:     childID,
		Weight:      weight,
		ParentPrice: pp,
		ChildPrice:  cp,
		EdgeBps:     edgeBps,
		Transitive:  transitive,
	}, true
}

// CorrelationScanner runs the graph against each cycle's snapshot and turns
// violations into a sell-parent / buy-child signal pair (the parent trades
// rich relative to the weighted child).
type CorrelationScanner struct {
	graph  *CorrelationGraph
	cfg    config.CorrelationConfig
	logger *slog.Logger
}

// NewCorrelationScanner wraps an already-populated graph.
func NewCorrelationScanner(graph *CorrelationGraph, cfg config.CorrelationConfig, logger *slog.Logger) *CorrelationScanner {
	return &CorrelationScanner{
		graph:  graph,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "correlation_scanner")),
	}
}

// Name implements Strategy.
func (c *CorrelationScanner) Name() string { return "correlation" }

// Init implements Strategy.
func (c *CorrelationScanner) Init(ctx context.Context) error { return nil }

// Close implements Strategy.
func (c *CorrelationScanner) Close() error { return nil }

// Scan implements Strategy.
func (c *CorrelationScanner) Scan(ctx context.Context, snap *domain.MarketSnapshot) ([]domain.TradeSignal, error) {
	violations := c.graph.Scan(snap, c.cfg.MinViolationBps, c.cfg.TransitiveClosure)
	if len(violations) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	signals := make([]domain.TradeSignal, 0, 2*len(violations))
	for _, v := range violations {
		c.logger.Info("correlation violation",
			slog.String("parent", v.ParentID),
			slog.String("child", v.ChildID),
			slog.Float64("edge_bps", v.EdgeBps),
			slog.Bool("transitive", v.Transitive),
		)
		reason := fmt.Sprintf("parent %s rich vs child %s by %.0f bps (w=%.2f)", v.ParentID, v.ChildID, v.EdgeBps, v.Weight)
		signals = append(signals,
			c.signal(snap, v.ParentID, domain.OrderSideSell, v.ParentPrice, reason, now),
			c.signal(snap, v.ChildID, domain.OrderSideBuy, v.ChildPrice, reason, now),
		)
	}
	return signals, nil
}

func (c *CorrelationScanner) signal(snap *domain.MarketSnapshot, marketID string, side domain.OrderSide, price float64, reason string, now time.Time) domain.TradeSignal {
	var tokenID string
	if m, ok := snap.Markets[marketID]; ok {
		tokenID = m.YesTokenID()
	}
	return domain.TradeSignal{
		ID:         uuid.NewString(),
		Source:     c.Name(),
		MarketID:   marketID,
		TokenID:    tokenID,
		Side:       side,
		PriceTicks: domain.PriceToTicks(price),
		SizeUnits:  domain.SizeToUnits(c.cfg.SizePerTrade),
		Urgency:    domain.SignalUrgencyMedium,
		Confidence: 0.7,
		Reason:     reason,
		CreatedAt:  now,
		ExpiresAt:  now.Add(30 * time.Second),
	}
}
