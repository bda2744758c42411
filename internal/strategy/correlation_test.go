package strategy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

func TestAddEdgeRejectsInvalidWeight(t *testing.T) {
	g := NewCorrelationGraph()
	assert.ErrorIs(t, g.AddEdge("a", "b", 0), domain.ErrInvalidInput)
	assert.ErrorIs(t, g.AddEdge("a", "b", -0.5), domain.ErrInvalidInput)
	assert.ErrorIs(t, g.AddEdge("a", "b", 1.5), domain.ErrInvalidInput)
	assert.ErrorIs(t, g.AddEdge("a", "a", 0.5), domain.ErrInvalidInput)
	assert.Equal(t, 0, g.EdgeCount())
}

func TestAddEdgeRejectsCycleAndLeavesGraphUnchanged(t *testing.T) {
	g := NewCorrelationGraph()
	require.NoError(t, g.AddEdge("a", "b", 1.0))
	require.NoError(t, g.AddEdge("b", "c", 1.0))

	err := g.AddEdge("c", "a", 1.0)
	require.ErrorIs(t, err, domain.ErrCycle)
	assert.Equal(t, 2, g.EdgeCount())

	// Two-node cycle is also rejected.
	assert.ErrorIs(t, g.AddEdge("b", "a", 0.8), domain.ErrCycle)

	// The surviving edges still scan as before.
	snap := makeSnap(map[string][2]float64{
		"a": {0.70, 0.72},
		"b": {0.50, 0.52},
		"c": {0.40, 0.42},
	})
	violations := g.Scan(snap, 50, false)
	assert.Len(t, violations, 2)
}

func TestScanDetectsViolationAboveThreshold(t *testing.T) {
	g := NewCorrelationGraph()
	require.NoError(t, g.AddEdge("parent", "child", 1.0))

	snap := makeSnap(map[string][2]float64{
		"parent": {0.69, 0.71}, // mid 0.70
		"child":  {0.59, 0.61}, // mid 0.60
	})
	violations := g.Scan(snap, 50, false)
	require.Len(t, violations, 1)

	v := violations[0]
	assert.Equal(t, "parent", v.ParentID)
	assert.Equal(t, "child", v.ChildID)
	assert.InDelta(t, 0.70, v.ParentPrice, 1e-9)
	assert.InDelta(t, 0.60, v.ChildPrice, 1e-9)
	assert.InDelta(t, 1000, v.EdgeBps, 1e-6)
	assert.False(t, v.Transitive)
}

func TestScanNoViolationWhenParentCheap(t *testing.T) {
	g := NewCorrelationGraph()
	require.NoError(t, g.AddEdge("parent", "child", 1.0))

	snap := makeSnap(map[string][2]float64{
		"parent": {0.54, 0.56},
		"child":  {0.59, 0.61},
	})
	assert.Empty(t, g.Scan(snap, 50, false))
}

func TestScanSkipsEdgesWithMissingPrice(t *testing.T) {
	g := NewCorrelationGraph()
	require.NoError(t, g.AddEdge("parent", "ghost", 1.0))
	require.NoError(t, g.AddEdge("parent", "child", 1.0))

	snap := makeSnap(map[string][2]float64{
		"parent": {0.69, 0.71},
		"child":  {0.49, 0.51},
	})
	violations := g.Scan(snap, 50, false)
	require.Len(t, violations, 1)
	assert.Equal(t, "child", violations[0].ChildID)
}

func TestScanSortsByMagnitudeDescending(t *testing.T) {
	g := NewCorrelationGraph()
	require.NoError(t, g.AddEdge("p1", "c1", 1.0)) // edge 500 bps
	require.NoError(t, g.AddEdge("p2", "c2", 1.0)) // edge 2000 bps

	snap := makeSnap(map[string][2]float64{
		"p1": {0.64, 0.66},
		"c1": {0.59, 0.61},
		"p2": {0.79, 0.81},
		"c2": {0.59, 0.61},
	})
	violations := g.Scan(snap, 50, false)
	require.Len(t, violations, 2)
	assert.Equal(t, "p2", violations[0].ParentID)
	assert.Equal(t, "p1", violations[1].ParentID)
}

func TestScanTransitiveClosure(t *testing.T) {
	g := NewCorrelationGraph()
	require.NoError(t, g.AddEdge("a", "b", 0.9))
	require.NoError(t, g.AddEdge("b", "c", 0.9))

	snap := makeSnap(map[string][2]float64{
		"a": {0.94, 0.96}, // mid 0.95
		"b": {0.89, 0.91}, // mid 0.90: a − 0.9×b = 0.14 → 1400 bps
		"c": {0.49, 0.51}, // mid 0.50
	})

	direct := g.Scan(snap, 50, false)
	require.Len(t, direct, 2)
	for _, v := range direct {
		assert.False(t, v.Transitive)
	}

	// With the flag on, the composed a→c edge (weight 0.81) appears:
	// 0.95 − 0.81×0.50 = 0.545 → 5450 bps.
	all := g.Scan(snap, 50, true)
	require.Len(t, all, 3)
	assert.True(t, all[0].Transitive)
	assert.Equal(t, "a", all[0].ParentID)
	assert.Equal(t, "c", all[0].ChildID)
	assert.InDelta(t, 0.81, all[0].Weight, 1e-9)
	assert.InDelta(t, 5450, all[0].EdgeBps, 1e-6)
}

func TestCorrelationScannerEmitsSignalPair(t *testing.T) {
	g := NewCorrelationGraph()
	require.NoError(t, g.AddEdge("parent", "child", 1.0))

	scanner := NewCorrelationScanner(g, config.CorrelationConfig{
		Enabled:         true,
		MinViolationBps: 50,
		SizePerTrade:    5,
	}, testLogger())

	snap := makeSnap(map[string][2]float64{
		"parent": {0.69, 0.71},
		"child":  {0.59, 0.61},
	})
	signals, err := scanner.Scan(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, signals, 2)

	assert.Equal(t, domain.OrderSideSell, signals[0].Side)
	assert.Equal(t, "parent", signals[0].MarketID)
	assert.Equal(t, domain.OrderSideBuy, signals[1].Side)
	assert.Equal(t, "child", signals[1].MarketID)
	assert.Equal(t, "correlation", signals[0].Source)
	assert.Equal(t, "tok-child", signals[1].TokenID)
}
