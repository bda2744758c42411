package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceToTicksRoundsToNearestTick(t *testing.T) {
	cases := []struct {
		price float64
		ticks int64
	}{
		{0.46, 460000}, // 0.46*1e6 is 459999.99…; truncation would lose a tick
		{0.58, 580000},
		{0.29, 290000},
		{0.0, 0},
		{1.0, 1000000},
		{0.0000005, 1}, // half a tick rounds up
	}
	for _, c := range cases {
		assert.Equal(t, c.ticks, PriceToTicks(c.price), "price %v", c.price)
	}
}

func TestPriceTicksRoundTrip(t *testing.T) {
	for _, p := range []float64{0.01, 0.29, 0.46, 0.5, 0.58, 0.99} {
		sig := TradeSignal{PriceTicks: PriceToTicks(p)}
		assert.InDelta(t, p, sig.Price(), 1e-9, "price %v", p)
	}
}

func TestSizeToUnitsRounds(t *testing.T) {
	assert.Equal(t, int64(10000000), SizeToUnits(10))
	assert.Equal(t, int64(5250000), SizeToUnits(5.25))
	assert.Equal(t, int64(290000), SizeToUnits(0.29))
}
