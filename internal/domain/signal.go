package domain

import (
	"math"
	"time"
)

// SignalUrgency indicates how quickly a signal should be acted upon.
type SignalUrgency int

const (
	SignalUrgencyLow SignalUrgency = iota
	SignalUrgencyMedium
	SignalUrgencyHigh
	SignalUrgencyImmediate
)

// TradeSignal is emitted by a scanner to request order execution.
type TradeSignal struct {
	ID         string // UUID for dedup
	Source     string // scanner name, e.g. "resolution" or "unity_arb"
	MarketID   string
	TokenID    string
	Side       OrderSide
	PriceTicks int64 // fixed-point price, 1e6 ticks
	SizeUnits  int64 // fixed-point size, 1e6 units
	Urgency    SignalUrgency
	Confidence float64 // [0,1]
	Reason     string
	Metadata   map[string]string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Price returns the display price from fixed-point ticks.
func (s TradeSignal) Price() float64 {
	return float64(s.PriceTicks) / 1e6
}

// Size returns the display size from fixed-point units.
func (s TradeSignal) Size() float64 {
	return float64(s.SizeUnits) / 1e6
}

// Expired reports whether the signal's expiry has passed at the given time.
// A zero ExpiresAt never expires.
func (s TradeSignal) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// PriceToTicks converts a [0,1] price to fixed-point ticks. Rounds to the
// nearest tick: float arithmetic like 0.46 lands a hair below the exact
// value, and truncation would price the order one tick off.
func PriceToTicks(p float64) int64 {
	return int64(math.Round(p * 1e6))
}

// SizeToUnits converts a display size to fixed-point units, rounding to the
// nearest unit.
func SizeToUnits(sz float64) int64 {
	return int64(math.Round(sz * 1e6))
}
