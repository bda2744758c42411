package strategy

import (
	"context"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// Strategy defines the contract for cycle-driven scanners. Scan receives the
// frozen snapshot for the current cycle and returns zero or more trade
// signals; it must not retain the snapshot past the call.
type Strategy interface {
	Name() string
	Init(ctx context.Context) error
	Scan(ctx context.Context, snap *domain.MarketSnapshot) ([]domain.TradeSignal, error)
	Close() error
}
