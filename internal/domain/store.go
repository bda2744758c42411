package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// TradeLogStore persists the append-only per-cycle outcome log.
type TradeLogStore interface {
	Append(ctx context.Context, entry TradeLogEntry) error
	AppendBatch(ctx context.Context, entries []TradeLogEntry) error
	ListByCycle(ctx context.Context, cycle uint64) ([]TradeLogEntry, error)
	ListRecent(ctx context.Context, opts ListOpts) ([]TradeLogEntry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// MarketStore persists market metadata discovered from the venue catalog.
type MarketStore interface {
	Upsert(ctx context.Context, market Market) error
	UpsertBatch(ctx context.Context, markets []Market) error
	GetByID(ctx context.Context, id string) (Market, error)
	ListActive(ctx context.Context, opts ListOpts) ([]Market, error)
}

// OrderStore persists trading orders.
type OrderStore interface {
	Create(ctx context.Context, order Order) error
	UpdateStatus(ctx context.Context, id string, status OrderStatus) error
	GetByID(ctx context.Context, id string) (Order, error)
	ListByMarket(ctx context.Context, marketID string, opts ListOpts) ([]Order, error)
}
