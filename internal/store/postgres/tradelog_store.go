package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// TradeLogStore implements domain.TradeLogStore using PostgreSQL. The table
// is append-only; rows leave it only through DeleteBefore after archival.
type TradeLogStore struct {
	pool *pgxpool.Pool
}

// NewTradeLogStore creates a new TradeLogStore backed by the given connection pool.
func NewTradeLogStore(pool *pgxpool.Pool) *TradeLogStore {
	return &TradeLogStore{pool: pool}
}

const tradeLogInsert = `
	INSERT INTO trade_log (
		cycle, strategy, market_id, token_id, side,
		price, size, outcome, reason, order_id, created_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10, $11
	)`

const tradeLogSelectCols = `id, cycle, strategy, market_id, token_id, side,
	price, size, outcome, reason, order_id, created_at`

func scanTradeLogRows(rows pgx.Rows) ([]domain.TradeLogEntry, error) {
	var entries []domain.TradeLogEntry
	for rows.Next() {
		var e domain.TradeLogEntry
		var cycle int64
		var side, outcome string
		if err := rows.Scan(
			&e.ID, &cycle, &e.Strategy, &e.MarketID, &e.TokenID, &side,
			&e.Price, &e.Size, &outcome, &e.Reason, &e.OrderID, &e.CreatedAt,
		); err != nil {
			return nil, err
		}
		e.Cycle = uint64(cycle)
		e.Side = domain.OrderSide(side)
		e.Outcome = domain.TradeOutcome(outcome)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func tradeLogArgs(e domain.TradeLogEntry) []any {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return []any{
		int64(e.Cycle), e.Strategy, e.MarketID, e.TokenID, string(e.Side),
		e.Price, e.Size, string(e.Outcome), e.Reason, e.OrderID, createdAt,
	}
}

// Append inserts a single outcome row.
func (s *TradeLogStore) Append(ctx context.Context, entry domain.TradeLogEntry) error {
	if _, err := s.pool.Exec(ctx, tradeLogInsert, tradeLogArgs(entry)...); err != nil {
		return fmt.Errorf("postgres: append trade log: %w", err)
	}
	return nil
}

// AppendBatch inserts one cycle's outcome rows in a single pgx Batch.
func (s *TradeLogStore) AppendBatch(ctx context.Context, entries []domain.TradeLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(tradeLogInsert, tradeLogArgs(e)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: append trade log batch item %d: %w", i, err)
		}
	}
	return nil
}

// ListByCycle returns all entries for one cycle in insertion order.
func (s *TradeLogStore) ListByCycle(ctx context.Context, cycle uint64) ([]domain.TradeLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeLogSelectCols+` FROM trade_log WHERE cycle = $1 ORDER BY id ASC`,
		int64(cycle))
	if err != nil {
		return nil, fmt.Errorf("postgres: list trade log by cycle: %w", err)
	}
	defer rows.Close()

	entries, err := scanTradeLogRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trade log by cycle: %w", err)
	}
	return entries, nil
}

// ListRecent returns entries newest-first with pagination and optional time filtering.
func (s *TradeLogStore) ListRecent(ctx context.Context, opts domain.ListOpts) ([]domain.TradeLogEntry, error) {
	query := `SELECT ` + tradeLogSelectCols + ` FROM trade_log WHERE TRUE`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY id DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent trade log: %w", err)
	}
	defer rows.Close()

	entries, err := scanTradeLogRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent trade log: %w", err)
	}
	return entries, nil
}

// ListBefore returns all entries created strictly before the cutoff, oldest
// first, for archival.
func (s *TradeLogStore) ListBefore(ctx context.Context, cutoff time.Time) ([]domain.TradeLogEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeLogSelectCols+` FROM trade_log WHERE created_at < $1 ORDER BY id ASC`,
		cutoff)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trade log before: %w", err)
	}
	defer rows.Close()
	return scanTradeLogRows(rows)
}

// DeleteBefore deletes all entries created before the cutoff. Returns the number deleted.
func (s *TradeLogStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trade_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trade log before: %w", err)
	}
	return tag.RowsAffected(), nil
}

var _ domain.TradeLogStore = (*TradeLogStore)(nil)
