package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// ResolutionTracker watches markets whose oracle outcome is expected soon and
// fires aggressively once a confirmation source is confident about the
// answer before the book has fully repriced. Entries are keyed by condition
// id and move Registered → AwaitingConfirmation → {Confirmed, Expired};
// Cancelled is reachable from any non-terminal state. Terminal entries are
// reported once and removed, so the tracker stays bounded on long runs.
type ResolutionTracker struct {
	mu      sync.Mutex
	pending map[string]*domain.PendingResolution
	order   []string // condition ids in registration order
	source  domain.ConfirmationSource
	cfg     config.ResolutionConfig
	logger  *slog.Logger
}

// NewResolutionTracker returns an empty tracker backed by the given
// confirmation source.
func NewResolutionTracker(source domain.ConfirmationSource, cfg config.ResolutionConfig, logger *slog.Logger) *ResolutionTracker {
	return &ResolutionTracker{
		pending: make(map[string]*domain.PendingResolution),
		source:  source,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "resolution_tracker")),
	}
}

// AddPending registers a market for resolution watching. Re-registering an
// already-tracked condition updates the entry in place.
func (r *ResolutionTracker) AddPending(p domain.PendingResolution) {
	now := time.Now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.pending[p.ConditionID]; ok {
		existing.MarketID = p.MarketID
		existing.TokenID = p.TokenID
		existing.Question = p.Question
		existing.Deadline = p.Deadline
		existing.UpdatedAt = now
		return
	}
	entry := p
	entry.State = domain.ResolutionRegistered
	entry.RegisteredAt = now
	entry.UpdatedAt = now
	r.pending[p.ConditionID] = &entry
	r.order = append(r.order, p.ConditionID)
}

// Cancel drops a tracked entry. Unknown ids return domain.ErrNotFound.
func (r *ResolutionTracker) Cancel(conditionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.pending[conditionID]
	if !ok {
		return fmt.Errorf("resolution: condition %s: %w", conditionID, domain.ErrNotFound)
	}
	entry.State = domain.ResolutionCancelled
	r.logger.Info("resolution watch cancelled",
		slog.String("condition", conditionID),
		slog.String("market", entry.MarketID),
	)
	r.removeLocked(conditionID)
	return nil
}

// removeLocked drops an entry from the map and the scan order. Caller holds
// the mutex.
func (r *ResolutionTracker) removeLocked(conditionID string) {
	delete(r.pending, conditionID)
	for i, id := range r.order {
		if id == conditionID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			return
		}
	}
}

// Get returns a copy of the tracked entry.
func (r *ResolutionTracker) Get(conditionID string) (domain.PendingResolution, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.pending[conditionID]
	if !ok {
		return domain.PendingResolution{}, false
	}
	return *entry, true
}

// PendingCount reports the number of tracked entries. Terminal entries are
// pruned on the spot, so everything tracked is still in flight.
func (r *ResolutionTracker) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Name implements Strategy.
func (r *ResolutionTracker) Name() string { return "resolution" }

// Init implements Strategy.
func (r *ResolutionTracker) Init(ctx context.Context) error { return nil }

// Close implements Strategy.
func (r *ResolutionTracker) Close() error { return nil }

// Scan implements Strategy. It iterates a stable key list captured under the
// lock, so entries added while a scan is in flight are picked up next cycle,
// never skipped or double-processed. Confirmation queries carry their own
// timeout; a failed query leaves the entry untouched for the next cycle.
func (r *ResolutionTracker) Scan(ctx context.Context, snap *domain.MarketSnapshot) ([]domain.TradeSignal, error) {
	r.mu.Lock()
	keys := make([]string, len(r.order))
	copy(keys, r.order)
	r.mu.Unlock()

	now := time.Now().UTC()
	var signals []domain.TradeSignal
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return signals, err
		}

		r.mu.Lock()
		entry, ok := r.pending[key]
		if !ok {
			r.mu.Unlock()
			continue
		}
		if entry.State == domain.ResolutionRegistered {
			entry.State = domain.ResolutionAwaitingConfirmation
			entry.UpdatedAt = now
		}
		if now.After(entry.Deadline) {
			entry.State = domain.ResolutionExpired
			r.logger.Warn("resolution window expired",
				slog.String("condition", entry.ConditionID),
				slog.String("market", entry.MarketID),
			)
			r.removeLocked(key)
			r.mu.Unlock()
			continue
		}
		snapshot := *entry
		r.mu.Unlock()

		confirmCtx, cancel := context.WithTimeout(ctx, r.cfg.ConfirmTimeout.Duration)
		conf, err := r.source.Confirm(confirmCtx, snapshot.ConditionID)
		cancel()
		if err != nil {
			r.logger.Debug("confirmation query failed, will retry",
				slog.String("condition", snapshot.ConditionID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if conf.Confidence < r.cfg.MinConfidence {
			continue
		}

		price, havePrice := snap.Price(snapshot.MarketID)
		sig := r.confirm(key, conf, price, havePrice, now)
		if sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals, nil
}

// confirm finalizes an entry as Confirmed, drops it from the watch list, and
// builds the snipe signal when the book still has room to the resolved
// extreme.
func (r *ResolutionTracker) confirm(key string, conf domain.Confirmation, price float64, havePrice bool, now time.Time) *domain.TradeSignal {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.pending[key]
	if !ok {
		return nil
	}
	answer := conf.Answer
	entry.State = domain.ResolutionConfirmed
	r.removeLocked(key)

	r.logger.Info("resolution confirmed",
		slog.String("condition", entry.ConditionID),
		slog.String("market", entry.MarketID),
		slog.Bool("answer", answer),
		slog.Float64("confidence", conf.Confidence),
	)
	if !havePrice {
		return nil
	}

	var side domain.OrderSide
	var profitBps float64
	switch {
	case answer && price < 0.99:
		side = domain.OrderSideBuy
		profitBps = (1-price)*10000 - r.cfg.FeeBps
	case !answer && price > 0.01:
		side = domain.OrderSideSell
		profitBps = price*10000 - r.cfg.FeeBps
	default:
		// Already at the confirmed extreme; nothing left to take.
		return nil
	}
	if profitBps < r.cfg.MinProfitBps {
		return nil
	}

	return &domain.TradeSignal{
		ID:         uuid.NewString(),
		Source:     r.Name(),
		MarketID:   entry.MarketID,
		TokenID:    entry.TokenID,
		Side:       side,
		PriceTicks: domain.PriceToTicks(price),
		SizeUnits:  domain.SizeToUnits(r.cfg.SizePerTrade),
		Urgency:    domain.SignalUrgencyImmediate,
		Confidence: conf.Confidence,
		Reason:     fmt.Sprintf("oracle confirmed %v at %.2f confidence, book at %.4f", answer, conf.Confidence, price),
		Metadata:   map[string]string{"condition_id": entry.ConditionID},
		CreatedAt:  now,
		ExpiresAt:  now.Add(5 * time.Second),
	}
}
