// Package executor turns authorized trade signals into signed venue orders.
// It owns deduplication, expiry handling, and the bounded retry policy for
// transient submission failures.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
)

// OrderSigner produces the EIP-712 signature for an order and fills in the
// signed maker/taker amounts. Implemented by the crypto package.
type OrderSigner interface {
	Sign(ctx context.Context, order *domain.Order) error
}

// ExecResult is the router's verdict on one signal: the outcome that belongs
// in the trade log, plus the venue order id when one exists.
type ExecResult struct {
	Outcome domain.TradeOutcome
	OrderID string
	Reason  string
}

// Router executes one signal at a time: dedup, expiry, build, sign, submit.
// Submission retries use exponential backoff, doubling from the configured
// base, up to the configured attempt cap. Signing failures are never retried;
// they raise an operator notification instead, since a broken signer fails
// every order the same way.
type Router struct {
	signer    OrderSigner
	submitter domain.OrderSubmitter
	notifier  domain.Notifier
	dedup     *Dedup
	wallet    string
	cfg       config.ExecutorConfig
	logger    *slog.Logger
}

// NewRouter wires a Router for live submission. notifier may be nil.
func NewRouter(signer OrderSigner, submitter domain.OrderSubmitter, notifier domain.Notifier, wallet string, cfg config.ExecutorConfig, logger *slog.Logger) *Router {
	return &Router{
		signer:    signer,
		submitter: submitter,
		notifier:  notifier,
		dedup:     NewDedup(2 * time.Minute),
		wallet:    wallet,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "executor")),
	}
}

// Execute runs one signal through the full submission path. The returned
// ExecResult always carries a loggable outcome; err is non-nil only for
// failures that should release the risk commitment (nothing reached the
// venue, or the venue rejected every attempt).
func (r *Router) Execute(ctx context.Context, sig domain.TradeSignal) (ExecResult, error) {
	log := r.logger.With(
		slog.String("signal_id", sig.ID),
		slog.String("source", sig.Source),
		slog.String("token", sig.TokenID),
		slog.String("side", string(sig.Side)),
	)

	// A duplicate never reaches the venue, so the error hands the caller's
	// risk commitment back.
	if r.dedup.Seen(Key(sig)) {
		log.Debug("duplicate intent within dedup window, skipping")
		return ExecResult{Outcome: domain.OutcomeFailed, Reason: "duplicate signal"}, errDuplicate
	}

	if sig.Expired(time.Now().UTC()) {
		log.Warn("signal expired before submission", slog.Time("expires_at", sig.ExpiresAt))
		return ExecResult{Outcome: domain.OutcomeFailed, Reason: "expired"}, errExpired
	}

	order := r.buildOrder(sig)
	if err := r.signer.Sign(ctx, &order); err != nil {
		log.Error("order signing failed", slog.String("error", err.Error()))
		if r.notifier != nil {
			_ = r.notifier.Notify(ctx, "signing_failure", fmt.Sprintf("order signing failed for signal %s: %v", sig.ID, err))
		}
		return ExecResult{Outcome: domain.OutcomeFailed, Reason: "signing failed"},
			fmt.Errorf("executor: sign order: %w", errors.Join(domain.ErrSigningFailed, err))
	}

	return r.submitWithRetry(ctx, log, sig, order)
}

var (
	errExpired   = errors.New("executor: signal expired")
	errDuplicate = errors.New("executor: duplicate intent")
)

// buildOrder maps a signal onto a venue order. Maker-style quotes rest on the
// book post-only; everything else crosses immediately and kills the remainder.
func (r *Router) buildOrder(sig domain.TradeSignal) domain.Order {
	typ := domain.OrderTypeFAK
	postOnly := false
	if sig.Metadata["style"] == string(domain.QuoteStyleMaker) {
		typ = domain.OrderTypeGTC
		postOnly = true
	}
	return domain.Order{
		ID:         uuid.New().String(),
		MarketID:   sig.MarketID,
		TokenID:    sig.TokenID,
		Wallet:     r.wallet,
		Side:       sig.Side,
		Type:       typ,
		PostOnly:   postOnly,
		PriceTicks: sig.PriceTicks,
		SizeUnits:  sig.SizeUnits,
		Status:     domain.OrderStatusPending,
		Strategy:   sig.Source,
		CreatedAt:  time.Now().UTC(),
	}
}

func (r *Router) submitWithRetry(ctx context.Context, log *slog.Logger, sig domain.TradeSignal, order domain.Order) (ExecResult, error) {
	backoff := r.cfg.RetryBackoff.Duration
	var lastMsg string

	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if sig.Expired(time.Now().UTC()) {
				log.Warn("signal expired during retry, giving up")
				return ExecResult{Outcome: domain.OutcomeFailed, Reason: "expired during retry"}, errExpired
			}
			select {
			case <-ctx.Done():
				return ExecResult{Outcome: domain.OutcomeFailed, Reason: "context cancelled"}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		result, err := r.submitter.Submit(ctx, order)
		switch {
		case err == nil && result.Success:
			now := time.Now().UTC()
			order.Status = domain.OrderStatusSubmitted
			order.SubmittedAt = &now
			log.Info("order submitted",
				slog.String("order_id", result.OrderID),
				slog.String("status", string(result.Status)),
				slog.Int("attempt", attempt),
			)
			outcome := domain.OutcomeSubmitted
			if result.Status == domain.OrderStatusFilled {
				outcome = domain.OutcomeFilled
			}
			return ExecResult{Outcome: outcome, OrderID: result.OrderID}, nil

		case err != nil && errors.Is(err, domain.ErrRateLimited):
			lastMsg = err.Error()
			log.Warn("venue rate limited", slog.Int("attempt", attempt))

		case err != nil:
			// Transport errors are worth retrying; the venue may never have
			// seen the order.
			lastMsg = err.Error()
			log.Warn("order submission error", slog.String("error", err.Error()), slog.Int("attempt", attempt))

		case result.ShouldRetry:
			lastMsg = result.Message
			log.Warn("venue asked for retry",
				slog.String("message", result.Message),
				slog.Int("attempt", attempt),
			)

		default:
			// Definitive rejection. Retrying cannot change the answer.
			log.Warn("order rejected by venue",
				slog.String("status", string(result.Status)),
				slog.String("message", result.Message),
			)
			return ExecResult{Outcome: domain.OutcomeRejectedVenue, OrderID: result.OrderID, Reason: result.Message},
				fmt.Errorf("executor: order rejected: %s", result.Message)
		}
	}

	log.Error("order submission exhausted retries", slog.Int("attempts", r.cfg.MaxAttempts))
	return ExecResult{Outcome: domain.OutcomeFailed, Reason: lastMsg},
		fmt.Errorf("executor: submission failed after %d attempts: %s", r.cfg.MaxAttempts, lastMsg)
}

// CancelOrder forwards a cancel to the venue.
func (r *Router) CancelOrder(ctx context.Context, orderID string) error {
	if err := r.submitter.Cancel(ctx, orderID); err != nil {
		return fmt.Errorf("executor: cancel order %s: %w", orderID, err)
	}
	return nil
}

// Cleanup garbage-collects the dedup window. The orchestrator calls this once
// per cycle.
func (r *Router) Cleanup() {
	r.dedup.Cleanup()
}
