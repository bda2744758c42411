package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/RanaPriyansh/polymarket-hft/internal/blob/s3"
	"github.com/RanaPriyansh/polymarket-hft/internal/cache/redis"
	"github.com/RanaPriyansh/polymarket-hft/internal/config"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
	"github.com/RanaPriyansh/polymarket-hft/internal/notify"
	"github.com/RanaPriyansh/polymarket-hft/internal/store/memory"
	"github.com/RanaPriyansh/polymarket-hft/internal/store/postgres"
)

// Dependencies bundles the infrastructure the modes build on. Constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores. TradeLog is Postgres-backed in simulate and live mode and
	// in-memory in record mode.
	TradeLog    domain.TradeLogStore
	MarketStore domain.MarketStore
	OrderStore  domain.OrderStore

	// Redis
	QuoteCache domain.QuoteCache
	TraderLock *redis.TraderLock

	// Cold storage
	Archiver *s3blob.TradeLogArchiver

	// Notifications
	Notifier *notify.Notifier
}

// needsPostgres returns true for modes that persist the trade log. Record
// mode keeps everything in memory so it can run on a laptop with only Redis.
func needsPostgres(mode string) bool {
	switch mode {
	case "simulate", "live":
		return true
	default:
		return false
	}
}

// Wire constructs the concrete dependency implementations from the given
// configuration and returns them with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	mode := strings.ToLower(cfg.Mode)

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	if needsPostgres(mode) {
		pgClient, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}

		pool := pgClient.Pool()
		tradeLog := postgres.NewTradeLogStore(pool)
		deps.TradeLog = tradeLog
		deps.MarketStore = postgres.NewMarketStore(pool)
		deps.OrderStore = postgres.NewOrderStore(pool)

		// --- S3 cold storage, only useful alongside Postgres ---
		if cfg.S3.Bucket != "" {
			s3Client, err := s3blob.New(ctx, cfg.S3)
			if err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: s3: %w", err)
			}
			deps.Archiver = s3blob.NewTradeLogArchiver(
				s3blob.NewWriter(s3Client),
				s3blob.NewReader(s3Client),
				tradeLog,
				logger,
			)
		}
	} else {
		deps.TradeLog = memory.NewTradeLogStore()
	}

	// --- Redis ---
	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: redis: %w", err)
	}
	closers = append(closers, func() { _ = redisClient.Close() })

	deps.QuoteCache = redis.NewQuoteCache(redisClient)
	deps.TraderLock = redis.NewTraderLock(redisClient)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
			cfg.Notify.Timeout.Duration,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(
			cfg.Notify.DiscordWebhookURL,
			cfg.Notify.Timeout.Duration,
		))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
