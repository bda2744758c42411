package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RanaPriyansh/polymarket-hft/internal/crypto"
	"github.com/RanaPriyansh/polymarket-hft/internal/domain"
	"github.com/RanaPriyansh/polymarket-hft/internal/executor"
	"github.com/RanaPriyansh/polymarket-hft/internal/feed"
	"github.com/RanaPriyansh/polymarket-hft/internal/fleet"
	"github.com/RanaPriyansh/polymarket-hft/internal/oracle"
	"github.com/RanaPriyansh/polymarket-hft/internal/platform/polymarket"
	"github.com/RanaPriyansh/polymarket-hft/internal/risk"
	"github.com/RanaPriyansh/polymarket-hft/internal/sentiment"
	"github.com/RanaPriyansh/polymarket-hft/internal/snapshot"
	"github.com/RanaPriyansh/polymarket-hft/internal/strategy"
)

const (
	// maxTrackedMarkets caps the WS subscription list; the venue limits
	// assets per connection.
	maxTrackedMarkets = 100

	traderLockTTL       = 60 * time.Second
	lockRefreshInterval = 20 * time.Second

	archiveInterval = 1 * time.Hour
)

// RecordMode runs the quote feed and the fleet with no risk gating and no
// venue access. Every signal lands in the trade log as "recorded".
func (a *App) RecordMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting record mode")
	return a.runEngine(ctx, deps, nil)
}

// SimulateMode runs the full pipeline including the risk gate, stopping just
// short of the venue. Allowed signals land in the trade log as "simulated".
func (a *App) SimulateMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting simulate mode")
	return a.runEngine(ctx, deps, nil)
}

// LiveMode signs and submits real orders. It takes the distributed trading
// lock first so two deployments can never trade the same wallet at once.
func (a *App) LiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting live mode")

	unlock, err := deps.TraderLock.Acquire(ctx, traderLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return fmt.Errorf("live mode: another instance is already trading this wallet: %w", err)
		}
		return fmt.Errorf("live mode: acquire trader lock: %w", err)
	}
	defer unlock()

	router, err := a.buildRouter(ctx, deps)
	if err != nil {
		return fmt.Errorf("live mode: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.runEngine(ctx, deps, router)
	})

	// Keep the lock alive while we trade.
	g.Go(func() error {
		ticker := time.NewTicker(lockRefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := deps.TraderLock.Refresh(ctx, traderLockTTL); err != nil {
					a.logger.WarnContext(ctx, "trader lock refresh failed",
						slog.String("error", err.Error()))
				}
			}
		}
	})

	return g.Wait()
}

// runEngine assembles and runs the shared core: market discovery, the quote
// feed, the risk gate, and the fleet orchestrator. router is nil outside
// live mode.
func (a *App) runEngine(ctx context.Context, deps *Dependencies, router fleet.OrderRouter) error {
	g, ctx := errgroup.WithContext(ctx)

	snapStore := snapshot.NewStore(a.logger)

	markets, err := a.discoverMarkets(ctx, deps, snapStore)
	if err != nil {
		return fmt.Errorf("run engine: %w", err)
	}

	// Warm start from whatever quotes a previous run left in Redis; the
	// feed overwrites them as fresh frames arrive.
	if err := snapStore.Prime(ctx, deps.QuoteCache); err != nil {
		a.logger.WarnContext(ctx, "quote cache warm start failed",
			slog.String("error", err.Error()))
	}

	quoteFeed := feed.NewQuoteFeed(a.cfg.Polymarket.WsHost, snapStore, deps.QuoteCache, a.logger)
	quoteFeed.Track(markets)
	g.Go(func() error {
		defer quoteFeed.Close()
		return quoteFeed.Run(ctx)
	})

	ks := risk.NewKillSwitch(a.cfg.Fleet.KillSwitchPath)
	gate := risk.NewGate(ks, a.cfg.Risk, a.logger)

	registry := a.buildRegistry(ctx)

	orch := fleet.NewOrchestrator(
		snapStore, registry, gate, ks, router,
		deps.TradeLog, strings.ToLower(a.cfg.Mode), a.cfg.Fleet, a.logger,
	)
	g.Go(func() error {
		return orch.Run(ctx)
	})

	if deps.Archiver != nil {
		retention := time.Duration(a.cfg.S3.RetentionDays) * 24 * time.Hour
		g.Go(func() error {
			return deps.Archiver.Run(ctx, archiveInterval, retention)
		})
	}

	return g.Wait()
}

// discoverMarkets pulls the active catalog from the Gamma API, seeds the
// snapshot store, and persists metadata when a market store is wired.
func (a *App) discoverMarkets(ctx context.Context, deps *Dependencies, snapStore *snapshot.Store) ([]domain.Market, error) {
	gamma := polymarket.NewGammaClient(a.cfg.Polymarket.GammaHost)

	markets, err := gamma.ListActiveMarkets(ctx, maxTrackedMarkets)
	if err != nil {
		return nil, fmt.Errorf("discover markets: %w", err)
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("discover markets: catalog returned no active markets")
	}

	for _, m := range markets {
		snapStore.UpsertMarket(m)
	}

	if deps.MarketStore != nil {
		if err := deps.MarketStore.UpsertBatch(ctx, markets); err != nil {
			a.logger.WarnContext(ctx, "market metadata persist failed",
				slog.String("error", err.Error()))
		}
	}

	a.logger.InfoContext(ctx, "market discovery complete",
		slog.Int("markets", len(markets)))
	return markets, nil
}

// buildRegistry registers every enabled scanner. Scanners whose external
// dependency is not configured are skipped with a warning rather than
// aborting the whole engine.
func (a *App) buildRegistry(ctx context.Context) *strategy.Registry {
	reg := strategy.NewRegistry()
	sc := a.cfg.Strategy

	if sc.Correlation.Enabled {
		reg.Register(strategy.NewCorrelationScanner(
			strategy.NewCorrelationGraph(), sc.Correlation, a.logger))
	}
	if sc.Unity.Enabled {
		reg.Register(strategy.NewUnityArbitrageDetector(sc.Unity, a.logger))
	}
	if sc.MarketMaker.Enabled {
		reg.Register(strategy.NewZombieMarketMaker(sc.MarketMaker, a.logger))
	}
	if sc.Resolution.Enabled {
		if a.cfg.Oracle.Endpoint == "" {
			a.logger.WarnContext(ctx, "resolution scanner disabled: oracle.endpoint not configured")
		} else {
			reg.Register(strategy.NewResolutionTracker(
				oracle.NewClient(a.cfg.Oracle.Endpoint), sc.Resolution, a.logger))
		}
	}
	if sc.News.Enabled {
		var source domain.SentimentSource
		if a.cfg.Sentiment.Endpoint != "" {
			source = sentiment.NewClassifier(a.cfg.Sentiment.Endpoint, a.cfg.Sentiment.ApiKey)
		} else {
			source = sentiment.NewHeuristic()
			a.logger.InfoContext(ctx, "news scanner using built-in heuristic classifier")
		}
		reg.Register(strategy.NewNewsSignalGenerator(source, sc.News, a.logger))
	}

	a.logger.InfoContext(ctx, "strategy fleet assembled",
		slog.Any("strategies", reg.List()))
	return reg
}

// buildRouter creates the live execution path: key resolution, the EIP-712
// signer, the authenticated CLOB client, and the order router.
func (a *App) buildRouter(ctx context.Context, deps *Dependencies) (*executor.Router, error) {
	key, err := crypto.ResolveKey(crypto.KeySource{
		Raw:           a.cfg.Wallet.PrivateKey,
		EncryptedPath: a.cfg.Wallet.EncryptedKeyPath,
		Password:      a.cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	signer, err := crypto.NewSigner(
		key,
		a.cfg.Wallet.FunderAddress,
		a.cfg.Polymarket.ChainID,
		a.cfg.Polymarket.VerifyingContract,
		a.cfg.Polymarket.SignatureType,
	)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}

	var hmacAuth *crypto.HMACAuth
	if a.cfg.Api.Key != "" {
		hmacAuth = &crypto.HMACAuth{
			Key:        a.cfg.Api.Key,
			Secret:     a.cfg.Api.Secret,
			Passphrase: a.cfg.Api.Passphrase,
		}
	}

	clob := polymarket.NewClobClient(a.cfg.Polymarket.ClobHost, signer, hmacAuth)
	if hmacAuth == nil {
		// No static credentials: derive an API key from a signed auth
		// message. Live mode cannot submit without L2 auth.
		if err := clob.DeriveAPIKey(ctx); err != nil {
			return nil, fmt.Errorf("build router: derive api key: %w", err)
		}
	}

	return executor.NewRouter(
		signer, clob, deps.Notifier,
		signer.Address().Hex(),
		a.cfg.Executor, a.logger,
	), nil
}
