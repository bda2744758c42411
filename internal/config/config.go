// Package config defines the top-level configuration for the trading engine
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by POLYHFT_* environment variables.
type Config struct {
	Wallet     WalletConfig     `toml:"wallet"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Api        ApiConfig        `toml:"api"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Fleet      FleetConfig      `toml:"fleet"`
	Strategy   StrategyConfig   `toml:"strategy"`
	Risk       RiskConfig       `toml:"risk"`
	Executor   ExecutorConfig   `toml:"executor"`
	Sentiment  SentimentConfig  `toml:"sentiment"`
	Oracle     OracleConfig     `toml:"oracle"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// WalletConfig holds Ethereum wallet credentials.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	FunderAddress    string `toml:"funder_address"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// PolymarketConfig holds Polymarket API endpoints and chain parameters.
type PolymarketConfig struct {
	ClobHost          string `toml:"clob_host"`
	GammaHost         string `toml:"gamma_host"`
	WsHost            string `toml:"ws_host"`
	ChainID           int    `toml:"chain_id"`
	VerifyingContract string `toml:"verifying_contract"`
	SignatureType     int    `toml:"signature_type"`
}

// ApiConfig holds CLOB L2 API credentials used for HMAC request signing.
type ApiConfig struct {
	Key        string `toml:"key"`
	Secret     string `toml:"secret"`
	Passphrase string `toml:"passphrase"`
}

// PostgresConfig holds PostgreSQL connection parameters for the trade log.
type PostgresConfig struct {
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// RedisConfig holds Redis connection parameters for the quote cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for trade-log
// archival.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
	RetentionDays  int    `toml:"retention_days"`
}

// FleetConfig holds the orchestrator loop parameters.
type FleetConfig struct {
	CycleInterval   Duration `toml:"cycle_interval"`
	StrategyTimeout Duration `toml:"strategy_timeout"`
	KillSwitchPath  string   `toml:"kill_switch_path"`
	// Priority lists strategy names from highest to lowest for same-market
	// conflict resolution.
	Priority []string `toml:"priority"`
}

// StrategyConfig groups the per-scanner parameter blocks.
type StrategyConfig struct {
	Correlation CorrelationConfig `toml:"correlation"`
	Unity       UnityConfig       `toml:"unity"`
	MarketMaker MarketMakerConfig `toml:"market_maker"`
	Resolution  ResolutionConfig  `toml:"resolution"`
	News        NewsConfig        `toml:"news"`
}

// CorrelationConfig holds parameters for the correlation-violation scanner.
type CorrelationConfig struct {
	Enabled           bool    `toml:"enabled"`
	MinViolationBps   float64 `toml:"min_violation_bps"`
	TransitiveClosure bool    `toml:"transitive_closure"`
	SizePerTrade      float64 `toml:"size_per_trade"`
}

// UnityConfig holds parameters for the unity-constraint arbitrage detector.
type UnityConfig struct {
	Enabled      bool    `toml:"enabled"`
	FeeRate      float64 `toml:"fee_rate"`
	MinProfitBps float64 `toml:"min_profit_bps"`
	SizePerLeg   float64 `toml:"size_per_leg"`
}

// MarketMakerConfig holds parameters for the zombie-market quoting scanner.
type MarketMakerConfig struct {
	Enabled      bool    `toml:"enabled"`
	MinSpreadBps float64 `toml:"min_spread_bps"`
	MaxSpreadBps float64 `toml:"max_spread_bps"`
	EdgeFraction float64 `toml:"edge_fraction"`
	MinMidPrice  float64 `toml:"min_mid_price"`
	QuoteSize    float64 `toml:"quote_size"`
}

// ResolutionConfig holds parameters for the resolution tracker.
type ResolutionConfig struct {
	Enabled        bool     `toml:"enabled"`
	MinConfidence  float64  `toml:"min_confidence"`
	MinProfitBps   float64  `toml:"min_profit_bps"`
	FeeBps         float64  `toml:"fee_bps"`
	ConfirmTimeout Duration `toml:"confirm_timeout"`
	SizePerTrade   float64  `toml:"size_per_trade"`
}

// NewsConfig holds parameters for the news-signal generator.
type NewsConfig struct {
	Enabled          bool     `toml:"enabled"`
	MinConfidence    float64  `toml:"min_confidence"`
	SentimentTimeout Duration `toml:"sentiment_timeout"`
	SizePerTrade     float64  `toml:"size_per_trade"`
}

// RiskConfig holds the risk-gate limits.
type RiskConfig struct {
	DailyLossLimitUSD float64 `toml:"daily_loss_limit_usd"`
	MaxPositionUSD    float64 `toml:"max_position_usd"`
	MaxOrderSizeUSD   float64 `toml:"max_order_size_usd"`
}

// ExecutorConfig holds submission retry parameters.
type ExecutorConfig struct {
	MaxAttempts  int      `toml:"max_attempts"`
	RetryBackoff Duration `toml:"retry_backoff"`
	OrderTTL     Duration `toml:"order_ttl"`
}

// SentimentConfig holds the external sentiment classifier endpoint.
type SentimentConfig struct {
	Endpoint string   `toml:"endpoint"`
	ApiKey   string   `toml:"api_key"`
	Timeout  Duration `toml:"timeout"`
}

// OracleConfig holds the external resolution-confirmation endpoint.
type OracleConfig struct {
	Endpoint string   `toml:"endpoint"`
	Timeout  Duration `toml:"timeout"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
	Timeout           Duration `toml:"timeout"`
}

// Duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:          "https://clob.polymarket.com",
			GammaHost:         "https://gamma-api.polymarket.com",
			WsHost:            "wss://ws-subscriptions-clob.polymarket.com",
			ChainID:           137,
			VerifyingContract: "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E",
			SignatureType:     0,
		},
		Postgres: PostgresConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "polyhft",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "polyhft-data",
			ForcePathStyle: true,
			RetentionDays:  90,
		},
		Fleet: FleetConfig{
			CycleInterval:   Duration{5 * time.Second},
			StrategyTimeout: Duration{2 * time.Second},
			KillSwitchPath:  "KILL_SWITCH",
			Priority:        []string{"resolution", "unity_arb", "correlation", "market_maker", "news"},
		},
		Strategy: StrategyConfig{
			Correlation: CorrelationConfig{
				Enabled:         true,
				MinViolationBps: 50,
				SizePerTrade:    5.0,
			},
			Unity: UnityConfig{
				Enabled:      true,
				FeeRate:      0.02,
				MinProfitBps: 30,
				SizePerLeg:   5.0,
			},
			MarketMaker: MarketMakerConfig{
				Enabled:      true,
				MinSpreadBps: 800,
				MaxSpreadBps: 5000,
				EdgeFraction: 0.25,
				MinMidPrice:  0.05,
				QuoteSize:    10.0,
			},
			Resolution: ResolutionConfig{
				Enabled:        true,
				MinConfidence:  0.90,
				MinProfitBps:   20,
				FeeBps:         20,
				ConfirmTimeout: Duration{3 * time.Second},
				SizePerTrade:   25.0,
			},
			News: NewsConfig{
				Enabled:          true,
				MinConfidence:    0.60,
				SentimentTimeout: Duration{100 * time.Millisecond},
				SizePerTrade:     5.0,
			},
		},
		Risk: RiskConfig{
			DailyLossLimitUSD: 100.0,
			MaxPositionUSD:    50.0,
			MaxOrderSizeUSD:   25.0,
		},
		Executor: ExecutorConfig{
			MaxAttempts:  3,
			RetryBackoff: Duration{250 * time.Millisecond},
			OrderTTL:     Duration{30 * time.Second},
		},
		Sentiment: SentimentConfig{
			Timeout: Duration{100 * time.Millisecond},
		},
		Oracle: OracleConfig{
			Timeout: Duration{3 * time.Second},
		},
		Notify: NotifyConfig{
			Events:  []string{"signing_failure", "kill_switch", "daily_loss", "error"},
			Timeout: Duration{10 * time.Second},
		},
		Mode:     "simulate",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"record":   true,
	"simulate": true,
	"live":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: record, simulate, live)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Wallet — live mode must be able to sign.
	if strings.ToLower(c.Mode) == "live" {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			errs = append(errs, "wallet: either private_key or encrypted_key_path must be set for live mode")
		}
		if c.Wallet.EncryptedKeyPath != "" && c.Wallet.KeyPassword == "" {
			errs = append(errs, "wallet: key_password is required when encrypted_key_path is set")
		}
		if c.Api.Key == "" || c.Api.Secret == "" || c.Api.Passphrase == "" {
			errs = append(errs, "api: key, secret, and passphrase are required for live mode")
		}
	}

	// Polymarket endpoints
	if c.Polymarket.ClobHost == "" {
		errs = append(errs, "polymarket: clob_host must not be empty")
	}
	if c.Polymarket.ChainID <= 0 {
		errs = append(errs, "polymarket: chain_id must be positive")
	}
	if c.Polymarket.VerifyingContract == "" {
		errs = append(errs, "polymarket: verifying_contract must not be empty")
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}

	// S3
	if c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty")
	}

	// Fleet
	if c.Fleet.CycleInterval.Duration <= 0 {
		errs = append(errs, "fleet: cycle_interval must be > 0")
	}
	if c.Fleet.StrategyTimeout.Duration <= 0 {
		errs = append(errs, "fleet: strategy_timeout must be > 0")
	}
	if c.Fleet.StrategyTimeout.Duration >= c.Fleet.CycleInterval.Duration {
		errs = append(errs, "fleet: strategy_timeout must be shorter than cycle_interval")
	}
	if c.Fleet.KillSwitchPath == "" {
		errs = append(errs, "fleet: kill_switch_path must not be empty")
	}
	if len(c.Fleet.Priority) == 0 {
		errs = append(errs, "fleet: priority must list at least one strategy")
	}

	// Strategy
	if c.Strategy.Correlation.Enabled && c.Strategy.Correlation.MinViolationBps <= 0 {
		errs = append(errs, "strategy.correlation: min_violation_bps must be > 0 when enabled")
	}
	if c.Strategy.Unity.Enabled {
		if c.Strategy.Unity.FeeRate < 0 || c.Strategy.Unity.FeeRate >= 1 {
			errs = append(errs, "strategy.unity: fee_rate must be in [0,1)")
		}
	}
	if c.Strategy.MarketMaker.Enabled {
		if c.Strategy.MarketMaker.MinSpreadBps <= 0 {
			errs = append(errs, "strategy.market_maker: min_spread_bps must be > 0 when enabled")
		}
		if c.Strategy.MarketMaker.MaxSpreadBps <= c.Strategy.MarketMaker.MinSpreadBps {
			errs = append(errs, "strategy.market_maker: max_spread_bps must exceed min_spread_bps")
		}
		if c.Strategy.MarketMaker.EdgeFraction <= 0 || c.Strategy.MarketMaker.EdgeFraction >= 1 {
			errs = append(errs, "strategy.market_maker: edge_fraction must be in (0,1)")
		}
	}
	if c.Strategy.Resolution.Enabled {
		if c.Strategy.Resolution.MinConfidence <= 0 || c.Strategy.Resolution.MinConfidence > 1 {
			errs = append(errs, "strategy.resolution: min_confidence must be in (0,1]")
		}
	}

	// Risk
	if c.Risk.DailyLossLimitUSD <= 0 {
		errs = append(errs, "risk: daily_loss_limit_usd must be > 0")
	}
	if c.Risk.MaxPositionUSD <= 0 {
		errs = append(errs, "risk: max_position_usd must be > 0")
	}
	if c.Risk.MaxOrderSizeUSD <= 0 {
		errs = append(errs, "risk: max_order_size_usd must be > 0")
	}

	// Executor
	if c.Executor.MaxAttempts < 1 {
		errs = append(errs, "executor: max_attempts must be >= 1")
	}
	if c.Executor.RetryBackoff.Duration <= 0 {
		errs = append(errs, "executor: retry_backoff must be > 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
