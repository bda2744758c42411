package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies POLYHFT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known POLYHFT_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "POLYHFT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.FunderAddress, "POLYHFT_WALLET_FUNDER_ADDRESS")
	setStr(&cfg.Wallet.EncryptedKeyPath, "POLYHFT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "POLYHFT_WALLET_KEY_PASSWORD")

	// ── Polymarket ──
	setStr(&cfg.Polymarket.ClobHost, "POLYHFT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "POLYHFT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "POLYHFT_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.ChainID, "POLYHFT_POLYMARKET_CHAIN_ID")
	setStr(&cfg.Polymarket.VerifyingContract, "POLYHFT_POLYMARKET_VERIFYING_CONTRACT")
	setInt(&cfg.Polymarket.SignatureType, "POLYHFT_POLYMARKET_SIGNATURE_TYPE")

	// ── Api ──
	setStr(&cfg.Api.Key, "POLYHFT_API_KEY")
	setStr(&cfg.Api.Secret, "POLYHFT_API_SECRET")
	setStr(&cfg.Api.Passphrase, "POLYHFT_API_PASSPHRASE")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "POLYHFT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "POLYHFT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POLYHFT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "POLYHFT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "POLYHFT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "POLYHFT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "POLYHFT_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "POLYHFT_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "POLYHFT_POSTGRES_POOL_MIN_CONNS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "POLYHFT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "POLYHFT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "POLYHFT_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "POLYHFT_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "POLYHFT_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "POLYHFT_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "POLYHFT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "POLYHFT_S3_REGION")
	setStr(&cfg.S3.Bucket, "POLYHFT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "POLYHFT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "POLYHFT_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "POLYHFT_S3_FORCE_PATH_STYLE")
	setInt(&cfg.S3.RetentionDays, "POLYHFT_S3_RETENTION_DAYS")

	// ── Fleet ──
	setDuration(&cfg.Fleet.CycleInterval, "POLYHFT_FLEET_CYCLE_INTERVAL")
	setDuration(&cfg.Fleet.StrategyTimeout, "POLYHFT_FLEET_STRATEGY_TIMEOUT")
	setStr(&cfg.Fleet.KillSwitchPath, "POLYHFT_FLEET_KILL_SWITCH_PATH")
	setStringSlice(&cfg.Fleet.Priority, "POLYHFT_FLEET_PRIORITY")

	// ── Strategy ──
	setBool(&cfg.Strategy.Correlation.Enabled, "POLYHFT_STRATEGY_CORRELATION_ENABLED")
	setFloat64(&cfg.Strategy.Correlation.MinViolationBps, "POLYHFT_STRATEGY_CORRELATION_MIN_VIOLATION_BPS")
	setBool(&cfg.Strategy.Correlation.TransitiveClosure, "POLYHFT_STRATEGY_CORRELATION_TRANSITIVE_CLOSURE")
	setBool(&cfg.Strategy.Unity.Enabled, "POLYHFT_STRATEGY_UNITY_ENABLED")
	setFloat64(&cfg.Strategy.Unity.FeeRate, "POLYHFT_STRATEGY_UNITY_FEE_RATE")
	setFloat64(&cfg.Strategy.Unity.MinProfitBps, "POLYHFT_STRATEGY_UNITY_MIN_PROFIT_BPS")
	setBool(&cfg.Strategy.MarketMaker.Enabled, "POLYHFT_STRATEGY_MARKET_MAKER_ENABLED")
	setFloat64(&cfg.Strategy.MarketMaker.MinSpreadBps, "POLYHFT_STRATEGY_MARKET_MAKER_MIN_SPREAD_BPS")
	setFloat64(&cfg.Strategy.MarketMaker.MaxSpreadBps, "POLYHFT_STRATEGY_MARKET_MAKER_MAX_SPREAD_BPS")
	setFloat64(&cfg.Strategy.MarketMaker.EdgeFraction, "POLYHFT_STRATEGY_MARKET_MAKER_EDGE_FRACTION")
	setBool(&cfg.Strategy.Resolution.Enabled, "POLYHFT_STRATEGY_RESOLUTION_ENABLED")
	setFloat64(&cfg.Strategy.Resolution.MinConfidence, "POLYHFT_STRATEGY_RESOLUTION_MIN_CONFIDENCE")
	setBool(&cfg.Strategy.News.Enabled, "POLYHFT_STRATEGY_NEWS_ENABLED")
	setFloat64(&cfg.Strategy.News.MinConfidence, "POLYHFT_STRATEGY_NEWS_MIN_CONFIDENCE")

	// ── Risk ──
	setFloat64(&cfg.Risk.DailyLossLimitUSD, "POLYHFT_RISK_DAILY_LOSS_LIMIT_USD")
	setFloat64(&cfg.Risk.MaxPositionUSD, "POLYHFT_RISK_MAX_POSITION_USD")
	setFloat64(&cfg.Risk.MaxOrderSizeUSD, "POLYHFT_RISK_MAX_ORDER_SIZE_USD")

	// ── Executor ──
	setInt(&cfg.Executor.MaxAttempts, "POLYHFT_EXECUTOR_MAX_ATTEMPTS")
	setDuration(&cfg.Executor.RetryBackoff, "POLYHFT_EXECUTOR_RETRY_BACKOFF")
	setDuration(&cfg.Executor.OrderTTL, "POLYHFT_EXECUTOR_ORDER_TTL")

	// ── Sentiment / Oracle ──
	setStr(&cfg.Sentiment.Endpoint, "POLYHFT_SENTIMENT_ENDPOINT")
	setStr(&cfg.Sentiment.ApiKey, "POLYHFT_SENTIMENT_API_KEY")
	setDuration(&cfg.Sentiment.Timeout, "POLYHFT_SENTIMENT_TIMEOUT")
	setStr(&cfg.Oracle.Endpoint, "POLYHFT_ORACLE_ENDPOINT")
	setDuration(&cfg.Oracle.Timeout, "POLYHFT_ORACLE_TIMEOUT")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "POLYHFT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "POLYHFT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "POLYHFT_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "POLYHFT_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "POLYHFT_MODE")
	setStr(&cfg.LogLevel, "POLYHFT_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
