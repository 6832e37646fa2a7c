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
// built-in defaults, applies TRADER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
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

// applyEnvOverrides reads well-known TRADER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Wallet ──
	setStr(&cfg.Wallet.PrivateKey, "TRADER_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.PrivateKey, "ETHEREUM_PRIVATE_KEY") // compatibility alias
	setStr(&cfg.Wallet.EncryptedKeyPath, "TRADER_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "TRADER_WALLET_KEY_PASSWORD")

	// ── Chain ──
	setStr(&cfg.Chain.RPCURL, "TRADER_CHAIN_RPC_URL")
	setInt64(&cfg.Chain.ChainID, "TRADER_CHAIN_ID")
	setStr(&cfg.Chain.RouterAddress, "TRADER_CHAIN_ROUTER_ADDRESS")
	setStr(&cfg.Chain.WETHAddress, "TRADER_CHAIN_WETH_ADDRESS")
	setStr(&cfg.Chain.TokenAddress, "TRADER_CHAIN_TOKEN_ADDRESS")

	// ── Market ──
	setStr(&cfg.Market.CoinGeckoHost, "TRADER_MARKET_COINGECKO_HOST")
	setStr(&cfg.Market.AssetID, "TRADER_MARKET_ASSET_ID")
	setStr(&cfg.Market.VsCurrency, "TRADER_MARKET_VS_CURRENCY")
	setInt(&cfg.Market.HistoryDays, "TRADER_MARKET_HISTORY_DAYS")
	setStr(&cfg.Market.SentimentHost, "TRADER_MARKET_SENTIMENT_HOST")
	setStr(&cfg.Market.SentimentAPIKey, "TRADER_MARKET_SENTIMENT_API_KEY")
	setStr(&cfg.Market.LiquidityHost, "TRADER_MARKET_LIQUIDITY_HOST")
	setInt(&cfg.Market.RetryAttempts, "TRADER_MARKET_RETRY_ATTEMPTS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "TRADER_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "TRADER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "TRADER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "TRADER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "TRADER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "TRADER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "TRADER_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "TRADER_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "TRADER_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "TRADER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "TRADER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRADER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRADER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "TRADER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "TRADER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "TRADER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "TRADER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TRADER_S3_REGION")
	setStr(&cfg.S3.Bucket, "TRADER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TRADER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TRADER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "TRADER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "TRADER_S3_FORCE_PATH_STYLE")

	// ── Trading ──
	setFloat64(&cfg.Trading.MaxTradeAmount, "TRADER_TRADING_MAX_TRADE_AMOUNT")
	setFloat64(&cfg.Trading.MinLiquidity, "TRADER_TRADING_MIN_LIQUIDITY")
	setFloat64(&cfg.Trading.MaxGasCost, "TRADER_TRADING_MAX_GAS_COST")
	setFloat64(&cfg.Trading.MaxSlippage, "TRADER_TRADING_MAX_SLIPPAGE")
	setFloat64(&cfg.Trading.ProfitThreshold, "TRADER_TRADING_PROFIT_THRESHOLD")
	setFloat64(&cfg.Trading.LossThreshold, "TRADER_TRADING_LOSS_THRESHOLD")
	setDuration(&cfg.Trading.MaxPositionDuration, "TRADER_TRADING_MAX_POSITION_DURATION")
	setInt(&cfg.Trading.MaxDailyTrades, "TRADER_TRADING_MAX_DAILY_TRADES")
	setFloat64(&cfg.Trading.GasBuffer, "TRADER_TRADING_GAS_BUFFER")
	setDuration(&cfg.Trading.PollInterval, "TRADER_TRADING_POLL_INTERVAL")

	// ── Signal ──
	setFloat64(&cfg.Signal.VolatilityBreakerPct, "TRADER_SIGNAL_VOLATILITY_BREAKER_PCT")
	setFloat64(&cfg.Signal.VolatilityMultiplier, "TRADER_SIGNAL_VOLATILITY_MULTIPLIER")
	setFloat64(&cfg.Signal.SentimentThreshold, "TRADER_SIGNAL_SENTIMENT_THRESHOLD")

	// ── Rebalance ──
	setFloat64(&cfg.Rebalance.TargetAllocationPct, "TRADER_REBALANCE_TARGET_ALLOCATION_PCT")
	setFloat64(&cfg.Rebalance.MinRebalanceAmount, "TRADER_REBALANCE_MIN_REBALANCE_AMOUNT")
	setFloat64(&cfg.Rebalance.GasCeiling, "TRADER_REBALANCE_GAS_CEILING")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "TRADER_ARCHIVE_ENABLED")
	setInt(&cfg.Archive.RetentionDays, "TRADER_ARCHIVE_RETENTION_DAYS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TRADER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "TRADER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "TRADER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "TRADER_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "TRADER_MODE")
	setStr(&cfg.LogLevel, "TRADER_LOG_LEVEL")
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

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
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

func setDuration(dst *duration, key string) {
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
