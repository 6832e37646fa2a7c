// Package config defines the top-level configuration for the trading agent
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TRADER_* environment
// variables.
type Config struct {
	Wallet    WalletConfig    `toml:"wallet"`
	Chain     ChainConfig     `toml:"chain"`
	Market    MarketConfig    `toml:"market"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Trading   TradingConfig   `toml:"trading"`
	Signal    SignalConfig    `toml:"signal"`
	Rebalance RebalanceConfig `toml:"rebalance"`
	Archive   ArchiveConfig   `toml:"archive"`
	Notify    NotifyConfig    `toml:"notify"`
	Mode      string          `toml:"mode"`
	LogLevel  string          `toml:"log_level"`
}

// WalletConfig holds Ethereum wallet credentials. Either a raw private key
// or an encrypted key file plus password must be supplied for trade mode.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// ChainConfig holds the RPC endpoint and on-chain contract addresses.
type ChainConfig struct {
	RPCURL        string `toml:"rpc_url"`
	ChainID       int64  `toml:"chain_id"`
	RouterAddress string `toml:"router_address"`
	WETHAddress   string `toml:"weth_address"`
	TokenAddress  string `toml:"token_address"`
}

// MarketConfig holds market-data endpoints and fetch parameters.
type MarketConfig struct {
	CoinGeckoHost   string `toml:"coingecko_host"`
	AssetID         string `toml:"asset_id"`
	VsCurrency      string `toml:"vs_currency"`
	HistoryDays     int    `toml:"history_days"`
	SentimentHost   string `toml:"sentiment_host"`
	SentimentAPIKey string `toml:"sentiment_api_key"`
	LiquidityHost   string `toml:"liquidity_host"`
	RetryAttempts   int    `toml:"retry_attempts"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the trade-log
// archive.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// TradingConfig holds the position lifecycle and gate thresholds.
type TradingConfig struct {
	MaxTradeAmount      float64  `toml:"max_trade_amount"`
	MinLiquidity        float64  `toml:"min_liquidity"`
	MaxGasCost          float64  `toml:"max_gas_cost"`
	MaxSlippage         float64  `toml:"max_slippage"`
	ProfitThreshold     float64  `toml:"profit_threshold"`
	LossThreshold       float64  `toml:"loss_threshold"`
	MaxPositionDuration duration `toml:"max_position_duration"`
	MaxDailyTrades      int      `toml:"max_daily_trades"`
	GasBuffer           float64  `toml:"gas_buffer"`
	PollInterval        duration `toml:"poll_interval"`
}

// SignalConfig holds the decision-engine thresholds.
type SignalConfig struct {
	VolatilityBreakerPct float64 `toml:"volatility_breaker_pct"`
	VolatilityMultiplier float64 `toml:"volatility_multiplier"`
	SentimentThreshold   float64 `toml:"sentiment_threshold"`
}

// RebalanceConfig holds the portfolio rebalancing policy.
type RebalanceConfig struct {
	TargetAllocationPct float64 `toml:"target_allocation_pct"`
	MinRebalanceAmount  float64 `toml:"min_rebalance_amount"`
	GasCeiling          float64 `toml:"gas_ceiling"`
}

// ArchiveConfig holds trade-log archival parameters.
type ArchiveConfig struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// NotifyConfig holds notification channel parameters.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "24h", "5m").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder
// can parse duration strings.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns the built-in configuration, tuned for trading Chainlink
// against ETH on a 5-minute polling cadence.
func Defaults() Config {
	return Config{
		Chain: ChainConfig{
			ChainID: 11155111, // Sepolia
		},
		Market: MarketConfig{
			CoinGeckoHost: "https://api.coingecko.com",
			LiquidityHost: "https://api.dexscreener.com",
			AssetID:       "chainlink",
			VsCurrency:    "eth",
			HistoryDays:   14,
			RetryAttempts: 3,
		},
		Postgres: PostgresConfig{
			Port:         5432,
			SSLMode:      "disable",
			PoolMaxConns: 4,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Trading: TradingConfig{
			MaxTradeAmount:      0.01,
			MinLiquidity:        100,
			MaxGasCost:          0.01,
			MaxSlippage:         0.05,
			ProfitThreshold:     0.05,
			LossThreshold:       -0.03,
			MaxPositionDuration: duration{24 * time.Hour},
			MaxDailyTrades:      5,
			GasBuffer:           0.005,
			PollInterval:        duration{5 * time.Minute},
		},
		Signal: SignalConfig{
			VolatilityBreakerPct: 0.20,
			VolatilityMultiplier: 1.5,
			SentimentThreshold:   3,
		},
		Rebalance: RebalanceConfig{
			TargetAllocationPct: 70,
			MinRebalanceAmount:  0.001,
			GasCeiling:          0.002,
		},
		Archive: ArchiveConfig{
			RetentionDays: 90,
		},
		Mode:     "trade",
		LogLevel: "info",
	}
}

// Validate checks the configuration for internal consistency. It returns
// an error describing the first problem found.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mode) {
	case "trade", "report", "archive", "keygen":
	default:
		return fmt.Errorf("config: unsupported mode %q", c.Mode)
	}

	if c.Market.AssetID == "" {
		return fmt.Errorf("config: market.asset_id is required")
	}
	if c.Market.HistoryDays < 14 {
		return fmt.Errorf("config: market.history_days must be at least 14, got %d", c.Market.HistoryDays)
	}
	if c.Market.RetryAttempts < 1 {
		return fmt.Errorf("config: market.retry_attempts must be positive")
	}

	if c.Trading.MaxTradeAmount <= 0 {
		return fmt.Errorf("config: trading.max_trade_amount must be positive")
	}
	if c.Trading.ProfitThreshold <= 0 {
		return fmt.Errorf("config: trading.profit_threshold must be positive")
	}
	if c.Trading.LossThreshold >= 0 {
		return fmt.Errorf("config: trading.loss_threshold must be negative")
	}
	if c.Trading.MaxPositionDuration.Duration <= 0 {
		return fmt.Errorf("config: trading.max_position_duration must be positive")
	}
	if c.Trading.MaxDailyTrades < 1 {
		return fmt.Errorf("config: trading.max_daily_trades must be at least 1")
	}
	if c.Trading.PollInterval.Duration <= 0 {
		return fmt.Errorf("config: trading.poll_interval must be positive")
	}

	if c.Signal.VolatilityBreakerPct <= 0 || c.Signal.VolatilityBreakerPct >= 1 {
		return fmt.Errorf("config: signal.volatility_breaker_pct must be in (0, 1)")
	}
	if c.Signal.VolatilityMultiplier < 1 {
		return fmt.Errorf("config: signal.volatility_multiplier must be at least 1")
	}

	if c.Rebalance.TargetAllocationPct <= 0 || c.Rebalance.TargetAllocationPct >= 100 {
		return fmt.Errorf("config: rebalance.target_allocation_pct must be in (0, 100)")
	}

	if strings.ToLower(c.Mode) == "trade" {
		if c.Chain.RPCURL == "" {
			return fmt.Errorf("config: chain.rpc_url is required in trade mode")
		}
		if c.Chain.RouterAddress == "" || c.Chain.WETHAddress == "" || c.Chain.TokenAddress == "" {
			return fmt.Errorf("config: chain router, weth, and token addresses are required in trade mode")
		}
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			return fmt.Errorf("config: wallet.private_key or wallet.encrypted_key_path is required in trade mode")
		}
		if c.Market.LiquidityHost == "" {
			return fmt.Errorf("config: market.liquidity_host is required in trade mode")
		}
	}

	if strings.ToLower(c.Mode) == "keygen" {
		if c.Wallet.PrivateKey == "" {
			return fmt.Errorf("config: wallet.private_key is required in keygen mode")
		}
		if c.Wallet.KeyPassword == "" {
			return fmt.Errorf("config: wallet.key_password is required in keygen mode")
		}
		if c.Wallet.EncryptedKeyPath == "" {
			return fmt.Errorf("config: wallet.encrypted_key_path is required in keygen mode")
		}
	}

	if (c.Archive.Enabled || strings.ToLower(c.Mode) == "archive") && c.S3.Bucket == "" {
		return fmt.Errorf("config: s3.bucket is required when archiving is enabled")
	}

	return nil
}
