package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Mettice/Defi-Trading-Agent/internal/archive"
	s3blob "github.com/Mettice/Defi-Trading-Agent/internal/blob/s3"
	"github.com/Mettice/Defi-Trading-Agent/internal/cache/redis"
	"github.com/Mettice/Defi-Trading-Agent/internal/config"
	"github.com/Mettice/Defi-Trading-Agent/internal/crypto"
	"github.com/Mettice/Defi-Trading-Agent/internal/domain"
	"github.com/Mettice/Defi-Trading-Agent/internal/feed"
	"github.com/Mettice/Defi-Trading-Agent/internal/notify"
	"github.com/Mettice/Defi-Trading-Agent/internal/platform/uniswap"
	"github.com/Mettice/Defi-Trading-Agent/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application
// modes need to operate. It is constructed by Wire and torn down by the
// returned cleanup function.
type Dependencies struct {
	// Stores
	TradeStore    domain.TradeStore
	PositionStore domain.PositionStore
	CounterStore  domain.CounterStore
	AuditStore    domain.AuditStore

	// Caches
	PriceCache  domain.PriceCache
	LockManager domain.LockManager

	// Market data
	PriceFeed       domain.PriceFeed
	SentimentFeed   domain.SentimentFeed
	LiquiditySource domain.LiquiditySource

	// On-chain execution
	Executor domain.TradeExecutor
	Gas      domain.GasEstimator
	Wallet   domain.WalletReader

	// Blob storage and archival
	BlobWriter domain.BlobWriter
	BlobReader domain.BlobReader
	Archiver   *archive.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// needsRedis returns true for modes that require the shared cache and
// cross-instance locking.
func needsRedis(mode string) bool {
	return mode == "trade"
}

// needsChain returns true for modes that submit transactions.
func needsChain(mode string) bool {
	return mode == "trade"
}

// needsS3 returns true when object storage must be wired: the archive
// mode always, and any mode once archival is enabled. Trade mode uploads
// batches periodically; report mode reads them back so summaries still
// cover rows past the retention window.
func needsS3(cfg *config.Config) bool {
	return cfg.Mode == "archive" || cfg.Archive.Enabled
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL (all modes persist through it) ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	tradeStore := postgres.NewTradeStore(pool)
	deps.TradeStore = tradeStore
	deps.PositionStore = postgres.NewPositionStore(pool)
	deps.CounterStore = postgres.NewCounterStore(pool)
	deps.AuditStore = postgres.NewAuditStore(pool)

	// --- Redis (trade mode: price cache and the cycle lock) ---
	if needsRedis(cfg.Mode) {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.PriceCache = redis.NewPriceCache(redisClient, 2*cfg.Trading.PollInterval.Duration)
		deps.LockManager = redis.NewLockManager(redisClient)
	}

	// --- Market data feeds ---
	gecko := feed.NewCoinGeckoFeed(cfg.Market.CoinGeckoHost, cfg.Market.VsCurrency, cfg.Market.RetryAttempts, logger)
	deps.PriceFeed = gecko
	if deps.PriceCache != nil {
		deps.PriceFeed = feed.NewCachingPriceFeed(gecko, deps.PriceCache, cfg.Trading.PollInterval.Duration/2, logger)
	}
	deps.SentimentFeed = feed.NewNewsSentimentFeed(cfg.Market.SentimentHost, cfg.Market.SentimentAPIKey, logger)
	deps.LiquiditySource = feed.NewDexLiquiditySource(cfg.Market.LiquidityHost, logger)

	// --- On-chain trader (trade mode only) ---
	if needsChain(cfg.Mode) {
		privateKey, err := crypto.ResolveKey(crypto.KeySource{
			RawKey:      cfg.Wallet.PrivateKey,
			KeyFilePath: cfg.Wallet.EncryptedKeyPath,
			Password:    cfg.Wallet.KeyPassword,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet key: %w", err)
		}

		trader, err := uniswap.NewTrader(ctx,
			cfg.Chain.RPCURL, privateKey, cfg.Chain.ChainID,
			cfg.Chain.RouterAddress, cfg.Chain.WETHAddress, cfg.Chain.TokenAddress,
			logger,
		)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: uniswap trader: %w", err)
		}
		closers = append(closers, trader.Close)

		deps.Executor = trader
		deps.Gas = trader
		deps.Wallet = uniswap.NewWallet(trader)
	}

	// --- S3 blob storage and the trade-log archiver ---
	if needsS3(cfg) {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = archive.New(tradeStore, deps.BlobWriter, deps.BlobReader, cfg.Archive.RetentionDays, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
