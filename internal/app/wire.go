package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/strikelabs/strikedesk/internal/blob/s3"
	"github.com/strikelabs/strikedesk/internal/cache/redis"
	"github.com/strikelabs/strikedesk/internal/chain"
	"github.com/strikelabs/strikedesk/internal/config"
	"github.com/strikelabs/strikedesk/internal/crypto"
	"github.com/strikelabs/strikedesk/internal/domain"
	"github.com/strikelabs/strikedesk/internal/executor"
	"github.com/strikelabs/strikedesk/internal/notify"
	"github.com/strikelabs/strikedesk/internal/orders"
	"github.com/strikelabs/strikedesk/internal/platform/orderbook"
	"github.com/strikelabs/strikedesk/internal/platform/positions"
	"github.com/strikelabs/strikedesk/internal/service"
	"github.com/strikelabs/strikedesk/internal/store/postgres"
	"github.com/strikelabs/strikedesk/internal/txbuild"
)

// Dependencies bundles everything the application modes need to operate. It
// is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Wallet string // filler account address; empty outside execute mode

	// Stores
	CartStore domain.CartStore
	FillStore domain.FillStore

	// Caches
	Pairs domain.PairCache
	Spots domain.SpotCache
	Locks domain.LockManager

	// Blob storage
	Archiver domain.Archiver

	// Notifications
	Notifier *notify.Notifier

	// Services
	Markets *service.MarketService
	Cart    *service.CartService
	Trades  *service.TradeService
}

// needsPostgres returns true for modes that require persistence. Only
// execution touches the cart and fill history.
func needsPostgres(mode string) bool {
	return mode == "execute"
}

// needsChain returns true for modes that submit or pre-flight transactions.
func needsChain(mode string) bool {
	return mode == "execute"
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Wallet identity (only for modes that execute) ---
	if needsChain(cfg.Mode) {
		wallet, err := crypto.LoadAddress(crypto.KeyConfig{
			Address:          cfg.Wallet.Address,
			EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
			KeyPassword:      cfg.Wallet.KeyPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("wire: wallet: %w", err)
		}
		deps.Wallet = wallet
	}

	// --- PostgreSQL (only for modes that need persistence) ---
	if needsPostgres(cfg.Mode) {
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
		deps.CartStore = postgres.NewCartStore(pool)
		deps.FillStore = postgres.NewFillStore(pool)
	}

	// --- Redis ---
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

	deps.Pairs = redis.NewPairCache(redisClient, cfg.Redis.PairTTL.Duration)
	deps.Spots = redis.NewSpotCache(redisClient)
	deps.Locks = redis.NewLockManager(redisClient)

	// --- S3 blob storage (enabled by configuring a bucket) ---
	if cfg.S3.Bucket != "" {
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
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), logger)
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

	// --- Orderbook and services ---
	obClient := orderbook.NewClient(cfg.Orderbook.BaseURL, cfg.Orderbook.RequestTimeout.Duration)
	deps.Markets = service.NewMarketService(obClient, deps.Pairs, deps.Spots, deps.Archiver, logger)
	if deps.CartStore != nil {
		deps.Cart = service.NewCartService(deps.Markets, deps.CartStore, logger)
	}

	// --- Chain clients and trade service (only for modes that execute) ---
	if needsChain(cfg.Mode) {
		reader, err := chain.NewReader(cfg.Chain.RPCURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: chain reader: %w", err)
		}
		closers = append(closers, reader.Close)

		provider, err := chain.Dial(ctx, cfg.Chain.ProviderURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: wallet provider: %w", err)
		}
		closers = append(closers, provider.Close)

		exec := executor.New(provider, reader, chain.EncodeApprove, executor.Config{
			ChainID:         cfg.Chain.ChainID,
			USDCAddress:     orders.USDCAddress,
			ProtocolAddress: txbuild.ProtocolAddress,
			PaymasterURL:    cfg.Chain.PaymasterURL,
			PollInterval:    cfg.Executor.PollInterval.Duration,
			MaxPollAttempts: cfg.Executor.MaxPollAttempts,
		}, logger)

		var recorder service.FillRecorder
		if cfg.Positions.BaseURL != "" {
			var auth *crypto.HMACAuth
			if cfg.Positions.ApiKey != "" {
				auth = &crypto.HMACAuth{Key: cfg.Positions.ApiKey, Secret: cfg.Positions.ApiSecret}
			}
			recorder = positions.NewClient(cfg.Positions.BaseURL, auth)
		}

		deps.Trades = service.NewTradeService(
			deps.CartStore, exec, deps.Locks, deps.FillStore,
			recorder, deps.Archiver, deps.Notifier, logger,
		)
	}

	return deps, cleanup, nil
}
