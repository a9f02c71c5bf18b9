package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	s3blob "github.com/naveen-imtb/seaport-audit/internal/blob/s3"
	"github.com/naveen-imtb/seaport-audit/internal/cache/redis"
	"github.com/naveen-imtb/seaport-audit/internal/config"
	"github.com/naveen-imtb/seaport-audit/internal/domain"
	"github.com/naveen-imtb/seaport-audit/internal/notify"
	"github.com/naveen-imtb/seaport-audit/internal/oracle/eth"
	"github.com/naveen-imtb/seaport-audit/internal/resolver"
	"github.com/naveen-imtb/seaport-audit/internal/service"
	"github.com/naveen-imtb/seaport-audit/internal/settlement"
	"github.com/naveen-imtb/seaport-audit/internal/store/postgres"
)

// Dependencies bundles everything the application modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
// Oracle is always the uncached chain oracle.
type Dependencies struct {
	Oracle   domain.BalanceOracle
	Store    domain.AuditStore
	Archiver domain.ReportArchiver
	Notifier *notify.Notifier
	Service  *service.AuditService
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that
// should be called on shutdown.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Balance oracle (always required) ---
	chainOracle, err := eth.New(ctx, cfg.Chain.RPCURL, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("app: create oracle: %w", err)
	}
	closers = append(closers, chainOracle.Close)
	deps.Oracle = chainOracle

	// --- Redis balance cache (optional, baseline reads only) ---
	// The cache must never sit in front of the verifier: post-fulfillment
	// verification has to see fresh chain state, and a TTL'd read would
	// report false mismatches for keys touched twice within the TTL. It is
	// wired as the service's baseline oracle instead, where short staleness
	// is acceptable.
	var baseline domain.BalanceOracle
	if cfg.UsesRedis() {
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
			return nil, nil, fmt.Errorf("app: connect redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		baseline = redis.NewBalanceCache(redisClient, chainOracle, cfg.Verify.BalanceCacheTTL.Duration, logger)
		logger.Info("baseline balance cache enabled",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("ttl", cfg.Verify.BalanceCacheTTL.String()),
		)
	}

	// --- PostgreSQL audit store (optional) ---
	if cfg.UsesPostgres() {
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
			return nil, nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("app: run migrations: %w", err)
			}
		}
		deps.Store = postgres.NewAuditStore(pgClient.Pool())
	}

	// --- S3 report archiver (optional) ---
	if cfg.UsesS3() {
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
			return nil, nil, fmt.Errorf("app: create s3 client: %w", err)
		}
		deps.Archiver = s3blob.NewReportArchiver(s3blob.NewWriter(s3Client))
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if cfg.Notify.TelegramBotToken != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramBotToken, cfg.Notify.TelegramChatID))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	// --- Core + service ---
	simulator := settlement.NewSimulator(resolver.New(), settlement.LinearInterpolator{}, logger)
	verifier := settlement.NewVerifier(chainOracle, logger)
	deps.Service = service.NewAuditService(simulator, verifier, deps.Store, deps.Archiver, deps.Notifier, logger)
	if baseline != nil {
		deps.Service.WithBaselineOracle(baseline)
	}

	if cfg.Verify.LogWrites {
		writeLogger := logger.With(slog.String("component", "ledger"))
		deps.Service.WithWriteObserver(func(owner common.Address, asset domain.AssetDescriptor, before, after *big.Int) {
			writeLogger.Debug("balance write",
				slog.String("owner", owner.Hex()),
				slog.String("asset", asset.String()),
				slog.String("before", before.String()),
				slog.String("after", after.String()),
			)
		})
	}

	return deps, cleanup, nil
}
