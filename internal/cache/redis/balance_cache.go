package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/naveen-imtb/seaport-audit/internal/domain"
)

// BalanceCache is a read-through cache in front of a balance oracle.
// Balances are stored as decimal strings under "balance:{owner}:{asset}"
// with a TTL. Cache errors degrade to oracle reads so a Redis outage
// never blocks a verification pass; only oracle errors propagate.
//
// Intended for baseline snapshots taken before a fulfillment lands, where
// short staleness is acceptable. Post-fulfillment verification should use
// the underlying oracle directly.
type BalanceCache struct {
	rdb    *redis.Client
	next   domain.BalanceOracle
	ttl    time.Duration
	logger *slog.Logger
}

// NewBalanceCache creates a BalanceCache delegating misses to next.
func NewBalanceCache(rdb *redis.Client, next domain.BalanceOracle, ttl time.Duration, logger *slog.Logger) *BalanceCache {
	return &BalanceCache{
		rdb:    rdb,
		next:   next,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "balance_cache")),
	}
}

func balanceKey(owner common.Address, asset domain.AssetDescriptor) string {
	return fmt.Sprintf("balance:%s:%s", owner.Hex(), asset)
}

// Balance implements domain.BalanceOracle.
func (bc *BalanceCache) Balance(ctx context.Context, owner common.Address, asset domain.AssetDescriptor) (*big.Int, error) {
	key := balanceKey(owner, asset)

	val, err := bc.rdb.Get(ctx, key).Result()
	if err == nil {
		if balance, ok := new(big.Int).SetString(val, 10); ok {
			return balance, nil
		}
		bc.logger.Warn("unparseable cached balance, falling through",
			slog.String("key", key),
			slog.String("value", val),
		)
	} else if !errors.Is(err, redis.Nil) {
		bc.logger.Warn("cache read failed, falling through to oracle",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}

	balance, err := bc.next.Balance(ctx, owner, asset)
	if err != nil {
		return nil, err
	}

	if err := bc.rdb.Set(ctx, key, balance.String(), bc.ttl).Err(); err != nil {
		bc.logger.Warn("cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
	return balance, nil
}

// Invalidate drops the cached balance for one (owner, asset) key.
func (bc *BalanceCache) Invalidate(ctx context.Context, owner common.Address, asset domain.AssetDescriptor) error {
	if err := bc.rdb.Del(ctx, balanceKey(owner, asset)).Err(); err != nil {
		return fmt.Errorf("redis: invalidate balance: %w", err)
	}
	return nil
}
