package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	positionTTL     = 10 * time.Minute
	competitorTTL   = 24 * time.Hour
	priceHistoryCap = 1000
	liquidationCap  = 5000
)

// RedisCache wraps the Redis client backing the searcher's short-lived,
// TTL'd state: position snapshots, price history, liquidation events,
// and competitor profiles.
type RedisCache struct {
	rdb *redis.Client
}

// NewCache opens a Redis connection against the given URL
// (redis://[:password@]host:port/db).
func NewCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("storage: parse redis url: %w", err)
	}
	return &RedisCache{rdb: redis.NewClient(opts)}, nil
}

// Ping verifies connectivity to the Redis server.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

func positionKey(user, protocol string) string {
	return fmt.Sprintf("positions:%s:%s", user, protocol)
}

// PutPositionSnapshot stores a JSON-encoded position snapshot with a
// 10-minute TTL.
func (c *RedisCache) PutPositionSnapshot(ctx context.Context, user, protocol string, snapshot any) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, positionKey(user, protocol), payload, positionTTL).Err()
}

// PositionSnapshot retrieves and decodes a previously stored position
// snapshot, returning redis.Nil if none is cached.
func (c *RedisCache) PositionSnapshot(ctx context.Context, user, protocol string, out any) error {
	payload, err := c.rdb.Get(ctx, positionKey(user, protocol)).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}

func priceHistoryKey(token string) string {
	return fmt.Sprintf("price_history:%s", token)
}

// PushPriceHistory appends a price sample to the token's history list,
// trimming it to the most recent 1000 entries.
func (c *RedisCache) PushPriceHistory(ctx context.Context, token string, sample any) error {
	payload, err := json.Marshal(sample)
	if err != nil {
		return err
	}
	key := priceHistoryKey(token)
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, priceHistoryCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

// PriceHistory returns up to limit most recent samples for token, newest first.
func (c *RedisCache) PriceHistory(ctx context.Context, token string, limit int64) ([][]byte, error) {
	if limit <= 0 || limit > priceHistoryCap {
		limit = priceHistoryCap
	}
	return c.rdb.LRange(ctx, priceHistoryKey(token), 0, limit-1).Bytes()
}

const liquidationEventsKey = "liquidation_events"

// PushLiquidationEvent appends a liquidation event, capped at 5000 entries.
func (c *RedisCache) PushLiquidationEvent(ctx context.Context, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, liquidationEventsKey, payload)
	pipe.LTrim(ctx, liquidationEventsKey, 0, liquidationCap-1)
	_, err = pipe.Exec(ctx)
	return err
}

func competitorKey(address string) string {
	return fmt.Sprintf("competitor:%s", address)
}

// PutCompetitorProfile stores an observed competitor address's behavioral
// profile with a 1-day TTL.
func (c *RedisCache) PutCompetitorProfile(ctx context.Context, address string, profile any) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, competitorKey(address), payload, competitorTTL).Err()
}

// CompetitorProfile retrieves a previously stored competitor profile.
func (c *RedisCache) CompetitorProfile(ctx context.Context, address string, out any) error {
	payload, err := c.rdb.Get(ctx, competitorKey(address)).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, out)
}
