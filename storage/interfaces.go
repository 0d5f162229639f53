package storage

import (
	"context"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Cache is the short-lived, TTL'd state boundary downstream packages depend
// on instead of the concrete Redis client, so a caller (or a test) can swap
// in an in-memory stand-in without touching go-redis.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
	PutPositionSnapshot(ctx context.Context, user, protocol string, snapshot any) error
	PositionSnapshot(ctx context.Context, user, protocol string, out any) error
	PushPriceHistory(ctx context.Context, token string, sample any) error
	PriceHistory(ctx context.Context, token string, limit int64) ([][]byte, error)
	PushLiquidationEvent(ctx context.Context, event any) error
	PutCompetitorProfile(ctx context.Context, address string, profile any) error
	CompetitorProfile(ctx context.Context, address string, out any) error
}

// Ledger is the durable-sink boundary the risk tracker and liquidation
// strategy write through, independent of the concrete PostgreSQL adapter.
type Ledger interface {
	UpsertUser(address string) (uuid.UUID, error)
	RecordLiquidationOpportunity(userID uuid.UUID, protocol string, healthFactor float64, estProfit *big.Int) error
	RecordLiquidationOutcome(userID uuid.UUID, protocol string, profit *big.Int, bundleHash string, includedAt *time.Time) error
	Close() error
}

var (
	_ Cache  = (*RedisCache)(nil)
	_ Ledger = (*PostgresLedger)(nil)
)
