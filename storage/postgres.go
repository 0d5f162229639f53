// Package storage implements the searcher's three persistence adapters:
// a durable PostgreSQL ledger, a Redis cache for short-lived snapshots,
// and a local SQLite journal for crash recovery.
package storage

import (
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// User mirrors a tracked protocol participant.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Address   string    `gorm:"uniqueIndex;size:42"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CollateralPosition is a durable snapshot of a user's collateral on a protocol.
type CollateralPosition struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index"`
	Protocol  string    `gorm:"size:64;index"`
	Asset     string    `gorm:"size:64"`
	AmountWei string    `gorm:"size:78"`
	UpdatedAt time.Time
}

// DebtPosition is a durable snapshot of a user's borrowed debt on a protocol.
type DebtPosition struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;index"`
	Protocol  string    `gorm:"size:64;index"`
	Asset     string    `gorm:"size:64"`
	AmountWei string    `gorm:"size:78"`
	UpdatedAt time.Time
}

// LiquidationOpportunity records a detected, unexecuted liquidation candidate.
type LiquidationOpportunity struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;index"`
	Protocol       string    `gorm:"size:64;index"`
	HealthFactor   float64
	EstProfitWei   string `gorm:"size:78"`
	DetectedAt     time.Time
	ExecutedBundle string `gorm:"size:66"`
}

// LiquidationHistory is an immutable log of completed liquidation attempts.
type LiquidationHistory struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;index"`
	Protocol     string    `gorm:"size:64;index"`
	ProfitWei    string    `gorm:"size:78"`
	BundleHash   string    `gorm:"size:66"`
	IncludedAt   *time.Time
	CreatedAt    time.Time
}

// PostgresLedger is the durable sink for user, position, and liquidation-history
// rows. The schema is not load-bearing on the searcher's core detection
// logic — it exists so the risk tracker and liquidation strategy have a
// real place to write through.
type PostgresLedger struct {
	db *gorm.DB
}

// NewPostgresLedger opens a PostgreSQL-backed PostgresLedger at dsn and migrates
// its schema.
func NewPostgresLedger(dsn string) (*PostgresLedger, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := autoMigrate(db); err != nil {
		return nil, err
	}
	return &PostgresLedger{db: db}, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&CollateralPosition{},
		&DebtPosition{},
		&LiquidationOpportunity{},
		&LiquidationHistory{},
	)
}

// UpsertUser records a tracked address, creating it if unseen.
func (l *PostgresLedger) UpsertUser(address string) (uuid.UUID, error) {
	var user User
	err := l.db.Where(User{Address: address}).
		Attrs(User{ID: uuid.New()}).
		FirstOrCreate(&user).Error
	return user.ID, err
}

// RecordLiquidationOpportunity inserts a detected but not-yet-executed
// liquidation candidate.
func (l *PostgresLedger) RecordLiquidationOpportunity(userID uuid.UUID, protocol string, healthFactor float64, estProfit *big.Int) error {
	return l.db.Create(&LiquidationOpportunity{
		ID:           uuid.New(),
		UserID:       userID,
		Protocol:     protocol,
		HealthFactor: healthFactor,
		EstProfitWei: estProfit.String(),
		DetectedAt:   time.Now(),
	}).Error
}

// RecordLiquidationOutcome appends an immutable history row once a
// liquidation bundle resolves (included or abandoned).
func (l *PostgresLedger) RecordLiquidationOutcome(userID uuid.UUID, protocol string, profit *big.Int, bundleHash string, includedAt *time.Time) error {
	return l.db.Create(&LiquidationHistory{
		ID:         uuid.New(),
		UserID:     userID,
		Protocol:   protocol,
		ProfitWei:  profit.String(),
		BundleHash: bundleHash,
		IncludedAt: includedAt,
		CreatedAt:  time.Now(),
	}).Error
}

// Close releases the underlying connection pool.
func (l *PostgresLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
