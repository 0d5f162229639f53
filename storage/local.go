package storage

import (
	"errors"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// nonceRecord persists the last nonce the bundle builder assigned for a
// signer address, so a restart resyncs instead of reusing one.
type nonceRecord struct {
	Address     string `gorm:"primaryKey;size:42"`
	LastNonce   uint64
	UpdatedAt   time.Time
}

// bundleRecord persists an in-flight bundle's submission state so the relay
// submitter does not resubmit or double-track after a restart.
type bundleRecord struct {
	BundleID    string `gorm:"primaryKey;size:66"`
	TargetBlock uint64
	Status      string `gorm:"size:16"`
	SubmittedAt time.Time
}

// seenCandidate records a liquidation candidate address recently evaluated,
// so the liquidation detector does not re-score it every block.
type seenCandidate struct {
	Key       string `gorm:"primaryKey;size:128"`
	SeenAt    time.Time
}

// Journal is the local, dependency-free SQLite store backing crash
// recovery: bundle nonce counters, in-flight bundle tracking, and a
// recently-seen cache for liquidation candidates.
type Journal struct {
	db *gorm.DB
}

// OpenJournal opens (creating if absent) a SQLite journal at path.
func OpenJournal(path string) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&nonceRecord{}, &bundleRecord{}, &seenCandidate{}); err != nil {
		return nil, err
	}
	return &Journal{db: db}, nil
}

// NextNonce atomically increments and returns the next nonce for address,
// seeding from baseline if the address has never been tracked.
func (j *Journal) NextNonce(address string, baseline uint64) (uint64, error) {
	var next uint64
	err := j.db.Transaction(func(tx *gorm.DB) error {
		var rec nonceRecord
		err := tx.Where("address = ?", address).First(&rec).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			next = baseline
			rec = nonceRecord{Address: address, LastNonce: next, UpdatedAt: time.Now()}
			return tx.Create(&rec).Error
		case err != nil:
			return err
		}
		next = rec.LastNonce + 1
		if next < baseline {
			next = baseline
		}
		rec.LastNonce = next
		rec.UpdatedAt = time.Now()
		return tx.Save(&rec).Error
	})
	return next, err
}

// TrackBundle records a newly submitted bundle's target block and status.
func (j *Journal) TrackBundle(bundleID string, targetBlock uint64, status string) error {
	return j.db.Save(&bundleRecord{
		BundleID:    bundleID,
		TargetBlock: targetBlock,
		Status:      status,
		SubmittedAt: time.Now(),
	}).Error
}

// UpdateBundleStatus transitions a tracked bundle's status (e.g. to
// "included" or "timeout").
func (j *Journal) UpdateBundleStatus(bundleID, status string) error {
	return j.db.Model(&bundleRecord{}).Where("bundle_id = ?", bundleID).Update("status", status).Error
}

// InFlightBundles returns all bundles not yet resolved to a terminal status,
// used on startup to resume tracking after a restart.
func (j *Journal) InFlightBundles() ([]string, error) {
	var recs []bundleRecord
	if err := j.db.Where("status = ?", "pending").Find(&recs).Error; err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.BundleID)
	}
	return ids, nil
}

// MarkSeen records that a liquidation candidate key was just evaluated.
func (j *Journal) MarkSeen(key string) error {
	return j.db.Save(&seenCandidate{Key: key, SeenAt: time.Now()}).Error
}

// RecentlySeen reports whether key was marked seen within the window.
func (j *Journal) RecentlySeen(key string, window time.Duration) (bool, error) {
	var rec seenCandidate
	err := j.db.Where("key = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return time.Since(rec.SeenAt) < window, nil
}

// Close releases the underlying connection.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
