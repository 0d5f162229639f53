package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/bundle"
	"mevsearcher/chain"
	"mevsearcher/observability"
)

const maxInclusionWindowBlocks = 2

// journal is the subset of storage.Journal inclusion tracking needs.
type journal interface {
	TrackBundle(bundleID string, targetBlock uint64, status string) error
	UpdateBundleStatus(bundleID, status string) error
}

// Tracker polls a chain node for a submitted bundle's on-chain inclusion
// within its target block window, [target_block, target_block+2].
type Tracker struct {
	client  *chain.Client
	journal journal
}

// NewTracker constructs a Tracker.
func NewTracker(client *chain.Client, j journal) *Tracker {
	return &Tracker{client: client, journal: j}
}

// Track records b as submitted and polls until it is found included, its
// window expires, or ctx is cancelled.
func (t *Tracker) Track(ctx context.Context, b *bundle.Bundle, pollInterval time.Duration) (Status, error) {
	bundleID := b.ID.Hex()
	if err := t.journal.TrackBundle(bundleID, b.TargetBlock, string(Submitted)); err != nil {
		return Rejected, err
	}

	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	expectedHashes := make([]common.Hash, len(b.Transactions))
	for i, tx := range b.Transactions {
		expectedHashes[i] = tx.Hash
	}

	for {
		select {
		case <-ctx.Done():
			return Submitted, ctx.Err()
		case <-ticker.C:
			current, err := t.client.BlockNumber(ctx)
			if err != nil {
				continue
			}
			if current > b.TargetBlock+maxInclusionWindowBlocks {
				_ = t.journal.UpdateBundleStatus(bundleID, string(Timeout))
				observability.Relay().RecordTimeout()
				return Timeout, nil
			}

			for blockNum := b.TargetBlock; blockNum <= b.TargetBlock+maxInclusionWindowBlocks && blockNum <= current; blockNum++ {
				blk, err := t.client.BlockByNumber(ctx, fmt.Sprintf("0x%x", blockNum))
				if err != nil {
					continue
				}
				if containsContiguousSubsequence(blk.Transactions, expectedHashes) {
					_ = t.journal.UpdateBundleStatus(bundleID, string(Included))
					return Included, nil
				}
			}
		}
	}
}

// containsContiguousSubsequence reports whether needle appears in
// haystack as a contiguous, order-preserving run — the inclusion
// confirmation invariant: a bundle is only "included" if the relay/builder
// kept its transactions adjacent and in the submitted order.
func containsContiguousSubsequence(haystack, needle []common.Hash) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for start := 0; start+len(needle) <= len(haystack); start++ {
		match := true
		for i, hash := range needle {
			if haystack[start+i] != hash {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
