// Package strategy fans a pending transaction out to every enabled
// detector concurrently, collects the opportunities each produces, and
// tracks per-strategy throughput and latency.
package strategy

import (
	"context"

	"mevsearcher/bundle"
	"mevsearcher/mempool"
	"mevsearcher/opportunity"
)

// Detector is one opportunity-detection strategy (sandwich, liquidation,
// cross-venue arbitrage, ...). Implementations must be safe for concurrent
// use: Analyze is called from multiple goroutines, one per pending
// transaction, potentially overlapping in time.
type Detector interface {
	Name() string
	Analyze(ctx context.Context, tx mempool.PendingTransaction, fields mempool.TxFields) ([]*opportunity.Opportunity, error)
	Validate(opp *opportunity.Opportunity) bool
	BuildBundle(ctx context.Context, opp *opportunity.Opportunity, targetBlock uint64) (*bundle.Bundle, error)
}
