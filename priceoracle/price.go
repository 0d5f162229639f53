// Package priceoracle resolves a reference price for a token across an
// on-chain Chainlink feed and off-chain fallbacks, and snapshots order books
// from centralized exchanges for cross-venue arbitrage comparisons.
package priceoracle

import (
	"time"

	"mevsearcher/searcherr"
)

const defaultStaleAfter = time.Hour

// Price is a single reference price observation for a token, expressed in
// USD with 8-decimal precision to match Chainlink's native feed format.
type Price struct {
	Token     string
	USD8      int64
	Source    string
	UpdatedAt time.Time
}

// IsStale reports whether the observation is older than maxAge (or the
// package default of 1 hour, matching Chainlind's staleness convention for
// an 8-decimal feed, if maxAge is zero).
func (p Price) IsStale(maxAge time.Duration) bool {
	if maxAge <= 0 {
		maxAge = defaultStaleAfter
	}
	return time.Since(p.UpdatedAt) > maxAge
}

// OrderBook is a top-of-book snapshot from one exchange for one symbol.
type OrderBook struct {
	Exchange    string
	Symbol      string
	Bid         float64
	Ask         float64
	BidSize     float64
	AskSize     float64
	CapturedAt  time.Time
}

const maxSnapshotAge = time.Second

// Validate enforces the invariant that a usable book always quotes ask at
// or above bid, and disqualifies a snapshot older than 1 second for
// micro-arbitrage sizing.
func (b OrderBook) Validate() error {
	if b.Ask < b.Bid {
		return searcherr.New(searcherr.InvalidInput, "order book ask below bid")
	}
	if time.Since(b.CapturedAt) > maxSnapshotAge {
		return searcherr.New(searcherr.InvalidInput, "order book snapshot stale")
	}
	return nil
}
