// Package cex implements authenticated REST clients for centralized
// exchanges used as cross-venue arbitrage comparison points, behind a
// shared ExchangeClient interface so the arbitrage strategy never imports
// an exchange-specific type.
package cex

import (
	"context"
	"time"

	"mevsearcher/priceoracle"
)

// ExchangeClient is the capability cross-venue arbitrage detection needs
// from a centralized exchange: a top-of-book snapshot for a symbol.
type ExchangeClient interface {
	Name() string
	OrderBook(ctx context.Context, symbol string) (priceoracle.OrderBook, error)
}

// rateLimit is the minimum spacing between requests any ExchangeClient in
// this package enforces, matching the conservative end of both exchanges'
// public rate-limit documentation.
const rateLimit = 100 * time.Millisecond
