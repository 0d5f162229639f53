package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mevsearcher/priceoracle"
	"mevsearcher/priceoracle/cex"
)

const snapshotPollInterval = 500 * time.Millisecond

// venueSnapshots polls a set of CEX clients on a fixed interval and caches
// each venue/symbol's latest OrderBook, satisfying the arbitrage detector's
// sub-second freshness requirement without hitting the exchange REST API
// on every pending-transaction fan-out.
type venueSnapshots struct {
	mu      sync.RWMutex
	clients map[string]cex.ExchangeClient
	symbols []string
	books   map[string]priceoracle.OrderBook
	logger  *slog.Logger
}

func newVenueSnapshots(clients map[string]cex.ExchangeClient, symbols []string, logger *slog.Logger) *venueSnapshots {
	return &venueSnapshots{
		clients: clients,
		symbols: symbols,
		books:   make(map[string]priceoracle.OrderBook),
		logger:  logger,
	}
}

func snapshotKey(venue, symbol string) string { return venue + ":" + symbol }

// Snapshot implements the arbitrage detector's snapshotSource.
func (v *venueSnapshots) Snapshot(venue, symbol string) (priceoracle.OrderBook, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	book, ok := v.books[snapshotKey(venue, symbol)]
	return book, ok
}

// Run polls every configured venue/symbol pair until ctx is cancelled.
func (v *venueSnapshots) Run(ctx context.Context) {
	ticker := time.NewTicker(snapshotPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.pollOnce(ctx)
		}
	}
}

func (v *venueSnapshots) pollOnce(ctx context.Context) {
	for venue, client := range v.clients {
		for _, symbol := range v.symbols {
			book, err := client.OrderBook(ctx, symbol)
			if err != nil {
				if v.logger != nil {
					v.logger.Warn("venue snapshot poll failed", slog.String("venue", venue), slog.String("symbol", symbol), slog.Any("error", err))
				}
				continue
			}
			v.mu.Lock()
			v.books[snapshotKey(venue, symbol)] = book
			v.mu.Unlock()
		}
	}
}
