// Package mempool ingests pending transactions from multiple chain-visible
// sources (public WebSocket/HTTP mempool feeds, P2P gossip, authenticated
// private relay firehoses), deduplicates them, applies subscriber filters,
// and fans out a confidence-scored stream.
package mempool

import (
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Source identifies which connection variant delivered a PendingTransaction,
// and fixes the confidence score assigned to it.
type Source string

const (
	SourceWebsocket    Source = "websocket"
	SourceHTTPPolling  Source = "http_polling"
	SourceP2P          Source = "p2p"
	SourcePrivateRelay Source = "private_relay"
)

// confidenceFor returns the fixed confidence score for a source, per the
// ingestor's contract: 0.95 for WebSocket, 0.8 for HTTP polling, 1.0 for
// private relays (authenticated firehoses), and a conservative 0.7 default
// for P2P gossip which carries no delivery guarantee.
func confidenceFor(source Source) float64 {
	switch source {
	case SourceWebsocket:
		return 0.95
	case SourceHTTPPolling:
		return 0.8
	case SourcePrivateRelay:
		return 1.0
	case SourceP2P:
		return 0.7
	default:
		return 0.5
	}
}

// PendingTransaction is the ingestor's uniform output: a raw transaction
// observed in the mempool, tagged with provenance and confidence.
type PendingTransaction struct {
	Hash            common.Hash
	Raw             json.RawMessage
	ReceivedAt      time.Time
	Source          Source
	ConfidenceScore float64
	IsPrivate       bool
}

func newPendingTransaction(hash common.Hash, raw json.RawMessage, source Source) PendingTransaction {
	return PendingTransaction{
		Hash:            hash,
		Raw:             raw,
		ReceivedAt:      time.Now(),
		Source:          source,
		ConfidenceScore: confidenceFor(source),
		IsPrivate:       source == SourcePrivateRelay,
	}
}
