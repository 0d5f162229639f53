package mempool

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/chain"
	"mevsearcher/observability"
	"mevsearcher/searcherr"
)

// ConnState is a connection's position in its reconnect state machine.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
	StateError        ConnState = "error"
)

const maxReconnectAttempts = 8

// Connection is one named mempool source running its own reader task and
// writing observed transactions into the ingestor's shared queue.
type Connection struct {
	Name   string
	Kind   Source
	mu     sync.RWMutex
	state  ConnState
	cancel context.CancelFunc
}

func newConnection(name string, kind Source) *Connection {
	return &Connection{Name: name, Kind: kind, state: StateDisconnected}
}

// State returns the connection's current reconnect-state-machine position.
func (c *Connection) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connection) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Close cancels the connection's reader task.
func (c *Connection) Close() {
	c.mu.RLock()
	cancel := c.cancel
	c.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
}

// runWebsocket dials a WebSocket mempool feed with exponential backoff and
// writes newPendingTransactions notifications into sink until ctx is done.
func (c *Connection) runWebsocket(ctx context.Context, ws *chain.WSClient, sink func(common.Hash, json.RawMessage, Source)) {
	connCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	c.setState(StateConnecting)
	sub, err := ws.SubscribeWithBackoff(connCtx, "newPendingTransactions", maxReconnectAttempts, time.Second)
	if err != nil {
		c.setState(StateError)
		return
	}
	defer sub.Close()
	c.setState(StateConnected)

	for {
		select {
		case <-connCtx.Done():
			c.setState(StateDisconnected)
			return
		case raw, ok := <-sub.Updates:
			if !ok {
				c.setState(StateDisconnected)
				observability.Mempool().RecordReconnect(string(c.Kind))
				return
			}
			var hashHex string
			if err := json.Unmarshal(raw, &hashHex); err != nil {
				observability.Mempool().RecordDecodeFailure("ws_notification")
				continue
			}
			sink(common.HexToHash(hashHex), raw, c.Kind)
		}
	}
}

// runHTTPPolling polls the chain node's pending-block transaction list on a
// fixed interval, writing any not-yet-seen hash into sink.
func (c *Connection) runHTTPPolling(ctx context.Context, client *chain.Client, interval time.Duration, sink func(common.Hash, json.RawMessage, Source)) {
	connCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.setState(StateConnected)
	for {
		select {
		case <-connCtx.Done():
			c.setState(StateDisconnected)
			return
		case <-ticker.C:
			blk, err := client.BlockByNumber(connCtx, "pending")
			if err != nil {
				if !searcherr.Is(err, searcherr.ConnectionError) {
					observability.Mempool().RecordDecodeFailure("http_poll")
					continue
				}
				c.setState(StateError)
				observability.Mempool().RecordReconnect(string(c.Kind))
				continue
			}
			c.setState(StateConnected)
			for _, hash := range blk.Transactions {
				raw, _ := json.Marshal(hash)
				sink(hash, raw, c.Kind)
			}
		}
	}
}

// runPrivateRelay mirrors runWebsocket against an authenticated relay
// firehose endpoint; distinguished only by its Source tag (fixed confidence
// 1.0), since the wire protocol is the same eth_subscribe-style stream.
func (c *Connection) runPrivateRelay(ctx context.Context, ws *chain.WSClient, sink func(common.Hash, json.RawMessage, Source)) {
	c.runWebsocket(ctx, ws, sink)
}
