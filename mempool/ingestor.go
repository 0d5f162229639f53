package mempool

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/chain"
)

const subscriberBuffer = 256

// FieldsExtractor decodes a raw pending-transaction payload into the field
// subset Filters condition on. The ingestor treats a false return as
// "fields unavailable" and skips filter evaluation for that transaction
// rather than matching (or failing) spuriously.
type FieldsExtractor func(raw json.RawMessage) (TxFields, bool)

// Ingestor is the mempool's central fan-in/fan-out point: connections write
// observed transactions in, subscribers and filters consume them out.
type Ingestor struct {
	queue   *boundedQueue
	extract FieldsExtractor

	connMu      sync.Mutex
	connections map[string]*Connection

	subMu       sync.Mutex
	nextSubID   int
	subscribers map[int]chan PendingTransaction

	filterMu  sync.Mutex
	filters   []Filter
	matchSubs map[int]chan FilterMatch
	nextMatch int
}

// Config controls queue sizing and dedup behavior.
type Config struct {
	MaxQueueSize int
	Dedup        bool
}

// New constructs an Ingestor with an empty connection set.
func New(cfg Config, extract FieldsExtractor) *Ingestor {
	return &Ingestor{
		queue:       newBoundedQueue(cfg.MaxQueueSize, cfg.Dedup),
		extract:     extract,
		connections: make(map[string]*Connection),
		subscribers: make(map[int]chan PendingTransaction),
		matchSubs:   make(map[int]chan FilterMatch),
	}
}

// Subscribe returns a channel of every accepted PendingTransaction. The
// channel is buffered; a subscriber that falls behind and fails one
// non-blocking send is unsubscribed and its channel closed.
func (ing *Ingestor) Subscribe() (<-chan PendingTransaction, func()) {
	ing.subMu.Lock()
	defer ing.subMu.Unlock()
	id := ing.nextSubID
	ing.nextSubID++
	ch := make(chan PendingTransaction, subscriberBuffer)
	ing.subscribers[id] = ch
	cancel := func() {
		ing.subMu.Lock()
		defer ing.subMu.Unlock()
		if existing, ok := ing.subscribers[id]; ok {
			delete(ing.subscribers, id)
			close(existing)
		}
	}
	return ch, cancel
}

// SubscribeMatches returns a channel of FilterMatch events for every
// currently registered filter.
func (ing *Ingestor) SubscribeMatches() (<-chan FilterMatch, func()) {
	ing.filterMu.Lock()
	defer ing.filterMu.Unlock()
	id := ing.nextMatch
	ing.nextMatch++
	ch := make(chan FilterMatch, subscriberBuffer)
	ing.matchSubs[id] = ch
	cancel := func() {
		ing.filterMu.Lock()
		defer ing.filterMu.Unlock()
		if existing, ok := ing.matchSubs[id]; ok {
			delete(ing.matchSubs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// AddFilter registers a named conjunction filter, evaluated against every
// future accepted transaction.
func (ing *Ingestor) AddFilter(f Filter) {
	ing.filterMu.Lock()
	defer ing.filterMu.Unlock()
	ing.filters = append(ing.filters, f)
}

// QueueDepth reports the current backlog size.
func (ing *Ingestor) QueueDepth() int { return ing.queue.len() }

// ConnectionState reports the named connection's reconnect-state-machine
// position, or StateDisconnected if no such connection exists.
func (ing *Ingestor) ConnectionState(name string) ConnState {
	ing.connMu.Lock()
	defer ing.connMu.Unlock()
	if c, ok := ing.connections[name]; ok {
		return c.State()
	}
	return StateDisconnected
}

func (ing *Ingestor) register(name string, kind Source) *Connection {
	ing.connMu.Lock()
	defer ing.connMu.Unlock()
	c := newConnection(name, kind)
	ing.connections[name] = c
	return c
}

// AddWebsocket starts a named WebSocket connection feeding into the ingestor.
func (ing *Ingestor) AddWebsocket(ctx context.Context, name string, ws *chain.WSClient) {
	c := ing.register(name, SourceWebsocket)
	go c.runWebsocket(ctx, ws, ing.accept)
}

// AddHTTPPolling starts a named HTTP-polling connection feeding into the ingestor.
func (ing *Ingestor) AddHTTPPolling(ctx context.Context, name string, client *chain.Client, interval time.Duration) {
	c := ing.register(name, SourceHTTPPolling)
	go c.runHTTPPolling(ctx, client, interval, ing.accept)
}

// AddPrivateRelay starts a named private-relay firehose connection feeding
// into the ingestor at fixed confidence 1.0.
func (ing *Ingestor) AddPrivateRelay(ctx context.Context, name string, ws *chain.WSClient) {
	c := ing.register(name, SourcePrivateRelay)
	go c.runPrivateRelay(ctx, ws, ing.accept)
}

// AddP2P registers a named connection fed by an externally maintained
// PeerList (see RunDiscovery); the caller pushes observed hashes via Accept
// once peers come online, since the P2P gossip wire protocol is out of
// scope for this adapter.
func (ing *Ingestor) AddP2P(name string) *Connection {
	c := ing.register(name, SourceP2P)
	c.setState(StateConnected)
	return c
}

// Accept feeds a transaction observed on a P2P connection into the shared
// pipeline, exactly as the WebSocket/HTTP-polling connections do internally.
func (ing *Ingestor) Accept(hash common.Hash, raw json.RawMessage, source Source) {
	ing.accept(hash, raw, source)
}

func (ing *Ingestor) accept(hash common.Hash, raw json.RawMessage, source Source) {
	tx := newPendingTransaction(hash, raw, source)
	if !ing.queue.push(tx) {
		return
	}

	ing.subMu.Lock()
	for id, ch := range ing.subscribers {
		select {
		case ch <- tx:
		default:
			delete(ing.subscribers, id)
			close(ch)
		}
	}
	ing.subMu.Unlock()

	if ing.extract == nil {
		return
	}
	fields, ok := ing.extract(raw)
	if !ok {
		return
	}
	ing.filterMu.Lock()
	matched := make([]string, 0, len(ing.filters))
	for _, f := range ing.filters {
		if f.Matches(fields) {
			matched = append(matched, f.Name)
		}
	}
	ing.filterMu.Unlock()
	if len(matched) == 0 {
		return
	}

	ing.filterMu.Lock()
	for _, name := range matched {
		for id, ch := range ing.matchSubs {
			select {
			case ch <- FilterMatch{Name: name, Tx: tx}:
			default:
				delete(ing.matchSubs, id)
				close(ch)
			}
		}
	}
	ing.filterMu.Unlock()
}

// Close tears down every registered connection.
func (ing *Ingestor) Close() {
	ing.connMu.Lock()
	defer ing.connMu.Unlock()
	for _, c := range ing.connections {
		c.Close()
	}
}
