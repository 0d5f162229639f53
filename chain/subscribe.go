package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"mevsearcher/searcherr"
)

// Subscription is a live eth_subscribe stream. Notifications arrive as raw
// JSON on Updates; callers unmarshal into the type appropriate for the
// subscription kind they requested.
type Subscription struct {
	Updates <-chan json.RawMessage
	cancel  context.CancelFunc
}

// Close tears down the subscription's reader goroutine and underlying socket.
func (s *Subscription) Close() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// WSClient subscribes to a chain node's WebSocket endpoint. Each Subscribe
// call dials its own connection carrying a single eth_subscribe
// subscription; connections are not shared between subscriptions.
type WSClient struct {
	url    string
	nextID atomic.Int64
}

// NewWSClient constructs a WSClient targeting the node's WebSocket endpoint.
func NewWSClient(url string) *WSClient {
	return &WSClient{url: strings.TrimSpace(url)}
}

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      int64         `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type wsSubscribeResult struct {
	ID     int64  `json:"id"`
	Result string `json:"result"`
}

type wsNotification struct {
	Method string `json:"method"`
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// Subscribe opens a fresh connection and issues eth_subscribe for the given
// kind ("newHeads", "newPendingTransactions", "logs"), with optional extra
// params (e.g. a log filter object). The returned Subscription's Updates
// channel is closed when ctx is cancelled, the connection errors, or Close
// is called.
func (w *WSClient) Subscribe(ctx context.Context, kind string, extraParams ...interface{}) (*Subscription, error) {
	conn, _, err := websocket.Dial(ctx, w.url, nil)
	if err != nil {
		return nil, searcherr.Wrap(searcherr.ConnectionError, "dial chain websocket", err)
	}

	params := append([]interface{}{kind}, extraParams...)
	id := w.nextID.Add(1)
	if err := wsjson.Write(ctx, conn, wsRequest{JSONRPC: "2.0", ID: id, Method: "eth_subscribe", Params: params}); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe write failed")
		return nil, searcherr.Wrap(searcherr.ConnectionError, "send eth_subscribe", err)
	}

	var ack wsSubscribeResult
	if err := wsjson.Read(ctx, conn, &ack); err != nil {
		conn.Close(websocket.StatusInternalError, "subscribe ack failed")
		return nil, searcherr.Wrap(searcherr.ConnectionError, "read eth_subscribe ack", err)
	}
	subID := ack.Result

	subCtx, cancel := context.WithCancel(ctx)
	updates := make(chan json.RawMessage, 256)

	go func() {
		defer close(updates)
		defer conn.Close(websocket.StatusNormalClosure, "subscription closed")
		for {
			var note wsNotification
			if err := wsjson.Read(subCtx, conn, &note); err != nil {
				return
			}
			if note.Method != "eth_subscription" || note.Params.Subscription != subID {
				continue
			}
			select {
			case updates <- note.Params.Result:
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{Updates: updates, cancel: cancel}, nil
}

// SubscribeWithBackoff retries Subscribe with exponential backoff capped at
// maxAttempts, matching the mempool ingestor's reconnect policy for
// WebSocket connections.
func (w *WSClient) SubscribeWithBackoff(ctx context.Context, kind string, maxAttempts int, baseDelay time.Duration, extraParams ...interface{}) (*Subscription, error) {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		sub, err := w.Subscribe(ctx, kind, extraParams...)
		if err == nil {
			return sub, nil
		}
		lastErr = err
		if attempt == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(baseDelay << attempt):
		}
	}
	return nil, fmt.Errorf("chain: subscribe %s failed after %d attempts: %w", kind, maxAttempts, lastErr)
}
