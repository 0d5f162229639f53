package mempool

import (
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

func TestBoundedQueueDedup(t *testing.T) {
	q := newBoundedQueue(10, true)
	tx := newPendingTransaction(common.HexToHash("0x1"), nil, SourceWebsocket)
	if !q.push(tx) {
		t.Fatalf("expected first push to succeed")
	}
	if q.push(tx) {
		t.Fatalf("expected duplicate push to be rejected")
	}
	if q.len() != 1 {
		t.Fatalf("expected len 1, got %d", q.len())
	}
}

func TestBoundedQueueEvictsOldest(t *testing.T) {
	q := newBoundedQueue(2, false)
	h1 := common.HexToHash("0x1")
	h2 := common.HexToHash("0x2")
	h3 := common.HexToHash("0x3")
	q.push(newPendingTransaction(h1, nil, SourceWebsocket))
	q.push(newPendingTransaction(h2, nil, SourceWebsocket))
	q.push(newPendingTransaction(h3, nil, SourceWebsocket))

	if q.len() != 2 {
		t.Fatalf("expected capped len 2, got %d", q.len())
	}
	if q.contains(h1) {
		t.Fatalf("expected oldest entry to be evicted")
	}
	if !q.contains(h2) || !q.contains(h3) {
		t.Fatalf("expected newest two entries to survive eviction")
	}
}

func TestConfidenceForSources(t *testing.T) {
	cases := map[Source]float64{
		SourceWebsocket:    0.95,
		SourceHTTPPolling:  0.8,
		SourcePrivateRelay: 1.0,
		SourceP2P:          0.7,
	}
	for source, want := range cases {
		if got := confidenceFor(source); got != want {
			t.Fatalf("confidenceFor(%s) = %v, want %v", source, got, want)
		}
	}
}

func TestFilterMatchesIsConjunction(t *testing.T) {
	addr := common.HexToAddress("0xabc")
	f := Filter{
		Name: "big-transfer",
		Conditions: []Condition{
			ToAddress(addr),
			MinValue(big.NewInt(100)),
		},
	}

	match := TxFields{To: &addr, Value: big.NewInt(150)}
	if !f.Matches(match) {
		t.Fatalf("expected conjunction to match when both conditions hold")
	}

	tooSmall := TxFields{To: &addr, Value: big.NewInt(50)}
	if f.Matches(tooSmall) {
		t.Fatalf("expected conjunction to reject when value condition fails")
	}

	other := common.HexToAddress("0xdef")
	wrongTarget := TxFields{To: &other, Value: big.NewInt(150)}
	if f.Matches(wrongTarget) {
		t.Fatalf("expected conjunction to reject when address condition fails")
	}
}

func TestEmptyFilterMatchesEverything(t *testing.T) {
	f := Filter{Name: "catch-all"}
	if !f.Matches(TxFields{}) {
		t.Fatalf("expected empty condition set to match")
	}
}

func TestIngestorSubscribeReceivesAcceptedTransactions(t *testing.T) {
	ing := New(Config{MaxQueueSize: 10, Dedup: true}, nil)
	ch, cancel := ing.Subscribe()
	defer cancel()

	hash := common.HexToHash("0x1")
	ing.Accept(hash, nil, SourceWebsocket)

	select {
	case tx := <-ch:
		if tx.Hash != hash {
			t.Fatalf("expected hash %s, got %s", hash, tx.Hash)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for subscribed transaction")
	}
}

func TestIngestorDropsSlowSubscriberAfterOneFailedSend(t *testing.T) {
	ing := New(Config{MaxQueueSize: 100, Dedup: false}, nil)
	ch, _ := ing.Subscribe()

	for i := 0; i < subscriberBuffer+1; i++ {
		ing.Accept(common.BigToHash(big.NewInt(int64(i))), nil, SourceWebsocket)
	}

	if _, ok := <-ch; ok {
		for range ch {
		}
	}

	ing.subMu.Lock()
	n := len(ing.subscribers)
	ing.subMu.Unlock()
	if n != 0 {
		t.Fatalf("expected slow subscriber to be dropped, %d subscribers remain", n)
	}
}

func TestIngestorEmitsFilterMatches(t *testing.T) {
	addr := common.HexToAddress("0xabc")
	extract := func(raw json.RawMessage) (TxFields, bool) {
		return TxFields{To: &addr, Value: big.NewInt(500)}, true
	}
	ing := New(Config{MaxQueueSize: 10, Dedup: true}, extract)
	ing.AddFilter(Filter{Name: "whale", Conditions: []Condition{MinValue(big.NewInt(100))}})

	matches, cancel := ing.SubscribeMatches()
	defer cancel()

	ing.Accept(common.HexToHash("0x1"), nil, SourceWebsocket)

	select {
	case m := <-matches:
		if m.Name != "whale" {
			t.Fatalf("expected match name 'whale', got %q", m.Name)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for filter match")
	}
}

func TestConnectionStateDefaultsToDisconnected(t *testing.T) {
	ing := New(Config{}, nil)
	if got := ing.ConnectionState("unknown"); got != StateDisconnected {
		t.Fatalf("expected StateDisconnected for unknown connection, got %s", got)
	}
}
