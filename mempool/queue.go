package mempool

import (
	"container/list"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"mevsearcher/observability"
)

// boundedQueue is the ingestor's shared buffer: single set of producer
// connections writing in, multiple consumer subscribers reading out.
// Overflow evicts the oldest entry (LRU by insertion order); a hash already
// present is dropped rather than re-queued when dedup is enabled.
type boundedQueue struct {
	mu       sync.Mutex
	maxSize  int
	dedup    bool
	order    *list.List
	elements map[common.Hash]*list.Element
}

func newBoundedQueue(maxSize int, dedup bool) *boundedQueue {
	if maxSize <= 0 {
		maxSize = 10000
	}
	return &boundedQueue{
		maxSize:  maxSize,
		dedup:    dedup,
		order:    list.New(),
		elements: make(map[common.Hash]*list.Element),
	}
}

// push appends tx, evicting the oldest entry if the queue is at capacity.
// Returns false without modifying the queue if dedup is enabled and tx's
// hash is already present.
func (q *boundedQueue) push(tx PendingTransaction) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.dedup {
		if _, exists := q.elements[tx.Hash]; exists {
			observability.Mempool().RecordDuplicate()
			return false
		}
	}

	if q.order.Len() >= q.maxSize {
		oldest := q.order.Front()
		if oldest != nil {
			evicted := oldest.Value.(PendingTransaction)
			delete(q.elements, evicted.Hash)
			q.order.Remove(oldest)
		}
	}

	elem := q.order.PushBack(tx)
	q.elements[tx.Hash] = elem
	observability.Mempool().SetQueueDepth(q.order.Len())
	return true
}

// len reports the current queue depth.
func (q *boundedQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order.Len()
}

// contains reports whether hash is currently buffered.
func (q *boundedQueue) contains(hash common.Hash) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.elements[hash]
	return ok
}
